/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    openaiadapter "github.com/HamedShams/impact-pipeline/internal/adapters/openai"
    "github.com/HamedShams/impact-pipeline/internal/config"
    httpapi "github.com/HamedShams/impact-pipeline/internal/http"
    "github.com/HamedShams/impact-pipeline/internal/jobs"
    "github.com/HamedShams/impact-pipeline/internal/logger"
    "github.com/HamedShams/impact-pipeline/internal/repo"
    "github.com/HamedShams/impact-pipeline/internal/services"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    // DB
    db := repo.MustOpen(ctx, cfg, log)
    defer db.Close()
    repository := repo.NewRepository(db, log)

    // Adapters
    llm := openaiadapter.NewClient(cfg, log)

    // Services; a keyless LLM client degrades to the plain-text summary
    svc := services.New(log, repository, llm, cfg.FieldMappings, cfg.OutputDir)

    // HTTP server (Gin)
    router := httpapi.NewRouter(cfg, log, svc, repository)

    // Cron
    cron := jobs.NewCron(cfg, log, svc, repository)
    cron.Start()
    defer cron.Stop()

    errCh := make(chan error, 1)
    go func() { errCh <- router.Run(cfg.HTTPAddr) }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil { log.Error().Err(err).Msg("http server error") }
    }

    time.Sleep(500 * time.Millisecond)
}

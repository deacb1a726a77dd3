/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "context"
    "net/http"

    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"

    "github.com/HamedShams/impact-pipeline/internal/config"
    "github.com/HamedShams/impact-pipeline/internal/repo"
    "github.com/HamedShams/impact-pipeline/internal/services"
)

type service interface {
    ProcessJob(ctx context.Context, dir string) (*services.JobReport, error)
    LastReport() *services.JobReport
}

// runStore is optional; without a DB last-run falls back to the in-memory report.
type runStore interface {
    GetLastRun(ctx context.Context) (*repo.LastRun, error)
}

type Handlers struct {
    cfg   config.Config
    log   zerolog.Logger
    svc   service
    store runStore
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc service, store runStore) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc, store: store}
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) authorized(c *gin.Context) bool {
    if h.cfg.AdminToken == "" { return true }
    if c.GetHeader("X-Admin-Token") == h.cfg.AdminToken { return true }
    c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
    return false
}

func (h *Handlers) RunNow(c *gin.Context) {
    if !h.authorized(c) { return }
    // Run detached from the HTTP request to avoid context cancellation
    go func() {
        if _, err := h.svc.ProcessJob(context.Background(), h.cfg.InboxDir); err != nil {
            h.log.Error().Err(err).Msg("on-demand job failed")
        }
    }()
    c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (h *Handlers) LastRun(c *gin.Context) {
    if !h.authorized(c) { return }
    if h.store != nil {
        if lr, err := h.store.GetLastRun(c.Request.Context()); err == nil {
            c.JSON(http.StatusOK, lr)
            return
        }
    }
    if r := h.svc.LastReport(); r != nil {
        c.JSON(http.StatusOK, r)
        return
    }
    c.JSON(http.StatusNotFound, gin.H{"error": "no run recorded"})
}

func (h *Handlers) ValidationReport(c *gin.Context) {
    if !h.authorized(c) { return }
    r := h.svc.LastReport()
    if r == nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "no run recorded"})
        return
    }
    c.JSON(http.StatusOK, gin.H{
        "status":              r.Status,
        "relationship_errors": r.RelationshipErrors,
        "errors":              r.Errors,
        "warnings":            r.Warnings,
    })
}

func (h *Handlers) Graph(c *gin.Context) {
    if !h.authorized(c) { return }
    r := h.svc.LastReport()
    if r == nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "no run recorded"})
        return
    }
    c.JSON(http.StatusOK, r.Graph)
}

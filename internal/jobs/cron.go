package jobs

import (
    "context"
    "time"

    "github.com/robfig/cron/v3"
    "github.com/rs/zerolog"

    "github.com/HamedShams/impact-pipeline/internal/config"
    "github.com/HamedShams/impact-pipeline/internal/repo"
    "github.com/HamedShams/impact-pipeline/internal/services"
)

type service interface {
    ProcessJob(ctx context.Context, dir string) (*services.JobReport, error)
}

type Cron struct {
    cfg  config.Config
    log  zerolog.Logger
    svc  service
    repo *repo.Repository
    c    *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service, r *repo.Repository) *Cron {
    loc, _ := time.LoadLocation(cfg.TZ)
    c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
    cr := &Cron{cfg: cfg, log: log, svc: svc, repo: r, c: c}
    _, _ = c.AddFunc(cfg.PipelineCron, cr.run)
    return cr
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

func (cr *Cron) run() {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute); defer cancel()
    const lockKey int64 = 727272
    if cr.repo != nil {
        ok, err := cr.repo.TryAdvisoryLock(ctx, lockKey)
        if err != nil { cr.log.Error().Err(err).Msg("cron: lock error"); return }
        if !ok { cr.log.Info().Msg("cron: already running elsewhere"); return }
        defer func() { _ = cr.repo.AdvisoryUnlock(context.Background(), lockKey) }()
    }
    cr.log.Info().Str("inbox", cr.cfg.InboxDir).Msg("cron: inbox sweep")
    if _, err := cr.svc.ProcessJob(ctx, cr.cfg.InboxDir); err != nil {
        cr.log.Error().Err(err).Msg("cron: pipeline run failed")
    }
}

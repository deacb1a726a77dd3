package repo

import (
    "context"
    "errors"
    "time"

    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"

    "github.com/HamedShams/impact-pipeline/internal/config"
    "github.com/HamedShams/impact-pipeline/internal/domain"
)

type DB struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
    pool, err := pgxpool.New(ctx, cfg.DBDSN)
    if err != nil { log.Fatal().Err(err).Msg("db connect failed") }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second); defer cancel()
    if err := pool.Ping(ctx2); err != nil { log.Fatal().Err(err).Msg("db ping failed") }
    return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
    db  *DB
    log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
    return ok, err
}

func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
    if !ok && err == nil { return errors.New("advisory unlock returned false") }
    return err
}

func (r *Repository) InsertEpics(ctx context.Context, epics []*domain.Epic) error {
    if len(epics) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `INSERT INTO epics(epic_id, epic_name, requirement_id, ticket_id, description,
            status, priority, owner_email, team, start_date, target_date, created_at, updated_at)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        ON CONFLICT(epic_id) DO UPDATE SET
            epic_name=EXCLUDED.epic_name,
            requirement_id=EXCLUDED.requirement_id,
            ticket_id=EXCLUDED.ticket_id,
            description=EXCLUDED.description,
            status=EXCLUDED.status,
            priority=EXCLUDED.priority,
            owner_email=EXCLUDED.owner_email,
            team=EXCLUDED.team,
            start_date=EXCLUDED.start_date,
            target_date=EXCLUDED.target_date,
            updated_at=EXCLUDED.updated_at`
    for _, e := range epics {
        batch.Queue(q, e.EpicID, e.EpicName, e.RequirementID, e.TicketID, e.Description,
            e.Status, e.Priority, e.OwnerEmail, e.Team, e.StartDate, e.TargetDate, e.CreatedAt, e.UpdatedAt)
    }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range epics { if _, err := br.Exec(); err != nil { return err } }
    return nil
}

func (r *Repository) InsertEstimations(ctx context.Context, ests []*domain.Estimation) error {
    if len(ests) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `INSERT INTO estimations(dev_est_id, epic_id, module_id, task_description, complexity,
            dev_effort_hours, qa_effort_hours, total_effort_hours, story_points, risk,
            estimation_method, confidence, estimator_email, estimation_date, additional_params)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        ON CONFLICT(dev_est_id) DO UPDATE SET
            epic_id=EXCLUDED.epic_id,
            module_id=EXCLUDED.module_id,
            task_description=EXCLUDED.task_description,
            complexity=EXCLUDED.complexity,
            dev_effort_hours=EXCLUDED.dev_effort_hours,
            qa_effort_hours=EXCLUDED.qa_effort_hours,
            total_effort_hours=EXCLUDED.total_effort_hours,
            story_points=EXCLUDED.story_points,
            risk=EXCLUDED.risk,
            estimation_method=EXCLUDED.estimation_method,
            confidence=EXCLUDED.confidence,
            estimator_email=EXCLUDED.estimator_email,
            estimation_date=EXCLUDED.estimation_date,
            additional_params=EXCLUDED.additional_params`
    for _, e := range ests {
        batch.Queue(q, e.DevEstID, e.EpicID, e.ModuleID, e.TaskDescription, e.Complexity,
            e.DevEffortHours, e.QAEffortHours, e.TotalEffortHours, e.StoryPoints, e.Risk,
            e.EstimationMethod, e.Confidence, e.EstimatorEmail, e.EstimationDate, e.AdditionalParams)
    }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range ests { if _, err := br.Exec(); err != nil { return err } }
    return nil
}

func (r *Repository) InsertTDDs(ctx context.Context, tdds []*domain.TDD) error {
    if len(tdds) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `INSERT INTO tdds(tdd_id, epic_id, dev_est_id, tdd_name, description, version,
            status, author_email, technical_components, design_decisions, dependencies,
            architecture_pattern, security_considerations, performance_requirements, created_at, updated_at)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        ON CONFLICT(tdd_id) DO UPDATE SET
            epic_id=EXCLUDED.epic_id,
            dev_est_id=EXCLUDED.dev_est_id,
            tdd_name=EXCLUDED.tdd_name,
            description=EXCLUDED.description,
            version=EXCLUDED.version,
            status=EXCLUDED.status,
            author_email=EXCLUDED.author_email,
            technical_components=EXCLUDED.technical_components,
            design_decisions=EXCLUDED.design_decisions,
            dependencies=EXCLUDED.dependencies,
            architecture_pattern=EXCLUDED.architecture_pattern,
            security_considerations=EXCLUDED.security_considerations,
            performance_requirements=EXCLUDED.performance_requirements,
            updated_at=EXCLUDED.updated_at`
    for _, t := range tdds {
        batch.Queue(q, t.TDDID, t.EpicID, t.DevEstID, t.TDDName, t.Description, t.Version,
            t.Status, t.AuthorEmail, t.TechnicalComponents, t.DesignDecisions, t.Dependencies,
            t.ArchitecturePattern, t.SecurityConsiderations, t.PerformanceRequirements, t.CreatedAt, t.UpdatedAt)
    }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range tdds { if _, err := br.Exec(); err != nil { return err } }
    return nil
}

func (r *Repository) InsertStories(ctx context.Context, stories []*domain.Story) error {
    if len(stories) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `INSERT INTO stories(jira_story_id, dev_est_id, epic_id, tdd_id, issue_type, summary,
            description, assignee_email, status, story_points, sprint, priority, labels,
            acceptance_criteria, created_date, updated_date, additional_params)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        ON CONFLICT(jira_story_id) DO UPDATE SET
            dev_est_id=EXCLUDED.dev_est_id,
            epic_id=EXCLUDED.epic_id,
            tdd_id=EXCLUDED.tdd_id,
            issue_type=EXCLUDED.issue_type,
            summary=EXCLUDED.summary,
            description=EXCLUDED.description,
            assignee_email=EXCLUDED.assignee_email,
            status=EXCLUDED.status,
            story_points=EXCLUDED.story_points,
            sprint=EXCLUDED.sprint,
            priority=EXCLUDED.priority,
            labels=EXCLUDED.labels,
            acceptance_criteria=EXCLUDED.acceptance_criteria,
            created_date=EXCLUDED.created_date,
            updated_date=EXCLUDED.updated_date,
            additional_params=EXCLUDED.additional_params`
    for _, s := range stories {
        batch.Queue(q, s.JiraStoryID, s.DevEstID, s.EpicID, s.TDDID, s.IssueType, s.Summary,
            s.Description, s.AssigneeEmail, s.Status, s.StoryPoints, s.Sprint, s.Priority, s.Labels,
            s.AcceptanceCriteria, s.CreatedDate, s.UpdatedDate, s.AdditionalParams)
    }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range stories { if _, err := br.Exec(); err != nil { return err } }
    return nil
}

// Job runs
func (r *Repository) StartJobRun(ctx context.Context, kind string) (int64, error) {
    const q = `INSERT INTO job_runs(started_at, kind, status) VALUES(now(), $1, 'running') RETURNING id`
    var id int64
    if err := r.db.Pool.QueryRow(ctx, q, kind).Scan(&id); err != nil { return 0, err }
    return id, nil
}

func (r *Repository) FinishJobRun(ctx context.Context, id int64, status, summary string, counts map[string]int) error {
    const q = `UPDATE job_runs SET finished_at=now(), status=$2, summary=$3,
        epics=$4, estimations=$5, tdds=$6, stories=$7 WHERE id=$1`
    _, err := r.db.Pool.Exec(ctx, q, id, status, summary,
        counts["epics"], counts["estimations"], counts["tdds"], counts["stories"])
    return err
}

type LastRun struct {
    StartedAt   time.Time  `json:"started_at"`
    FinishedAt  *time.Time `json:"finished_at"`
    Kind        string     `json:"kind"`
    Status      string     `json:"status"`
    Summary     string     `json:"summary"`
    Epics       int        `json:"epics"`
    Estimations int        `json:"estimations"`
    TDDs        int        `json:"tdds"`
    Stories     int        `json:"stories"`
}

func (r *Repository) GetLastRun(ctx context.Context) (*LastRun, error) {
    const q = `SELECT started_at, finished_at, coalesce(kind,''), coalesce(status,''), coalesce(summary,''),
        coalesce(epics,0), coalesce(estimations,0), coalesce(tdds,0), coalesce(stories,0)
        FROM job_runs ORDER BY id DESC LIMIT 1`
    row := r.db.Pool.QueryRow(ctx, q)
    lr := &LastRun{}
    if err := row.Scan(&lr.StartedAt, &lr.FinishedAt, &lr.Kind, &lr.Status, &lr.Summary,
        &lr.Epics, &lr.Estimations, &lr.TDDs, &lr.Stories); err != nil {
        return nil, err
    }
    return lr, nil
}

/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package services orchestrates one document-processing job end to end:
// classify inbox files, extract, transform in dependency order, validate the
// relationship graph and export the result tables.
package services

import (
    "context"
    "fmt"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/rs/zerolog"

    "github.com/HamedShams/impact-pipeline/internal/domain"
    "github.com/HamedShams/impact-pipeline/internal/export"
    "github.com/HamedShams/impact-pipeline/internal/extract"
    "github.com/HamedShams/impact-pipeline/internal/idgen"
    "github.com/HamedShams/impact-pipeline/internal/relationship"
    "github.com/HamedShams/impact-pipeline/internal/transform"
)

// store is the persistence surface the service needs; *repo.Postgres
// satisfies it. Nil store means run without persistence.
type store interface {
    StartJobRun(ctx context.Context, kind string) (int64, error)
    FinishJobRun(ctx context.Context, id int64, status, summary string, counts map[string]int) error
    InsertEpics(ctx context.Context, epics []*domain.Epic) error
    InsertEstimations(ctx context.Context, ests []*domain.Estimation) error
    InsertTDDs(ctx context.Context, tdds []*domain.TDD) error
    InsertStories(ctx context.Context, stories []*domain.Story) error
}

// llm produces the optional human-readable run summary.
type llm interface {
    Generate(ctx context.Context, system, user string) (string, error)
}

type Service struct {
    log      zerolog.Logger
    store    store
    llm      llm
    mappings map[string]domain.FieldMapping
    outDir   string

    mu   sync.Mutex
    last *JobReport
}

// JobReport is what one ProcessJob run leaves behind.
type JobReport struct {
    StartedAt          time.Time                  `json:"started_at"`
    FinishedAt         time.Time                  `json:"finished_at"`
    Status             string                     `json:"status"`
    Files              []string                   `json:"files"`
    Counts             map[string]int             `json:"counts"`
    Warnings           []string                   `json:"warnings"`
    Errors             []string                   `json:"errors"`
    RelationshipErrors []domain.RelationshipError `json:"relationship_errors"`
    Graph              domain.GraphExport         `json:"graph"`
    OutputFiles        []string                   `json:"output_files"`
    Summary            string                     `json:"summary,omitempty"`
}

func New(log zerolog.Logger, st store, l llm, mappings map[string]domain.FieldMapping, outDir string) *Service {
    if mappings == nil { mappings = map[string]domain.FieldMapping{} }
    return &Service{log: log, store: st, llm: l, mappings: mappings, outDir: outDir}
}

// LastReport returns the most recent run's report, nil before the first run.
func (s *Service) LastReport() *JobReport {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.last
}

// ProcessJob runs the full pipeline over every supported file in dir. Each
// job gets a fresh id generator and relationship manager so runs never bleed
// into each other.
func (s *Service) ProcessJob(ctx context.Context, dir string) (*JobReport, error) {
    started := time.Now().UTC()
    report := &JobReport{StartedAt: started, Counts: map[string]int{}, Status: "running"}

    byType, err := s.classify(dir)
    if err != nil { return nil, err }
    if len(byType["estimation"]) == 0 {
        return nil, fmt.Errorf("services: no estimation file in %s; at least one is required", dir)
    }
    for _, files := range byType { report.Files = append(report.Files, files...) }
    sort.Strings(report.Files)

    var runID int64
    if s.store != nil {
        runID, err = s.store.StartJobRun(ctx, "pipeline")
        if err != nil { s.log.Warn().Err(err).Msg("start job run not persisted") }
    }

    ids := idgen.New()
    rels := relationship.NewManager()
    factory := extract.NewFactory()

    var (
        epics  []*domain.Epic
        ests   []*domain.Estimation
        tdds   []*domain.TDD
        stories []*domain.Story
    )

    // dependency order: parents must be registered before children resolve
    epicT := transform.NewEpicTransformer(ids, rels, s.mappings["epic"])
    for _, f := range byType["epic"] {
        d, err := s.extractFile(factory, f, report)
        if err != nil { continue }
        res := epicT.Transform(d)
        s.collect(report, f, res)
        if e, ok := res.Entity.(*domain.Epic); ok && res.Success { epics = append(epics, e) }
    }

    estT := transform.NewEstimationTransformer(ids, rels, s.mappings["estimation"])
    for i, f := range byType["estimation"] {
        d, err := s.extractFile(factory, f, report)
        if err != nil { continue }
        res := estT.Transform(d, i)
        s.collect(report, f, res)
        if es, ok := res.Entity.([]*domain.Estimation); ok { ests = append(ests, es...) }
    }

    tddT := transform.NewTDDTransformer(ids, rels, s.mappings["tdd"])
    for i, f := range byType["tdd"] {
        d, err := s.extractFile(factory, f, report)
        if err != nil { continue }
        res := tddT.Transform(d, i)
        s.collect(report, f, res)
        if td, ok := res.Entity.(*domain.TDD); ok && res.Success { tdds = append(tdds, td) }
    }

    storyT := transform.NewStoryTransformer(ids, rels, s.mappings["story"])
    for i, f := range byType["story"] {
        d, err := s.extractFile(factory, f, report)
        if err != nil { continue }
        res := storyT.Transform(d, i)
        s.collect(report, f, res)
        if st, ok := res.Entity.([]*domain.Story); ok { stories = append(stories, st...) }
    }

    report.RelationshipErrors = rels.ValidateAll()
    report.Graph = rels.ExportGraph()
    report.Counts["epics"] = len(epics)
    report.Counts["estimations"] = len(ests)
    report.Counts["tdds"] = len(tdds)
    report.Counts["stories"] = len(stories)

    w := export.NewWriter(s.outDir)
    for _, write := range []func() (string, error){
        func() (string, error) { return w.WriteEpics(epics) },
        func() (string, error) { return w.WriteEstimations(ests) },
        func() (string, error) { return w.WriteTDDs(tdds) },
        func() (string, error) { return w.WriteStories(stories) },
        func() (string, error) { return w.WriteGraph(report.Graph) },
    } {
        p, err := write()
        if err != nil {
            report.Errors = append(report.Errors, err.Error())
            continue
        }
        report.OutputFiles = append(report.OutputFiles, p)
    }

    if s.store != nil {
        if err := s.store.InsertEpics(ctx, epics); err != nil { s.log.Warn().Err(err).Msg("epics not persisted") }
        if err := s.store.InsertEstimations(ctx, ests); err != nil { s.log.Warn().Err(err).Msg("estimations not persisted") }
        if err := s.store.InsertTDDs(ctx, tdds); err != nil { s.log.Warn().Err(err).Msg("tdds not persisted") }
        if err := s.store.InsertStories(ctx, stories); err != nil { s.log.Warn().Err(err).Msg("stories not persisted") }
    }

    report.Status = "ok"
    if len(report.Errors) > 0 || len(report.RelationshipErrors) > 0 { report.Status = "completed_with_errors" }
    report.FinishedAt = time.Now().UTC()

    report.Summary = s.summarize(ctx, report)

    if s.store != nil && runID != 0 {
        if err := s.store.FinishJobRun(ctx, runID, report.Status, report.Summary, report.Counts); err != nil {
            s.log.Warn().Err(err).Msg("finish job run not persisted")
        }
    }

    s.mu.Lock()
    s.last = report
    s.mu.Unlock()

    s.log.Info().
        Str("status", report.Status).
        Int("epics", report.Counts["epics"]).
        Int("estimations", report.Counts["estimations"]).
        Int("tdds", report.Counts["tdds"]).
        Int("stories", report.Counts["stories"]).
        Int("relationship_errors", len(report.RelationshipErrors)).
        Dur("took", report.FinishedAt.Sub(report.StartedAt)).
        Msg("job finished")
    return report, nil
}

// classify buckets the directory's supported files by document type, sorted
// by name inside each bucket so ordinal FK fallbacks are stable.
func (s *Service) classify(dir string) (map[string][]string, error) {
    entries, err := os.ReadDir(dir)
    if err != nil { return nil, fmt.Errorf("services: read dir %s: %w", dir, err) }
    factory := extract.NewFactory()
    byType := map[string][]string{}
    for _, e := range entries {
        if e.IsDir() { continue }
        if strings.HasPrefix(e.Name(), "~$") { continue } // office lock files
        p := filepath.Join(dir, e.Name())
        if !factory.Supported(p) { continue }
        dt := extract.DetectDocType(p)
        byType[dt] = append(byType[dt], p)
    }
    for _, files := range byType { sort.Strings(files) }
    return byType, nil
}

func (s *Service) extractFile(factory *extract.Factory, path string, report *JobReport) (*domain.ExtractedData, error) {
    ex, err := factory.ForFile(path)
    if err != nil {
        report.Errors = append(report.Errors, err.Error())
        return nil, err
    }
    d, err := ex.Extract(path)
    if err != nil {
        s.log.Error().Err(err).Str("file", path).Msg("extraction failed")
        report.Errors = append(report.Errors, err.Error())
        return nil, err
    }
    report.Warnings = append(report.Warnings, d.Warnings...)
    s.log.Debug().Str("file", path).Str("doc_type", d.DocType).Float64("confidence", d.Confidence).Msg("extracted")
    return d, nil
}

func (s *Service) collect(report *JobReport, file string, res domain.TransformationResult) {
    for _, w := range res.Warnings { report.Warnings = append(report.Warnings, file+": "+w) }
    for _, e := range res.Errors { report.Errors = append(report.Errors, file+": "+e) }
}

// summarize asks the LLM for a short run digest; any failure falls back to a
// plain counts line.
func (s *Service) summarize(ctx context.Context, r *JobReport) string {
    fallback := fmt.Sprintf("Processed %d files: %d epics, %d estimations, %d TDDs, %d stories; %d relationship errors.",
        len(r.Files), r.Counts["epics"], r.Counts["estimations"], r.Counts["tdds"], r.Counts["stories"], len(r.RelationshipErrors))
    if s.llm == nil { return fallback }
    cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
    defer cancel()
    user := fallback
    if len(r.Warnings) > 0 { user += " Warnings: " + strings.Join(r.Warnings, "; ") }
    out, err := s.llm.Generate(cctx,
        "You summarize document-processing pipeline runs for an engineering audience in at most three sentences.",
        user)
    if err != nil || strings.TrimSpace(out) == "" {
        s.log.Warn().Err(err).Msg("llm summary unavailable")
        return fallback
    }
    return strings.TrimSpace(out)
}

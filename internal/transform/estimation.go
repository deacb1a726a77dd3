package transform

import (
    "strings"

    "github.com/HamedShams/impact-pipeline/internal/domain"
    "github.com/HamedShams/impact-pipeline/internal/idgen"
    "github.com/HamedShams/impact-pipeline/internal/normalize"
    "github.com/HamedShams/impact-pipeline/internal/relationship"
)

// domainKeywords maps task wording to the short module domain code. Checked
// in order; first hit wins.
var domainKeywords = []struct {
    code     string
    keywords []string
}{
    {"PAY", []string{"payment", "billing", "invoice", "checkout"}},
    {"AUTH", []string{"auth", "login", "sso", "identity"}},
    {"ORD", []string{"order", "cart", "fulfillment"}},
    {"CLM", []string{"claim", "adjudicat"}},
    {"PRV", []string{"provider", "practitioner"}},
    {"NTF", []string{"notification", "email", "sms", "alert"}},
    {"ANL", []string{"analytics", "report", "dashboard", "metric"}},
    {"USR", []string{"user", "profile", "member", "account"}},
    {"API", []string{"api", "endpoint", "integration", "gateway"}},
    {"DB", []string{"database", "schema", "migration", "storage"}},
    {"UI", []string{"ui", "frontend", "screen", "page", "form"}},
}

func domainCodeFor(text string) string {
    lt := strings.ToLower(text)
    for _, dk := range domainKeywords {
        for _, kw := range dk.keywords {
            if strings.Contains(lt, kw) { return dk.code }
        }
    }
    return "GEN"
}

// EstimationTransformer builds one Estimation per spreadsheet row.
type EstimationTransformer struct {
    IDs     *idgen.Generator
    Rels    *relationship.Manager
    Mapping domain.FieldMapping
}

func NewEstimationTransformer(ids *idgen.Generator, rels *relationship.Manager, mapping domain.FieldMapping) *EstimationTransformer {
    return &EstimationTransformer{IDs: ids, Rels: rels, Mapping: mapping}
}

// Transform handles a whole document: every row of every table becomes a
// candidate estimation. Rows with no task description are skipped.
func (t *EstimationTransformer) Transform(d *domain.ExtractedData, pos int) domain.TransformationResult {
    return safeTransform(func() domain.TransformationResult {
        var (
            entities []*domain.Estimation
            errs     []string
            warnings []string
        )
        for _, tbl := range d.Tables {
            for _, row := range tbl.Rows {
                res := t.TransformRow(row, tbl.Headers, pos)
                warnings = append(warnings, res.Warnings...)
                if !res.Success {
                    errs = append(errs, res.Errors...)
                    continue
                }
                if est, ok := res.Entity.(*domain.Estimation); ok && est != nil { entities = append(entities, est) }
            }
        }
        if len(entities) == 0 {
            errs = append(errs, "no estimation rows found in "+d.SourceFile)
            return domain.TransformationResult{Success: false, Errors: errs, Warnings: warnings}
        }
        return domain.TransformationResult{Success: true, Entity: entities, Errors: errs, Warnings: warnings}
    })
}

// TransformRow converts one spreadsheet row. A row whose task column is empty
// yields Success=false with no error text: it is filler, not failure.
func (t *EstimationTransformer) TransformRow(row map[string]any, headers []string, pos int) domain.TransformationResult {
    return safeTransform(func() domain.TransformationResult {
        var warnings []string

        task := normalize.Text(rowValue(row, headers, t.Mapping, "task_description", "task", "description", "work item", "feature"))
        if task == "" { return domain.TransformationResult{Success: false} }

        dev := normalize.Float(rowValue(row, headers, t.Mapping, "dev_effort_hours", "dev effort", "dev hours", "development"), 0)
        qa := normalize.Float(rowValue(row, headers, t.Mapping, "qa_effort_hours", "qa effort", "qa hours", "testing"), 0)
        total := normalize.Float(rowValue(row, headers, t.Mapping, "total_effort_hours", "total effort", "total hours", "total"), 0)
        if total == 0 { total = dev + qa }

        epicID := t.resolveEpic(row, headers, pos, &warnings)

        code := domainCodeFor(task)
        if code == "GEN" {
            // the task text carried no domain keyword; a module/area column is
            // the next best signal before settling for the generic bucket
            if hint := normalize.Text(rowValue(row, headers, t.Mapping, "module_id", "module", "area", "component")); hint != "" {
                code = idgen.DomainCode(hint)
            }
        }

        est := &domain.Estimation{
            DevEstID:         t.IDs.EstimationID(),
            EpicID:           epicID,
            ModuleID:         t.IDs.ModuleID(code),
            TaskDescription:  task,
            Complexity:       normalize.Enum(rowValue(row, headers, t.Mapping, "complexity", "complexity", "size", "t-shirt"), domain.Complexities, "Medium"),
            DevEffortHours:   dev,
            QAEffortHours:    qa,
            TotalEffortHours: total,
            StoryPoints:      clampPoints(normalize.Int(rowValue(row, headers, t.Mapping, "story_points", "story points", "points", "sp"), 0), domain.MaxEstimationPoints),
            Risk:             normalize.Enum(rowValue(row, headers, t.Mapping, "risk", "risk"), domain.RiskLevels, "Medium"),
            EstimationMethod: normalize.Text(rowValue(row, headers, t.Mapping, "estimation_method", "method", "technique")),
            Confidence:       normalize.Enum(rowValue(row, headers, t.Mapping, "confidence", "confidence"), domain.ConfidenceLevels, "Medium"),
            EstimatorEmail:   normalize.Email(rowValue(row, headers, t.Mapping, "estimator_email", "estimator", "email", "owner")),
            EstimationDate:   normalize.Date(rowValue(row, headers, t.Mapping, "estimation_date", "date")),
            AdditionalParams: map[string]any{},
        }
        if est.EstimationMethod == "" { est.EstimationMethod = "Expert Judgment" }

        if verrs := est.Validate(); len(verrs) > 0 {
            return domain.TransformationResult{Success: false, Entity: est, Errors: verrs, Warnings: warnings}
        }
        t.Rels.RegisterEstimation(est.DevEstID, est.EpicID, task)
        return domain.TransformationResult{Success: true, Entity: est, Warnings: warnings}
    })
}

func (t *EstimationTransformer) resolveEpic(row map[string]any, headers []string, pos int, warnings *[]string) string {
    ref := normalize.Text(rowValue(row, headers, t.Mapping, "epic_id", "epic id", "epic", "parent"))
    if ref != "" {
        if t.Rels.HasEpic(ref) { return ref }
        if id, ok := t.Rels.ResolveEpicID(ref); ok { return id }
        *warnings = append(*warnings, "unresolved epic reference "+ref)
    }
    // documents of the same kind line up with the epics in arrival order;
    // out-of-range positions clamp to the first epic
    if id, ok := t.Rels.EpicByPosition(pos); ok { return id }
    if id, ok := t.Rels.EpicByPosition(0); ok { return id }
    id := placeholderEpic(t.IDs, t.Rels)
    *warnings = append(*warnings, "no epic available, created placeholder "+id)
    return id
}

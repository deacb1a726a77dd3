package transform

import (
    "strings"

    "github.com/HamedShams/impact-pipeline/internal/domain"
    "github.com/HamedShams/impact-pipeline/internal/idgen"
    "github.com/HamedShams/impact-pipeline/internal/normalize"
    "github.com/HamedShams/impact-pipeline/internal/relationship"
)

// StoryTransformer builds one Story per exported tracker row. External ticket
// ids are kept; everything else gets a synthetic STORY id.
type StoryTransformer struct {
    IDs     *idgen.Generator
    Rels    *relationship.Manager
    Mapping domain.FieldMapping
}

func NewStoryTransformer(ids *idgen.Generator, rels *relationship.Manager, mapping domain.FieldMapping) *StoryTransformer {
    return &StoryTransformer{IDs: ids, Rels: rels, Mapping: mapping}
}

func (t *StoryTransformer) Transform(d *domain.ExtractedData, pos int) domain.TransformationResult {
    return safeTransform(func() domain.TransformationResult {
        var (
            entities []*domain.Story
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
                if st, ok := res.Entity.(*domain.Story); ok && st != nil { entities = append(entities, st) }
            }
        }
        if len(entities) == 0 {
            errs = append(errs, "no story rows found in "+d.SourceFile)
            return domain.TransformationResult{Success: false, Errors: errs, Warnings: warnings}
        }
        return domain.TransformationResult{Success: true, Entity: entities, Errors: errs, Warnings: warnings}
    })
}

func (t *StoryTransformer) TransformRow(row map[string]any, headers []string, pos int) domain.TransformationResult {
    return safeTransform(func() domain.TransformationResult {
        var warnings []string

        summary := normalize.Text(rowValue(row, headers, t.Mapping, "summary", "summary", "title", "name"))
        if summary == "" { return domain.TransformationResult{Success: false} }

        existing := normalize.Text(rowValue(row, headers, t.Mapping, "jira_story_id", "issue key", "key", "story id", "ticket", "id"))

        epicID := t.resolveEpic(row, headers, pos, &warnings)
        estID := t.resolveEstimation(row, headers, epicID, pos, &warnings)
        tddID := t.resolveTDD(row, headers, epicID, estID, pos, &warnings)

        acceptance := normalize.Text(rowValue(row, headers, t.Mapping, "acceptance_criteria", "acceptance", "criteria"))
        if acceptance == "" { acceptance = "To be defined" }

        st := &domain.Story{
            JiraStoryID:        t.IDs.StoryID(existing),
            DevEstID:           estID,
            EpicID:             epicID,
            TDDID:              tddID,
            IssueType:          normalize.Enum(rowValue(row, headers, t.Mapping, "issue_type", "issue type", "type"), domain.IssueTypes, "Story"),
            Summary:            summary,
            Description:        normalize.Text(rowValue(row, headers, t.Mapping, "description", "description", "detail")),
            AssigneeEmail:      normalize.Email(rowValue(row, headers, t.Mapping, "assignee_email", "assignee", "email")),
            Status:             normalize.Enum(rowValue(row, headers, t.Mapping, "status", "status", "state"), domain.StoryStatuses, "To Do"),
            StoryPoints:        clampPoints(normalize.Int(rowValue(row, headers, t.Mapping, "story_points", "story points", "points", "sp"), 0), domain.MaxStoryPoints),
            Sprint:             normalize.Text(rowValue(row, headers, t.Mapping, "sprint", "sprint", "iteration")),
            Priority:           normalize.Enum(rowValue(row, headers, t.Mapping, "priority", "priority"), domain.Priorities, "Medium"),
            Labels:             splitLabels(rowValue(row, headers, t.Mapping, "labels", "labels", "tags")),
            AcceptanceCriteria: acceptance,
            CreatedDate:        normalize.Date(rowValue(row, headers, t.Mapping, "created_date", "created")),
            UpdatedDate:        normalize.Date(rowValue(row, headers, t.Mapping, "updated_date", "updated")),
            AdditionalParams:   map[string]any{},
        }

        if errs := st.Validate(); len(errs) > 0 {
            return domain.TransformationResult{Success: false, Entity: st, Errors: errs, Warnings: warnings}
        }
        t.Rels.RegisterStory(st.JiraStoryID, st.EpicID, st.DevEstID, st.TDDID, st.Summary)
        return domain.TransformationResult{Success: true, Entity: st, Warnings: warnings}
    })
}

func splitLabels(v any) []string {
    s := strings.TrimSpace(normalize.String(v))
    if s == "" { return nil }
    var parts []string
    for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
        p = strings.TrimSpace(p)
        if p != "" { parts = append(parts, p) }
    }
    return parts
}

func (t *StoryTransformer) resolveEpic(row map[string]any, headers []string, pos int, warnings *[]string) string {
    ref := normalize.Text(rowValue(row, headers, t.Mapping, "epic_id", "epic link", "epic id", "epic", "parent"))
    if ref != "" {
        if t.Rels.HasEpic(ref) { return ref }
        if id, ok := t.Rels.ResolveEpicID(ref); ok { return id }
        *warnings = append(*warnings, "unresolved epic reference "+ref)
    }
    if id, ok := t.Rels.EpicByPosition(pos); ok { return id }
    if id, ok := t.Rels.EpicByPosition(0); ok { return id }
    id := placeholderEpic(t.IDs, t.Rels)
    *warnings = append(*warnings, "no epic available, created placeholder "+id)
    return id
}

func (t *StoryTransformer) resolveEstimation(row map[string]any, headers []string, epicID string, pos int, warnings *[]string) string {
    ref := normalize.Text(rowValue(row, headers, t.Mapping, "dev_est_id", "estimation id", "est id"))
    if ref != "" {
        if t.Rels.HasEstimation(ref) { return ref }
        if id, ok := t.Rels.ResolveEstimationID(ref); ok { return id }
        *warnings = append(*warnings, "unresolved estimation reference "+ref)
    }
    if id, ok := t.Rels.EstimationForEpic(epicID); ok { return id }
    if id, ok := t.Rels.EstimationByPosition(pos); ok { return id }
    if id, ok := t.Rels.EstimationByPosition(0); ok { return id }
    id := placeholderEstimation(t.IDs, t.Rels, epicID)
    *warnings = append(*warnings, "no estimation available, created placeholder "+id)
    return id
}

func (t *StoryTransformer) resolveTDD(row map[string]any, headers []string, epicID, estID string, pos int, warnings *[]string) string {
    ref := normalize.Text(rowValue(row, headers, t.Mapping, "tdd_id", "tdd id", "tdd", "design"))
    if ref != "" {
        if t.Rels.HasTDD(ref) { return ref }
        if id, ok := t.Rels.ResolveTDDID(ref); ok { return id }
        *warnings = append(*warnings, "unresolved tdd reference "+ref)
    }
    if id, ok := t.Rels.TDDForEpic(epicID); ok { return id }
    if id, ok := t.Rels.TDDByPosition(pos); ok { return id }
    if id, ok := t.Rels.TDDByPosition(0); ok { return id }
    id := placeholderTDD(t.IDs, t.Rels, epicID, estID)
    *warnings = append(*warnings, "no tdd available, created placeholder "+id)
    return id
}

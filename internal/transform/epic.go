package transform

import (
    "path/filepath"
    "strings"
    "time"

    "github.com/HamedShams/impact-pipeline/internal/domain"
    "github.com/HamedShams/impact-pipeline/internal/idgen"
    "github.com/HamedShams/impact-pipeline/internal/normalize"
    "github.com/HamedShams/impact-pipeline/internal/relationship"
)

// EpicTransformer builds one Epic per requirements document.
type EpicTransformer struct {
    IDs     *idgen.Generator
    Rels    *relationship.Manager
    Mapping domain.FieldMapping
    Now     func() time.Time
}

func NewEpicTransformer(ids *idgen.Generator, rels *relationship.Manager, mapping domain.FieldMapping) *EpicTransformer {
    return &EpicTransformer{IDs: ids, Rels: rels, Mapping: mapping, Now: time.Now}
}

func (t *EpicTransformer) Transform(d *domain.ExtractedData) domain.TransformationResult {
    return safeTransform(func() domain.TransformationResult {
        var warnings []string

        name := normalize.Text(lookup(d, t.Mapping, "epic_name", "epic name", "epic", "title", "name"))
        if name == "" {
            // fall back on a section heading; pick the smallest for determinism
            for k := range d.Sections { if name == "" || k < name { name = k } }
        }
        if name == "" {
            base := filepath.Base(d.SourceFile)
            name = strings.TrimSuffix(base, filepath.Ext(base))
            warnings = append(warnings, "epic name derived from file name")
        }

        ticket := ""
        if len(d.TicketIDs) > 0 { ticket = d.TicketIDs[0] }

        desc := sectionFor(d, "description", "overview", "summary", "background")
        if desc == "" { desc = truncate(d.RawText, 2000) }

        owner := normalize.Email(lookup(d, t.Mapping, "owner_email", "owner", "lead", "contact"))
        if owner == "" && len(d.Emails) > 0 { owner = d.Emails[0] }

        now := t.Now().UTC()
        epic := &domain.Epic{
            EpicID:        t.IDs.EpicID(),
            EpicName:      name,
            RequirementID: normalize.Text(lookup(d, t.Mapping, "requirement_id", "requirement id", "req id", "requirement")),
            TicketID:      ticket,
            Description:   desc,
            Status:        normalize.Enum(lookup(d, t.Mapping, "status", "status", "state"), domain.EpicStatuses, "Planning"),
            Priority:      normalize.Enum(lookup(d, t.Mapping, "priority", "priority", "severity"), domain.Priorities, "Medium"),
            OwnerEmail:    owner,
            Team:          normalize.Text(lookup(d, t.Mapping, "team", "team", "squad", "group")),
            StartDate:     normalize.Date(lookup(d, t.Mapping, "start_date", "start date", "start")),
            TargetDate:    normalize.Date(lookup(d, t.Mapping, "target_date", "target date", "due date", "end date", "deadline")),
            CreatedAt:     now,
            UpdatedAt:     now,
        }

        if errs := epic.Validate(); len(errs) > 0 {
            return domain.TransformationResult{Success: false, Entity: epic, Errors: errs, Warnings: warnings}
        }
        // only validated epics become resolvable parents
        t.Rels.RegisterEpic(epic.EpicID, epic.TicketID, epic.EpicName, epic.RequirementID)
        return domain.TransformationResult{Success: true, Entity: epic, Warnings: warnings}
    })
}

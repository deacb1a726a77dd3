package transform

import (
    "testing"

    "github.com/HamedShams/impact-pipeline/internal/domain"
    "github.com/HamedShams/impact-pipeline/internal/idgen"
    "github.com/HamedShams/impact-pipeline/internal/relationship"
)

func epicDoc() *domain.ExtractedData {
    return &domain.ExtractedData{
        SourceFile: "inbox/epic_checkout.docx",
        DocType:    "epic",
        RawText:    "Checkout Revamp\nRework the checkout flow. Contact lead@example.com.",
        Sections: map[string]string{
            "Checkout Revamp": "",
            "Description":     "Rework the checkout flow end to end.",
        },
        KeyValues: map[string]string{
            "Epic Name":   "Checkout Revamp",
            "Status":      "in progress",
            "Priority":    "high",
            "Owner":       "lead@example.com",
            "Start Date":  "2025-01-15",
            "Target Date": "2025-06-30",
        },
        Fields: map[string]domain.FieldValue{
            "epic name":   {Value: "Checkout Revamp", Confidence: 0.8},
            "status":      {Value: "in progress", Confidence: 0.8},
            "priority":    {Value: "high", Confidence: 0.8},
            "owner":       {Value: "lead@example.com", Confidence: 0.8},
            "start date":  {Value: "2025-01-15", Confidence: 0.8},
            "target date": {Value: "2025-06-30", Confidence: 0.8},
        },
        TicketIDs:  []string{"PROJ-100"},
        Emails:     []string{"lead@example.com"},
        Confidence: 0.9,
    }
}

func estimationDoc() *domain.ExtractedData {
    headers := []string{"Task", "Complexity", "Dev Effort", "QA Effort", "Story Points", "Risk", "Estimator"}
    return &domain.ExtractedData{
        SourceFile: "inbox/estimation_checkout.xlsx",
        DocType:    "estimation",
        Tables: []domain.Table{{
            Name:    "Estimates",
            Headers: headers,
            Rows: []map[string]any{
                {"Task": "Payment gateway integration", "Complexity": "large", "Dev Effort": 40.0, "QA Effort": 16.0, "Story Points": 13.0, "Risk": "high", "Estimator": "dev@example.com"},
                {"Task": "User login rework", "Complexity": "medium", "Dev Effort": 24.0, "QA Effort": 8.0, "Story Points": 8.0, "Risk": "low", "Estimator": "dev@example.com"},
                {"Task": "Order summary page", "Complexity": "small", "Dev Effort": 8.0, "QA Effort": 4.0, "Story Points": 3.0, "Risk": "low", "Estimator": "dev@example.com"},
            },
        }},
        Confidence: 0.9,
    }
}

func tddDoc() *domain.ExtractedData {
    return &domain.ExtractedData{
        SourceFile: "inbox/tdd_checkout.docx",
        DocType:    "tdd",
        RawText:    "Checkout Design\nVersion: 2\nWe use Kafka and Redis with a microservices approach.",
        Sections: map[string]string{
            "Checkout Design": "",
            "Overview":        "Technical design for the checkout revamp.",
            "Security":        "PCI compliance required.",
        },
        KeyValues: map[string]string{"Title": "Checkout Design", "Status": "approved"},
        Fields: map[string]domain.FieldValue{
            "title":  {Value: "Checkout Design", Confidence: 0.8},
            "status": {Value: "approved", Confidence: 0.8},
        },
        TicketIDs:  []string{"PROJ-100"},
        Emails:     []string{"architect@example.com"},
        Confidence: 0.85,
    }
}

func storyDoc() *domain.ExtractedData {
    headers := []string{"Issue Key", "Summary", "Issue Type", "Status", "Story Points", "Priority", "Assignee", "Labels"}
    return &domain.ExtractedData{
        SourceFile: "inbox/jira_stories.xlsx",
        DocType:    "story",
        Tables: []domain.Table{{
            Name:    "Stories",
            Headers: headers,
            Rows: []map[string]any{
                {"Issue Key": "PROJ-55", "Summary": "Add payment method selector", "Issue Type": "story", "Status": "in progress", "Story Points": 5.0, "Priority": "high", "Assignee": "dev@example.com", "Labels": "checkout, payments"},
                {"Issue Key": "", "Summary": "Fix cart rounding", "Issue Type": "bug", "Status": "to do", "Story Points": 55.0, "Priority": "medium", "Assignee": "", "Labels": ""},
            },
        }},
        Confidence: 0.9,
    }
}

func TestPipeline_EndToEndEntityGraph(t *testing.T) {
    ids := idgen.New()
    rels := relationship.NewManager()

    eres := NewEpicTransformer(ids, rels, nil).Transform(epicDoc())
    if !eres.Success { t.Fatalf("epic transform failed: %v", eres.Errors) }
    epic := eres.Entity.(*domain.Epic)
    if epic.EpicID != "EPIC-001" { t.Fatalf("epic id: %s", epic.EpicID) }
    if epic.EpicName != "Checkout Revamp" { t.Fatalf("epic name: %s", epic.EpicName) }
    if epic.Status != "In Progress" { t.Fatalf("status: %s", epic.Status) }
    if epic.Priority != "High" { t.Fatalf("priority: %s", epic.Priority) }
    if epic.OwnerEmail != "lead@example.com" { t.Fatalf("owner: %s", epic.OwnerEmail) }
    if epic.TicketID != "PROJ-100" { t.Fatalf("ticket: %s", epic.TicketID) }
    if epic.StartDate == nil || epic.StartDate.Format("2006-01-02") != "2025-01-15" {
        t.Fatalf("start date: %v", epic.StartDate)
    }

    sres := NewEstimationTransformer(ids, rels, nil).Transform(estimationDoc(), 0)
    if !sres.Success { t.Fatalf("estimation transform failed: %v", sres.Errors) }
    ests := sres.Entity.([]*domain.Estimation)
    if len(ests) != 3 { t.Fatalf("expected 3 estimations, got %d", len(ests)) }
    if ests[0].DevEstID != "EST-001" || ests[2].DevEstID != "EST-003" {
        t.Fatalf("estimation ids: %s %s", ests[0].DevEstID, ests[2].DevEstID)
    }
    for _, e := range ests {
        if e.EpicID != "EPIC-001" { t.Fatalf("estimation %s epic: %s", e.DevEstID, e.EpicID) }
        if e.TotalEffortHours != e.DevEffortHours+e.QAEffortHours {
            t.Fatalf("%s total not derived: %v", e.DevEstID, e.TotalEffortHours)
        }
    }
    if ests[0].ModuleID != "MOD-PAY-001" { t.Fatalf("module id: %s", ests[0].ModuleID) }
    if ests[0].Complexity != "Large" || ests[0].Risk != "High" { t.Fatalf("enums: %+v", ests[0]) }
    if ests[1].ModuleID != "MOD-AUTH-001" { t.Fatalf("auth module id: %s", ests[1].ModuleID) }

    tres := NewTDDTransformer(ids, rels, nil).Transform(tddDoc(), 0)
    if !tres.Success { t.Fatalf("tdd transform failed: %v", tres.Errors) }
    tdd := tres.Entity.(*domain.TDD)
    if tdd.TDDID != "TDD-001" { t.Fatalf("tdd id: %s", tdd.TDDID) }
    if tdd.EpicID != "EPIC-001" { t.Fatalf("tdd epic: %s", tdd.EpicID) }
    if tdd.DevEstID != "EST-001" { t.Fatalf("tdd estimation: %s", tdd.DevEstID) }
    if tdd.Version != "2.0" { t.Fatalf("version: %s", tdd.Version) }
    if tdd.Status != "Approved" { t.Fatalf("status: %s", tdd.Status) }
    if tdd.ArchitecturePattern != "Microservices" { t.Fatalf("architecture: %s", tdd.ArchitecturePattern) }
    if tdd.SecurityConsiderations != "PCI compliance required." { t.Fatalf("security: %s", tdd.SecurityConsiderations) }

    stres := NewStoryTransformer(ids, rels, nil).Transform(storyDoc(), 0)
    if !stres.Success { t.Fatalf("story transform failed: %v", stres.Errors) }
    stories := stres.Entity.([]*domain.Story)
    if len(stories) != 2 { t.Fatalf("expected 2 stories, got %d", len(stories)) }
    if stories[0].JiraStoryID != "PROJ-55" { t.Fatalf("preserved id: %s", stories[0].JiraStoryID) }
    if stories[1].JiraStoryID != "STORY-001" { t.Fatalf("synthetic id: %s", stories[1].JiraStoryID) }
    if stories[1].StoryPoints != 21 { t.Fatalf("points not clamped: %d", stories[1].StoryPoints) }
    if stories[1].AcceptanceCriteria != "To be defined" { t.Fatalf("acceptance default: %q", stories[1].AcceptanceCriteria) }
    if len(stories[0].Labels) != 2 || stories[0].Labels[0] != "checkout" { t.Fatalf("labels: %v", stories[0].Labels) }
    for _, s := range stories {
        if s.EpicID != "EPIC-001" || s.DevEstID != "EST-001" || s.TDDID != "TDD-001" {
            t.Fatalf("story %s fks: %s %s %s", s.JiraStoryID, s.EpicID, s.DevEstID, s.TDDID)
        }
    }

    if errs := rels.ValidateAll(); len(errs) != 0 { t.Fatalf("expected clean graph, got %v", errs) }
}

func TestStoryTransformer_MintsPlaceholderParents(t *testing.T) {
    ids := idgen.New()
    rels := relationship.NewManager()

    res := NewStoryTransformer(ids, rels, nil).Transform(storyDoc(), 0)
    if !res.Success { t.Fatalf("transform failed: %v", res.Errors) }
    if len(res.Warnings) == 0 { t.Fatalf("expected placeholder warnings") }

    stories := res.Entity.([]*domain.Story)
    for _, s := range stories {
        if s.EpicID == "" || s.DevEstID == "" || s.TDDID == "" {
            t.Fatalf("story %s has empty fk", s.JiraStoryID)
        }
    }
    // placeholders close the graph: validation still passes
    if errs := rels.ValidateAll(); len(errs) != 0 { t.Fatalf("expected placeholders to close graph, got %v", errs) }
}

func TestEstimationTransformer_MintsPlaceholderEpic(t *testing.T) {
    ids := idgen.New()
    rels := relationship.NewManager()

    res := NewEstimationTransformer(ids, rels, nil).TransformRow(
        map[string]any{"Task": "Claims intake", "Dev Effort": 12.0},
        []string{"Task", "Dev Effort"}, 0,
    )
    if !res.Success { t.Fatalf("expected success, got %v", res.Errors) }
    if len(res.Warnings) == 0 { t.Fatalf("expected placeholder warning") }
    est := res.Entity.(*domain.Estimation)
    if est.EpicID == "" || !rels.HasEpic(est.EpicID) { t.Fatalf("placeholder epic not registered: %q", est.EpicID) }
    if errs := rels.ValidateAll(); len(errs) != 0 { t.Fatalf("graph not closed: %v", errs) }
}

func TestEpicTransformer_FallsBackToFileName(t *testing.T) {
    ids := idgen.New()
    rels := relationship.NewManager()
    d := &domain.ExtractedData{SourceFile: "inbox/epic_payments.docx", DocType: "epic", RawText: "some text"}

    res := NewEpicTransformer(ids, rels, nil).Transform(d)
    if !res.Success { t.Fatalf("transform failed: %v", res.Errors) }
    epic := res.Entity.(*domain.Epic)
    if epic.EpicName != "epic_payments" { t.Fatalf("name: %s", epic.EpicName) }
    if len(res.Warnings) == 0 { t.Fatalf("expected a derived-name warning") }
}

func TestEstimationTransformer_RespectsExplicitMapping(t *testing.T) {
    ids := idgen.New()
    rels := relationship.NewManager()
    rels.RegisterEpic("EPIC-001")
    ids.RegisterExisting("EPIC-001")

    mapping := domain.FieldMapping{"Work Item": "task_description", "Effort (h)": "dev_effort_hours"}
    headers := []string{"Work Item", "Effort (h)"}
    row := map[string]any{"Work Item": "Claims intake", "Effort (h)": 12.0}

    res := NewEstimationTransformer(ids, rels, mapping).TransformRow(row, headers, 0)
    if !res.Success { t.Fatalf("row failed: %v", res.Errors) }
    est := res.Entity.(*domain.Estimation)
    if est.TaskDescription != "Claims intake" { t.Fatalf("task: %s", est.TaskDescription) }
    if est.DevEffortHours != 12 || est.TotalEffortHours != 12 { t.Fatalf("hours: %+v", est) }
    if est.ModuleID != "MOD-CLM-001" { t.Fatalf("module: %s", est.ModuleID) }
}

func TestEstimationTransformer_UsesModuleColumnHint(t *testing.T) {
    ids := idgen.New()
    rels := relationship.NewManager()
    rels.RegisterEpic("EPIC-001")
    ids.RegisterExisting("EPIC-001")
    tr := NewEstimationTransformer(ids, rels, nil)

    // no domain keyword in the task text: the module column decides
    res := tr.TransformRow(
        map[string]any{"Task": "Implement the widget", "Module": "Billing"},
        []string{"Task", "Module"}, 0,
    )
    if !res.Success { t.Fatalf("row failed: %v", res.Errors) }
    est := res.Entity.(*domain.Estimation)
    if est.ModuleID != "MOD-BILL-001" { t.Fatalf("module from hint: %s", est.ModuleID) }

    // a keyword in the task text still outranks the column
    res = tr.TransformRow(
        map[string]any{"Task": "Payment capture", "Module": "Billing"},
        []string{"Task", "Module"}, 0,
    )
    if !res.Success { t.Fatalf("row failed: %v", res.Errors) }
    est = res.Entity.(*domain.Estimation)
    if est.ModuleID != "MOD-PAY-001" { t.Fatalf("module from keyword: %s", est.ModuleID) }
}

func TestTransformers_AlignParallelDocumentsByPosition(t *testing.T) {
    ids := idgen.New()
    rels := relationship.NewManager()
    rels.RegisterEpic("EPIC-001")
    rels.RegisterEpic("EPIC-002")
    ids.RegisterExisting("EPIC-001")
    ids.RegisterExisting("EPIC-002")

    sheet := func(task string) *domain.ExtractedData {
        return &domain.ExtractedData{
            DocType: "estimation",
            Tables: []domain.Table{{
                Name:    "Estimates",
                Headers: []string{"Task"},
                Rows:    []map[string]any{{"Task": task}},
            }},
        }
    }

    estT := NewEstimationTransformer(ids, rels, nil)
    first := estT.Transform(sheet("Search tuning"), 0)
    second := estT.Transform(sheet("Inventory reconciliation"), 1)
    if !first.Success || !second.Success { t.Fatalf("transforms failed: %v %v", first.Errors, second.Errors) }
    if id := first.Entity.([]*domain.Estimation)[0].EpicID; id != "EPIC-001" { t.Fatalf("first doc epic: %s", id) }
    if id := second.Entity.([]*domain.Estimation)[0].EpicID; id != "EPIC-002" { t.Fatalf("second doc epic: %s", id) }

    // positions past the last epic clamp to the first one
    third := estT.Transform(sheet("Backfill cleanup"), 5)
    if !third.Success { t.Fatalf("transform failed: %v", third.Errors) }
    if id := third.Entity.([]*domain.Estimation)[0].EpicID; id != "EPIC-001" { t.Fatalf("clamped epic: %s", id) }

    tres := NewTDDTransformer(ids, rels, nil).Transform(&domain.ExtractedData{
        SourceFile: "inbox/tdd_inventory.docx",
        DocType:    "tdd",
        RawText:    "Inventory redesign.",
    }, 1)
    if !tres.Success { t.Fatalf("tdd transform failed: %v", tres.Errors) }
    tdd := tres.Entity.(*domain.TDD)
    if tdd.EpicID != "EPIC-002" { t.Fatalf("tdd epic: %s", tdd.EpicID) }
    if tdd.DevEstID != "EST-002" { t.Fatalf("tdd estimation: %s", tdd.DevEstID) }

    stres := NewStoryTransformer(ids, rels, nil).Transform(&domain.ExtractedData{
        DocType: "story",
        Tables: []domain.Table{{
            Name:    "Stories",
            Headers: []string{"Summary"},
            Rows:    []map[string]any{{"Summary": "Tune ranking"}},
        }},
    }, 1)
    if !stres.Success { t.Fatalf("story transform failed: %v", stres.Errors) }
    st := stres.Entity.([]*domain.Story)[0]
    if st.EpicID != "EPIC-002" || st.DevEstID != "EST-002" {
        t.Fatalf("story fks: %s %s", st.EpicID, st.DevEstID)
    }
}

func TestTDDTransformer_StripsVersionPrefix(t *testing.T) {
    ids := idgen.New()
    rels := relationship.NewManager()
    d := &domain.ExtractedData{
        SourceFile: "inbox/tdd_ledger.docx",
        DocType:    "tdd",
        RawText:    "Ledger redesign.",
        Fields:     map[string]domain.FieldValue{"version": {Value: "v1.2", Confidence: 0.8}},
    }

    res := NewTDDTransformer(ids, rels, nil).Transform(d, 0)
    if !res.Success { t.Fatalf("transform failed: %v", res.Errors) }
    tdd := res.Entity.(*domain.TDD)
    if tdd.Version != "1.2" { t.Fatalf("version: %s", tdd.Version) }
}

func TestEstimationTransformer_InvalidRowIsNotRegistered(t *testing.T) {
    ids := idgen.New()
    rels := relationship.NewManager()
    rels.RegisterEpic("EPIC-001")
    ids.RegisterExisting("EPIC-001")

    res := NewEstimationTransformer(ids, rels, nil).TransformRow(
        map[string]any{"Task": "Claims intake", "Dev Effort": -5.0},
        []string{"Task", "Dev Effort"}, 0,
    )
    if res.Success { t.Fatalf("expected validation failure") }
    est := res.Entity.(*domain.Estimation)
    if rels.HasEstimation(est.DevEstID) {
        t.Fatalf("invalid row %s must not become a resolvable parent", est.DevEstID)
    }
}

func TestTransform_PanicsBecomeFailedResults(t *testing.T) {
    res := safeTransform(func() domain.TransformationResult { panic("boom") })
    if res.Success { t.Fatalf("expected failure") }
    if len(res.Errors) != 1 { t.Fatalf("expected one error, got %v", res.Errors) }
}

package domain

import (
    "encoding/json"
    "testing"
    "time"
)

func TestEpicValidate_EnforcesIDAndEnums(t *testing.T) {
    e := &Epic{EpicID: "EPIC-001", EpicName: "Checkout", Status: "Planning", Priority: "High"}
    if errs := e.Validate(); len(errs) != 0 { t.Fatalf("expected valid, got %v", errs) }

    bad := &Epic{EpicID: "EPIC-1", EpicName: "", Status: "Open", Priority: "Urgent"}
    if errs := bad.Validate(); len(errs) != 4 { t.Fatalf("expected 4 errors, got %v", errs) }
}

func TestEstimationValidate_TotalMustBeDerived(t *testing.T) {
    e := &Estimation{
        DevEstID: "EST-001", EpicID: "EPIC-001", ModuleID: "MOD-PAY-001",
        Complexity: "Medium", Risk: "Low", Confidence: "High",
        DevEffortHours: 10, QAEffortHours: 5, TotalEffortHours: 15, StoryPoints: 8,
    }
    if errs := e.Validate(); len(errs) != 0 { t.Fatalf("expected valid, got %v", errs) }

    e.TotalEffortHours = 0
    if errs := e.Validate(); len(errs) != 1 { t.Fatalf("expected total-hours error, got %v", errs) }
}

func TestStoryValidate_AcceptsExternalTicketIDs(t *testing.T) {
    s := &Story{
        JiraStoryID: "PROJ-55", DevEstID: "EST-001", EpicID: "EPIC-001", TDDID: "TDD-001",
        IssueType: "Story", Status: "To Do", Priority: "Medium", StoryPoints: 5,
    }
    if errs := s.Validate(); len(errs) != 0 { t.Fatalf("expected valid, got %v", errs) }

    s.JiraStoryID = "STORY-001"
    if errs := s.Validate(); len(errs) != 0 { t.Fatalf("synthetic id: got %v", errs) }

    s.StoryPoints = 34
    if errs := s.Validate(); len(errs) != 1 { t.Fatalf("expected points error, got %v", errs) }
}

func TestCSVRow_WidthsMatchColumnOrders(t *testing.T) {
    now := time.Now().UTC()
    d := now
    epic := &Epic{EpicID: "EPIC-001", StartDate: &d, CreatedAt: now, UpdatedAt: now}
    if got := len(epic.CSVRow()); got != len(EpicCSVColumns) {
        t.Fatalf("epic row width %d != %d", got, len(EpicCSVColumns))
    }
    est := &Estimation{DevEstID: "EST-001"}
    if got := len(est.CSVRow()); got != len(EstimationCSVColumns) {
        t.Fatalf("estimation row width %d != %d", got, len(EstimationCSVColumns))
    }
    tdd := &TDD{TDDID: "TDD-001"}
    if got := len(tdd.CSVRow()); got != len(TDDCSVColumns) {
        t.Fatalf("tdd row width %d != %d", got, len(TDDCSVColumns))
    }
    story := &Story{JiraStoryID: "STORY-001"}
    if got := len(story.CSVRow()); got != len(StoryCSVColumns) {
        t.Fatalf("story row width %d != %d", got, len(StoryCSVColumns))
    }
}

func TestCSVRow_JSONFieldsStayParseable(t *testing.T) {
    tdd := &TDD{TechnicalComponents: []string{"Kafka", "Redis"}}
    row := tdd.CSVRow()
    var comps []string
    if err := json.Unmarshal([]byte(row[8]), &comps); err != nil {
        t.Fatalf("technical_components not json: %v", err)
    }
    if len(comps) != 2 || comps[0] != "Kafka" { t.Fatalf("got %v", comps) }

    est := &Estimation{AdditionalParams: map[string]any{"sprint": "S1"}}
    var params map[string]any
    if err := json.Unmarshal([]byte(est.CSVRow()[14]), &params); err != nil {
        t.Fatalf("additional_params not json: %v", err)
    }
    if params["sprint"] != "S1" { t.Fatalf("got %v", params) }

    empty := &Story{}
    r := empty.CSVRow()
    if r[12] != "[]" { t.Fatalf("labels default: %q", r[12]) }
    if r[16] != "{}" { t.Fatalf("additional_params default: %q", r[16]) }
}

package domain

import (
    "encoding/json"
    "fmt"
    "regexp"
    "time"
)

// Enum value sets shared by transformers and validation.
var (
    EpicStatuses    = []string{"Planning", "In Progress", "Done", "Blocked"}
    Priorities      = []string{"Critical", "High", "Medium", "Low"}
    Complexities    = []string{"Small", "Medium", "Large"}
    RiskLevels      = []string{"Low", "Medium", "High"}
    ConfidenceLevels = []string{"Low", "Medium", "High"}
    TDDStatuses     = []string{"Draft", "In Review", "Approved"}
    IssueTypes      = []string{"Story", "Task", "Sub-task", "Bug"}
    StoryStatuses   = []string{"To Do", "In Progress", "Done", "Blocked"}
)

// Story points are clamped into these bounds at transform time.
const (
    MaxStoryPoints      = 21
    MaxEstimationPoints = 100
)

var (
    epicIDRe    = regexp.MustCompile(`^EPIC-\d{3,}$`)
    estIDRe     = regexp.MustCompile(`^EST-\d{3,}$`)
    moduleIDRe  = regexp.MustCompile(`^MOD-[A-Z0-9]{2,4}-\d{3,}$`)
    tddIDRe     = regexp.MustCompile(`^TDD-\d{3,}$`)
    storyIDRe   = regexp.MustCompile(`^(STORY-\d{3,}|[A-Z][A-Z0-9]*-\d+|[A-Z]{2}\d+)$`)
    versionRe   = regexp.MustCompile(`^\d+\.\d+$`)
)

type Epic struct {
    EpicID        string
    EpicName      string
    RequirementID string
    TicketID      string
    Description   string
    Status        string
    Priority      string
    OwnerEmail    string
    Team          string
    StartDate     *time.Time
    TargetDate    *time.Time
    CreatedAt     time.Time
    UpdatedAt     time.Time
}

type Estimation struct {
    DevEstID         string
    EpicID           string
    ModuleID         string
    TaskDescription  string
    Complexity       string
    DevEffortHours   float64
    QAEffortHours    float64
    TotalEffortHours float64
    StoryPoints      int
    Risk             string
    EstimationMethod string
    Confidence       string
    EstimatorEmail   string
    EstimationDate   *time.Time
    AdditionalParams map[string]any
}

type TDD struct {
    TDDID                   string
    EpicID                  string
    DevEstID                string
    TDDName                 string
    Description             string
    Version                 string
    Status                  string
    AuthorEmail             string
    TechnicalComponents     []string
    DesignDecisions         string
    Dependencies            []string
    ArchitecturePattern     string
    SecurityConsiderations  string
    PerformanceRequirements string
    CreatedAt               time.Time
    UpdatedAt               time.Time
}

type Story struct {
    JiraStoryID        string
    DevEstID           string
    EpicID             string
    TDDID              string
    IssueType          string
    Summary            string
    Description        string
    AssigneeEmail      string
    Status             string
    StoryPoints        int
    Sprint             string
    Priority           string
    Labels             []string
    AcceptanceCriteria string
    CreatedDate        *time.Time
    UpdatedDate        *time.Time
    AdditionalParams   map[string]any
}

// CSV column orders are fixed; CSVRow output must line up with these.
var (
    EpicCSVColumns = []string{"epic_id", "epic_name", "requirement_id", "ticket_id", "description",
        "status", "priority", "owner_email", "team", "start_date", "target_date", "created_at", "updated_at"}
    EstimationCSVColumns = []string{"dev_est_id", "epic_id", "module_id", "task_description", "complexity",
        "dev_effort_hours", "qa_effort_hours", "total_effort_hours", "story_points", "risk",
        "estimation_method", "confidence", "estimator_email", "estimation_date", "additional_params"}
    TDDCSVColumns = []string{"tdd_id", "epic_id", "dev_est_id", "tdd_name", "description", "version",
        "status", "author_email", "technical_components", "design_decisions", "dependencies",
        "architecture_pattern", "security_considerations", "performance_requirements", "created_at", "updated_at"}
    StoryCSVColumns = []string{"jira_story_id", "dev_est_id", "epic_id", "tdd_id", "issue_type", "summary",
        "description", "assignee_email", "status", "story_points", "sprint", "priority", "labels",
        "acceptance_criteria", "created_date", "updated_date", "additional_params"}
)

func csvDate(t *time.Time) string {
    if t == nil { return "" }
    return t.Format("2006-01-02")
}

func csvTime(t time.Time) string {
    if t.IsZero() { return "" }
    return t.UTC().Format(time.RFC3339)
}

func csvList(v []string) string {
    if v == nil { v = []string{} }
    b, err := json.Marshal(v)
    if err != nil { return "[]" }
    return string(b)
}

func csvMap(v map[string]any) string {
    if v == nil { v = map[string]any{} }
    b, err := json.Marshal(v)
    if err != nil { return "{}" }
    return string(b)
}

func oneOf(v string, allowed []string) bool {
    for _, a := range allowed { if a == v { return true } }
    return false
}

func (e *Epic) Validate() []string {
    var errs []string
    if !epicIDRe.MatchString(e.EpicID) { errs = append(errs, fmt.Sprintf("epic_id %q does not match EPIC-NNN", e.EpicID)) }
    if e.EpicName == "" { errs = append(errs, "epic_name is empty") }
    if !oneOf(e.Status, EpicStatuses) { errs = append(errs, fmt.Sprintf("status %q not in %v", e.Status, EpicStatuses)) }
    if !oneOf(e.Priority, Priorities) { errs = append(errs, fmt.Sprintf("priority %q not in %v", e.Priority, Priorities)) }
    return errs
}

func (e *Epic) CSVRow() []string {
    return []string{e.EpicID, e.EpicName, e.RequirementID, e.TicketID, e.Description,
        e.Status, e.Priority, e.OwnerEmail, e.Team, csvDate(e.StartDate), csvDate(e.TargetDate),
        csvTime(e.CreatedAt), csvTime(e.UpdatedAt)}
}

func (e *Estimation) Validate() []string {
    var errs []string
    if !estIDRe.MatchString(e.DevEstID) { errs = append(errs, fmt.Sprintf("dev_est_id %q does not match EST-NNN", e.DevEstID)) }
    if !epicIDRe.MatchString(e.EpicID) { errs = append(errs, fmt.Sprintf("epic_id %q does not match EPIC-NNN", e.EpicID)) }
    if !moduleIDRe.MatchString(e.ModuleID) { errs = append(errs, fmt.Sprintf("module_id %q does not match MOD-DOMAIN-NNN", e.ModuleID)) }
    if !oneOf(e.Complexity, Complexities) { errs = append(errs, fmt.Sprintf("complexity %q not in %v", e.Complexity, Complexities)) }
    if !oneOf(e.Risk, RiskLevels) { errs = append(errs, fmt.Sprintf("risk %q not in %v", e.Risk, RiskLevels)) }
    if !oneOf(e.Confidence, ConfidenceLevels) { errs = append(errs, fmt.Sprintf("confidence %q not in %v", e.Confidence, ConfidenceLevels)) }
    if e.DevEffortHours < 0 || e.QAEffortHours < 0 { errs = append(errs, "effort hours must be non-negative") }
    if e.TotalEffortHours == 0 && e.DevEffortHours+e.QAEffortHours > 0 {
        errs = append(errs, "total_effort_hours not derived from dev+qa")
    }
    if e.StoryPoints < 0 || e.StoryPoints > MaxEstimationPoints { errs = append(errs, fmt.Sprintf("story_points %d out of range", e.StoryPoints)) }
    return errs
}

func (e *Estimation) CSVRow() []string {
    return []string{e.DevEstID, e.EpicID, e.ModuleID, e.TaskDescription, e.Complexity,
        fmt.Sprintf("%g", e.DevEffortHours), fmt.Sprintf("%g", e.QAEffortHours), fmt.Sprintf("%g", e.TotalEffortHours),
        fmt.Sprintf("%d", e.StoryPoints), e.Risk, e.EstimationMethod, e.Confidence, e.EstimatorEmail,
        csvDate(e.EstimationDate), csvMap(e.AdditionalParams)}
}

func (t *TDD) Validate() []string {
    var errs []string
    if !tddIDRe.MatchString(t.TDDID) { errs = append(errs, fmt.Sprintf("tdd_id %q does not match TDD-NNN", t.TDDID)) }
    if !epicIDRe.MatchString(t.EpicID) { errs = append(errs, fmt.Sprintf("epic_id %q does not match EPIC-NNN", t.EpicID)) }
    if !estIDRe.MatchString(t.DevEstID) { errs = append(errs, fmt.Sprintf("dev_est_id %q does not match EST-NNN", t.DevEstID)) }
    if !versionRe.MatchString(t.Version) { errs = append(errs, fmt.Sprintf("version %q does not match N.N", t.Version)) }
    if !oneOf(t.Status, TDDStatuses) { errs = append(errs, fmt.Sprintf("status %q not in %v", t.Status, TDDStatuses)) }
    return errs
}

func (t *TDD) CSVRow() []string {
    return []string{t.TDDID, t.EpicID, t.DevEstID, t.TDDName, t.Description, t.Version,
        t.Status, t.AuthorEmail, csvList(t.TechnicalComponents), t.DesignDecisions, csvList(t.Dependencies),
        t.ArchitecturePattern, t.SecurityConsiderations, t.PerformanceRequirements,
        csvTime(t.CreatedAt), csvTime(t.UpdatedAt)}
}

func (s *Story) Validate() []string {
    var errs []string
    if !storyIDRe.MatchString(s.JiraStoryID) { errs = append(errs, fmt.Sprintf("jira_story_id %q is not a valid ticket or STORY-NNN id", s.JiraStoryID)) }
    if !estIDRe.MatchString(s.DevEstID) { errs = append(errs, fmt.Sprintf("dev_est_id %q does not match EST-NNN", s.DevEstID)) }
    if !epicIDRe.MatchString(s.EpicID) { errs = append(errs, fmt.Sprintf("epic_id %q does not match EPIC-NNN", s.EpicID)) }
    if !tddIDRe.MatchString(s.TDDID) { errs = append(errs, fmt.Sprintf("tdd_id %q does not match TDD-NNN", s.TDDID)) }
    if !oneOf(s.IssueType, IssueTypes) { errs = append(errs, fmt.Sprintf("issue_type %q not in %v", s.IssueType, IssueTypes)) }
    if !oneOf(s.Status, StoryStatuses) { errs = append(errs, fmt.Sprintf("status %q not in %v", s.Status, StoryStatuses)) }
    if !oneOf(s.Priority, Priorities) { errs = append(errs, fmt.Sprintf("priority %q not in %v", s.Priority, Priorities)) }
    if s.StoryPoints < 0 || s.StoryPoints > MaxStoryPoints { errs = append(errs, fmt.Sprintf("story_points %d out of range", s.StoryPoints)) }
    return errs
}

func (s *Story) CSVRow() []string {
    return []string{s.JiraStoryID, s.DevEstID, s.EpicID, s.TDDID, s.IssueType, s.Summary,
        s.Description, s.AssigneeEmail, s.Status, fmt.Sprintf("%d", s.StoryPoints), s.Sprint, s.Priority,
        csvList(s.Labels), s.AcceptanceCriteria, csvDate(s.CreatedDate), csvDate(s.UpdatedDate),
        csvMap(s.AdditionalParams)}
}

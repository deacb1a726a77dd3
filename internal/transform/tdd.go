package transform

import (
    "path/filepath"
    "regexp"
    "strings"
    "time"

    "github.com/HamedShams/impact-pipeline/internal/domain"
    "github.com/HamedShams/impact-pipeline/internal/idgen"
    "github.com/HamedShams/impact-pipeline/internal/normalize"
    "github.com/HamedShams/impact-pipeline/internal/relationship"
)

var (
    versionInTextRe = regexp.MustCompile(`(?i)version[:\s]+(\d+(?:\.\d+)?)`)
    versionNumRe    = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// architecturePatterns is scanned in order; the most specific names come
// first so "event sourcing" is not swallowed by "event-driven".
var architecturePatterns = []string{
    "Event Sourcing",
    "CQRS",
    "Microservices",
    "Adapter",
    "Repository",
    "Saga",
    "API Gateway",
    "Event-Driven",
}

var techKeywords = []string{
    "Kafka", "RabbitMQ", "PostgreSQL", "MySQL", "MongoDB", "Redis", "Elasticsearch",
    "Kubernetes", "Docker", "gRPC", "GraphQL", "REST", "React", "Angular",
    "Go", "Java", "Python", "Node.js", "Spring", "Terraform", "AWS", "GCP", "Azure",
}

// TDDTransformer builds one TDD per technical design document.
type TDDTransformer struct {
    IDs     *idgen.Generator
    Rels    *relationship.Manager
    Mapping domain.FieldMapping
    Now     func() time.Time
}

func NewTDDTransformer(ids *idgen.Generator, rels *relationship.Manager, mapping domain.FieldMapping) *TDDTransformer {
    return &TDDTransformer{IDs: ids, Rels: rels, Mapping: mapping, Now: time.Now}
}

func (t *TDDTransformer) Transform(d *domain.ExtractedData, pos int) domain.TransformationResult {
    return safeTransform(func() domain.TransformationResult {
        var warnings []string

        name := normalize.Text(lookup(d, t.Mapping, "tdd_name", "tdd name", "design name", "title", "name"))
        if name == "" {
            for k := range d.Sections { if name == "" || k < name { name = k } }
        }
        if name == "" {
            base := filepath.Base(d.SourceFile)
            name = strings.TrimSuffix(base, filepath.Ext(base))
            warnings = append(warnings, "tdd name derived from file name")
        }

        author := normalize.Email(lookup(d, t.Mapping, "author_email", "author", "written by", "owner"))
        if author == "" && len(d.Emails) > 0 { author = d.Emails[0] }

        epicID := t.resolveEpic(d, pos, &warnings)
        estID := t.resolveEstimation(epicID, pos, &warnings)

        desc := sectionFor(d, "description", "overview", "summary", "introduction")
        if desc == "" { desc = truncate(d.RawText, 2000) }

        now := t.Now().UTC()
        tdd := &domain.TDD{
            TDDID:                   t.IDs.TDDID(),
            EpicID:                  epicID,
            DevEstID:                estID,
            TDDName:                 name,
            Description:             desc,
            Version:                 t.version(d),
            Status:                  normalize.Enum(lookup(d, t.Mapping, "status", "status", "state"), domain.TDDStatuses, "Draft"),
            AuthorEmail:             author,
            TechnicalComponents:     t.components(d),
            DesignDecisions:         sectionFor(d, "design decision", "decision", "approach", "solution"),
            Dependencies:            t.dependencies(d),
            ArchitecturePattern:     detectArchitecture(d.RawText),
            SecurityConsiderations:  sectionFor(d, "security"),
            PerformanceRequirements: sectionFor(d, "performance", "scalability", "sla"),
            CreatedAt:               now,
            UpdatedAt:               now,
        }

        if errs := tdd.Validate(); len(errs) > 0 {
            return domain.TransformationResult{Success: false, Entity: tdd, Errors: errs, Warnings: warnings}
        }
        t.Rels.RegisterTDD(tdd.TDDID, tdd.EpicID, tdd.DevEstID, tdd.TDDName)
        return domain.TransformationResult{Success: true, Entity: tdd, Warnings: warnings}
    })
}

// version prefers an explicit field, then a "Version: N" phrase anywhere in
// the text, and always comes back in N.N form. Explicit values may carry
// decoration ("v1.2", "rev 2"), so only the numeric part is kept.
func (t *TDDTransformer) version(d *domain.ExtractedData) string {
    v := versionNumRe.FindString(normalize.Text(lookup(d, t.Mapping, "version", "version", "revision")))
    if v == "" {
        if m := versionInTextRe.FindStringSubmatch(d.RawText); m != nil { v = m[1] }
    }
    if v == "" { return "1.0" }
    if !strings.Contains(v, ".") { v += ".0" }
    return v
}

func (t *TDDTransformer) components(d *domain.ExtractedData) []string {
    var out []string
    for _, l := range d.Lists {
        lc := strings.ToLower(l.Context)
        if strings.Contains(lc, "component") || strings.Contains(lc, "technolog") || strings.Contains(lc, "stack") {
            out = append(out, l.Items...)
        }
    }
    if len(out) > 0 { return out }
    for _, kw := range techKeywords {
        if containsWord(d.RawText, kw) { out = append(out, kw) }
    }
    return out
}

func (t *TDDTransformer) dependencies(d *domain.ExtractedData) []string {
    var out []string
    for _, l := range d.Lists {
        if strings.Contains(strings.ToLower(l.Context), "dependenc") { out = append(out, l.Items...) }
    }
    return out
}

func (t *TDDTransformer) resolveEpic(d *domain.ExtractedData, pos int, warnings *[]string) string {
    ref := normalize.Text(lookup(d, t.Mapping, "epic_id", "epic id", "epic", "parent"))
    candidates := append([]string{ref}, d.TicketIDs...)
    if id, ok := t.Rels.ResolveEpicID(candidates...); ok { return id }
    if ref != "" && t.Rels.HasEpic(ref) { return ref }
    if id, ok := t.Rels.EpicByPosition(pos); ok { return id }
    if id, ok := t.Rels.EpicByPosition(0); ok { return id }
    id := placeholderEpic(t.IDs, t.Rels)
    *warnings = append(*warnings, "no epic available, created placeholder "+id)
    return id
}

func (t *TDDTransformer) resolveEstimation(epicID string, pos int, warnings *[]string) string {
    if id, ok := t.Rels.EstimationForEpic(epicID); ok { return id }
    if id, ok := t.Rels.EstimationByPosition(pos); ok { return id }
    if id, ok := t.Rels.EstimationByPosition(0); ok { return id }
    id := placeholderEstimation(t.IDs, t.Rels, epicID)
    *warnings = append(*warnings, "no estimation available, created placeholder "+id)
    return id
}

func detectArchitecture(text string) string {
    lt := strings.ToLower(text)
    for _, p := range architecturePatterns {
        if strings.Contains(lt, strings.ToLower(p)) { return p }
    }
    return ""
}

// containsWord does a whole-word, case-sensitive-prefix match so that "Go"
// does not fire on "Google" or "algorithm".
func containsWord(text, word string) bool {
    idx := 0
    for {
        i := strings.Index(text[idx:], word)
        if i < 0 { return false }
        i += idx
        before := i == 0 || !isWordChar(text[i-1])
        afterIdx := i + len(word)
        after := afterIdx >= len(text) || !isWordChar(text[afterIdx])
        if before && after { return true }
        idx = i + len(word)
    }
}

func isWordChar(b byte) bool {
    return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '.'
}

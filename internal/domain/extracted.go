package domain

// Table is one extracted tabular block: ordered headers plus rows keyed by
// header. Row values are string, float64 or time.Time depending on the cell.
type Table struct {
    Name    string
    Headers []string
    Rows    []map[string]any
}

// List is a run-on bulleted/numbered list with the nearest preceding heading
// kept as context.
type List struct {
    Context string
    Items   []string
}

type FieldValue struct {
    Value      any
    Confidence float64
}

// ExtractedData is the extractor-agnostic bag produced once per source file
// and consumed by exactly one transformer call.
type ExtractedData struct {
    SourceFile string
    DocType    string
    RawText    string
    Sections   map[string]string
    Tables     []Table
    Lists      []List
    KeyValues  map[string]string
    TicketIDs  []string
    Emails     []string
    Dates      []string
    Fields     map[string]FieldValue
    Confidence float64
    Warnings   []string
}

// FieldMapping maps source field names to target schema fields. An empty map
// means "use defaults/heuristics"; absence of an entry is not an error.
type FieldMapping map[string]string

// SourceFor returns the source field mapped onto the given target field.
func (m FieldMapping) SourceFor(target string) (string, bool) {
    for src, tgt := range m {
        if tgt == target { return src, true }
    }
    return "", false
}

// TransformationResult is the only thing a transformer hands back; raw
// exceptions never cross this boundary.
type TransformationResult struct {
    Success  bool
    Entity   any
    Errors   []string
    Warnings []string
}

type RelationshipError struct {
    EntityType string `json:"entity_type"`
    EntityID   string `json:"entity_id"`
    Field      string `json:"field_name"`
    Message    string `json:"message"`
    Severity   string `json:"severity"`
}

// GraphExport is the serializable relationship summary used for audit output.
type GraphExport struct {
    Epics             []string            `json:"epics"`
    Estimations       []string            `json:"estimations"`
    TDDs              []string            `json:"tdds"`
    Stories           []string            `json:"stories"`
    EpicEstimations   map[string][]string `json:"epic_estimations"`
    EpicTDDs          map[string][]string `json:"epic_tdds"`
    EstimationStories map[string][]string `json:"estimation_stories"`
    Counts            map[string]int      `json:"counts"`
}

// Package export writes the final entity tables to CSV and the relationship
// graph to JSON. Column order is fixed by the domain package.
package export

import (
    "encoding/csv"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"

    "github.com/HamedShams/impact-pipeline/internal/domain"
)

// Writer emits one file per entity type under a single output directory.
type Writer struct {
    Dir string
}

func NewWriter(dir string) *Writer { return &Writer{Dir: dir} }

func (w *Writer) writeCSV(name string, columns []string, rows [][]string) (string, error) {
    if err := os.MkdirAll(w.Dir, 0o755); err != nil { return "", fmt.Errorf("export: mkdir %s: %w", w.Dir, err) }
    path := filepath.Join(w.Dir, name)
    f, err := os.Create(path)
    if err != nil { return "", fmt.Errorf("export: create %s: %w", path, err) }
    defer f.Close()

    cw := csv.NewWriter(f)
    if err := cw.Write(columns); err != nil { return "", fmt.Errorf("export: write header: %w", err) }
    for _, r := range rows {
        if len(r) != len(columns) { return "", fmt.Errorf("export: row width %d != %d columns in %s", len(r), len(columns), name) }
        if err := cw.Write(r); err != nil { return "", fmt.Errorf("export: write row: %w", err) }
    }
    cw.Flush()
    if err := cw.Error(); err != nil { return "", fmt.Errorf("export: flush %s: %w", path, err) }
    return path, nil
}

func (w *Writer) WriteEpics(epics []*domain.Epic) (string, error) {
    rows := make([][]string, 0, len(epics))
    for _, e := range epics { rows = append(rows, e.CSVRow()) }
    return w.writeCSV("epics.csv", domain.EpicCSVColumns, rows)
}

func (w *Writer) WriteEstimations(ests []*domain.Estimation) (string, error) {
    rows := make([][]string, 0, len(ests))
    for _, e := range ests { rows = append(rows, e.CSVRow()) }
    return w.writeCSV("estimations.csv", domain.EstimationCSVColumns, rows)
}

func (w *Writer) WriteTDDs(tdds []*domain.TDD) (string, error) {
    rows := make([][]string, 0, len(tdds))
    for _, t := range tdds { rows = append(rows, t.CSVRow()) }
    return w.writeCSV("tdds.csv", domain.TDDCSVColumns, rows)
}

func (w *Writer) WriteStories(stories []*domain.Story) (string, error) {
    rows := make([][]string, 0, len(stories))
    for _, s := range stories { rows = append(rows, s.CSVRow()) }
    return w.writeCSV("stories.csv", domain.StoryCSVColumns, rows)
}

// WriteGraph dumps the relationship snapshot next to the CSVs for audit.
func (w *Writer) WriteGraph(g domain.GraphExport) (string, error) {
    if err := os.MkdirAll(w.Dir, 0o755); err != nil { return "", fmt.Errorf("export: mkdir %s: %w", w.Dir, err) }
    path := filepath.Join(w.Dir, "relationships.json")
    b, err := json.MarshalIndent(g, "", "  ")
    if err != nil { return "", fmt.Errorf("export: marshal graph: %w", err) }
    if err := os.WriteFile(path, b, 0o644); err != nil { return "", fmt.Errorf("export: write %s: %w", path, err) }
    return path, nil
}

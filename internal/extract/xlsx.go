package extract

import (
    "fmt"
    "strconv"
    "strings"

    "github.com/xuri/excelize/v2"

    "github.com/HamedShams/impact-pipeline/internal/domain"
    "github.com/HamedShams/impact-pipeline/internal/normalize"
)

// XlsxExtractor turns every sheet of a workbook into one Table. The header
// row is located, not assumed: people leave title banners above real data.
type XlsxExtractor struct{}

func (e *XlsxExtractor) SupportedExtensions() []string { return []string{".xlsx", ".xlsm"} }

func (e *XlsxExtractor) Extract(path string) (*domain.ExtractedData, error) {
    f, err := excelize.OpenFile(path)
    if err != nil { return nil, fmt.Errorf("extract: open %s: %w", path, err) }
    defer f.Close()

    out := &domain.ExtractedData{
        SourceFile: path,
        DocType:    DetectDocType(path),
        Sections:   map[string]string{},
        KeyValues:  map[string]string{},
        Fields:     map[string]domain.FieldValue{},
    }

    var raw strings.Builder
    for _, sheet := range f.GetSheetList() {
        rows, err := f.GetRows(sheet)
        if err != nil { return nil, fmt.Errorf("extract: read sheet %s: %w", sheet, err) }
        hi := headerRowIndex(rows)
        if hi < 0 {
            out.Warnings = append(out.Warnings, fmt.Sprintf("sheet %q has no usable header row", sheet))
            continue
        }
        headers := make([]string, 0, len(rows[hi]))
        for i, h := range rows[hi] {
            h = normalize.Text(h)
            if h == "" { h = fmt.Sprintf("col_%d", i+1) }
            headers = append(headers, h)
            raw.WriteString(h + "\n")
        }
        tbl := domain.Table{Name: sheet, Headers: headers}
        for _, r := range rows[hi+1:] {
            row := map[string]any{}
            empty := true
            for i, cell := range r {
                if i >= len(headers) { break }
                v := cellValue(cell)
                if v != nil && normalize.String(v) != "" {
                    empty = false
                    raw.WriteString(normalize.String(v) + "\n")
                }
                row[headers[i]] = v
            }
            if !empty { tbl.Rows = append(tbl.Rows, row) }
        }
        out.Tables = append(out.Tables, tbl)
    }

    out.RawText = strings.TrimSpace(raw.String())
    out.TicketIDs, out.Emails, out.Dates = scanPatterns(out.RawText)
    out.Confidence = xlsxConfidence(out)
    if len(out.Tables) == 0 { out.Warnings = append(out.Warnings, "workbook contains no tabular data") }
    return out, nil
}

// headerRowIndex scans the first rows for the one that looks like column
// headers: mostly non-empty, mostly non-numeric, at least two cells.
func headerRowIndex(rows [][]string) int {
    limit := len(rows)
    if limit > 10 { limit = 10 }
    for i := 0; i < limit; i++ {
        var filled, stringy int
        for _, c := range rows[i] {
            c = strings.TrimSpace(c)
            if c == "" { continue }
            filled++
            if _, err := strconv.ParseFloat(c, 64); err != nil { stringy++ }
        }
        if filled >= 2 && stringy*2 >= filled && i+1 < len(rows) {
            return i
        }
    }
    return -1
}

// cellValue coerces the string excelize hands back: numbers become float64,
// date-looking cells become time.Time, everything else stays text.
func cellValue(cell string) any {
    s := strings.TrimSpace(cell)
    if s == "" { return nil }
    if f, err := strconv.ParseFloat(s, 64); err == nil { return f }
    if strings.ContainsAny(s, "-/") || strings.Contains(s, ",") {
        if d := normalize.Date(s); d != nil { return *d }
    }
    return normalize.Text(s)
}

func xlsxConfidence(d *domain.ExtractedData) float64 {
    if len(d.Tables) == 0 { return 0.1 }
    c := 0.6
    rows := 0
    for _, t := range d.Tables { rows += len(t.Rows) }
    if rows > 0 { c += 0.2 }
    if len(d.TicketIDs) > 0 || len(d.Emails) > 0 { c += 0.1 }
    if c > 1 { c = 1 }
    return c
}

package extract

import (
    "archive/zip"
    "encoding/xml"
    "fmt"
    "io"
    "strings"

    "github.com/HamedShams/impact-pipeline/internal/domain"
    "github.com/HamedShams/impact-pipeline/internal/normalize"
)

// DocxExtractor reads word/document.xml straight out of the OOXML container.
// Only the WordprocessingML subset we care about is decoded: paragraphs,
// heading styles, numbering marks and tables.
type DocxExtractor struct{}

func (e *DocxExtractor) SupportedExtensions() []string { return []string{".docx"} }

type docxPara struct {
    Props struct {
        Style struct {
            Val string `xml:"val,attr"`
        } `xml:"pStyle"`
        NumPr *struct{} `xml:"numPr"`
    } `xml:"pPr"`
    Runs []struct {
        Text []string `xml:"t"`
    } `xml:"r"`
}

func (p *docxPara) text() string {
    var b strings.Builder
    for _, r := range p.Runs {
        for _, t := range r.Text { b.WriteString(t) }
    }
    return strings.TrimSpace(b.String())
}

func (p *docxPara) heading() bool {
    v := p.Props.Style.Val
    return strings.HasPrefix(v, "Heading") || v == "Title"
}

type docxTable struct {
    Rows []struct {
        Cells []struct {
            Paras []docxPara `xml:"p"`
        } `xml:"tc"`
    } `xml:"tr"`
}

func (e *DocxExtractor) Extract(path string) (*domain.ExtractedData, error) {
    zr, err := zip.OpenReader(path)
    if err != nil { return nil, fmt.Errorf("extract: open %s: %w", path, err) }
    defer zr.Close()

    var doc io.ReadCloser
    for _, f := range zr.File {
        if f.Name == "word/document.xml" {
            doc, err = f.Open()
            if err != nil { return nil, fmt.Errorf("extract: open document.xml: %w", err) }
            break
        }
    }
    if doc == nil { return nil, fmt.Errorf("extract: %s has no word/document.xml", path) }
    defer doc.Close()

    out := &domain.ExtractedData{
        SourceFile: path,
        DocType:    DetectDocType(path),
        Sections:   map[string]string{},
        KeyValues:  map[string]string{},
        Fields:     map[string]domain.FieldValue{},
    }

    var (
        raw      strings.Builder
        section  string
        sectBody strings.Builder
        list     *domain.List
        tableN   int
    )
    flushSection := func() {
        if section == "" && sectBody.Len() == 0 { return }
        body := strings.TrimSpace(sectBody.String())
        if section != "" { out.Sections[section] = body }
        sectBody.Reset()
    }
    flushList := func() {
        if list != nil && len(list.Items) > 0 { out.Lists = append(out.Lists, *list) }
        list = nil
    }

    dec := xml.NewDecoder(doc)
    for {
        tok, err := dec.Token()
        if err == io.EOF { break }
        if err != nil { return nil, fmt.Errorf("extract: parse %s: %w", path, err) }
        se, ok := tok.(xml.StartElement)
        if !ok { continue }
        switch se.Name.Local {
        case "p":
            var p docxPara
            if err := dec.DecodeElement(&p, &se); err != nil { return nil, fmt.Errorf("extract: paragraph: %w", err) }
            txt := normalize.Text(p.text())
            if txt == "" { continue }
            raw.WriteString(txt)
            raw.WriteByte('\n')
            switch {
            case p.heading():
                flushList()
                flushSection()
                section = txt
            case p.Props.NumPr != nil:
                if list == nil { list = &domain.List{Context: section} }
                list.Items = append(list.Items, txt)
            case listMarkerRe.MatchString(txt):
                // bullets typed as plain text rather than Word numbering
                if list == nil { list = &domain.List{Context: section} }
                list.Items = append(list.Items, strings.TrimSpace(listMarkerRe.ReplaceAllString(txt, "")))
            default:
                flushList()
                if m := kvRe.FindStringSubmatch(txt); m != nil {
                    key := strings.TrimSpace(m[1])
                    val := strings.TrimSpace(m[2])
                    out.KeyValues[key] = val
                    out.Fields[strings.ToLower(key)] = domain.FieldValue{Value: val, Confidence: 0.8}
                }
                sectBody.WriteString(txt)
                sectBody.WriteByte('\n')
            }
        case "tbl":
            var t docxTable
            if err := dec.DecodeElement(&t, &se); err != nil { return nil, fmt.Errorf("extract: table: %w", err) }
            flushList()
            tableN++
            if dt := docxToTable(&t, tableN, section); dt != nil {
                out.Tables = append(out.Tables, *dt)
                for _, row := range dt.Rows {
                    for _, v := range row { raw.WriteString(normalize.String(v) + "\n") }
                }
            }
        }
    }
    flushList()
    flushSection()

    out.RawText = strings.TrimSpace(raw.String())
    out.TicketIDs, out.Emails, out.Dates = scanPatterns(out.RawText)
    out.Confidence = docxConfidence(out)
    if out.RawText == "" { out.Warnings = append(out.Warnings, "document contains no extractable text") }
    return out, nil
}

func docxToTable(t *docxTable, n int, section string) *domain.Table {
    if len(t.Rows) == 0 { return nil }
    cellText := func(paras []docxPara) string {
        var parts []string
        for _, p := range paras {
            if s := normalize.Text(p.text()); s != "" { parts = append(parts, s) }
        }
        return strings.Join(parts, " ")
    }
    headers := make([]string, 0, len(t.Rows[0].Cells))
    for i, c := range t.Rows[0].Cells {
        h := cellText(c.Paras)
        if h == "" { h = fmt.Sprintf("col_%d", i+1) }
        headers = append(headers, h)
    }
    name := section
    if name == "" { name = fmt.Sprintf("table_%d", n) }
    out := &domain.Table{Name: name, Headers: headers}
    for _, r := range t.Rows[1:] {
        row := map[string]any{}
        empty := true
        for i, c := range r.Cells {
            if i >= len(headers) { break }
            v := cellText(c.Paras)
            if v != "" { empty = false }
            row[headers[i]] = v
        }
        if !empty { out.Rows = append(out.Rows, row) }
    }
    return out
}

// docxConfidence scores how much structure the document yielded. Flat text
// with no headings or tables still extracts, just with a low score.
func docxConfidence(d *domain.ExtractedData) float64 {
    if d.RawText == "" { return 0.1 }
    c := 0.5
    if len(d.Sections) > 0 { c += 0.15 }
    if len(d.Tables) > 0 { c += 0.15 }
    if len(d.KeyValues) > 0 { c += 0.1 }
    if len(d.TicketIDs) > 0 || len(d.Emails) > 0 { c += 0.1 }
    if c > 1 { c = 1 }
    return c
}

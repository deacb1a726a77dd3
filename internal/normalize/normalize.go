// Package normalize holds the total conversion functions used by every
// transformer. Nothing in here returns an error or panics: unparseable input
// yields nil or the caller-supplied default.
package normalize

import (
    "encoding/json"
    "fmt"
    "math"
    "regexp"
    "strconv"
    "strings"
    "time"

    "golang.org/x/text/unicode/norm"
)

// serialEpoch is the spreadsheet day-zero (1899-12-30). Using this epoch
// reproduces the historic 1900 leap-year quirk without special-casing it.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
    "2006-01-02",
    "2006/01/02",
    "1/2/2006",
    "01/02/2006",
    "2-1-2006",
    "02-01-2006",
    "Jan 2, 2006",
    "January 2, 2006",
    "2 Jan 2006",
}

var dateTimeLayouts = []string{
    time.RFC3339Nano,
    time.RFC3339,
    "2006-01-02T15:04:05",
    "2006-01-02 15:04:05",
    "2006-01-02 15:04",
    "1/2/2006 15:04",
    "1/2/2006 3:04 PM",
    "Jan 2, 2006 15:04",
    "2006-01-02T15:04:05.000-0700",
}

// Date converts ISO, US, EU, written dates or spreadsheet serial numbers to a
// calendar date. Returns nil when nothing parses.
func Date(v any) *time.Time {
    switch t := v.(type) {
    case nil:
        return nil
    case time.Time:
        d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
        return &d
    case *time.Time:
        if t == nil { return nil }
        return Date(*t)
    case float64:
        return serialDate(t)
    case int:
        return serialDate(float64(t))
    case int64:
        return serialDate(float64(t))
    }
    s := strings.TrimSpace(String(v))
    if s == "" { return nil }
    for _, l := range dateLayouts {
        if t, err := time.Parse(l, s); err == nil {
            d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
            return &d
        }
    }
    // bare numeric strings are treated as spreadsheet serials
    if f, err := strconv.ParseFloat(s, 64); err == nil { return serialDate(f) }
    if dt := DateTime(v); dt != nil {
        d := time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC)
        return &d
    }
    return nil
}

func serialDate(serial float64) *time.Time {
    // plausible spreadsheet range only; 0/negative/absurd values are noise
    if serial < 1 || serial > 300000 { return nil }
    days := int(serial)
    frac := serial - float64(days)
    d := serialEpoch.AddDate(0, 0, days).Add(time.Duration(math.Round(frac * 24 * float64(time.Hour.Nanoseconds()))))
    d = time.Date(d.Year(), d.Month(), d.Day(), d.Hour(), d.Minute(), d.Second(), 0, time.UTC)
    return &d
}

// DateTime is Date plus time-of-day layouts; naive timestamps are taken as UTC.
func DateTime(v any) *time.Time {
    switch t := v.(type) {
    case time.Time:
        u := t.UTC()
        return &u
    case *time.Time:
        if t == nil { return nil }
        u := t.UTC()
        return &u
    case float64:
        return serialDate(t)
    case int:
        return serialDate(float64(t))
    }
    s := strings.TrimSpace(String(v))
    if s == "" { return nil }
    for _, l := range dateTimeLayouts {
        if t, err := time.Parse(l, s); err == nil {
            u := t.UTC()
            return &u
        }
    }
    for _, l := range dateLayouts {
        if t, err := time.Parse(l, s); err == nil {
            u := t.UTC()
            return &u
        }
    }
    return nil
}

// ArrayToJSON always returns valid JSON array text. Native slices are
// marshalled, already-valid JSON passes through unchanged, anything else is
// treated as a comma-separated scalar list.
func ArrayToJSON(v any) string {
    switch t := v.(type) {
    case nil:
        return "[]"
    case []string:
        if b, err := json.Marshal(t); err == nil { return string(b) }
        return "[]"
    case []any:
        if b, err := json.Marshal(t); err == nil { return string(b) }
        return "[]"
    case []float64:
        if b, err := json.Marshal(t); err == nil { return string(b) }
        return "[]"
    case []int:
        if b, err := json.Marshal(t); err == nil { return string(b) }
        return "[]"
    }
    s := strings.TrimSpace(String(v))
    if s == "" { return "[]" }
    if strings.HasPrefix(s, "[") && json.Valid([]byte(s)) { return s }
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    if b, err := json.Marshal(out); err == nil { return string(b) }
    return "[]"
}

// DictToJSON always returns valid JSON object text ("{}" on failure),
// idempotent on already-valid JSON objects.
func DictToJSON(v any) string {
    switch t := v.(type) {
    case nil:
        return "{}"
    case map[string]any:
        if b, err := json.Marshal(t); err == nil { return string(b) }
        return "{}"
    case map[string]string:
        if b, err := json.Marshal(t); err == nil { return string(b) }
        return "{}"
    }
    s := strings.TrimSpace(String(v))
    if strings.HasPrefix(s, "{") && json.Valid([]byte(s)) { return s }
    return "{}"
}

var punctRe = regexp.MustCompile(`[^a-z0-9]+`)

// Enum matches input against an allowed set: exact, then case-insensitive,
// then punctuation/whitespace-stripped, then substring containment either
// direction. The precedence order is what makes results deterministic.
func Enum(v any, allowed []string, def string) string {
    s := strings.TrimSpace(String(v))
    if s == "" { return def }
    for _, a := range allowed {
        if a == s { return a }
    }
    for _, a := range allowed {
        if strings.EqualFold(a, s) { return a }
    }
    ns := punctRe.ReplaceAllString(strings.ToLower(s), "")
    if ns != "" {
        for _, a := range allowed {
            if punctRe.ReplaceAllString(strings.ToLower(a), "") == ns { return a }
        }
    }
    ls := strings.ToLower(s)
    for _, a := range allowed {
        la := strings.ToLower(a)
        if strings.Contains(la, ls) || strings.Contains(ls, la) { return a }
    }
    return def
}

var (
    emailFullRe  = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
    emailEmbedRe = regexp.MustCompile(`[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
)

// Email lower-cases and validates; when the whole string is not an address it
// tries to pull one out before giving up with "".
func Email(v any) string {
    s := strings.ToLower(strings.TrimSpace(String(v)))
    if s == "" { return "" }
    if emailFullRe.MatchString(s) { return s }
    if m := emailEmbedRe.FindString(s); m != "" { return m }
    return ""
}

var intraSpaceRe = regexp.MustCompile(`[ \t]+`)

// Text applies NFKC, strips control characters except newline/tab, normalizes
// line breaks and collapses runs of intra-line whitespace.
func Text(v any) string {
    s := String(v)
    if s == "" { return "" }
    s = norm.NFKC.String(s)
    s = strings.ReplaceAll(s, "\r\n", "\n")
    s = strings.ReplaceAll(s, "\r", "\n")
    var b strings.Builder
    b.Grow(len(s))
    for _, r := range s {
        if r == '\n' || r == '\t' || r >= 0x20 {
            b.WriteRune(r)
        }
    }
    lines := strings.Split(b.String(), "\n")
    for i, ln := range lines {
        lines[i] = strings.TrimRight(intraSpaceRe.ReplaceAllString(ln, " "), " ")
    }
    return strings.TrimSpace(strings.Join(lines, "\n"))
}

var currencyRe = regexp.MustCompile(`[$€£¥,\s]`)

// Float strips currency symbols and thousands separators before parsing.
func Float(v any, def float64) float64 {
    switch t := v.(type) {
    case float64:
        return t
    case float32:
        return float64(t)
    case int:
        return float64(t)
    case int64:
        return float64(t)
    }
    s := currencyRe.ReplaceAllString(strings.TrimSpace(String(v)), "")
    if s == "" { return def }
    f, err := strconv.ParseFloat(s, 64)
    if err != nil { return def }
    return f
}

// Int is Float truncated, so "3.0" and "$1,200" both coerce.
func Int(v any, def int) int {
    switch t := v.(type) {
    case int:
        return t
    case int64:
        return int(t)
    case float64:
        return int(t)
    }
    s := currencyRe.ReplaceAllString(strings.TrimSpace(String(v)), "")
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    if f, err := strconv.ParseFloat(s, 64); err == nil { return int(f) }
    return def
}

// String renders any scalar as its string form ("" for nil).
func String(v any) string {
    if v == nil { return "" }
    if s, ok := v.(string); ok { return s }
    if t, ok := v.(time.Time); ok { return t.Format("2006-01-02") }
    if f, ok := v.(float64); ok {
        if f == math.Trunc(f) && math.Abs(f) < 1e15 { return strconv.FormatInt(int64(f), 10) }
        return strconv.FormatFloat(f, 'g', -1, 64)
    }
    return fmt.Sprintf("%v", v)
}

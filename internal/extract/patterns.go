package extract

import (
    "regexp"
    "strings"
)

var (
    ticketRe = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,9}-\d{1,6}\b`)
    emailRe  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
    dateRe   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4}|\d{1,2}-\d{1,2}-\d{4}|(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2},? \d{4})\b`)
    kvRe     = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 /_\-]{1,40}):\s+(.+)$`)

    // bullet characters people type by hand instead of using Word numbering
    listMarkerRe = regexp.MustCompile(`^[-*•]\s+`)
)

func dedup(in []string) []string {
    seen := make(map[string]struct{}, len(in))
    out := make([]string, 0, len(in))
    for _, s := range in {
        if _, ok := seen[s]; ok { continue }
        seen[s] = struct{}{}
        out = append(out, s)
    }
    return out
}

// scanPatterns pulls ticket ids, emails and date literals out of free text.
func scanPatterns(text string) (tickets, emails, dates []string) {
    tickets = dedup(ticketRe.FindAllString(text, -1))
    for _, m := range emailRe.FindAllString(text, -1) {
        emails = append(emails, strings.ToLower(m))
    }
    emails = dedup(emails)
    dates = dedup(dateRe.FindAllString(text, -1))
    return
}

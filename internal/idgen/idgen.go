// Package idgen mints the per-job synthetic primary keys. One Generator per
// processing job; it is not safe for concurrent mutation.
package idgen

import (
    "fmt"
    "regexp"
    "strings"
)

type Kind string

const (
    KindEpic       Kind = "epic"
    KindEstimation Kind = "estimation"
    KindTDD        Kind = "tdd"
    KindStory      Kind = "story"
)

var defaultPrefixes = map[Kind]string{
    KindEpic:       "EPIC",
    KindEstimation: "EST",
    KindTDD:        "TDD",
    KindStory:      "STORY",
}

// ticketRes recognizes externally-sourced ticket ids worth preserving:
// the usual PROJECT-123 convention plus the two-letter-prefix shorthand.
var ticketRes = []*regexp.Regexp{
    regexp.MustCompile(`^[A-Z][A-Z0-9]*-\d+$`),
    regexp.MustCompile(`^[A-Z]{2}\d+$`),
}

var nonAlnumRe = regexp.MustCompile(`[^A-Z0-9]`)

type Generator struct {
    prefixes  map[Kind]string
    counters  map[Kind]int
    moduleSeq map[string]int
    used      map[string]struct{}
    pad       int
}

// New returns a Generator with the default prefixes and 3-digit padding.
func New() *Generator { return NewWithPadding(3) }

func NewWithPadding(pad int) *Generator {
    if pad <= 0 { pad = 3 }
    return &Generator{
        prefixes:  defaultPrefixes,
        counters:  map[Kind]int{},
        moduleSeq: map[string]int{},
        used:      map[string]struct{}{},
        pad:       pad,
    }
}

func (g *Generator) next(kind Kind) string {
    for {
        g.counters[kind]++
        id := fmt.Sprintf("%s-%0*d", g.prefixes[kind], g.pad, g.counters[kind])
        if !g.IsUsed(id) {
            g.used[id] = struct{}{}
            return id
        }
    }
}

func (g *Generator) EpicID() string       { return g.next(KindEpic) }
func (g *Generator) EstimationID() string { return g.next(KindEstimation) }
func (g *Generator) TDDID() string        { return g.next(KindTDD) }

// StoryID preserves a recognized, not-yet-used external ticket id; anything
// else falls through to a sequential STORY id. Never fails.
func (g *Generator) StoryID(existing string) string {
    t := strings.ToUpper(strings.TrimSpace(existing))
    if t != "" && !g.IsUsed(t) {
        for _, re := range ticketRes {
            if re.MatchString(t) {
                g.used[t] = struct{}{}
                return t
            }
        }
    }
    return g.next(KindStory)
}

// ModuleID derives a short domain code and keeps an independent sequence per
// code, producing MOD-{DOMAIN}-NNN.
func (g *Generator) ModuleID(domain string) string {
    code := DomainCode(domain)
    g.moduleSeq[code]++
    id := fmt.Sprintf("MOD-%s-%0*d", code, g.pad, g.moduleSeq[code])
    g.used[id] = struct{}{}
    return id
}

// DomainCode normalizes a free-text domain hint to an uppercase alnum code of
// at most 4 characters, with GEN as the degenerate fallback.
func DomainCode(domain string) string {
    code := nonAlnumRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(domain)), "")
    if len(code) > 4 { code = code[:4] }
    if len(code) < 2 { return "GEN" }
    return code
}

// RegisterExisting pre-seeds the used set so merges with previously generated
// data cannot collide.
func (g *Generator) RegisterExisting(id string) {
    id = strings.TrimSpace(id)
    if id != "" { g.used[id] = struct{}{} }
}

func (g *Generator) IsUsed(id string) bool {
    _, ok := g.used[id]
    return ok
}

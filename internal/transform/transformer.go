// Package transform maps extracted document data onto the four target
// schemas. Every transformer returns a TransformationResult; panics are
// converted to failed results so one bad document never kills a job.
package transform

import (
    "fmt"
    "sort"
    "strings"

    "github.com/HamedShams/impact-pipeline/internal/domain"
    "github.com/HamedShams/impact-pipeline/internal/idgen"
    "github.com/HamedShams/impact-pipeline/internal/relationship"
)

// Transformer converts one extracted document into zero or more entities.
type Transformer interface {
    Transform(d *domain.ExtractedData) domain.TransformationResult
}

// safeTransform shields callers from panics inside a transformer body.
func safeTransform(fn func() domain.TransformationResult) (res domain.TransformationResult) {
    defer func() {
        if r := recover(); r != nil {
            res = domain.TransformationResult{Success: false, Errors: []string{fmt.Sprintf("transform panic: %v", r)}}
        }
    }()
    return fn()
}

// lookup resolves a target field against an explicit mapping first, then
// against field/key-value names by case-insensitive substring. Synonyms are
// tried in order and candidate keys in sorted order, so the first match is
// deterministic even when headers are ambiguous.
func lookup(d *domain.ExtractedData, mapping domain.FieldMapping, target string, synonyms ...string) any {
    if src, ok := mapping.SourceFor(target); ok {
        if v, ok := d.Fields[strings.ToLower(src)]; ok { return v.Value }
        if v, ok := d.KeyValues[src]; ok { return v }
    }
    keys := make([]string, 0, len(d.Fields))
    for k := range d.Fields { keys = append(keys, k) }
    sort.Strings(keys)
    for _, syn := range synonyms {
        syn = strings.ToLower(syn)
        for _, k := range keys {
            if strings.Contains(k, syn) { return d.Fields[k].Value }
        }
    }
    kvKeys := make([]string, 0, len(d.KeyValues))
    for k := range d.KeyValues { kvKeys = append(kvKeys, k) }
    sort.Strings(kvKeys)
    for _, syn := range synonyms {
        syn = strings.ToLower(syn)
        for _, k := range kvKeys {
            if strings.Contains(strings.ToLower(k), syn) { return d.KeyValues[k] }
        }
    }
    return nil
}

// rowValue is lookup for a single table row; headers carry the column order
// so matching stays deterministic.
func rowValue(row map[string]any, headers []string, mapping domain.FieldMapping, target string, synonyms ...string) any {
    if src, ok := mapping.SourceFor(target); ok {
        for _, h := range headers {
            if strings.EqualFold(h, src) { return row[h] }
        }
    }
    for _, syn := range synonyms {
        syn = strings.ToLower(syn)
        for _, h := range headers {
            if strings.Contains(strings.ToLower(h), syn) { return row[h] }
        }
    }
    return nil
}

// sectionFor returns the body of the first section whose heading contains one
// of the synonyms.
func sectionFor(d *domain.ExtractedData, synonyms ...string) string {
    keys := make([]string, 0, len(d.Sections))
    for k := range d.Sections { keys = append(keys, k) }
    sort.Strings(keys)
    for _, syn := range synonyms {
        syn = strings.ToLower(syn)
        for _, k := range keys {
            if strings.Contains(strings.ToLower(k), syn) { return d.Sections[k] }
        }
    }
    return ""
}

// Placeholder parents keep the graph closed when a child document arrives
// before (or without) its parent. They are registered for FK resolution but
// never exported as rows.
func placeholderEpic(ids *idgen.Generator, rels *relationship.Manager) string {
    id := ids.EpicID()
    rels.RegisterEpic(id, relationship.PlaceholderPrefix+id)
    return id
}

func placeholderEstimation(ids *idgen.Generator, rels *relationship.Manager, epicID string) string {
    id := ids.EstimationID()
    rels.RegisterEstimation(id, epicID, relationship.PlaceholderPrefix+id)
    return id
}

func placeholderTDD(ids *idgen.Generator, rels *relationship.Manager, epicID, estID string) string {
    id := ids.TDDID()
    rels.RegisterTDD(id, epicID, estID, relationship.PlaceholderPrefix+id)
    return id
}

func clampPoints(n, max int) int {
    if n < 0 { return 0 }
    if n > max { return max }
    return n
}

func truncate(s string, n int) string {
    if len(s) <= n { return s }
    return strings.TrimSpace(s[:n])
}

// Package relationship tracks every entity registered during one processing
// job and resolves/validates the foreign keys between them. One Manager per
// job; sequential use only, like the id generator it travels with.
package relationship

import (
    "fmt"
    "strings"

    "github.com/HamedShams/impact-pipeline/internal/domain"
)

// PlaceholderPrefix marks source keys of auto-minted parents so they can be
// told apart from real source identifiers in the audit graph.
const PlaceholderPrefix = "placeholder:"

type index struct {
    source   map[string]string // id -> primary source identifier
    bySource map[string]string // normalized source identifier -> id
    order    []string          // insertion order, for position fallback
}

func newIndex() *index {
    return &index{source: map[string]string{}, bySource: map[string]string{}}
}

func (ix *index) add(id string, keys ...string) {
    primary := ""
    for _, k := range keys {
        k = strings.TrimSpace(k)
        if k == "" { continue }
        if primary == "" { primary = k }
        nk := strings.ToLower(k)
        if _, taken := ix.bySource[nk]; !taken { ix.bySource[nk] = id }
    }
    ix.source[id] = primary
    ix.order = append(ix.order, id)
}

func (ix *index) resolve(keys ...string) (string, bool) {
    for _, k := range keys {
        k = strings.ToLower(strings.TrimSpace(k))
        if k == "" { continue }
        if id, ok := ix.bySource[k]; ok { return id, true }
    }
    return "", false
}

func (ix *index) at(pos int) (string, bool) {
    if pos < 0 || pos >= len(ix.order) { return "", false }
    return ix.order[pos], true
}

func (ix *index) has(id string) bool { _, ok := ix.source[id]; return ok }

type Manager struct {
    epics       *index
    estimations *index
    tdds        *index
    stories     *index

    epicEstimations   map[string][]string
    epicTDDs          map[string][]string
    estimationStories map[string][]string

    estimationEpic map[string]string
    tddEpic        map[string]string
    tddEstimation  map[string]string
    storyEpic      map[string]string
    storyEstimation map[string]string
    storyTDD       map[string]string
}

func NewManager() *Manager {
    return &Manager{
        epics:             newIndex(),
        estimations:       newIndex(),
        tdds:              newIndex(),
        stories:           newIndex(),
        epicEstimations:   map[string][]string{},
        epicTDDs:          map[string][]string{},
        estimationStories: map[string][]string{},
        estimationEpic:    map[string]string{},
        tddEpic:           map[string]string{},
        tddEstimation:     map[string]string{},
        storyEpic:         map[string]string{},
        storyEstimation:   map[string]string{},
        storyTDD:          map[string]string{},
    }
}

// RegisterEpic records an epic under its id plus any alternate source keys
// (external ticket, name, requirement id).
func (m *Manager) RegisterEpic(id string, sourceKeys ...string) {
    m.epics.add(id, sourceKeys...)
}

func (m *Manager) RegisterEstimation(id, epicID string, sourceKeys ...string) {
    m.estimations.add(id, sourceKeys...)
    m.estimationEpic[id] = epicID
    if epicID != "" { m.epicEstimations[epicID] = append(m.epicEstimations[epicID], id) }
}

func (m *Manager) RegisterTDD(id, epicID, estimationID string, sourceKeys ...string) {
    m.tdds.add(id, sourceKeys...)
    m.tddEpic[id] = epicID
    m.tddEstimation[id] = estimationID
    if epicID != "" { m.epicTDDs[epicID] = append(m.epicTDDs[epicID], id) }
}

func (m *Manager) RegisterStory(id, epicID, estimationID, tddID string, sourceKeys ...string) {
    m.stories.add(id, sourceKeys...)
    m.storyEpic[id] = epicID
    m.storyEstimation[id] = estimationID
    m.storyTDD[id] = tddID
    if estimationID != "" { m.estimationStories[estimationID] = append(m.estimationStories[estimationID], id) }
}

// ResolveEpicID tries each alternate key against the reverse index.
func (m *Manager) ResolveEpicID(keys ...string) (string, bool) { return m.epics.resolve(keys...) }

func (m *Manager) ResolveEstimationID(keys ...string) (string, bool) { return m.estimations.resolve(keys...) }

func (m *Manager) ResolveTDDID(keys ...string) (string, bool) { return m.tdds.resolve(keys...) }

// Position-based fallbacks assume files were supplied in corresponding order.
func (m *Manager) EpicByPosition(pos int) (string, bool)       { return m.epics.at(pos) }
func (m *Manager) EstimationByPosition(pos int) (string, bool) { return m.estimations.at(pos) }
func (m *Manager) TDDByPosition(pos int) (string, bool)        { return m.tdds.at(pos) }

// EstimationForEpic returns the first estimation registered under the epic.
func (m *Manager) EstimationForEpic(epicID string) (string, bool) {
    kids := m.epicEstimations[epicID]
    if len(kids) == 0 { return "", false }
    return kids[0], true
}

func (m *Manager) TDDForEpic(epicID string) (string, bool) {
    kids := m.epicTDDs[epicID]
    if len(kids) == 0 { return "", false }
    return kids[0], true
}

func (m *Manager) HasEpic(id string) bool       { return m.epics.has(id) }
func (m *Manager) HasEstimation(id string) bool { return m.estimations.has(id) }
func (m *Manager) HasTDD(id string) bool        { return m.tdds.has(id) }
func (m *Manager) HasStory(id string) bool      { return m.stories.has(id) }

// ValidateAll sweeps every registered FK and collects violations. The caller
// decides whether a non-empty list blocks export.
func (m *Manager) ValidateAll() []domain.RelationshipError {
    var errs []domain.RelationshipError
    bad := func(typ, id, field, ref, want string) domain.RelationshipError {
        return domain.RelationshipError{
            EntityType: typ, EntityID: id, Field: field, Severity: "error",
            Message: fmt.Sprintf("%s references %s %q which is not registered", field, want, ref),
        }
    }
    for _, id := range m.estimations.order {
        if epic := m.estimationEpic[id]; epic == "" || !m.epics.has(epic) {
            errs = append(errs, bad("estimation", id, "epic_id", epic, "epic"))
        }
    }
    for _, id := range m.tdds.order {
        if epic := m.tddEpic[id]; epic == "" || !m.epics.has(epic) {
            errs = append(errs, bad("tdd", id, "epic_id", epic, "epic"))
        }
        if est := m.tddEstimation[id]; est == "" || !m.estimations.has(est) {
            errs = append(errs, bad("tdd", id, "dev_est_id", est, "estimation"))
        }
    }
    for _, id := range m.stories.order {
        if epic := m.storyEpic[id]; epic == "" || !m.epics.has(epic) {
            errs = append(errs, bad("story", id, "epic_id", epic, "epic"))
        }
        if est := m.storyEstimation[id]; est == "" || !m.estimations.has(est) {
            errs = append(errs, bad("story", id, "dev_est_id", est, "estimation"))
        }
        if tdd := m.storyTDD[id]; tdd == "" || !m.tdds.has(tdd) {
            errs = append(errs, bad("story", id, "tdd_id", tdd, "tdd"))
        }
    }
    return errs
}

// ExportGraph snapshots ids and adjacency for audit output.
func (m *Manager) ExportGraph() domain.GraphExport {
    cp := func(src map[string][]string) map[string][]string {
        out := make(map[string][]string, len(src))
        for k, v := range src { out[k] = append([]string(nil), v...) }
        return out
    }
    return domain.GraphExport{
        Epics:             append([]string(nil), m.epics.order...),
        Estimations:       append([]string(nil), m.estimations.order...),
        TDDs:              append([]string(nil), m.tdds.order...),
        Stories:           append([]string(nil), m.stories.order...),
        EpicEstimations:   cp(m.epicEstimations),
        EpicTDDs:          cp(m.epicTDDs),
        EstimationStories: cp(m.estimationStories),
        Counts:            m.Stats(),
    }
}

func (m *Manager) Stats() map[string]int {
    return map[string]int{
        "epics":       len(m.epics.order),
        "estimations": len(m.estimations.order),
        "tdds":        len(m.tdds.order),
        "stories":     len(m.stories.order),
    }
}

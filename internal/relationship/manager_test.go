package relationship

import "testing"

func TestManager_ResolveByAlternateKeys(t *testing.T) {
    m := NewManager()
    m.RegisterEpic("EPIC-001", "PROJ-100", "Checkout Revamp", "REQ-7")

    for _, key := range []string{"PROJ-100", "proj-100", "Checkout Revamp", "REQ-7"} {
        id, ok := m.ResolveEpicID(key)
        if !ok || id != "EPIC-001" { t.Fatalf("resolve %q: got %q ok=%v", key, id, ok) }
    }
    if _, ok := m.ResolveEpicID("unknown"); ok { t.Fatalf("expected unknown key to miss") }
    if _, ok := m.ResolveEpicID("", "  "); ok { t.Fatalf("blank keys should miss") }
}

func TestManager_PositionFallback(t *testing.T) {
    m := NewManager()
    m.RegisterEpic("EPIC-001", "first")
    m.RegisterEpic("EPIC-002", "second")

    if id, ok := m.EpicByPosition(0); !ok || id != "EPIC-001" { t.Fatalf("pos 0: %q %v", id, ok) }
    if id, ok := m.EpicByPosition(1); !ok || id != "EPIC-002" { t.Fatalf("pos 1: %q %v", id, ok) }
    if _, ok := m.EpicByPosition(2); ok { t.Fatalf("pos 2 should miss") }
    if _, ok := m.EpicByPosition(-1); ok { t.Fatalf("negative pos should miss") }
}

func TestManager_AdjacencyAndFirstChild(t *testing.T) {
    m := NewManager()
    m.RegisterEpic("EPIC-001")
    m.RegisterEstimation("EST-001", "EPIC-001")
    m.RegisterEstimation("EST-002", "EPIC-001")
    m.RegisterTDD("TDD-001", "EPIC-001", "EST-001")

    if id, ok := m.EstimationForEpic("EPIC-001"); !ok || id != "EST-001" { t.Fatalf("got %q %v", id, ok) }
    if id, ok := m.TDDForEpic("EPIC-001"); !ok || id != "TDD-001" { t.Fatalf("got %q %v", id, ok) }
    if _, ok := m.EstimationForEpic("EPIC-999"); ok { t.Fatalf("unknown epic should have no children") }
}

func TestValidateAll_HappyPath(t *testing.T) {
    m := NewManager()
    m.RegisterEpic("EPIC-001")
    m.RegisterEstimation("EST-001", "EPIC-001")
    m.RegisterTDD("TDD-001", "EPIC-001", "EST-001")
    m.RegisterStory("PROJ-55", "EPIC-001", "EST-001", "TDD-001")

    if errs := m.ValidateAll(); len(errs) != 0 { t.Fatalf("expected clean graph, got %v", errs) }
}

func TestValidateAll_ReportsBrokenFKs(t *testing.T) {
    m := NewManager()
    m.RegisterEstimation("EST-001", "EPIC-404")
    m.RegisterTDD("TDD-001", "", "EST-001")
    m.RegisterStory("STORY-001", "EPIC-404", "EST-001", "TDD-999")

    errs := m.ValidateAll()
    if len(errs) != 4 { t.Fatalf("expected 4 violations, got %d: %v", len(errs), errs) }
    byField := map[string]int{}
    for _, e := range errs {
        byField[e.EntityType+"."+e.Field]++
        if e.Severity != "error" { t.Fatalf("expected severity error, got %q", e.Severity) }
    }
    for _, want := range []string{"estimation.epic_id", "tdd.epic_id", "story.epic_id", "story.tdd_id"} {
        if byField[want] != 1 { t.Fatalf("missing violation %s in %v", want, byField) }
    }
}

func TestExportGraph_SnapshotsCounts(t *testing.T) {
    m := NewManager()
    m.RegisterEpic("EPIC-001")
    m.RegisterEstimation("EST-001", "EPIC-001")
    m.RegisterStory("STORY-001", "EPIC-001", "EST-001", "TDD-001")

    g := m.ExportGraph()
    if len(g.Epics) != 1 || len(g.Estimations) != 1 || len(g.Stories) != 1 {
        t.Fatalf("unexpected graph: %+v", g)
    }
    if got := g.EstimationStories["EST-001"]; len(got) != 1 || got[0] != "STORY-001" {
        t.Fatalf("adjacency wrong: %v", got)
    }
    if g.Counts["epics"] != 1 || g.Counts["stories"] != 1 { t.Fatalf("counts wrong: %v", g.Counts) }
}

package idgen

import "testing"

func TestGenerator_SequentialIDs(t *testing.T) {
    g := New()
    if got := g.EpicID(); got != "EPIC-001" { t.Fatalf("got %s", got) }
    if got := g.EpicID(); got != "EPIC-002" { t.Fatalf("got %s", got) }
    if got := g.EstimationID(); got != "EST-001" { t.Fatalf("got %s", got) }
    if got := g.TDDID(); got != "TDD-001" { t.Fatalf("got %s", got) }
}

func TestStoryID_PreservesExternalTickets(t *testing.T) {
    g := New()
    if got := g.StoryID("PROJ-123"); got != "PROJ-123" { t.Fatalf("got %s", got) }
    // second use of the same ticket must not produce a duplicate
    if got := g.StoryID("PROJ-123"); got != "STORY-001" { t.Fatalf("got %s", got) }
    if got := g.StoryID("AB12"); got != "AB12" { t.Fatalf("two-letter form: got %s", got) }
    if got := g.StoryID("not a ticket"); got != "STORY-002" { t.Fatalf("got %s", got) }
    if got := g.StoryID(""); got != "STORY-003" { t.Fatalf("empty: got %s", got) }
}

func TestModuleID_PerDomainSequences(t *testing.T) {
    g := New()
    if got := g.ModuleID("payment"); got != "MOD-PAYM-001" { t.Fatalf("got %s", got) }
    if got := g.ModuleID("payment"); got != "MOD-PAYM-002" { t.Fatalf("got %s", got) }
    if got := g.ModuleID("AUTH"); got != "MOD-AUTH-001" { t.Fatalf("got %s", got) }
    if got := g.ModuleID(""); got != "MOD-GEN-001" { t.Fatalf("empty domain: got %s", got) }
    if got := g.ModuleID("x"); got != "MOD-GEN-002" { t.Fatalf("one char: got %s", got) }
}

func TestRegisterExisting_SkipsCollisions(t *testing.T) {
    g := New()
    g.RegisterExisting("EPIC-001")
    if got := g.EpicID(); got != "EPIC-002" { t.Fatalf("got %s", got) }
    if !g.IsUsed("EPIC-001") || !g.IsUsed("EPIC-002") { t.Fatalf("used set incomplete") }
}

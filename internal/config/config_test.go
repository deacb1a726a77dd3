package config

import (
    "os"
    "path/filepath"
    "testing"
)

func TestLoadMappings_PerDocType(t *testing.T) {
    path := filepath.Join(t.TempDir(), "field_mappings.json")
    body := `{"estimation": {"Work Item": "task_description"}, "Story": {"Key": "jira_story_id"}, "empty": {}}`
    if err := os.WriteFile(path, []byte(body), 0o644); err != nil { t.Fatalf("write: %v", err) }

    m := loadMappings(path)
    if m == nil { t.Fatalf("expected mappings") }
    if src, ok := m["estimation"].SourceFor("task_description"); !ok || src != "Work Item" {
        t.Fatalf("estimation mapping: %q %v", src, ok)
    }
    // doc type keys are normalized to lower case, empty blocks dropped
    if _, ok := m["story"]; !ok { t.Fatalf("story key not lowered: %v", m) }
    if _, ok := m["empty"]; ok { t.Fatalf("empty mapping kept: %v", m) }
}

func TestLoadMappings_MissingOrInvalidFile(t *testing.T) {
    if m := loadMappings(filepath.Join(t.TempDir(), "nope.json")); m != nil {
        t.Fatalf("missing file: %v", m)
    }
    path := filepath.Join(t.TempDir(), "bad.json")
    if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil { t.Fatalf("write: %v", err) }
    if m := loadMappings(path); m != nil { t.Fatalf("invalid file: %v", m) }
}

// Package extract turns source documents (.docx, .xlsx) into the
// format-agnostic ExtractedData consumed by the transformers.
package extract

import (
    "fmt"
    "path/filepath"
    "strings"

    "github.com/HamedShams/impact-pipeline/internal/domain"
)

// Extractor is implemented once per supported file format.
type Extractor interface {
    Extract(path string) (*domain.ExtractedData, error)
    SupportedExtensions() []string
}

// Factory hands out the extractor matching a file's extension.
type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) ForFile(path string) (Extractor, error) {
    switch strings.ToLower(filepath.Ext(path)) {
    case ".docx":
        return &DocxExtractor{}, nil
    case ".xlsx", ".xlsm":
        return &XlsxExtractor{}, nil
    default:
        return nil, fmt.Errorf("extract: unsupported file type %q", filepath.Ext(path))
    }
}

// Supported reports whether the factory can handle the file at all.
func (f *Factory) Supported(path string) bool {
    _, err := f.ForFile(path)
    return err == nil
}

// DetectDocType classifies a file by name. Checks run most-specific first so
// "epic_stories.xlsx" lands on story, not epic.
func DetectDocType(path string) string {
    name := strings.ToLower(filepath.Base(path))
    switch {
    case strings.Contains(name, "tdd") || strings.Contains(name, "design"):
        return "tdd"
    case strings.Contains(name, "estimat"):
        return "estimation"
    case strings.Contains(name, "jira") || strings.Contains(name, "stories") || strings.Contains(name, "story"):
        return "story"
    case strings.Contains(name, "epic") || strings.Contains(name, "requirement"):
        return "epic"
    }
    // fall back on format: spreadsheets are usually estimations, docs epics
    switch strings.ToLower(filepath.Ext(path)) {
    case ".xlsx", ".xlsm":
        return "estimation"
    default:
        return "epic"
    }
}

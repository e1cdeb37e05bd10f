// Package plan defines the Build Entry / Build Plan types that flow from the
// Parser through the Scripter to the Executer, and their JSON encoding.
package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Sources holds the parallel title/url/checksum sequences for one entry.
type Sources struct {
	Titles     []string `json:"titles"`
	Urls       []string `json:"urls"`
	Checksums  []string `json:"checksums"`
}

// Entry is one unit of work in a Build Plan.
type Entry struct {
	SourceBook         string   `json:"source_book"`
	ChapterID          string   `json:"chapter_id"`
	SectionID          string   `json:"section_id"`
	PackageName        string   `json:"package_name"`
	PackageVersion     string   `json:"package_version"`
	Sources            Sources  `json:"sources"`
	Dependencies       []string `json:"dependencies"`
	BuildInstructions  []string `json:"build_instructions"`
}

// Plan is a finite ordered sequence of Entries; order is execution order.
type Plan []*Entry

// Field looks up a dotted path against an Entry for placeholder expansion.
// It returns the raw value (string, []string, or nil) and whether anything
// was found at all.
func (e *Entry) Field(path string) (any, bool) {
	switch path {
	case "source_book":
		return e.SourceBook, true
	case "chapter_id":
		return e.ChapterID, true
	case "section_id":
		return e.SectionID, true
	case "package_name":
		return e.PackageName, true
	case "package_version":
		return e.PackageVersion, true
	case "dependencies":
		return e.Dependencies, true
	case "build_instructions":
		return e.BuildInstructions, true
	case "sources.titles":
		return e.Sources.Titles, true
	case "sources.urls":
		return e.Sources.Urls, true
	case "sources.checksums":
		return e.Sources.Checksums, true
	default:
		return nil, false
	}
}

// Validate checks the invariants from the data model: non-empty chapter_id,
// unique (chapter_id, section_id) pairs, and matching urls/checksums length.
func Validate(p Plan) error {
	seen := make(map[[2]string]bool, len(p))
	for _, e := range p {
		if e.ChapterID == "" {
			return fmt.Errorf("entry %q: chapter_id must not be empty", e.PackageName)
		}
		key := [2]string{e.ChapterID, e.SectionID}
		if seen[key] {
			return fmt.Errorf("duplicate (chapter_id, section_id) = (%s, %s)", e.ChapterID, e.SectionID)
		}
		seen[key] = true
		if len(e.Sources.Urls) > 0 && len(e.Sources.Checksums) > 0 && len(e.Sources.Urls) != len(e.Sources.Checksums) {
			return fmt.Errorf("entry %s/%s: sources.urls and sources.checksums length mismatch", e.ChapterID, e.SectionID)
		}
	}
	return nil
}

// WriteJSON writes p as an indented UTF-8 JSON array to path, creating parent
// directories as needed.
func WriteJSON(path string, p Plan) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a Plan previously written by WriteJSON.
func ReadJSON(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// FindByScript locates the entry whose chapter_id/section_id match the
// NNNN_<chapter_id>_<section_id> stem of a generated script filename.
func FindByScript(p Plan, chapterID, sectionID string) (*Entry, bool) {
	for _, e := range p {
		if e.ChapterID == chapterID && e.SectionID == sectionID {
			return e, true
		}
	}
	return nil, false
}

// Package archivefmt packs and unpacks Package Archives (tar/tar.gz/tar.xz),
// computes their SHA-256 integrity hash, and reads/writes the sibling
// .meta.json metadata record from spec §3.
//
// Grounded on the teacher's archive.go (system-tool-first / pure-Go-fallback
// pack/unpack idiom) and checksum.go (hashing idiom, repurposed: sha256 here
// is the spec-mandated archive-integrity algorithm, not the teacher's blake3).
package archivefmt

import (
	"encoding/json"
	"os"
	"time"

	"github.com/scratchkit/skw/internal/skwerr"
)

// Meta is the package archive's sibling metadata record. Field names are
// stable and lowercase per spec §6.
type Meta struct {
	PackageName    string   `json:"package_name"`
	PackageVersion string   `json:"package_version"`
	Book           string   `json:"book"`
	Profile        string   `json:"profile"`
	ChapterID      string   `json:"chapter_id"`
	SectionID      string   `json:"section_id"`
	SHA256         string   `json:"sha256"`
	CreatedAt      string   `json:"created_at"`
	Hostname       string   `json:"hostname"`
	Platform       string   `json:"platform"`
	Files          []string `json:"files"`
}

// NowISO8601UTC formats t as the ISO-8601 UTC timestamp spec §3 requires for
// created_at. Callers pass in the current time rather than this package
// calling time.Now() itself, keeping archive creation deterministic to test.
func NowISO8601UTC(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// WriteMeta writes m as indented JSON to path.
func WriteMeta(path string, m *Meta) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadMeta loads a .meta.json file.
func ReadMeta(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, skwerr.Wrap(skwerr.ConfigMissing, err, "metadata %s", path)
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, skwerr.Wrap(skwerr.ConfigInvalid, err, "metadata %s", path)
	}
	return &m, nil
}

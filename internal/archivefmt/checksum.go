package archivefmt

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"lukechampine.com/blake3"

	"github.com/scratchkit/skw/internal/skwerr"
)

// SHA256File returns the lowercase hex SHA-256 digest of the file at path.
// This is the spec-mandated algorithm for package archive integrity (§3);
// no ecosystem library improves on stdlib here.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifySHA256 recomputes the archive's SHA-256 and compares it against
// want, returning an IntegrityError on mismatch (spec §4.3 "Installation").
func VerifySHA256(path, want string) error {
	got, err := SHA256File(path)
	if err != nil {
		return err
	}
	if got != want {
		return skwerr.New(skwerr.IntegrityError, "archive %s: sha256 mismatch: metadata says %s, computed %s", path, want, got)
	}
	return nil
}

// BlakeKey returns the lowercase hex blake3 hash of s, used to name
// scratch-download cache entries by content-hash of their source URL
// (SPEC_FULL §11.3) — a concern distinct from package-archive integrity,
// which stays on SHA-256 per spec.
func BlakeKey(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Blake3File returns the lowercase hex blake3 digest of a file's contents,
// used when a source's recorded checksum is blake3-prefixed.
func Blake3File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

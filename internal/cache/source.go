package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/scratchkit/skw/internal/archivefmt"
	"github.com/scratchkit/skw/internal/skwerr"
)

// FetchSource downloads url into scratchDir, named by the blake3 hash of
// url (SPEC_FULL §11.6), reusing an existing scratch file across runs. It
// verifies checksum (a "sha256:" or "blake3:"-prefixed or bare-hex digest;
// bare hex is treated as sha256) before returning, guarded by an flock on a
// sibling ".lock" file mirroring the teacher's tryRemoveCachedFile pattern.
func (c *Client) FetchSource(ctx context.Context, url, checksum, scratchDir string) (string, error) {
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return "", err
	}
	name := archivefmt.BlakeKey(url) + filepath.Ext(url)
	dest := filepath.Join(scratchDir, name)
	lockPath := dest + ".lock"

	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return "", err
	}
	defer lockFile.Close()
	if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_EX); err != nil {
		return "", err
	}
	defer unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)

	if _, err := os.Stat(dest); err == nil {
		if checksum == "" {
			return dest, nil
		}
		if err := verifyChecksum(dest, checksum); err == nil {
			return dest, nil
		}
		_ = os.Remove(dest) // stale/corrupt scratch copy; refetch
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", skwerr.Wrap(skwerr.RepoUnreachable, err, "GET %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", skwerr.New(skwerr.RepoUnreachable, "GET %s: status %d", url, resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if err := copyWithProgress(out, resp.Body, resp.ContentLength, filepath.Base(url)); err != nil {
		out.Close()
		return "", err
	}
	out.Close()

	if checksum != "" {
		if err := verifyChecksum(dest, checksum); err != nil {
			return "", err
		}
	}
	return dest, nil
}

func verifyChecksum(path, checksum string) error {
	algo, want := "sha256", checksum
	if i := strings.Index(checksum, ":"); i >= 0 {
		algo, want = checksum[:i], checksum[i+1:]
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var got string
	switch algo {
	case "sha256":
		h := sha256.New()
		if _, err := io.Copy(h, f); err != nil {
			return err
		}
		got = hex.EncodeToString(h.Sum(nil))
	case "blake3":
		sum, err := archivefmt.Blake3File(path)
		if err != nil {
			return err
		}
		got = sum
	default:
		return skwerr.New(skwerr.SourceIntegrityError, "%s: unknown checksum algorithm %q", path, algo)
	}

	if got != want {
		return skwerr.New(skwerr.SourceIntegrityError, "%s: %s mismatch: expected %s, got %s", path, algo, want, got)
	}
	return nil
}

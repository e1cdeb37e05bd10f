package archivefmt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpack_RoundTrip(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "usr", "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "usr", "bin", "hello"), []byte("#!/bin/sh\necho hi\n"), 0o755))

	dest := filepath.Join(t.TempDir(), "pkg.tar")
	files, err := Pack(src, dest, FormatTar)
	require.NoError(t, err)
	assert.Equal(t, []string{"usr/bin/hello"}, files)

	out := t.TempDir()
	require.NoError(t, Unpack(dest, out))
	content, err := os.ReadFile(filepath.Join(out, "usr", "bin", "hello"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho hi\n", string(content))
}

func TestPackUnpack_TarGz(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "f.txt"), []byte("data"), 0o644))
	dest := filepath.Join(t.TempDir(), "pkg.tar.gz")
	_, err := Pack(src, dest, FormatTarGz)
	require.NoError(t, err)

	out := t.TempDir()
	require.NoError(t, Unpack(dest, out))
	content, err := os.ReadFile(filepath.Join(out, "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))
}

func TestSHA256File_MatchesVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))
	sum, err := SHA256File(path)
	require.NoError(t, err)
	require.NoError(t, VerifySHA256(path, sum))

	err = VerifySHA256(path, "deadbeef")
	require.Error(t, err)
}

func TestSafeJoin_RejectsEscape(t *testing.T) {
	_, err := safeJoin("/var/cache/skw/extract", "../../etc/passwd")
	require.Error(t, err)

	ok, err := safeJoin("/var/cache/skw/extract", "usr/bin/x")
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/skw/extract/usr/bin/x", ok)
}

func TestParseFormat(t *testing.T) {
	_, err := ParseFormat("zip")
	require.Error(t, err)
	f, err := ParseFormat("tar.xz")
	require.NoError(t, err)
	assert.Equal(t, FormatTarXz, f)
}

package chrootenv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMountSpecs_CoverRequiredTargets(t *testing.T) {
	// Enter() itself needs root privileges and real mount(8), so it isn't
	// exercised here; this locks down the target set and mount order instead.
	want := []string{
		"proc", "sys", "dev", "dev/pts", "dev/ptmx", "dev/tty",
		"dev/console", "dev/null", "dev/shm", "run", "tmp",
	}
	dir := "/chroot-root"
	var got []string
	for _, s := range mountSpecs {
		got = append(got, filepath.Join(dir, s.target))
	}
	assert.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, filepath.Join(dir, w), got[i])
	}
}

func TestEnv_ExitWithNoMountsIsNoop(t *testing.T) {
	e := &Env{Dir: "/chroot-root"}
	assert.NoError(t, e.Exit())
	assert.Empty(t, e.mounted)
}

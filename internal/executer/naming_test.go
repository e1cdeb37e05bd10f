package executer

import (
	"testing"

	"github.com/scratchkit/skw/internal/plan"
	"github.com/scratchkit/skw/internal/skwerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Main: Main{
			PackageNameTemplate: "{book}-{profile}-{chapter_id}-{package_name}-{package_version}",
			PackageFormat:       "tar.xz",
			DefaultExtractDir:   "/",
			RequireConfirmRoot:  true,
		},
		Chroot: Selector{Packages: []string{"gcc-pass2"}},
		Host:   Selector{Chapters: []string{"ch-05"}},
		Package: Selector{Chapters: []string{"ch-05"}},
		Packages: Packages{Exclude: Selector{Packages: []string{"skip-me"}}},
		Extract: Extract{Targets: Targets{
			Packages: map[string]string{"glibc": "/mnt/lfs"},
		}},
	}
}

func TestPackageFilename(t *testing.T) {
	cfg := testConfig()
	e := &plan.Entry{ChapterID: "ch-05", PackageName: "binutils", PackageVersion: "2.41"}
	name, err := PackageFilename(cfg, "lfs", "systemd", e)
	require.NoError(t, err)
	assert.Equal(t, "lfs-systemd-ch-05-binutils-2.41.tar.xz", name)
}

func TestPackageFilename_UnknownFormat(t *testing.T) {
	cfg := testConfig()
	cfg.Main.PackageFormat = "zip"
	e := &plan.Entry{ChapterID: "ch-05", PackageName: "binutils"}
	_, err := PackageFilename(cfg, "lfs", "systemd", e)
	require.Error(t, err)
}

func TestExecMode_MatchingChrootAndHostIsConfigError(t *testing.T) {
	cfg := testConfig()
	e := &plan.Entry{ChapterID: "ch-05", PackageName: "gcc-pass2"}
	_, err := ExecMode(cfg, e)
	require.Error(t, err)
	assert.True(t, skwerr.Is(err, skwerr.ConfigInvalid))
}

func TestExecMode_DefaultsHost(t *testing.T) {
	cfg := testConfig()
	e := &plan.Entry{ChapterID: "ch-06", PackageName: "coreutils"}
	mode, err := ExecMode(cfg, e)
	require.NoError(t, err)
	assert.Equal(t, ModeHost, mode)
}

func TestShouldPackage_ExcludeDominates(t *testing.T) {
	cfg := testConfig()
	included := &plan.Entry{ChapterID: "ch-05", PackageName: "binutils"}
	excluded := &plan.Entry{ChapterID: "ch-05", PackageName: "skip-me"}
	assert.True(t, ShouldPackage(cfg, included))
	assert.False(t, ShouldPackage(cfg, excluded))
}

func TestExtractTarget_PackageBeatsDefault(t *testing.T) {
	cfg := testConfig()
	e := &plan.Entry{PackageName: "glibc"}
	assert.Equal(t, "/mnt/lfs", ExtractTarget(cfg, e, ModeHost, "/mnt/chroot"))

	other := &plan.Entry{PackageName: "binutils"}
	assert.Equal(t, "/", ExtractTarget(cfg, other, ModeHost, "/mnt/chroot"))
}

func TestExtractTarget_ChrootModeJoinsOverrideUnderChrootDir(t *testing.T) {
	cfg := testConfig()
	e := &plan.Entry{PackageName: "glibc"}
	assert.Equal(t, "/mnt/chroot/mnt/lfs", ExtractTarget(cfg, e, ModeChroot, "/mnt/chroot"))

	other := &plan.Entry{PackageName: "binutils"}
	assert.Equal(t, "/mnt/chroot", ExtractTarget(cfg, other, ModeChroot, "/mnt/chroot"))
}

func TestSplitScriptStem(t *testing.T) {
	chapterID, sectionID, err := splitScriptStem("0000_ch-05_binutils")
	require.NoError(t, err)
	assert.Equal(t, "ch-05", chapterID)
	assert.Equal(t, "binutils", sectionID)
}

func TestSplitScriptStem_Malformed(t *testing.T) {
	_, _, err := splitScriptStem("not-a-script-name")
	require.Error(t, err)
}

package scripter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scratchkit/skw/internal/config"
	"github.com/scratchkit/skw/internal/plan"
)

func setup(t *testing.T) *config.Builder {
	t.Helper()
	dir := t.TempDir()
	profileDir := filepath.Join(dir, "profiles", "lfs", "systemd")
	require.NoError(t, os.MkdirAll(profileDir, 0o755))

	scripterToml := `
[main]
default_template = "template.script"

[global.regex]
patterns = ["s/FOO/BAR/"]

[binutils]
patterns = ["s/BAR/QUX/"]
`
	require.NoError(t, os.WriteFile(filepath.Join(profileDir, "scripter.toml"), []byte(scripterToml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(profileDir, "template.script"), []byte("#!/bin/sh\n# {{package_name}} {{package_version}}\nFOO\n{{build_instructions}}\n"), 0o644))

	b := &config.Builder{BuildDir: dir, PackageDir: filepath.Join(dir, "pkgs"), ProfilesDir: filepath.Join(dir, "profiles")}
	p := plan.Plan{
		{ChapterID: "ch-05", SectionID: "binutils", PackageName: "binutils", PackageVersion: "2.41", BuildInstructions: []string{"./configure", "make"}},
		{ChapterID: "ch-05", SectionID: "gcc", PackageName: "gcc", PackageVersion: "13.2", BuildInstructions: []string{"make"}},
	}
	require.NoError(t, plan.WriteJSON(filepath.Join(dir, "parser", "lfs", "systemd", "parser_output.json"), p))
	return b
}

func TestRun_WritesNumberedScripts(t *testing.T) {
	b := setup(t)
	paths, err := Run(b, "lfs", "systemd", nil)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], "0000_ch-05_binutils.sh")
	assert.Contains(t, paths[1], "0001_ch-05_gcc.sh")

	info, err := os.Stat(paths[0])
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "# binutils 2.41")
	assert.Contains(t, string(content), "./configure\nmake")
	// global rule s/FOO/BAR/ then package rule s/BAR/QUX/ applied in order
	assert.Contains(t, string(content), "QUX")
	assert.NotContains(t, string(content), "FOO")
}

func TestRun_GccDoesNotGetPackageOverride(t *testing.T) {
	b := setup(t)
	paths, err := Run(b, "lfs", "systemd", nil)
	require.NoError(t, err)
	content, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(content), "BAR") // global rule only, no package-specific override
}

func TestExpandTemplate_UnknownKeyIsEmpty(t *testing.T) {
	e := &plan.Entry{PackageName: "x"}
	out := expandTemplate("v={{nonexistent}}", e)
	assert.Equal(t, "v=", out)
}

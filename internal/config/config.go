// Package config loads the TOML configuration layers (builder.toml, and the
// per-profile parser.toml/scripter.toml/executer.toml) and resolves the
// ${book}/${profile}/${build_dir} placeholders used throughout the pipeline.
//
// The layering mirrors the teacher's flat key=value file plus environment
// override pattern, generalized to typed TOML and an SKW_* env prefix.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/scratchkit/skw/internal/skwerr"
)

// Builder is the top-level builder.toml schema.
type Builder struct {
	BuildDir    string `toml:"build_dir"`
	PackageDir  string `toml:"package_dir"`
	ProfilesDir string `toml:"profiles_dir"`
	SkelDir     string `toml:"skel_dir"`
}

// LoadBuilder reads builder.toml at path and applies SKW_* environment
// overrides, mirroring the teacher's mergeEnvOverrides.
func LoadBuilder(path string) (*Builder, error) {
	var b Builder
	if _, err := toml.DecodeFile(path, &b); err != nil {
		if os.IsNotExist(err) {
			return nil, skwerr.Wrap(skwerr.ConfigMissing, err, "builder config %s", path)
		}
		return nil, skwerr.Wrap(skwerr.ConfigInvalid, err, "builder config %s", path)
	}
	applyEnvOverrides(&b)
	if b.BuildDir == "" || b.PackageDir == "" || b.ProfilesDir == "" {
		return nil, skwerr.New(skwerr.ConfigInvalid, "builder config %s: build_dir, package_dir, and profiles_dir are required", path)
	}
	return &b, nil
}

func applyEnvOverrides(b *Builder) {
	if v := os.Getenv("SKW_BUILD_DIR"); v != "" {
		b.BuildDir = v
	}
	if v := os.Getenv("SKW_PACKAGE_DIR"); v != "" {
		b.PackageDir = v
	}
	if v := os.Getenv("SKW_PROFILES_DIR"); v != "" {
		b.ProfilesDir = v
	}
	if v := os.Getenv("SKW_SKEL_DIR"); v != "" {
		b.SkelDir = v
	}
}

// Substitute replaces the finite recognized placeholders ${book}, ${profile},
// and ${build_dir} in s. It is the one substitution helper shared by every
// config consumer; entry-scoped ${<key>} substitution is handled separately
// by internal/xpathx since it needs per-entry context this package doesn't have.
func Substitute(s, book, profile, buildDir string) string {
	r := strings.NewReplacer(
		"${book}", book,
		"${profile}", profile,
		"${build_dir}", buildDir,
	)
	return r.Replace(s)
}

// DecodeProfileTOML decodes a profile-scoped TOML file (parser.toml,
// scripter.toml, executer.toml, or a custom-packages file) into v.
func DecodeProfileTOML(path string, v any) error {
	if _, err := toml.DecodeFile(path, v); err != nil {
		if os.IsNotExist(err) {
			return skwerr.Wrap(skwerr.ConfigMissing, err, "profile config %s", path)
		}
		return skwerr.Wrap(skwerr.ConfigInvalid, err, "profile config %s", path)
	}
	return nil
}

// ProfileDir returns profiles_dir/<book>/<profile>.
func (b *Builder) ProfileDir(book, profile string) string {
	return fmt.Sprintf("%s/%s/%s", b.ProfilesDir, book, profile)
}

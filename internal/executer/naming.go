package executer

import (
	"path/filepath"
	"strings"

	"github.com/scratchkit/skw/internal/archivefmt"
	"github.com/scratchkit/skw/internal/plan"
	"github.com/scratchkit/skw/internal/skwerr"
)

// PackageFilename renders cfg.Main.PackageNameTemplate against entry's
// {book}/{profile}/{chapter_id}/{section_id}/{package_name}/{package_version}
// placeholders and appends the extension for cfg.Main.PackageFormat.
func PackageFilename(cfg *Config, book, profile string, e *plan.Entry) (string, error) {
	r := strings.NewReplacer(
		"{book}", book,
		"{profile}", profile,
		"{chapter_id}", e.ChapterID,
		"{section_id}", e.SectionID,
		"{package_name}", e.PackageName,
		"{package_version}", e.PackageVersion,
	)
	format, err := archivefmt.ParseFormat(cfg.Main.PackageFormat)
	if err != nil {
		return "", err
	}
	return r.Replace(cfg.Main.PackageNameTemplate) + "." + format.Extension(), nil
}

// Mode is the script execution environment.
type Mode string

const (
	ModeHost   Mode = "host"
	ModeChroot Mode = "chroot"
)

// ExecMode resolves host vs chroot per spec §4.3 step 3: package_name,
// section_id, or chapter_id membership in [chroot]'s lists wins; otherwise
// host. An entry matching both [chroot] and [host] is a config error.
func ExecMode(cfg *Config, e *plan.Entry) (Mode, error) {
	inChroot := selectorMatches(cfg.Chroot, e)
	inHost := selectorMatches(cfg.Host, e)
	if inChroot && inHost {
		return "", skwerr.New(skwerr.ConfigInvalid, "%s/%s: matches both [chroot] and [host]", e.ChapterID, e.SectionID)
	}
	if inChroot {
		return ModeChroot, nil
	}
	return ModeHost, nil
}

func selectorMatches(s Selector, e *plan.Entry) bool {
	return contains(s.Packages, e.PackageName) || contains(s.Sections, e.SectionID) || contains(s.Chapters, e.ChapterID)
}

func contains(list []string, v string) bool {
	if v == "" {
		return false
	}
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// ShouldPackage reports whether e is packaged: matched by [package] and not
// matched by [packages.exclude]; exclude dominates (spec §4.3 "Packaging
// inclusion").
func ShouldPackage(cfg *Config, e *plan.Entry) bool {
	included := selectorMatches(cfg.Package, e)
	excluded := selectorMatches(cfg.Packages.Exclude, e)
	return included && !excluded
}

// extractOverride resolves a [extract.targets] override for e: package beats
// section beats chapter. Returns ok=false when no scope names an override.
func extractOverride(cfg *Config, e *plan.Entry) (string, bool) {
	if t, ok := cfg.Extract.Targets.Packages[e.PackageName]; ok && t != "" {
		return t, true
	}
	if t, ok := cfg.Extract.Targets.Sections[e.SectionID]; ok && t != "" {
		return t, true
	}
	if t, ok := cfg.Extract.Targets.Chapters[e.ChapterID]; ok && t != "" {
		return t, true
	}
	return "", false
}

// ExtractTarget resolves the install directory for e (spec §4.3
// Installation): in host mode, package override beats section beats chapter
// beats default_extract_dir. In chroot mode, the install root is chrootDir
// plus any [extract.targets] override, interpreted relative to the chroot
// rather than the host filesystem.
func ExtractTarget(cfg *Config, e *plan.Entry, mode Mode, chrootDir string) string {
	override, ok := extractOverride(cfg, e)
	if mode == ModeChroot {
		if !ok {
			return chrootDir
		}
		return filepath.Join(chrootDir, override)
	}
	if !ok {
		return cfg.Main.DefaultExtractDir
	}
	return override
}

// Package scripter compiles each Build Entry into an executable shell
// script: hierarchical template selection, {{path}} placeholder expansion,
// and layered rewrite-rule application.
//
// Grounded on _examples/original_source/builder/src/scripter/skw_scripter.py.
package scripter

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/scratchkit/skw/internal/config"
	"github.com/scratchkit/skw/internal/plan"
	"github.com/scratchkit/skw/internal/rewrite"
	"github.com/scratchkit/skw/internal/skwerr"
)

var placeholderRE = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Warn is called for every non-fatal condition (missing template file,
// malformed rewrite rule) so the caller can print it with the CLI's warn
// color without this package depending on presentation.
type Warn func(format string, a ...any)

// Run executes the Scripter stage for (book, profile): reads the plan JSON
// written by the Parser, and writes one numbered script per entry.
func Run(b *config.Builder, book, profile string, warn Warn) ([]string, error) {
	if warn == nil {
		warn = func(string, ...any) {}
	}
	profileDir := b.ProfileDir(book, profile)
	cfg, err := LoadConfig(filepath.Join(profileDir, "scripter.toml"))
	if err != nil {
		return nil, err
	}

	defaultTemplatePath := filepath.Join(profileDir, cfg.Main.DefaultTemplate)
	defaultTemplate, err := os.ReadFile(defaultTemplatePath)
	if err != nil {
		return nil, skwerr.Wrap(skwerr.ConfigMissing, err, "default template %s", defaultTemplatePath)
	}

	planPath := filepath.Join(b.BuildDir, "parser", book, profile, "parser_output.json")
	p, err := plan.ReadJSON(planPath)
	if err != nil {
		return nil, skwerr.Wrap(skwerr.ConfigMissing, err, "parser output %s", planPath)
	}

	scriptDir := filepath.Join(b.BuildDir, "scripter", book, profile, "scripts")
	if err := os.MkdirAll(scriptDir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	for idx, entry := range p {
		templateContent := selectTemplate(profileDir, cfg, entry, string(defaultTemplate), warn)
		content := expandTemplate(templateContent, entry)
		content = applyRules(cfg, entry, content, warn)

		sectionID := entry.SectionID
		if sectionID == "" {
			sectionID = fmt.Sprintf("step%d", idx+1)
		}
		name := fmt.Sprintf("%04d_%s_%s.sh", idx, entry.ChapterID, sectionID)
		path := filepath.Join(scriptDir, name)
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

// selectTemplate resolves the first defined of package/section/chapter/default,
// per spec §4.2, falling back to the preloaded default on a missing file.
func selectTemplate(profileDir string, cfg *Config, entry *plan.Entry, defaultTemplate string, warn Warn) string {
	filename := cfg.Main.DefaultTemplate
	for _, scopeID := range []string{entry.PackageName, entry.SectionID, entry.ChapterID} {
		if scopeID == "" {
			continue
		}
		if ov, ok := cfg.Overrides[scopeID]; ok && ov.Template != "" {
			filename = ov.Template
			break
		}
	}

	if filename == cfg.Main.DefaultTemplate {
		return defaultTemplate
	}
	path := filepath.Join(profileDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		warn("template %s not found, falling back to default", path)
		return defaultTemplate
	}
	return string(data)
}

// expandTemplate substitutes every {{path}} placeholder per the value-kind
// table in spec §4.2.
func expandTemplate(template string, entry *plan.Entry) string {
	return placeholderRE.ReplaceAllStringFunc(template, func(match string) string {
		path := strings.TrimSuffix(strings.TrimPrefix(match, "{{"), "}}")
		path = strings.TrimSpace(path)
		val, ok := entry.Field(path)
		if !ok {
			return ""
		}
		switch v := val.(type) {
		case string:
			return v
		case []string:
			if path == "build_instructions" {
				return strings.Join(v, "\n")
			}
			return strings.Join(v, " ")
		case nil:
			return ""
		default:
			return fmt.Sprintf("%v", v)
		}
	})
}

// applyRules aggregates global -> chapter -> section -> package rewrite
// rules (later rules apply on top of earlier output) and applies them in
// sequence against the post-expansion content.
func applyRules(cfg *Config, entry *plan.Entry, content string, warn Warn) string {
	var rules []string
	rules = append(rules, cfg.Global.Regex.Patterns...)
	if ov, ok := cfg.Overrides[entry.ChapterID]; ok {
		rules = append(rules, ov.Regex...)
	}
	if ov, ok := cfg.Overrides[entry.SectionID]; ok {
		rules = append(rules, ov.Regex...)
	}
	if entry.PackageName != "" {
		if ov, ok := cfg.Overrides[entry.PackageName]; ok {
			rules = append(rules, ov.Regex...)
		}
	}
	return rewrite.ApplyAll(content, rules, func(raw string) {
		warn("malformed rewrite rule skipped: %s", raw)
	})
}

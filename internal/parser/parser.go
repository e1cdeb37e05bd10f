// Package parser implements the XML -> Build Plan stage: hierarchical
// XPath-driven field extraction, chapter/section filtering, custom-package
// injection, and dependency ordering.
//
// Grounded on _examples/original_source/builder/src/parser/parser.py.
package parser

import (
	"fmt"
	"path/filepath"

	"github.com/antchfx/xmlquery"

	"github.com/scratchkit/skw/internal/config"
	"github.com/scratchkit/skw/internal/graph"
	"github.com/scratchkit/skw/internal/plan"
	"github.com/scratchkit/skw/internal/skwerr"
	"github.com/scratchkit/skw/internal/xpathx"
)

const (
	keyChapterID         = "chapter_id"
	keySectionID         = "section_id"
	keyPackageName       = "package_name"
	keyPackageVersion    = "package_version"
	keySourceTitles      = "source_titles"
	keySourceURLs        = "source_urls"
	keySourceChecksums   = "source_checksums"
	keyDependencies      = "dependencies"
	keyBuildInstructions = "build_instructions"
)

// Run executes the full Parser stage for (book, profile) and writes the
// resulting plan to build/parser/<book>/<profile>/<output_file>.
func Run(b *config.Builder, book, profile string) (plan.Plan, string, error) {
	profileDir := b.ProfileDir(book, profile)
	cfg, err := LoadConfig(filepath.Join(profileDir, "parser.toml"))
	if err != nil {
		return nil, "", err
	}

	ctx := map[string]string{"book": book, "profile": profile, "build_dir": b.BuildDir}
	xmlPath := config.Substitute(xpathx.Substitute(cfg.Main.XMLPath, ctx), book, profile, b.BuildDir)
	outputFile := config.Substitute(xpathx.Substitute(cfg.Main.OutputFile, ctx), book, profile, b.BuildDir)

	doc, err := xpathx.Load(xmlPath)
	if err != nil {
		return nil, "", err
	}

	p, discovery, err := parseBook(doc, cfg)
	if err != nil {
		return nil, "", err
	}

	injected, err := injectCustomPackages(profileDir, doc, cfg)
	if err != nil {
		return nil, "", err
	}
	p = append(p, injected...)
	for _, e := range injected {
		discovery = append(discovery, e.PackageName)
	}
	for _, e := range p {
		e.SourceBook = book
	}

	if err := plan.Validate(p); err != nil {
		return nil, "", skwerr.Wrap(skwerr.ConfigInvalid, err, "build plan validation")
	}

	ordered, err := orderPlan(p, discovery, cfg)
	if err != nil {
		return nil, "", err
	}

	outPath := filepath.Join(b.BuildDir, "parser", book, profile, outputFile)
	if err := plan.WriteJSON(outPath, ordered); err != nil {
		return nil, "", err
	}
	return ordered, outPath, nil
}

// scopeChain returns the most-specific-first list of scope ids to consult
// for a (chapterID, sectionID) context: section, then chapter, then global.
// An empty sectionID is left out so it cannot alias the global scope ("").
func scopeChain(chapterID, sectionID string) []string {
	if sectionID == "" {
		return []string{chapterID, ""}
	}
	return []string{sectionID, chapterID, ""}
}

func buildScopes(cfg *Config) map[string]map[string]string {
	scopes := map[string]map[string]string{"": cfg.XPaths}
	for id, ov := range cfg.Overrides {
		scopes[id] = ov.XPaths
	}
	return scopes
}

// lookupXPath resolves key for (chapterID, sectionID) per spec §4.1's
// hierarchical lookup, substituting ${package_name} and other already-known
// entry fields into the resulting expression.
func lookupXPath(scopes map[string]map[string]string, chapterID, sectionID, key string, entryCtx map[string]string) (string, bool) {
	expr, ok := xpathx.Lookup(scopes, scopeChain(chapterID, sectionID), key)
	if !ok {
		return "", false
	}
	return xpathx.Substitute(expr, entryCtx), true
}

func parseBook(doc *xpathx.Doc, cfg *Config) (plan.Plan, []string, error) {
	scopes := buildScopes(cfg)

	chapterNodesExpr, hasChapters := xpathx.Lookup(scopes, []string{""}, "chapters")
	if !hasChapters {
		chapterNodesExpr = "//chapter"
	}

	chapterNodes, err := doc.Find(chapterNodesExpr)
	if err != nil {
		return nil, nil, skwerr.Wrap(skwerr.XmlMalformed, err, "evaluating chapter node expression %q", chapterNodesExpr)
	}

	var p plan.Plan
	var discovery []string

	for _, chNode := range chapterNodes {
		chapterID, err := resolveChapterID(chNode, scopes)
		if err != nil {
			return nil, nil, err
		}
		if !cfg.ChapterFilters.Keep(chapterID) {
			continue
		}

		sectionExpr, _ := lookupXPath(scopes, chapterID, "", "section_id", nil)
		sectionsExpr, hasSections := xpathx.Lookup(scopes, scopeChain(chapterID, ""), "sections")
		if !hasSections {
			sectionsExpr = "./section"
		}

		sectionNodes, err := xpathx.FindFrom(chNode, sectionsExpr)
		if err != nil {
			return nil, nil, skwerr.Wrap(skwerr.XmlMalformed, err, "evaluating section node expression %q in chapter %s", sectionsExpr, chapterID)
		}

		for _, secNode := range sectionNodes {
			sectionID, err := resolveID(secNode, sectionExpr, chapterID)
			if err != nil {
				return nil, nil, err
			}
			if !cfg.SectionFilters.Keep(sectionID) {
				continue
			}

			entry, err := buildEntry(secNode, scopes, chapterID, sectionID)
			if err != nil {
				return nil, nil, err
			}
			p = append(p, entry)
			discovery = append(discovery, entry.PackageName)
		}
	}

	return p, discovery, nil
}

func resolveChapterID(node *xmlquery.Node, scopes map[string]map[string]string) (string, error) {
	idExpr, ok := xpathx.Lookup(scopes, []string{""}, "chapter_id")
	if !ok {
		idExpr = "./@id"
	}
	v, err := xpathx.EvalOne(node, idExpr)
	if err != nil {
		return "", skwerr.Wrap(skwerr.XmlMalformed, err, "chapter_id xpath %q", idExpr)
	}
	return v, nil
}

func resolveID(node *xmlquery.Node, expr, fallbackChapterID string) (string, error) {
	if expr == "" {
		expr = "./@id"
	}
	v, err := xpathx.EvalOne(node, expr)
	if err != nil {
		return "", skwerr.Wrap(skwerr.XmlMalformed, err, "section_id xpath %q", expr)
	}
	return v, nil
}

func buildEntry(node *xmlquery.Node, scopes map[string]map[string]string, chapterID, sectionID string) (*plan.Entry, error) {
	entryCtx := map[string]string{"chapter_id": chapterID, "section_id": sectionID}

	extractOne := func(key string) (string, error) {
		expr, ok := lookupXPath(scopes, chapterID, sectionID, key, entryCtx)
		if !ok {
			return "", nil
		}
		v, err := xpathx.EvalOne(node, expr)
		if err != nil {
			return "", skwerr.Wrap(skwerr.XmlMalformed, err, "%s xpath %q (%s/%s)", key, expr, chapterID, sectionID)
		}
		entryCtx[key] = v
		return v, nil
	}
	extractMany := func(key string) ([]string, error) {
		expr, ok := lookupXPath(scopes, chapterID, sectionID, key, entryCtx)
		if !ok {
			return nil, nil
		}
		v, err := xpathx.EvalMany(node, expr)
		if err != nil {
			return nil, skwerr.Wrap(skwerr.XmlMalformed, err, "%s xpath %q (%s/%s)", key, expr, chapterID, sectionID)
		}
		return v, nil
	}

	packageName, err := extractOne(keyPackageName)
	if err != nil {
		return nil, err
	}
	packageVersion, err := extractOne(keyPackageVersion)
	if err != nil {
		return nil, err
	}
	titles, err := extractMany(keySourceTitles)
	if err != nil {
		return nil, err
	}
	urls, err := extractMany(keySourceURLs)
	if err != nil {
		return nil, err
	}
	checksums, err := extractMany(keySourceChecksums)
	if err != nil {
		return nil, err
	}
	deps, err := extractMany(keyDependencies)
	if err != nil {
		return nil, err
	}
	instructions, err := extractMany(keyBuildInstructions)
	if err != nil {
		return nil, err
	}

	return &plan.Entry{
		ChapterID:         chapterID,
		SectionID:         sectionID,
		PackageName:       packageName,
		PackageVersion:    packageVersion,
		Sources:           plan.Sources{Titles: titles, Urls: urls, Checksums: checksums},
		Dependencies:      deps,
		BuildInstructions: instructions,
	}, nil
}

func orderPlan(p plan.Plan, discovery []string, cfg *Config) (plan.Plan, error) {
	deps := make(map[string][]string, len(p))
	byName := make(map[string]*plan.Entry, len(p))
	for _, e := range p {
		deps[e.PackageName] = e.Dependencies
		byName[e.PackageName] = e
	}

	groups := make([]graph.Group, len(cfg.OrderedGroups))
	for i, g := range cfg.OrderedGroups {
		groups[i] = graph.Group{Packages: g.Packages, Anchor: g.Anchor}
	}

	order, err := graph.Order(discovery, deps, groups)
	if err != nil {
		return nil, err
	}

	out := make(plan.Plan, 0, len(order))
	for _, name := range order {
		e, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("internal error: ordered package %q has no entry", name)
		}
		out = append(out, e)
	}
	return out, nil
}

// Package xpathx implements the hierarchical (scope-chain, key) lookup the
// Parser uses for its XPath expressions, plus the XML evaluation the Parser
// needs on top of it. The Scripter does not use this package; it resolves
// its template and rewrite-rule scopes in its own code.
package xpathx

import (
	"fmt"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/scratchkit/skw/internal/skwerr"
)

// Lookup returns the first defined value for key among scopes, given in
// most-specific-first order (e.g. [sectionID, chapterID, ""] for the global
// scope). scopes maps a scope id to its key/value table; the empty string id
// is the global scope. Returns ("", false) if no scope defines key.
func Lookup(scopes map[string]map[string]string, order []string, key string) (string, bool) {
	for _, id := range order {
		table, ok := scopes[id]
		if !ok {
			continue
		}
		if v, ok := table[key]; ok {
			return v, true
		}
	}
	return "", false
}

// Substitute replaces every ${<key>} in s with ctx[key]; a placeholder whose
// key is not in ctx is removed (replaced by the empty string). Used for
// XPath expressions, which may reference ${package_name} or any other key
// already extracted for the current entry, and for parser.toml paths with
// ctx holding book, profile and build_dir.
func Substitute(s string, ctx map[string]string) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start == -1 {
			b.WriteString(s)
			break
		}
		end := strings.Index(s[start:], "}")
		if end == -1 {
			b.WriteString(s)
			break
		}
		end += start
		b.WriteString(s[:start])
		key := s[start+2 : end]
		if v, ok := ctx[key]; ok {
			b.WriteString(v)
		}
		s = s[end+1:]
	}
	return b.String()
}

// Doc wraps a parsed XML document for repeated XPath evaluation.
type Doc struct {
	root *xmlquery.Node
}

// Load parses the XML file at path.
func Load(path string) (*Doc, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, skwerr.Wrap(skwerr.XmlMissing, err, "book xml %s", path)
		}
		return nil, skwerr.Wrap(skwerr.XmlMalformed, err, "book xml %s", path)
	}
	defer f.Close()
	root, err := xmlquery.Parse(f)
	if err != nil {
		return nil, skwerr.Wrap(skwerr.XmlMalformed, err, "book xml %s", path)
	}
	return &Doc{root: root}, nil
}

// Find evaluates expr against the document root and returns matching nodes.
func (d *Doc) Find(expr string) ([]*xmlquery.Node, error) {
	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", expr, err)
	}
	return nodes, nil
}

// FindFrom evaluates a relative or absolute expr against ctx (typically a
// chapter or section node) instead of the document root.
func FindFrom(ctx *xmlquery.Node, expr string) ([]*xmlquery.Node, error) {
	nodes, err := xmlquery.QueryAll(ctx, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", expr, err)
	}
	return nodes, nil
}

// NodeText returns a node's text content, or its value when it is an
// attribute node (./@id style expressions resolve to attribute nodes).
func NodeText(n *xmlquery.Node) string {
	if n.Type == xmlquery.AttributeNode {
		return n.InnerText()
	}
	return strings.TrimSpace(n.InnerText())
}

// EvalOne evaluates expr against ctx and returns the text of the first
// matching node, or "" if there is no match. Used for single-valued fields
// (package_name, package_version, chapter/section id).
func EvalOne(ctx *xmlquery.Node, expr string) (string, error) {
	nodes, err := FindFrom(ctx, expr)
	if err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return "", nil
	}
	return NodeText(nodes[0]), nil
}

// EvalMany evaluates expr against ctx and returns the text of every matching
// node, in document order. Used for sequence fields (urls, checksums,
// dependencies, build_instructions).
func EvalMany(ctx *xmlquery.Node, expr string) ([]string, error) {
	nodes, err := FindFrom(ctx, expr)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, NodeText(n))
	}
	return out, nil
}

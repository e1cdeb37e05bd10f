// Package rewrite parses and applies the Rewrite Rule tagged records used by
// the Scripter's regex/literal layering: a rule is parsed once into a
// {literal|regex} record, never re-parsed at apply time (spec §9).
package rewrite

import (
	"regexp"
	"strings"
)

// Mode distinguishes a literal substring replacement from a regex one.
type Mode int

const (
	Literal Mode = iota
	Regex
)

// Rule is a parsed rewrite rule ready to apply.
type Rule struct {
	Mode    Mode
	Find    string
	Replace string
	re      *regexp.Regexp // compiled once in Parse, only for Regex rules
	raw     string
}

// Parse parses a single-line rule "X<D>find<D>replace<D>" where X is 's'
// (literal) or 'r' (regex) and <D> is any character not literally present
// in find or replace. No escape sequence for the delimiter is supported:
// this is the documented resolution of spec §9's open question.
//
// Returns (nil, false) if s does not parse as a rule at all (caller emits a
// RuleMalformed warning and skips it; this is never fatal per spec §7).
func Parse(s string) (*Rule, bool) {
	if len(s) < 2 {
		return nil, false
	}
	var mode Mode
	switch s[0] {
	case 's':
		mode = Literal
	case 'r':
		mode = Regex
	default:
		return nil, false
	}
	delim := s[1]
	rest := s[2:]
	parts := strings.SplitN(rest, string(delim), 3)
	if len(parts) < 2 {
		return nil, false
	}
	find, replace := parts[0], parts[1]
	// A well-formed rule has a trailing delimiter (parts[2] == ""), but a
	// missing one is tolerated rather than treated as malformed.
	if mode == Regex {
		replace = normalizeReplace(replace)
	}
	rule := &Rule{Mode: mode, Find: find, Replace: replace, raw: s}
	if mode == Regex {
		re, err := regexp.Compile(find)
		if err != nil {
			return nil, false
		}
		rule.re = re
	}
	return rule, true
}

// normalizeReplace rewrites \g<N> and \N backreference syntax (as seen in
// the Python reference's rule strings) into Go regexp's native $N / ${N}
// form, since RE2 has no backreference syntax of its own to preserve. Only
// meaningful for Regex rules; a Literal rule's replace text is inserted
// verbatim and must not be touched.
func normalizeReplace(replace string) string {
	var b strings.Builder
	for i := 0; i < len(replace); i++ {
		c := replace[i]
		if c != '\\' || i+1 >= len(replace) {
			b.WriteByte(c)
			continue
		}
		next := replace[i+1]
		if next == 'g' && i+2 < len(replace) && replace[i+2] == '<' {
			end := strings.IndexByte(replace[i+3:], '>')
			if end >= 0 {
				b.WriteString("${")
				b.WriteString(replace[i+3 : i+3+end])
				b.WriteString("}")
				i = i + 3 + end
				continue
			}
		}
		if next >= '0' && next <= '9' {
			b.WriteByte('$')
			b.WriteByte(next)
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Apply runs the rule against content once.
func (r *Rule) Apply(content string) string {
	switch r.Mode {
	case Literal:
		return strings.ReplaceAll(content, r.Find, r.Replace)
	case Regex:
		return r.re.ReplaceAllString(content, r.Replace)
	default:
		return content
	}
}

// ApplyAll parses and applies rules in order, skipping (not failing on) any
// string that fails to parse or compile. onWarn, if non-nil, is called with
// the raw malformed rule text.
func ApplyAll(content string, rawRules []string, onWarn func(raw string)) string {
	for _, raw := range rawRules {
		rule, ok := Parse(raw)
		if !ok {
			if onWarn != nil {
				onWarn(raw)
			}
			continue
		}
		content = rule.Apply(content)
	}
	return content
}

package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Literal(t *testing.T) {
	r, ok := Parse("s/foo/bar/")
	require.True(t, ok)
	assert.Equal(t, Literal, r.Mode)
	assert.Equal(t, "bar bar", r.Apply("foo bar"))
	other := &Rule{Mode: Literal, Find: "foo", Replace: "bar"}
	assert.Equal(t, "bar bar", other.Apply("foo bar"))
}

func TestParse_Regex(t *testing.T) {
	r, ok := Parse(`r#(\d+)\.(\d+)#v${1}_${2}#`)
	require.True(t, ok)
	assert.Equal(t, "v1_2", r.Apply("1.2"))
}

func TestParse_BackreferenceNormalized(t *testing.T) {
	r, ok := Parse(`r#(\w+)-(\w+)#\g<2>-\g<1>#`)
	require.True(t, ok)
	assert.Equal(t, "b-a", r.Apply("a-b"))
}

func TestParse_LiteralBackslashDigitNotNormalized(t *testing.T) {
	r, ok := Parse(`s#v1#v1\2#`)
	require.True(t, ok)
	assert.Equal(t, Literal, r.Mode)
	assert.Equal(t, `v1\2`, r.Replace)
	assert.Equal(t, `v1\2`, r.Apply("v1"))
}

func TestParse_Malformed(t *testing.T) {
	_, ok := Parse("x/foo/bar/")
	assert.False(t, ok)
	_, ok = Parse("r#(unterminated#")
	assert.False(t, ok)
}

func TestApplyAll_SkipsMalformedWithWarning(t *testing.T) {
	var warned []string
	out := ApplyAll("hello world", []string{"s/hello/hi/", "bogus", "s/world/there/"}, func(raw string) {
		warned = append(warned, raw)
	})
	assert.Equal(t, "hi there", out)
	assert.Equal(t, []string{"bogus"}, warned)
}

package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirm_AutoConfirmSkipsStdin(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, Confirm(strings.NewReader(""), &out, true, "proceed?"))
	assert.Empty(t, out.String())
}

func TestConfirm_EmptyInputDefaultsYes(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, Confirm(strings.NewReader("\n"), &out, false, "proceed?"))
}

func TestConfirm_ExplicitNo(t *testing.T) {
	var out bytes.Buffer
	assert.False(t, Confirm(strings.NewReader("n\n"), &out, false, "proceed?"))
}

func TestConfirm_ExplicitYesVariants(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, Confirm(strings.NewReader("yes\n"), &out, false, "proceed?"))
}

func TestConfirm_InvalidThenValid(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, Confirm(strings.NewReader("maybe\ny\n"), &out, false, "proceed?"))
	assert.Contains(t, out.String(), "invalid input")
}

func TestConfirm_EOFDefaultsNo(t *testing.T) {
	var out bytes.Buffer
	assert.False(t, Confirm(strings.NewReader(""), &out, false, "proceed?"))
}

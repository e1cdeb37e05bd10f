// Package prompt implements the interactive "[Y/n]" confirmation gate used
// before destructive or host-affecting operations (root install, overwrite).
//
// Grounded on the teacher's prompt.go: a single mutex-guarded stdin reader
// loop so no two confirmations can race for the terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gookit/color"
)

var mu sync.Mutex

// Confirm prints "<message> [Y/n]: " and blocks on in until the user answers
// yes/no; empty input defaults to yes. autoConfirm short-circuits to true
// without touching in, matching the --yes / auto_confirm config knob.
func Confirm(in io.Reader, out io.Writer, autoConfirm bool, format string, a ...any) bool {
	if autoConfirm {
		return true
	}
	mu.Lock()
	defer mu.Unlock()

	reader := bufio.NewReader(in)
	message := fmt.Sprintf(format, a...)
	for {
		fmt.Fprint(out, color.Warn.Sprintf("%s [Y/n]: ", message))
		response, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		response = strings.ToLower(strings.TrimSpace(response))
		switch response {
		case "y", "yes", "":
			return true
		case "n", "no":
			return false
		default:
			fmt.Fprintln(out, color.Danger.Sprint("invalid input, please answer y or n"))
		}
	}
}

// Package tui implements the "skw logs" build-log viewer: a scrollable list
// of per-script logs on the left, tailed log content on the right.
//
// Grounded on the teacher's pager.go (tview/tcell wiring, TTY-size fallback
// to plain stdout, q/Esc-to-quit input capture), extended from a single
// scrollback pane to the two-pane layout SPEC_FULL §11.9 calls for.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"golang.org/x/term"
)

// Entry is one viewable log: its display name and path on disk.
type Entry struct {
	Name string
	Path string
}

// CollectLogs lists every "*.log" file under logsDir, sorted by name.
func CollectLogs(logsDir string) ([]Entry, error) {
	matches, err := filepath.Glob(filepath.Join(logsDir, "*.log"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, Entry{Name: filepath.Base(m), Path: m})
	}
	return entries, nil
}

// RunViewer shows entries in a two-pane TUI if stdout is a TTY; otherwise it
// concatenates every log to stdout with a header per entry, mirroring the
// teacher's plain-stdout fallback for non-interactive output.
func RunViewer(entries []Entry) error {
	if len(entries) == 0 {
		fmt.Println("no logs found")
		return nil
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		for _, e := range entries {
			data, err := os.ReadFile(e.Path)
			if err != nil {
				return err
			}
			fmt.Printf("==> %s <==\n%s\n", e.Name, string(data))
		}
		return nil
	}

	app := tview.NewApplication()

	list := tview.NewList().ShowSecondaryText(false)
	list.SetBorder(true).SetTitle(" scripts ")

	content := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	content.SetBorder(true).SetTitle(" log ")

	showLog := func(e Entry) {
		data, err := os.ReadFile(e.Path)
		content.Clear()
		ansiWriter := tview.ANSIWriter(content)
		if err != nil {
			fmt.Fprintf(ansiWriter, "error reading %s: %v", e.Path, err)
			return
		}
		fmt.Fprint(ansiWriter, strings.TrimRight(string(data), "\n"))
		content.ScrollToEnd()
	}

	for i, e := range entries {
		entry := e
		list.AddItem(entry.Name, "", 0, func() { showLog(entry) })
		if i == 0 {
			showLog(entry)
		}
	}

	footer := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]↑/↓ select script, PgUp/PgDn/Home/End scroll log, 'q' or Esc to quit[white]")

	flex := tview.NewFlex().
		AddItem(list, 30, 0, true).
		AddItem(content, 0, 1, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(flex, 0, 1, true).
		AddItem(footer, 1, 0, false)

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc, tcell.KeyCtrlQ:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'q' {
				app.Stop()
				return nil
			}
		}
		return event
	})

	if err := app.SetRoot(root, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("log viewer: %w", err)
	}
	return nil
}

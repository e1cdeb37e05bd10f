package main

import (
	"fmt"
	"strings"

	"github.com/gookit/color"
)

type cmdInfo struct {
	Cmd  string
	Args string
	Desc string
}

var commands = []cmdInfo{
	{"list-books", "", "List immediate subdirectories of profiles_dir"},
	{"list-profiles", "--book", "List subdirectories of profiles_dir/<book>"},
	{"add-book", "--name", "Create profiles_dir/<name>, copy book.toml.skel"},
	{"add-profile", "--book --name", "Create subdirectory, copy all skeleton files"},
	{"install-book", "--book --remote", "Git clone or fast-forward pull into profiles_dir/<book> (no checkout, no make step)"},
	{"parse", "--book --profile", "Invoke the Parser stage"},
	{"script", "--book --profile", "Invoke the Scripter stage"},
	{"execute", "--book --profile [--yes]", "Invoke the Executer stage"},
	{"logs", "--book --profile", "Build-log TUI viewer"},
	{"inspect", "--pkg", "Show a package archive's file manifest"},
}

func printHelp() {
	color.Success.Println("Usage: skw <command> [arguments]")
	color.Success.Println("Run 'skw <command> -h' for command-specific flags")
	fmt.Println()
	color.Info.Println("Available Commands:")

	maxLen := 0
	for _, c := range commands {
		length := len(c.Cmd) + len(c.Args)
		if c.Args != "" {
			length++
		}
		if length > maxLen {
			maxLen = length
		}
	}
	columnWidth := maxLen + 4

	for _, c := range commands {
		usageString := "  " + c.Cmd
		if c.Args != "" {
			usageString += " " + c.Args
		}
		fmt.Print("  ")
		color.Bold.Print(c.Cmd)
		if c.Args != "" {
			fmt.Print(" ")
			color.Cyan.Print(c.Args)
		}
		pad := columnWidth - len(usageString)
		if pad < 1 {
			pad = 1
		}
		fmt.Print(strings.Repeat(" ", pad))
		color.Info.Println(c.Desc)
	}
	fmt.Println()
}

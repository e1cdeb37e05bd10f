// Command skw is the CLI driver for the ScratchKit Builder pipeline:
// Parser, Scripter, and Executer, plus the scaffolding/log/inspect
// commands layered around them.
//
// Grounded on the teacher's cli.go: context+signal plumbing with a
// critical-section flag that upgrades the first Ctrl+C during an
// execute run to a warning and forces exit on the second.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gookit/color"

	"github.com/scratchkit/skw/internal/config"
	"github.com/scratchkit/skw/internal/executer"
	"github.com/scratchkit/skw/internal/parser"
	"github.com/scratchkit/skw/internal/scripter"
	"github.com/scratchkit/skw/internal/skwerr"
	"github.com/scratchkit/skw/internal/tui"
)

// isCritical gates signal handling for the whole execute command: the first
// Ctrl+C while set only warns, the second forces exit.
var isCritical atomic.Int32

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go handleSignals(ctx, cancel, sigs)

	if len(os.Args) < 2 {
		printHelp()
		os.Exit(0)
	}

	if err := dispatch(ctx, os.Args[1], os.Args[2:]); err != nil {
		kind := "Error"
		if e, ok := err.(*skwerr.Error); ok {
			kind = string(e.Kind)
		}
		fmt.Fprintf(os.Stderr, "[%s] %v\n", kind, err)
		os.Exit(1)
	}
}

func handleSignals(ctx context.Context, cancel context.CancelFunc, sigs chan os.Signal) {
	for {
		select {
		case sig := <-sigs:
			if isCritical.Load() == 1 {
				color.Danger.Printf("\n-> Critical operation in progress (install). Press Ctrl+C again to force exit.\n")
				select {
				case <-sigs:
					color.Danger.Println("-> Forced immediate exit.")
					os.Exit(130)
				case <-time.After(5 * time.Second):
					continue
				case <-ctx.Done():
					return
				}
			} else {
				color.Danger.Printf("\n-> Received %v, cancelling gracefully\n", sig)
				cancel()
				select {
				case <-sigs:
					color.Danger.Println("-> Second interrupt, forcing immediate exit.")
					os.Exit(130)
				case <-time.After(2 * time.Second):
					os.Exit(0)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func builderConfigPath() string {
	if v := os.Getenv("SKW_BUILDER_TOML"); v != "" {
		return v
	}
	return "builder.toml"
}

func dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "list-books", "list-profiles", "add-book", "add-profile", "install-book",
		"parse", "script", "execute", "logs", "inspect":
		b, err := config.LoadBuilder(builderConfigPath())
		if err != nil {
			return err
		}
		return dispatchPipeline(ctx, b, cmd, args)
	case "help", "-h", "--help":
		printHelp()
		return nil
	default:
		printHelp()
		return skwerr.New(skwerr.ConfigInvalid, "unknown command %q", cmd)
	}
}

func dispatchPipeline(ctx context.Context, b *config.Builder, cmd string, args []string) error {
	switch cmd {
	case "list-books":
		return listBooks(b)

	case "list-profiles":
		fs := flag.NewFlagSet("list-profiles", flag.ExitOnError)
		book := fs.String("book", "", "book name")
		fs.Parse(args)
		return listProfiles(b, *book)

	case "add-book":
		fs := flag.NewFlagSet("add-book", flag.ExitOnError)
		name := fs.String("name", "", "book name")
		fs.Parse(args)
		return addBook(b, *name)

	case "add-profile":
		fs := flag.NewFlagSet("add-profile", flag.ExitOnError)
		book := fs.String("book", "", "book name")
		name := fs.String("name", "", "profile name")
		fs.Parse(args)
		return addProfile(b, *book, *name)

	case "install-book":
		fs := flag.NewFlagSet("install-book", flag.ExitOnError)
		book := fs.String("book", "", "book name")
		remote := fs.String("remote", "", "git remote URL")
		fs.Parse(args)
		targetDir := b.ProfilesDir + "/" + *book
		return installBook(ctx, targetDir, *remote, nil)

	case "parse":
		fs := flag.NewFlagSet("parse", flag.ExitOnError)
		book := fs.String("book", "", "book name")
		profile := fs.String("profile", "", "profile name")
		fs.Parse(args)
		_, path, err := parser.Run(b, *book, *profile)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	case "script":
		fs := flag.NewFlagSet("script", flag.ExitOnError)
		book := fs.String("book", "", "book name")
		profile := fs.String("profile", "", "profile name")
		fs.Parse(args)
		written, err := scripter.Run(b, *book, *profile, func(format string, a ...any) {
			color.Warn.Printf(format+"\n", a...)
		})
		if err != nil {
			return err
		}
		for _, w := range written {
			fmt.Println(w)
		}
		return nil

	case "execute":
		fs := flag.NewFlagSet("execute", flag.ExitOnError)
		book := fs.String("book", "", "book name")
		profile := fs.String("profile", "", "profile name")
		yes := fs.Bool("yes", false, "auto-confirm root installs")
		fs.Parse(args)
		isCritical.Store(1)
		defer isCritical.Store(0)
		return executer.Run(ctx, b, executer.Options{Book: *book, Profile: *profile, AutoConfirm: *yes})

	case "logs":
		fs := flag.NewFlagSet("logs", flag.ExitOnError)
		book := fs.String("book", "", "book name")
		profile := fs.String("profile", "", "profile name")
		fs.Parse(args)
		logsDir := b.BuildDir + "/executer/" + *book + "/" + *profile + "/logs"
		entries, err := tui.CollectLogs(logsDir)
		if err != nil {
			return err
		}
		return tui.RunViewer(entries)

	case "inspect":
		fs := flag.NewFlagSet("inspect", flag.ExitOnError)
		pkg := fs.String("pkg", "", "path to a package archive")
		fs.Parse(args)
		return inspectArchive(*pkg)

	default:
		return skwerr.New(skwerr.ConfigInvalid, "unknown command %q", cmd)
	}
}

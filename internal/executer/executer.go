// Package executer implements the Executer stage: per-script cache probe,
// script execution (host or chroot), package creation, checksum-verified
// install, and publish.
//
// Grounded on original_source/builder/src/executer/skw_executer.py for the
// per-script lifecycle and on the teacher's build.go/install.go for the Go
// idiom (color status lines, Executor process isolation, confirmation gate).
package executer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gookit/color"

	"github.com/scratchkit/skw/internal/cache"
	"github.com/scratchkit/skw/internal/config"
	"github.com/scratchkit/skw/internal/plan"
	"github.com/scratchkit/skw/internal/skwerr"
)

// State is one stage of a script's per-entry lifecycle (spec §4.3 "State
// machine per script").
type State string

const (
	StatePending    State = "Pending"
	StateCacheHit   State = "CacheHit"
	StateBuilding   State = "Building"
	StatePackaging  State = "Packaging"
	StateSkipped    State = "Skipped"
	StateInstalling State = "Installing"
	StatePublishing State = "Publishing"
	StateDone       State = "Done"
	StateFailed     State = "Failed"
)

// Options configures one Executer run.
type Options struct {
	Book        string
	Profile     string
	AutoConfirm bool
	ConfirmIn   io.Reader
	ConfirmOut  io.Writer
	GraceKill   time.Duration // signal escalation grace before SIGKILL
}

// Driver holds the resolved paths and loaded config for one run.
type Driver struct {
	opts       Options
	builder    *config.Builder
	cfg        *Config
	cache      *cache.Client
	plan       plan.Plan
	scriptsDir string
	execDir    string
	logsDir    string
	downloads  string
}

// Run executes every generated script for book/profile in filename order,
// per spec §4.3.
func Run(ctx context.Context, b *config.Builder, opts Options) error {
	if opts.ConfirmIn == nil {
		opts.ConfirmIn = os.Stdin
	}
	if opts.ConfirmOut == nil {
		opts.ConfirmOut = os.Stderr
	}
	if opts.GraceKill == 0 {
		opts.GraceKill = 10 * time.Second
	}

	profileDir := b.ProfileDir(opts.Book, opts.Profile)
	cfg, err := LoadConfig(filepath.Join(profileDir, "executer.toml"))
	if err != nil {
		return err
	}

	planPath := filepath.Join(b.BuildDir, "parser", opts.Book, opts.Profile, "parser_output.json")
	p, err := plan.ReadJSON(planPath)
	if err != nil {
		return skwerr.Wrap(skwerr.ConfigMissing, err, "build plan %s", planPath)
	}

	scriptsDir := filepath.Join(b.BuildDir, "scripter", opts.Book, opts.Profile, "scripts")
	execDir := filepath.Join(b.BuildDir, "executer", opts.Book, opts.Profile)
	logsDir := filepath.Join(execDir, "logs")
	downloads := filepath.Join(execDir, "downloads")
	for _, d := range []string{logsDir, downloads} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}

	cl, err := cache.New(ctx)
	if err != nil {
		return err
	}

	d := &Driver{
		opts: opts, builder: b, cfg: cfg, cache: cl, plan: p,
		scriptsDir: scriptsDir, execDir: execDir, logsDir: logsDir, downloads: downloads,
	}

	scripts, err := filepath.Glob(filepath.Join(scriptsDir, "*.sh"))
	if err != nil {
		return err
	}
	sort.Strings(scripts)

	for _, script := range scripts {
		if err := d.runOne(ctx, script); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) runOne(ctx context.Context, scriptPath string) error {
	stem := strings.TrimSuffix(filepath.Base(scriptPath), ".sh")
	chapterID, sectionID, err := splitScriptStem(stem)
	if err != nil {
		return err
	}

	entry, ok := plan.FindByScript(d.plan, chapterID, sectionID)
	if !ok {
		return skwerr.New(skwerr.ConfigInvalid, "%s: no matching plan entry for chapter_id=%s section_id=%s", scriptPath, chapterID, sectionID)
	}

	pkgFile, err := PackageFilename(d.cfg, d.opts.Book, d.opts.Profile, entry)
	if err != nil {
		return err
	}

	color.Info.Printf("-> %s (%s)\n", entry.PackageName, filepath.Base(scriptPath))

	if hitRepo, ok := d.probeCache(ctx, pkgFile); ok {
		color.Success.Printf("   cache hit: %s\n", hitRepo)
		return d.installFromCache(ctx, hitRepo, pkgFile, entry)
	}

	mode, err := ExecMode(d.cfg, entry)
	if err != nil {
		return err
	}
	makePackage := ShouldPackage(d.cfg, entry)

	var destdir string
	if makePackage {
		destdir = d.destDirFor(mode, entry)
		if err := os.MkdirAll(destdir, 0o755); err != nil {
			return err
		}
	}

	if err := d.runScript(ctx, scriptPath, entry, mode, destdir); err != nil {
		return err
	}
	if !makePackage {
		return nil
	}

	archivePath, meta, err := d.createArchive(destdir, pkgFile, entry, mode)
	if err != nil {
		return err
	}
	if err := d.install(archivePath, meta, mode, entry); err != nil {
		return err
	}
	return d.publish(ctx, archivePath, meta)
}

// splitScriptStem parses NNNN_<chapter_id>_<section_id> back into its ids.
func splitScriptStem(stem string) (chapterID, sectionID string, err error) {
	parts := strings.SplitN(stem, "_", 3)
	if len(parts) != 3 {
		return "", "", skwerr.New(skwerr.ConfigInvalid, "malformed script filename %q", stem)
	}
	return parts[1], parts[2], nil
}

func (d *Driver) destDirFor(mode Mode, e *plan.Entry) string {
	if mode == ModeChroot {
		return filepath.Join(d.cfg.Main.ChrootDir, "destdir", e.PackageName)
	}
	return filepath.Join(d.execDir, "destdir", e.PackageName)
}

func (d *Driver) logPath(scriptPath string) string {
	return filepath.Join(d.logsDir, filepath.Base(scriptPath)+".log")
}

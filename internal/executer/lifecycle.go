package executer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/scratchkit/skw/internal/archivefmt"
	"github.com/scratchkit/skw/internal/chrootenv"
	"github.com/scratchkit/skw/internal/plan"
	"github.com/scratchkit/skw/internal/procexec"
	"github.com/scratchkit/skw/internal/prompt"
	"github.com/scratchkit/skw/internal/skwerr"
)

// probeCache tests download_repos in order for pkgFile's metadata, returning
// the first repo that hits (spec §4.3 step 4).
func (d *Driver) probeCache(ctx context.Context, pkgFile string) (string, bool) {
	metaName := pkgFile + ".meta.json"
	for _, repo := range d.cfg.Main.DownloadRepos {
		hit, err := d.cache.Probe(ctx, repo, metaName)
		if err != nil || !hit {
			continue
		}
		return repo, true
	}
	return "", false
}

// installFromCache fetches the archive and metadata from repo into the
// scratch downloads directory, then installs without rebuilding or
// repackaging (spec §4.3 step 5).
func (d *Driver) installFromCache(ctx context.Context, repo, pkgFile string, e *plan.Entry) error {
	metaName := pkgFile + ".meta.json"
	archiveLocal := filepath.Join(d.downloads, pkgFile)
	metaLocal := filepath.Join(d.downloads, metaName)

	if err := d.cache.Fetch(ctx, repo, pkgFile, archiveLocal); err != nil {
		return err
	}
	if err := d.cache.Fetch(ctx, repo, metaName, metaLocal); err != nil {
		return err
	}
	meta, err := archivefmt.ReadMeta(metaLocal)
	if err != nil {
		return err
	}

	mode, err := ExecMode(d.cfg, e)
	if err != nil {
		return err
	}
	return d.install(archiveLocal, meta, mode, e)
}

// runScript executes one generated script, teeing output to the per-script
// log (spec §4.3 "Script-execution contract").
func (d *Driver) runScript(ctx context.Context, scriptPath string, e *plan.Entry, mode Mode, destdir string) error {
	env := buildEnv(destdir)
	log := d.logPath(scriptPath)

	if mode == ModeHost {
		_, err := procexec.RunShellScript(ctx, scriptPath, d.execDir, env, log, d.opts.GraceKill)
		return err
	}

	chrootDir := d.cfg.Main.ChrootDir
	inChrootPath := filepath.Join("/tmp", filepath.Base(scriptPath))
	hostSideCopy := filepath.Join(chrootDir, "tmp", filepath.Base(scriptPath))
	if err := copyFile(scriptPath, hostSideCopy, 0o755); err != nil {
		return err
	}
	defer os.Remove(hostSideCopy)

	cenv, err := chrootenv.Enter(chrootDir)
	if err != nil {
		return skwerr.Wrap(skwerr.ExternalToolFailed, err, "entering chroot %s", chrootDir)
	}
	defer cenv.Exit()

	logFile, err := os.OpenFile(log, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer logFile.Close()

	// Chroot cancellation is best-effort (spec §5): there is no process-group
	// handle to signal here the way procexec.Run has for host mode.
	_ = ctx
	args := append([]string{"/bin/sh", "-e", inChrootPath}, destdirArg(destdir)...)
	if err := chrootenv.Exec(chrootDir, args, env, io.MultiWriter(os.Stdout, logFile), io.MultiWriter(os.Stderr, logFile)); err != nil {
		return skwerr.Wrap(skwerr.ScriptFailed, err, "chroot script %s", scriptPath)
	}
	return nil
}

func destdirArg(destdir string) []string {
	if destdir == "" {
		return nil
	}
	return []string{destdir}
}

func buildEnv(destdir string) []string {
	env := []string{"PATH=/usr/bin:/bin:/usr/sbin:/sbin"}
	if destdir != "" {
		env = append(env, "DESTDIR="+destdir)
	}
	return env
}

func copyFile(src, dst string, mode os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, mode)
}

// createArchive packs destdir into the package archive and writes its
// sibling .meta.json (spec §4.3 "Package creation").
func (d *Driver) createArchive(destdir, pkgFile string, e *plan.Entry, mode Mode) (string, *archivefmt.Meta, error) {
	format, err := archivefmt.ParseFormat(d.cfg.Main.PackageFormat)
	if err != nil {
		return "", nil, err
	}
	archivePath := filepath.Join(d.execDir, "packages", pkgFile)
	files, err := archivefmt.Pack(destdir, archivePath, format)
	if err != nil {
		return "", nil, err
	}
	sum, err := archivefmt.SHA256File(archivePath)
	if err != nil {
		return "", nil, err
	}
	hostname, _ := os.Hostname()
	meta := &archivefmt.Meta{
		PackageName:    e.PackageName,
		PackageVersion: e.PackageVersion,
		Book:           d.opts.Book,
		Profile:        d.opts.Profile,
		ChapterID:      e.ChapterID,
		SectionID:      e.SectionID,
		SHA256:         sum,
		CreatedAt:      archivefmt.NowISO8601UTC(time.Now()),
		Hostname:       hostname,
		Platform:       fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		Files:          files,
	}
	if err := archivefmt.WriteMeta(archivePath+".meta.json", meta); err != nil {
		return "", nil, err
	}
	return archivePath, meta, nil
}

// install verifies the archive's SHA-256 against meta and extracts it into
// the resolved target directory, prompting before a root install (spec §4.3
// "Installation").
func (d *Driver) install(archivePath string, meta *archivefmt.Meta, mode Mode, e *plan.Entry) error {
	if err := archivefmt.VerifySHA256(archivePath, meta.SHA256); err != nil {
		return err
	}

	target := ExtractTarget(d.cfg, e, mode, d.cfg.Main.ChrootDir)
	if mode != ModeChroot && target == "/" && d.cfg.Main.RequireConfirmRoot && !d.opts.AutoConfirm {
		if !prompt.Confirm(d.opts.ConfirmIn, d.opts.ConfirmOut, false,
			"about to install %s into the host root /", filepath.Base(archivePath)) {
			return skwerr.New(skwerr.PermissionDenied, "installation into / aborted by user")
		}
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return err
	}
	return archivefmt.Unpack(archivePath, target)
}

// publish copies the archive and metadata to upload_repo (spec §4.3
// "Publishing").
func (d *Driver) publish(ctx context.Context, archivePath string, meta *archivefmt.Meta) error {
	if d.cfg.Main.UploadRepo == "" {
		return nil
	}
	return d.cache.Publish(ctx, d.cfg.Main.UploadRepo, archivePath, archivePath+".meta.json")
}

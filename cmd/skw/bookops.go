package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/scratchkit/skw/internal/config"
	"github.com/scratchkit/skw/internal/skwerr"
)

// listBooks lists the immediate subdirectories of profiles_dir (spec §6).
func listBooks(b *config.Builder) error {
	entries, err := os.ReadDir(b.ProfilesDir)
	if err != nil {
		return skwerr.Wrap(skwerr.ConfigMissing, err, "profiles_dir %s", b.ProfilesDir)
	}
	for _, e := range entries {
		if e.IsDir() {
			fmt.Println(e.Name())
		}
	}
	return nil
}

// listProfiles lists the subdirectories of profiles_dir/<book>.
func listProfiles(b *config.Builder, book string) error {
	dir := filepath.Join(b.ProfilesDir, book)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return skwerr.Wrap(skwerr.ConfigMissing, err, "book directory %s", dir)
	}
	for _, e := range entries {
		if e.IsDir() {
			fmt.Println(e.Name())
		}
	}
	return nil
}

// addBook creates profiles_dir/<name> and seeds it with book.toml.skel from
// skel_dir, per spec §6 (external collaborator; "just copy skeleton files").
func addBook(b *config.Builder, name string) error {
	dir := filepath.Join(b.ProfilesDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	skel := filepath.Join(b.SkelDir, "book.toml.skel")
	if _, err := os.Stat(skel); err != nil {
		return nil // no skeleton to copy is not fatal; the directory still exists
	}
	return copyFile(skel, filepath.Join(dir, "book.toml"))
}

// addProfile creates profiles_dir/<book>/<name> and copies every file under
// skel_dir into it.
func addProfile(b *config.Builder, book, name string) error {
	dir := filepath.Join(b.ProfilesDir, book, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(b.SkelDir); err != nil {
		return nil
	}
	return filepath.WalkDir(b.SkelDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(b.SkelDir, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(dir, rel)
		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		return copyFile(path, dest)
	})
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// installBook clones remote into target_dir, or fast-forward pulls it if
// target_dir already holds a git checkout with no uncommitted changes, then
// runs makeCommand when one is given (SPEC_FULL §11.4's pinned policy for the
// Open Question). The existing checkout's remote is not compared with remote.
func installBook(ctx context.Context, targetDir, remote string, makeCommand []string) error {
	if _, err := os.Stat(filepath.Join(targetDir, ".git")); err == nil {
		status, err := exec.CommandContext(ctx, "git", "-C", targetDir, "status", "--porcelain").Output()
		if err != nil {
			return skwerr.Wrap(skwerr.ExternalToolFailed, err, "git status %s", targetDir)
		}
		if len(status) != 0 {
			return skwerr.New(skwerr.ExternalToolFailed, "%s: has uncommitted changes, refusing to pull", targetDir)
		}
		if err := runLogged(ctx, "git", "-C", targetDir, "pull", "--ff-only"); err != nil {
			return err
		}
	} else {
		if err := runLogged(ctx, "git", "clone", remote, targetDir); err != nil {
			return err
		}
	}
	if len(makeCommand) == 0 {
		return nil
	}
	cmd := exec.CommandContext(ctx, makeCommand[0], makeCommand[1:]...)
	cmd.Dir = targetDir
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		return skwerr.Wrap(skwerr.ExternalToolFailed, err, "make_command in %s", targetDir)
	}
	return nil
}

func runLogged(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		return skwerr.Wrap(skwerr.ExternalToolFailed, err, "%s %v", name, args)
	}
	return nil
}

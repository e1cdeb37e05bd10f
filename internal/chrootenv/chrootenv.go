// Package chrootenv sets up and tears down the bind-mount sequence a chroot
// build needs: proc, sysfs, devtmpfs, devpts, bind-mounted tty/console/null/
// ptmx, tmpfs for /dev/shm and /tmp, and a privately-propagated /run.
//
// Grounded on the teacher's chroot.go/mount.go.
package chrootenv

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

type mountSpec struct {
	source, target, fsType, options string
	bind                            bool
}

// Env represents an active chroot mount session rooted at Dir.
type Env struct {
	Dir     string
	mounted []string // target paths, in mount order, for reverse-order unmount
}

// mountSpecs is the mount sequence Enter performs, in order, with targets
// relative to the chroot directory.
var mountSpecs = []mountSpec{
	{"proc", "proc", "proc", "nosuid,noexec,nodev", false},
	{"sys", "sys", "sysfs", "nosuid,noexec,nodev,ro", false},
	{"udev", "dev", "devtmpfs", "mode=0755,nosuid", false},
	{"devpts", "dev/pts", "devpts", "mode=0620,gid=5,nosuid,noexec", false},
	{"/dev/ptmx", "dev/ptmx", "", "", true},
	{"/dev/tty", "dev/tty", "", "", true},
	{"/dev/console", "dev/console", "", "", true},
	{"/dev/null", "dev/null", "", "", true},
	{"shm", "dev/shm", "tmpfs", "mode=1777,nosuid,nodev", false},
	{"/run", "run", "", "", true},
	{"tmp", "tmp", "tmpfs", "mode=1777,strictatime,nodev,nosuid", false},
}

// Enter performs the full bind-mount sequence into dir. On any failure it
// unmounts whatever succeeded so far before returning.
func Enter(dir string) (*Env, error) {
	e := &Env{Dir: dir}
	for _, s := range mountSpecs {
		dest := filepath.Join(dir, s.target)
		if err := mount(s.source, dest, s.fsType, s.options, s.bind); err != nil {
			_ = e.Exit()
			return nil, fmt.Errorf("mounting %s: %w", dest, err)
		}
		e.mounted = append(e.mounted, dest)
	}
	// /run needs private propagation after the bind, matching the teacher's
	// separate --make-private step.
	_ = exec.Command("mount", "--make-private", filepath.Join(dir, "run")).Run()

	return e, nil
}

// Exit unmounts every mounted path in reverse order, best-effort.
func (e *Env) Exit() error {
	var firstErr error
	for i := len(e.mounted) - 1; i >= 0; i-- {
		if err := exec.Command("umount", "-l", e.mounted[i]).Run(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.mounted = nil
	return firstErr
}

func mount(source, dest, fsType, options string, bind bool) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if bind {
		if fi, err := os.Stat(source); err == nil && !fi.IsDir() {
			if f, err := os.OpenFile(dest, os.O_CREATE, 0o644); err == nil {
				f.Close()
			}
		} else if err := os.MkdirAll(dest, 0o755); err != nil {
			return err
		}
		return exec.Command("mount", "--bind", source, dest).Run()
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	args := []string{"-t", fsType}
	if options != "" {
		args = append(args, "-o", options)
	}
	args = append(args, source, dest)
	return exec.Command("mount", args...).Run()
}

// Exec runs cmdArgs[0] with the remaining args as a process whose filesystem
// root is dir, via the system chroot binary. stdout/stderr accept any
// io.Writer so callers can tee to a log file with io.MultiWriter.
func Exec(dir string, cmdArgs []string, env []string, stdout, stderr io.Writer) error {
	args := append([]string{dir}, cmdArgs...)
	cmd := exec.Command("chroot", args...)
	cmd.Env = env
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

package buildroot

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

type devNode struct {
	path  string
	mode  uint32
	major uint32
	minor uint32
}

var devNodes = []devNode{
	{"dev/null", unix.S_IFCHR | 0o666, 1, 3},
	{"dev/full", unix.S_IFCHR | 0o666, 1, 7},
	{"dev/zero", unix.S_IFCHR | 0o666, 1, 5},
	{"dev/random", unix.S_IFCHR | 0o666, 1, 8},
	{"dev/urandom", unix.S_IFCHR | 0o444, 1, 9},
	{"dev/tty", unix.S_IFCHR | 0o666, 5, 0},
	{"dev/console", unix.S_IFCHR | 0o600, 5, 1},
	{"dev/ptmx", unix.S_IFCHR | 0o666, 5, 2},
}

// setupDevices recreates the sandbox /dev from scratch: the minimal node
// set, the standard stream symlinks and the devpts skeleton. Idempotent by
// construction since the old tree is removed first.
func (b *Buildroot) setupDevices() error {
	if !b.conf.InternalDevSetup {
		return nil
	}
	if err := b.rmtree(b.RootPath("dev")); err != nil {
		return err
	}
	for _, d := range []string{"dev/pts", "dev/shm"} {
		if err := os.MkdirAll(b.RootPath(d), 0o755); err != nil {
			return err
		}
	}

	prevMask := unix.Umask(0)
	defer unix.Umask(prevMask)

	for _, d := range devNodes {
		if err := unix.Mknod(b.RootPath(d.path), d.mode, int(unix.Mkdev(d.major, d.minor))); err != nil {
			return fmt.Errorf("mknod %s: %w", d.path, err)
		}
		if b.selinux {
			// Carry the host label over. chcon may be absent or the
			// policy may not cover the node; neither is fatal.
			if err := exec.Command("chcon", "--reference=/"+d.path, b.RootPath(d.path)).Run(); err != nil {
				b.logger.Warn("applying security context",
					zap.String("path", d.path), zap.Error(err))
			}
		}
	}

	for i, name := range []string{"stdin", "stdout", "stderr"} {
		if err := os.Symlink(fmt.Sprintf("/proc/self/fd/%d", i), b.RootPath("dev", name)); err != nil {
			return err
		}
	}

	// A regular mtab confuses everything that inspects mounts from inside.
	mtab := b.RootPath("etc", "mtab")
	if fi, err := os.Lstat(mtab); err == nil && fi.Mode().IsRegular() {
		if err := os.Remove(mtab); err != nil {
			return err
		}
		if err := os.Symlink("/proc/self/mounts", mtab); err != nil {
			return err
		}
	}

	b.chownTTY("dev/tty")
	b.chownTTY("dev/ptmx")

	if !b.conf.LegacyHostKernel {
		if err := os.Symlink("/proc/self/fd", b.RootPath("dev/fd")); err != nil {
			return err
		}
		// ptmx must resolve into the devpts instance mounted at dev/pts,
		// not stand alone, or terminal allocation inside the sandbox
		// hands out host ptys.
		if err := os.Remove(b.RootPath("dev/ptmx")); err != nil {
			return err
		}
		if err := os.Symlink("pts/ptmx", b.RootPath("dev/ptmx")); err != nil {
			return err
		}
	}
	return nil
}

func (b *Buildroot) chownTTY(path string) {
	g, err := user.LookupGroup("tty")
	if err != nil {
		b.logger.Warn("host has no tty group", zap.Error(err))
		return
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return
	}
	if err := os.Chown(b.RootPath(path), 0, gid); err != nil {
		b.logger.Warn("chown to root:tty", zap.String("path", path), zap.Error(err))
	}
}

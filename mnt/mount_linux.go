package mnt

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Table is the mount set managed for one sandbox root.
type Table struct {
	root   string
	mounts []Mount
	logger *zap.Logger
}

// NewTable builds a Table over the sandbox root. A nil mount list selects
// the default table.
func NewTable(root string, mounts []Mount, logger *zap.Logger) *Table {
	if mounts == nil {
		mounts = DefaultTable()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Table{root: root, mounts: mounts, logger: logger}
}

// MountAll mounts the table in listing order. Mount points are created as
// needed; bind sources that are files get a file target.
func (t *Table) MountAll() error {
	for _, m := range t.mounts {
		if err := t.mountOne(m); err != nil {
			return fmt.Errorf("mounting %s on %s: %w", m.Source, m.Target, err)
		}
	}
	return nil
}

func (t *Table) mountOne(m Mount) error {
	target := t.target(m)
	if err := t.prepareTarget(m, target); err != nil {
		return err
	}
	switch m.Type {
	case "bind":
		if err := unix.Mount(m.Source, target, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
			return err
		}
		if m.Readonly {
			return unix.Mount("", target, "",
				unix.MS_BIND|unix.MS_REMOUNT|unix.MS_RDONLY, "")
		}
		return nil
	case "tmpfs":
		return unix.Mount("tmpfs", target, "tmpfs", unix.MS_NOSUID, m.Data)
	case "proc":
		return unix.Mount("proc", target, "proc", unix.MS_NOSUID|unix.MS_NOEXEC|unix.MS_NODEV, "")
	case "sysfs":
		return unix.Mount("sysfs", target, "sysfs", unix.MS_NOSUID|unix.MS_NOEXEC|unix.MS_NODEV, "")
	case "devpts":
		return unix.Mount("devpts", target, "devpts", unix.MS_NOSUID|unix.MS_NOEXEC, m.Data)
	default:
		return fmt.Errorf("invalid mount type %q", m.Type)
	}
}

func (t *Table) prepareTarget(m Mount, target string) error {
	if m.Type == "bind" {
		if fi, err := os.Stat(m.Source); err == nil && !fi.IsDir() {
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return err
			}
			return f.Close()
		}
	}
	return os.MkdirAll(target, 0o755)
}

func (t *Table) target(m Mount) string {
	return filepath.Join(t.root, filepath.Join("/", m.Target)[1:])
}

// UmountAll detaches the table in reverse listing order so nested mounts go
// before their parents. Failures are logged, not raised: teardown runs even
// after crashes where some entries were never mounted.
func (t *Table) UmountAll() error {
	for i := len(t.mounts) - 1; i >= 0; i-- {
		target := t.target(t.mounts[i])
		if err := unix.Unmount(target, unix.MNT_DETACH); err != nil {
			if err == unix.EINVAL || err == unix.ENOENT {
				continue // not mounted
			}
			t.logger.Warn("unmount failed", zap.String("target", target), zap.Error(err))
		}
	}
	return nil
}

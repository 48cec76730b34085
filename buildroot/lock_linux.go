package buildroot

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

func (b *Buildroot) openLock() error {
	if err := os.MkdirAll(b.basedir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(b.basedir, lockFileName),
		os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	b.lockFile = f
	return nil
}

// lock takes the advisory lock on the buildroot without blocking. A shared
// lock marks the buildroot as in use by a build; the exclusive lock gates
// structural mutation. Re-locking the held file converts the mode, which is
// how Initialize downgrades exclusive to shared. Contention surfaces as
// ErrLocked immediately, never by waiting.
//
// flock(2) conversion is not atomic: a failed exclusive upgrade may have
// released the shared lock already, so after ErrLocked the caller must not
// assume it still holds its previous mode.
func (b *Buildroot) lock(exclusive bool) error {
	if b.lockFile == nil {
		if err := b.openLock(); err != nil {
			return err
		}
	}
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	if err := unix.Flock(int(b.lockFile.Fd()), how|unix.LOCK_NB); err != nil {
		if err == unix.EWOULDBLOCK {
			return ErrLocked
		}
		return err
	}
	return nil
}

// unlock releases and closes the lock handle. Safe to call when unlocked.
func (b *Buildroot) unlock() {
	if b.lockFile != nil {
		b.lockFile.Close()
		b.lockFile = nil
	}
}

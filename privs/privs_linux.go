// Package privs flips the effective identity of the process between root
// and an unprivileged build identity. Drops keep the saved uid at root so
// restoration always stays possible; every scoped use goes through
// Unprivileged so restoration cannot be skipped on an early return.
package privs

import (
	"os"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Manager switches the effective uid/gid. All operations are no-ops when
// the process does not run as root, so unprivileged callers pass through
// unchanged.
type Manager struct {
	uid        int
	gid        int
	privileged bool
	logger     *zap.Logger
}

// New builds a Manager dropping to uid/gid.
func New(uid, gid int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		uid:        uid,
		gid:        gid,
		privileged: os.Geteuid() == 0,
		logger:     logger,
	}
}

// DropPrivsTemp switches the effective identity to the unprivileged one.
// The saved uid stays root so RestorePrivs can switch back.
func (m *Manager) DropPrivsTemp() error {
	return m.become(m.uid, m.gid)
}

// RestorePrivs switches the effective identity back to root.
func (m *Manager) RestorePrivs() error {
	if !m.privileged {
		return nil
	}
	if err := unix.Setresuid(-1, 0, -1); err != nil {
		return err
	}
	return unix.Setresgid(-1, 0, -1)
}

// BecomeUser switches the effective identity to an arbitrary uid/gid.
func (m *Manager) BecomeUser(uid, gid int) error {
	return m.become(uid, gid)
}

func (m *Manager) become(uid, gid int) error {
	if !m.privileged {
		return nil
	}
	// Group first: once the effective uid is unprivileged the gid can no
	// longer change.
	if err := unix.Setresgid(-1, gid, -1); err != nil {
		return err
	}
	if err := unix.Setresuid(-1, uid, -1); err != nil {
		return err
	}
	return nil
}

// Unprivileged runs fn with privileges dropped, restoring them on every
// return path.
func (m *Manager) Unprivileged(fn func() error) error {
	if err := m.DropPrivsTemp(); err != nil {
		return err
	}
	defer func() {
		if err := m.RestorePrivs(); err != nil {
			m.logger.Error("restoring privileges", zap.Error(err))
		}
	}()
	return fn()
}

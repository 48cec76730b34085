package buildroot

import (
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// nukeRpmDB removes rpm database lock and cache files left behind in the
// sandbox by a killed process. The files are root owned, so the root
// identity is assumed transiently and restored on every return path.
func (b *Buildroot) nukeRpmDB() error {
	matches, err := filepath.Glob(b.RootPath("var/lib/rpm/__db*"))
	if err != nil || len(matches) == 0 {
		return err
	}
	b.rootLog.Debug("removing rpm db lock files", zap.Int("count", len(matches)))

	if err := b.privs.BecomeUser(0, 0); err != nil {
		return err
	}
	defer func() {
		if err := b.privs.RestorePrivs(); err != nil {
			b.logger.Error("restoring privileges", zap.Error(err))
		}
	}()

	for _, m := range matches {
		if err := unix.Unlink(m); err != nil {
			b.logger.Error("removing rpm db file", zap.String("path", m), zap.Error(err))
			return err
		}
	}
	return nil
}

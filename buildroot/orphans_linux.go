package buildroot

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// orphansKill kills any process whose root is still inside the sandbox.
// Builds are expected to reap their children; anything left over would keep
// mounts busy and block teardown.
func (b *Buildroot) orphansKill() {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return
	}
	root := canonical(b.rootdir)
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		link, err := os.Readlink(filepath.Join("/proc", e.Name(), "root"))
		if err != nil {
			continue
		}
		if link == root || strings.HasPrefix(link, root+"/") {
			b.logger.Warn("killing orphan process rooted in buildroot", zap.Int("pid", pid))
			if err := unix.Kill(pid, unix.SIGKILL); err != nil {
				b.logger.Warn("kill failed", zap.Int("pid", pid), zap.Error(err))
			}
		}
	}
}

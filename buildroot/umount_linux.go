package buildroot

import (
	"strings"

	"github.com/moby/sys/mountinfo"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// umountResidual force-unmounts anything still mounted under the sandbox
// root, typically left behind by a run that died before cleaning up. Every
// attempt is best effort: this runs during crash recovery and teardown and
// must not become a failure point of its own.
func (b *Buildroot) umountResidual() {
	infos, err := mountinfo.GetMounts(nil)
	if err != nil {
		b.logger.Warn("reading host mount table", zap.Error(err))
		return
	}
	for _, mp := range residualMounts(b.rootdir, infos) {
		b.logger.Warn("forcibly unmounting from buildroot", zap.String("mountpoint", mp))
		if err := unix.Unmount(mp, unix.MNT_DETACH); err != nil {
			b.logger.Warn("unmount failed", zap.String("mountpoint", mp), zap.Error(err))
		}
	}
}

// residualMounts selects the mount points under root, in reverse listing
// order: nested mounts must go before their parents or the parent unmount
// reports the device busy.
func residualMounts(root string, infos []*mountinfo.Info) []string {
	prefix := canonical(root) + "/"
	if prefix == "/" || prefix == "//" {
		panic("buildroot: refusing to treat the filesystem root as a sandbox")
	}
	var out []string
	for i := len(infos) - 1; i >= 0; i-- {
		if strings.HasPrefix(canonical(infos[i].Mountpoint), prefix) {
			out = append(out, infos[i].Mountpoint)
		}
	}
	return out
}

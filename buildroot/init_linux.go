package buildroot

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/shlex"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// skeletonDirs are always present inside the sandbox root. proc and sys are
// mount points; the rest is the minimum the package manager and rpm expect.
var skeletonDirs = []string{
	"var/lib/rpm",
	"var/lib/yum",
	"var/lib/dbus",
	"var/log",
	"var/cache/yum",
	"etc/rpm",
	"tmp",
	"tmp/ccache",
	"var/tmp",
	"etc/yum.repos.d",
	"etc/yum",
	"proc",
	"sys",
}

// Initialize brings the buildroot to a point where commands can run inside
// it. The first caller performs full setup under an exclusive lock; when
// another process already holds the lock its initialization is trusted and
// this call degrades to joining the sandbox under a shared lock.
func (b *Buildroot) Initialize() error {
	initErr := func() error {
		if err := b.lock(true); err != nil {
			if errors.Is(err, ErrLocked) {
				return nil
			}
			return err
		}
		return b.init()
	}()
	// Whichever path was taken, hold the buildroot shared for the rest of
	// the build. Converting the held exclusive lock is atomic.
	if err := b.lock(false); err != nil {
		return err
	}
	if initErr != nil {
		return initErr
	}
	return b.resetLogging()
}

func (b *Buildroot) init() error {
	// A previous run may have died with mounts still attached. Repair
	// before touching anything else.
	b.umountResidual()

	const phase = "chroot init"
	b.state.Start(phase)
	defer b.state.Finish(phase)

	b.wasInitialized = b.IsInitialized()
	b.logger.Info("calling preinit hooks")
	if err := b.plugins.CallHooks("preinit"); err != nil {
		return err
	}
	// A preinit hook may create or remove the sandbox; re-check.
	b.wasInitialized = b.IsInitialized()

	if !b.wasInitialized {
		if err := b.setupDirs(); err != nil {
			return err
		}
		if err := b.setupDevices(); err != nil {
			return err
		}
		if err := b.setupFiles(); err != nil {
			return err
		}
		if err := b.mounts.MountAll(); err != nil {
			return err
		}
		if err := b.resetLogging(); err != nil {
			return err
		}
		b.rootLog.Debug("buildroot created",
			zap.String("rootdir", b.rootdir),
			zap.String("resultdir", b.resultdir))
		if err := b.setupResolverConfig(); err != nil {
			return err
		}
		if err := b.setupMachineID(); err != nil {
			return err
		}
		if err := b.seedFiles(); err != nil {
			return err
		}
		if err := b.setupTimezone(); err != nil {
			return err
		}
		if err := b.initPkgManagement(); err != nil {
			return err
		}
		if err := b.makeBuildUser(); err != nil {
			return err
		}
		if err := b.setupBuildDirs(); err != nil {
			return err
		}
	} else {
		// Mounts and device nodes do not survive between uses even when
		// the directory tree does; refresh both.
		if err := b.setupDevices(); err != nil {
			return err
		}
		if err := b.mounts.MountAll(); err != nil {
			return err
		}
	}

	if err := touch(b.RootPath(markerFile)); err != nil {
		return err
	}

	return b.plugins.CallHooks("postinit")
}

func (b *Buildroot) setupDirs() error {
	b.logger.Debug("creating skeleton dirs", zap.String("rootdir", b.rootdir))
	dirs := make([]string, 0, len(skeletonDirs)+len(b.conf.ExtraDirs))
	dirs = append(dirs, skeletonDirs...)
	dirs = append(dirs, b.conf.ExtraDirs...)
	for _, d := range dirs {
		if err := os.MkdirAll(b.RootPath(d), 0o755); err != nil {
			return err
		}
	}
	if b.conf.CacheTopDir != "" {
		if err := os.MkdirAll(b.cachedir, 0o755); err != nil {
			return err
		}
	}
	// The result directory belongs to the unprivileged caller; creating it
	// as root would make the build unable to write its own results.
	return b.privs.Unprivileged(func() error {
		if err := os.MkdirAll(b.resultdir, 0o755); err != nil {
			return &ResultDirError{Path: b.resultdir, Err: err}
		}
		return nil
	})
}

func (b *Buildroot) setupFiles() error {
	for _, p := range []string{"etc/fstab", "var/log/yum.log"} {
		if err := touch(b.RootPath(p)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Buildroot) setupResolverConfig() error {
	if !b.conf.UseHostResolv {
		return nil
	}
	for _, name := range []string{"resolv.conf", "hosts"} {
		dst := b.RootPath("etc", name)
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			return err
		}
		if err := copyFile(filepath.Join("/etc", name), dst); err != nil {
			return err
		}
	}
	return nil
}

// setupMachineID seeds a fresh dbus machine identity so software in the
// sandbox does not inherit, or leak, the host's.
func (b *Buildroot) setupMachineID() error {
	id := uuid.New()
	return os.WriteFile(b.RootPath("var", "lib", "dbus", "machine-id"),
		[]byte(hex.EncodeToString(id[:])+"\n"), 0o644)
}

func (b *Buildroot) seedFiles() error {
	for p, content := range b.conf.Files {
		dst := b.RootPath(p)
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dst, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (b *Buildroot) setupTimezone() error {
	const localtime = "/etc/localtime"
	if _, err := os.Stat(localtime); err != nil {
		b.logger.Warn("host has no /etc/localtime, skipping timezone setup")
		return nil
	}
	dst := b.RootPath("etc", "localtime")
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return copyFile(localtime, dst)
}

func (b *Buildroot) initPkgManagement() error {
	if err := b.pkgManager.InitializeConfig(); err != nil {
		return err
	}
	label := fmt.Sprintf("%s update", b.pkgManager.Command())
	b.state.Start(label)
	defer b.state.Finish(label)
	args, err := shlex.Split(b.conf.InstallCommand)
	if err != nil {
		return fmt.Errorf("parsing install command %q: %w", b.conf.InstallCommand, err)
	}
	return b.pkgManager.Execute(args...)
}

// Finalize tears the sandbox down but keeps its contents for reuse. A
// contended lock means another process is still using or already cleaning
// the buildroot; it is left alone.
func (b *Buildroot) Finalize() error {
	if _, err := os.Stat(b.rootdir); err != nil {
		return nil
	}
	if err := b.lock(true); err != nil {
		if errors.Is(err, ErrLocked) {
			return nil
		}
		return err
	}
	defer b.unlock()
	b.orphansKill()
	b.umountAll()
	return nil
}

// Delete erases the buildroot permanently. Unlike Finalize, lock contention
// surfaces to the caller: a buildroot someone is building in must not be
// silently skipped nor silently destroyed.
func (b *Buildroot) Delete() error {
	if _, err := os.Stat(b.basedir); err == nil {
		if err := b.lock(true); err != nil {
			return err
		}
		b.orphansKill()
		b.umountAll()
		b.unlock()
		if err := b.rmtree(b.basedir); err != nil {
			return err
		}
	}
	b.wasInitialized = false
	return nil
}

func (b *Buildroot) umountAll() {
	// Configured mounts first, then whatever is still hanging around.
	if err := b.mounts.UmountAll(); err != nil {
		b.logger.Warn("unmounting configured mounts", zap.Error(err))
	}
	b.umountResidual()
}

// DoChroot runs a command inside the sandbox with the configured
// environment. Stale rpm database locks are cleared first; a previous
// killed process otherwise wedges every later package operation.
func (b *Buildroot) DoChroot(argv ...string) error {
	if !b.conf.LegacyHostKernel {
		if err := b.nukeRpmDB(); err != nil {
			return err
		}
	}
	return b.runner.Run(b.rootdir, b.environ(), argv...)
}

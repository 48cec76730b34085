package main

import (
	"os"
	"strings"
	"syscall"

	"github.com/mockbuild/go-buildroot/buildroot"
	"github.com/mockbuild/go-buildroot/chrootexec"
	"github.com/mockbuild/go-buildroot/cmd/go-buildroot/config"
	"github.com/mockbuild/go-buildroot/cmd/go-buildroot/version"
	"github.com/mockbuild/go-buildroot/mnt"
	"github.com/mockbuild/go-buildroot/pkgmanager"
	"github.com/mockbuild/go-buildroot/plugin"
	"github.com/mockbuild/go-buildroot/privs"
	"github.com/mockbuild/go-buildroot/state"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func run(conf *config.Config) error {
	prof, err := config.ReadProfile(conf.Profile)
	if err != nil {
		return err
	}

	if !conf.LegacyHostKernel && isLegacyKernel() {
		logger.Warn("EL5-era host kernel detected, enabling legacy behavior")
		conf.LegacyHostKernel = true
	}

	if conf.Scrub != "" {
		return scrub(conf, prof)
	}

	b, err := newBuildroot(conf, prof, conf.Root)
	if err != nil {
		return err
	}

	if conf.Init {
		if err := b.Initialize(); err != nil {
			return err
		}
		logger.Info("buildroot initialized",
			zap.String("root", b.RootDir()),
			zap.Bool("reused", b.WasAlreadyInitialized()))
	}
	if conf.Finalize {
		if err := b.Finalize(); err != nil {
			return err
		}
		logger.Info("buildroot finalized", zap.String("root", b.RootDir()))
	}
	if conf.Delete {
		if err := b.Delete(); err != nil {
			return err
		}
		logger.Info("buildroot deleted", zap.String("basedir", b.BaseDir()))
	}
	return nil
}

// scrub deletes several buildroots concurrently. Each holds its own lock,
// so roots still in use surface as errors instead of being destroyed.
func scrub(conf *config.Config, prof *config.Profile) error {
	var eg errgroup.Group
	for _, name := range strings.Split(conf.Scrub, ",") {
		name := strings.TrimSpace(name)
		if name == "" {
			continue
		}
		eg.Go(func() error {
			b, err := newBuildroot(conf, prof, name)
			if err != nil {
				return err
			}
			if err := b.Delete(); err != nil {
				return err
			}
			logger.Info("buildroot scrubbed", zap.String("name", name))
			return nil
		})
	}
	return eg.Wait()
}

func newBuildroot(conf *config.Config, prof *config.Profile, name string) (*buildroot.Buildroot, error) {
	brConf := buildroot.Config{
		Name:             name,
		BaseDir:          conf.BaseDir,
		ResultDir:        conf.ResultDir,
		HomeDir:          conf.HomeDir,
		CacheTopDir:      conf.CacheDir,
		UID:              conf.UID,
		GID:              conf.GID,
		Environment:      prof.Environment,
		UseHostResolv:    conf.UseHostResolv,
		InternalDevSetup: conf.InternalDevSetup,
		Clean:            conf.Clean,
		LegacyHostKernel: conf.LegacyHostKernel,
		ExtraDirs:        prof.ExtraDirs,
		Files:            prof.Files,
		Macros:           prof.Macros,
		UseraddTemplate:  prof.Useradd,
		InstallCommand:   conf.InstallCommand,
		Version:          version.Version,
	}

	rootdir := brConf.RootDirPath()

	mounts, err := mnt.ReadConfig(conf.MountConf)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		logger.Info("mount table does not exist, using default",
			zap.String("path", conf.MountConf))
		mounts = nil
	}

	return buildroot.New(brConf, buildroot.Collaborators{
		PkgManager: pkgmanager.New(conf.PkgCommand, rootdir, prof.PkgConfig, logger),
		Mounts:     mnt.NewTable(rootdir, mounts, logger),
		Privs:      privs.New(conf.UID, conf.GID, logger),
		State:      state.NewTracker(logger),
		Plugins:    plugin.New(logger),
		Runner:     chrootexec.New(logger),
	}, logger)
}

// isLegacyKernel reports a host kernel older than 2.6.18, where the devpts
// ptmx relink and rpm db lock cleanup misbehave.
func isLegacyKernel() bool {
	major, minor, patch := kernelVersion()
	if major != 2 {
		return major < 2
	}
	return minor < 6 || (minor == 6 && patch < 18)
}

func kernelVersion() (major, minor, patch int) {
	var uname syscall.Utsname
	if err := syscall.Uname(&uname); err != nil {
		return
	}

	rl := uname.Release
	var values [3]int
	vi := 0
	value := 0
	for _, c := range rl {
		if '0' <= c && c <= '9' {
			value = (value * 10) + int(c-'0')
		} else {
			values[vi] = value
			vi++
			if vi >= len(values) {
				break
			}
			value = 0
		}
	}
	switch vi {
	case 0:
		return 0, 0, 0
	case 1:
		return values[0], 0, 0
	case 2:
		return values[0], values[1], 0
	}
	return values[0], values[1], values[2]
}

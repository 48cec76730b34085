// Package config defines the go-buildroot command configuration.
package config

import (
	"os"

	"github.com/koding/multiconfig"
)

// Config defines buildroot manager configuration, loaded from flags and
// environment variables.
type Config struct {
	// buildroot selection
	Root     string `flagUsage:"logical buildroot name" default:"default"`
	BaseDir  string `flagUsage:"top level directory holding all buildroots" default:"/var/lib/go-buildroot"`
	CacheDir string `flagUsage:"top level cache directory" default:"/var/cache/go-buildroot"`
	// ResultDir supports {basedir} and {name} placeholders
	ResultDir string `flagUsage:"directory receiving build results and logs (default <basedir>/result)"`
	Profile   string `flagUsage:"buildroot profile yaml (macros, seeded files, environment)" default:"profile.yaml"`
	MountConf string `flagUsage:"mount table yaml (default table when absent)" default:"mounts.yaml"`

	// build user
	UID     int    `flagUsage:"uid of the build user inside the buildroot" default:"1000"`
	GID     int    `flagUsage:"gid of the build user inside the buildroot" default:"1000"`
	HomeDir string `flagUsage:"home of the build user inside the buildroot" default:"/builddir"`

	// behavior
	Clean            bool   `flagUsage:"recreate the build user home from scratch" default:"true"`
	UseHostResolv    bool   `flagUsage:"copy host resolv.conf and hosts into the buildroot" default:"true"`
	InternalDevSetup bool   `flagUsage:"create the buildroot /dev node set" default:"true"`
	LegacyHostKernel bool   `flagUsage:"assume EL5-era host kernel: skip /dev/fd symlink, ptmx relink and rpm db lock cleanup"`
	PkgCommand       string `flagUsage:"package manager command" default:"dnf"`
	InstallCommand   string `flagUsage:"dependency install command run at first initialization" default:"install @buildsys-build"`

	// lifecycle actions
	Init     bool   `flagUsage:"initialize the buildroot"`
	Finalize bool   `flagUsage:"tear the buildroot down, keeping its contents"`
	Delete   bool   `flagUsage:"erase the buildroot permanently"`
	Scrub    string `flagUsage:"comma separated buildroot names to delete concurrently"`

	// logger config
	Release     bool `flagUsage:"release level of logs"`
	Silent      bool `flagUsage:"do not print logs"`
	EnableDebug bool `flagUsage:"enable debug logs"`

	// show version and exit
	Version bool `flagUsage:"show version and exit"`
}

// Load loads config from flag & environment variables.
func (c *Config) Load() error {
	cl := multiconfig.MultiLoader(
		&multiconfig.TagLoader{},
		&multiconfig.EnvironmentLoader{
			Prefix:    "GB",
			CamelCase: true,
		},
		&multiconfig.FlagLoader{
			CamelCase: true,
			EnvPrefix: "GB",
		},
	)
	if os.Getpid() == 1 {
		c.Release = true
	}
	return cl.Load(c)
}

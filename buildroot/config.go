package buildroot

import "path/filepath"

// Config defines a buildroot profile. It is resolved by the caller before
// constructing a Buildroot and treated as immutable afterwards.
type Config struct {
	// Name is the logical sandbox name. The buildroot lives under
	// <BaseDir>/<Name> and the sandbox filesystem under
	// <BaseDir>/<Name>/root.
	Name string
	// BaseDir is the top level directory holding all buildroots.
	BaseDir string
	// ResultDir is a template for the directory receiving build results
	// and log files. {basedir} and {name} are substituted; empty selects
	// <BaseDir>/<Name>/result.
	ResultDir string
	// HomeDir is the build user home path inside the sandbox.
	HomeDir string
	// CacheTopDir is the top level cache directory shared between
	// buildroots of the same name.
	CacheTopDir string

	// UID and GID define the build user identity inside the sandbox and
	// the unprivileged identity result files are owned by.
	UID int
	GID int
	// User and Group name the build identity. Empty selects "mockbuild".
	User  string
	Group string

	// Environment is exported into every command run inside the sandbox.
	Environment map[string]string

	// UseHostResolv copies the host resolver configuration into the
	// sandbox at first initialization.
	UseHostResolv bool
	// InternalDevSetup enables creation of the sandbox /dev node set.
	InternalDevSetup bool
	// Clean recreates the build user home from scratch even when the
	// directory tree is reused.
	Clean bool
	// LegacyHostKernel disables the /dev/fd symlink, the removal of the
	// ptmx device node together with its relink to pts/ptmx, and the rpm
	// database lock cleanup, none of which are valid on EL5-era host
	// kernels. Legacy roots keep the plain ptmx node.
	LegacyHostKernel bool

	// ExtraDirs are created inside the sandbox in addition to the
	// skeleton directories.
	ExtraDirs []string
	// Files maps in-sandbox paths to literal contents seeded at first
	// initialization.
	Files map[string]string
	// Macros is written to the build user ~/.rpmmacros, one key per line.
	Macros map[string]string

	// UseraddTemplate is the user creation command. {uid}, {gid}, {user},
	// {group} and {home} are substituted before tokenizing.
	UseraddTemplate string
	// InstallCommand is the dependency install command handed to the
	// package manager at first initialization.
	InstallCommand string

	// RootLogFormat, BuildLogFormat and StateLogFormat select the encoder
	// for the corresponding result log, "json" or "console".
	RootLogFormat  string
	BuildLogFormat string
	StateLogFormat string

	// Version is stamped into each result log when its handler attaches.
	Version string
}

const (
	defaultUser     = "mockbuild"
	defaultGroup    = "mockbuild"
	defaultHomeDir  = "/builddir"
	defaultUseradd  = "/usr/sbin/useradd -o -m -u {uid} -g {gid} -d {home} -N {user}"
	markerFile      = ".initialized"
	lockFileName    = "buildroot.lock"
)

// RootDirPath returns the sandbox root directory this profile resolves to,
// for callers that need it before constructing the Buildroot.
func (c Config) RootDirPath() string {
	return filepath.Join(c.BaseDir, c.Name, "root")
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.User == "" {
		out.User = defaultUser
	}
	if out.Group == "" {
		out.Group = defaultGroup
	}
	if out.HomeDir == "" {
		out.HomeDir = defaultHomeDir
	}
	if out.UseraddTemplate == "" {
		out.UseraddTemplate = defaultUseradd
	}
	return out
}

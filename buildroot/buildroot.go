// Package buildroot manages the lifecycle of an isolated filesystem build
// environment: a chroot style sandbox with controlled mounts, device nodes,
// a privileged build user and package state. Many processes may share one
// buildroot concurrently; an advisory file lock over the base directory
// serializes mutation, and initialization is idempotent so a crashed run is
// repaired by the next one.
package buildroot

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Buildroot is the managed sandbox instance. Construct one per build
// invocation with New; the sandbox filesystem itself outlives the process
// and is only destroyed by Delete.
type Buildroot struct {
	conf Config

	basedir   string
	rootdir   string
	resultdir string
	homedir   string
	builddir  string
	cachedir  string

	selinux bool

	pkgManager PackageManager
	mounts     Mounts
	privs      PrivilegeManager
	state      PhaseTracker
	plugins    PluginDispatcher
	runner     Runner

	logger   *zap.Logger
	rootLog  *zap.Logger
	buildLog *zap.Logger

	lockFile           *os.File
	loggingInitialized bool
	wasInitialized     bool
}

// New resolves the buildroot paths, wires the collaborators and runs plugin
// initialization. It does not touch the sandbox filesystem; that happens in
// Initialize.
func New(conf Config, c Collaborators, logger *zap.Logger) (*Buildroot, error) {
	conf = conf.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Buildroot{
		conf:    conf,
		basedir: filepath.Join(conf.BaseDir, conf.Name),
		selinux: selinuxEnabled(),
		logger:  logger,
	}
	b.rootdir = filepath.Join(b.basedir, "root")
	b.resultdir = resolveResultDir(conf, b.basedir)
	b.homedir = conf.HomeDir
	b.builddir = filepath.Join(b.homedir, "build")
	b.cachedir = filepath.Join(conf.CacheTopDir, conf.Name)
	b.rootLog = logger
	b.buildLog = logger

	b.pkgManager = c.PkgManager
	b.mounts = c.Mounts
	b.privs = c.Privs
	b.state = c.State
	b.plugins = c.Plugins
	b.runner = c.Runner
	if b.pkgManager == nil {
		b.pkgManager = nopPackageManager{}
	}
	if b.mounts == nil {
		b.mounts = nopMounts{}
	}
	if b.privs == nil {
		b.privs = nopPrivs{}
	}
	if b.state == nil {
		b.state = &nopState{}
	}
	if b.plugins == nil {
		b.plugins = nopPlugins{}
	}
	if b.runner == nil {
		b.runner = nopRunner{}
	}

	if err := b.plugins.InitPlugins(b); err != nil {
		return nil, err
	}
	return b, nil
}

func resolveResultDir(conf Config, basedir string) string {
	if conf.ResultDir == "" {
		return filepath.Join(basedir, "result")
	}
	r := strings.NewReplacer("{basedir}", basedir, "{name}", conf.Name)
	return filepath.Clean(r.Replace(conf.ResultDir))
}

// RootPath maps a logical in-sandbox path to its location on the host.
// Each element is clamped to the sandbox root before joining, so neither a
// leading slash nor parent-relative segments can escape it.
func (b *Buildroot) RootPath(elem ...string) string {
	p := b.rootdir
	for _, e := range elem {
		p = filepath.Join(p, filepath.Join("/", e)[1:])
	}
	return p
}

// RootDir returns the sandbox root directory on the host.
func (b *Buildroot) RootDir() string { return b.rootdir }

// BaseDir returns the directory holding the sandbox root and the lock file.
func (b *Buildroot) BaseDir() string { return b.basedir }

// ResultDir returns the directory receiving build results and logs.
func (b *Buildroot) ResultDir() string { return b.resultdir }

// CacheDir returns the cache directory shared between buildroots of the
// same name.
func (b *Buildroot) CacheDir() string { return b.cachedir }

// HomeDir returns the build user home path inside the sandbox.
func (b *Buildroot) HomeDir() string { return b.homedir }

// IsInitialized reports whether one-time setup completed. The marker file
// inside the sandbox root is the sole source of truth.
func (b *Buildroot) IsInitialized() bool {
	_, err := os.Stat(b.RootPath(markerFile))
	return err == nil
}

// WasAlreadyInitialized reports whether the last Initialize found a sandbox
// set up by an earlier run.
func (b *Buildroot) WasAlreadyInitialized() bool { return b.wasInitialized }

// RootLogger returns the sandbox-scoped logger, file backed once logging is
// attached.
func (b *Buildroot) RootLogger() *zap.Logger { return b.rootLog }

// BuildLogger returns the logger receiving build command output.
func (b *Buildroot) BuildLogger() *zap.Logger { return b.buildLog }

func (b *Buildroot) environ() []string {
	env := make([]string, 0, len(b.conf.Environment))
	for k, v := range b.conf.Environment {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

type nopPackageManager struct{}

func (nopPackageManager) InitializeConfig() error     { return nil }
func (nopPackageManager) Execute(args ...string) error { return nil }
func (nopPackageManager) Command() string             { return "nop" }

type nopMounts struct{}

func (nopMounts) MountAll() error  { return nil }
func (nopMounts) UmountAll() error { return nil }

type nopPrivs struct{}

func (nopPrivs) DropPrivsTemp() error             { return nil }
func (nopPrivs) RestorePrivs() error              { return nil }
func (nopPrivs) BecomeUser(uid, gid int) error    { return nil }
func (nopPrivs) Unprivileged(fn func() error) error { return fn() }

type nopState struct{}

func (*nopState) Start(label string)        {}
func (*nopState) Finish(label string)       {}
func (*nopState) SetLogger(l *zap.Logger)   {}

type nopPlugins struct{}

func (nopPlugins) InitPlugins(b *Buildroot) error { return nil }
func (nopPlugins) CallHooks(name string) error    { return nil }

type nopRunner struct{}

func (nopRunner) Run(root string, env []string, argv ...string) error { return nil }

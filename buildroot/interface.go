package buildroot

import "go.uber.org/zap"

// PackageManager installs build dependencies into the sandbox. It is driven
// from the host side; Execute runs against the sandbox root.
type PackageManager interface {
	// InitializeConfig writes the package manager configuration into the
	// sandbox.
	InitializeConfig() error
	// Execute runs the package manager with the given arguments.
	Execute(args ...string) error
	// Command is the package manager command name, used for phase labels.
	Command() string
}

// Mounts manages the configured mount table of the sandbox.
type Mounts interface {
	MountAll() error
	// UmountAll unmounts the configured table. It is best effort and does
	// not fail teardown.
	UmountAll() error
}

// PrivilegeManager flips the effective identity of the process. All
// implementations must be no-ops when the process holds no privilege to
// begin with.
type PrivilegeManager interface {
	DropPrivsTemp() error
	RestorePrivs() error
	BecomeUser(uid, gid int) error
	// Unprivileged runs fn with privileges dropped and restores them on
	// every return path.
	Unprivileged(fn func() error) error
}

// PhaseTracker records named timed phases of a build.
type PhaseTracker interface {
	Start(label string)
	Finish(label string)
	// SetLogger redirects phase reporting, used to attach the state log
	// file once the result directory exists.
	SetLogger(l *zap.Logger)
}

// PluginDispatcher runs registered plugin hooks at lifecycle points.
type PluginDispatcher interface {
	InitPlugins(b *Buildroot) error
	CallHooks(name string) error
}

// Runner executes a command inside the sandbox root.
type Runner interface {
	Run(root string, env []string, argv ...string) error
}

// Collaborators wires the external components a Buildroot composes. Nil
// fields select inert defaults so partial wiring stays usable in tests.
type Collaborators struct {
	PkgManager PackageManager
	Mounts     Mounts
	Privs      PrivilegeManager
	State      PhaseTracker
	Plugins    PluginDispatcher
	Runner     Runner
}

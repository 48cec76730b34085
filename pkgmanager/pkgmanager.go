// Package pkgmanager drives the package manager (dnf / yum) against a
// sandbox root from the host side.
package pkgmanager

import (
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapio"
)

// Manager runs the host package manager with --installroot pointed at the
// sandbox.
type Manager struct {
	command    string
	root       string
	configText string
	logger     *zap.Logger
}

// New builds a Manager for the given command name (e.g. "dnf") and sandbox
// root. configText is written into the sandbox by InitializeConfig.
func New(command, root, configText string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{command: command, root: root, configText: configText, logger: logger}
}

// Command returns the package manager command name.
func (m *Manager) Command() string { return m.command }

// InitializeConfig writes the package manager configuration into the
// sandbox, where both the host-side invocations and in-sandbox ones find it.
func (m *Manager) InitializeConfig() error {
	dir := filepath.Join(m.root, "etc", m.command)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, m.command+".conf"), []byte(m.configText), 0o644)
}

// Execute runs the package manager with the given arguments against the
// sandbox root, streaming output to the logger.
func (m *Manager) Execute(args ...string) error {
	full := make([]string, 0, len(args)+2)
	full = append(full, "--installroot="+m.root, "-y")
	full = append(full, args...)

	m.logger.Info("executing package manager",
		zap.String("command", m.command), zap.Strings("args", args))

	w := &zapio.Writer{Log: m.logger.Named(m.command), Level: zap.InfoLevel}
	defer w.Close()

	cmd := exec.Command(m.command, full...)
	cmd.Stdout = w
	cmd.Stderr = w
	return cmd.Run()
}

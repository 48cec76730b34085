// Package chrootexec runs commands inside a sandbox root.
package chrootexec

import (
	"errors"
	"os/exec"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapio"
)

// Runner executes commands chrooted into a sandbox. The process must hold
// CAP_SYS_CHROOT; command output streams to the logger.
type Runner struct {
	logger *zap.Logger
}

// New builds a Runner logging command output to logger.
func New(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// Run executes argv inside root with the given environment. argv[0] is
// resolved inside the chroot, so it should be absolute.
func (r *Runner) Run(root string, env []string, argv ...string) error {
	if len(argv) == 0 {
		return errors.New("chrootexec: empty command")
	}

	w := &zapio.Writer{Log: r.logger.With(zap.String("chroot", root)), Level: zap.InfoLevel}
	defer w.Close()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Chroot: root}
	cmd.Dir = "/"
	cmd.Env = env
	cmd.Stdout = w
	cmd.Stderr = w
	return cmd.Run()
}

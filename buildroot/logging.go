package buildroot

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// resetLogging attaches file handlers for the root, build and state log
// streams under the result directory. It runs once per Buildroot; the
// guard keeps handlers from stacking when Initialize is re-entered.
func (b *Buildroot) resetLogging() error {
	if b.loggingInitialized {
		return nil
	}
	b.loggingInitialized = true

	if err := os.MkdirAll(b.resultdir, 0o755); err != nil {
		return err
	}

	// Log files belong to the unprivileged caller, same as the rest of
	// the result directory.
	return b.privs.Unprivileged(func() error {
		rootLog, err := b.attachFileLog("root.log", b.conf.RootLogFormat)
		if err != nil {
			return err
		}
		b.rootLog = rootLog

		buildLog, err := b.attachFileLog("build.log", b.conf.BuildLogFormat)
		if err != nil {
			return err
		}
		b.buildLog = buildLog

		stateLog, err := b.attachFileLog("state.log", b.conf.StateLogFormat)
		if err != nil {
			return err
		}
		b.state.SetLogger(stateLog)
		return nil
	})
}

// attachFileLog builds a logger that writes to both the process logger and
// the named file in the result directory, stamping the tool version first.
func (b *Buildroot) attachFileLog(name, format string) (*zap.Logger, error) {
	f, err := os.OpenFile(filepath.Join(b.resultdir, name),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	var enc zapcore.Encoder
	if format == "json" {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	fileCore := zapcore.NewCore(enc, zapcore.AddSync(f), zap.DebugLevel)

	l := zap.New(zapcore.NewTee(b.logger.Core(), fileCore))
	l.Info("go-buildroot", zap.String("version", b.conf.Version))
	return l, nil
}

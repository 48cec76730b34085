// Package plugin dispatches lifecycle hooks to registered plugins.
package plugin

import (
	"go.uber.org/zap"

	"github.com/mockbuild/go-buildroot/buildroot"
)

// InitFunc runs when a Buildroot is constructed, before any filesystem
// work. Plugins typically register their hooks here.
type InitFunc func(b *buildroot.Buildroot) error

// HookFunc runs at a named lifecycle point such as preinit or postinit.
type HookFunc func() error

// Dispatcher keeps hooks in registration order per name.
type Dispatcher struct {
	logger *zap.Logger
	inits  []InitFunc
	hooks  map[string][]HookFunc
}

// New builds an empty Dispatcher.
func New(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		logger: logger,
		hooks:  make(map[string][]HookFunc),
	}
}

// RegisterInit adds a plugin initializer.
func (d *Dispatcher) RegisterInit(fn InitFunc) {
	d.inits = append(d.inits, fn)
}

// Register adds a hook for the named lifecycle point.
func (d *Dispatcher) Register(name string, fn HookFunc) {
	d.hooks[name] = append(d.hooks[name], fn)
}

// InitPlugins runs all registered initializers against the buildroot.
func (d *Dispatcher) InitPlugins(b *buildroot.Buildroot) error {
	for _, fn := range d.inits {
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}

// CallHooks runs the hooks registered for name in registration order,
// stopping at the first error.
func (d *Dispatcher) CallHooks(name string) error {
	fns := d.hooks[name]
	if len(fns) > 0 {
		d.logger.Debug("calling hooks", zap.String("hook", name), zap.Int("count", len(fns)))
	}
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

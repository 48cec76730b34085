package plugin

import (
	"errors"
	"testing"

	"github.com/mockbuild/go-buildroot/buildroot"
)

func TestCallHooksOrder(t *testing.T) {
	d := New(nil)
	var order []int
	d.Register("preinit", func() error { order = append(order, 1); return nil })
	d.Register("preinit", func() error { order = append(order, 2); return nil })
	d.Register("postinit", func() error { order = append(order, 3); return nil })

	if err := d.CallHooks("preinit"); err != nil {
		t.Fatalf("CallHooks: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("hook order = %v", order)
	}
}

func TestCallHooksStopsOnError(t *testing.T) {
	d := New(nil)
	boom := errors.New("boom")
	var ran bool
	d.Register("preinit", func() error { return boom })
	d.Register("preinit", func() error { ran = true; return nil })

	if err := d.CallHooks("preinit"); !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if ran {
		t.Error("hook after failing hook still ran")
	}
}

func TestCallHooksUnknownName(t *testing.T) {
	if err := New(nil).CallHooks("nonexistent"); err != nil {
		t.Errorf("CallHooks on unknown name: %v", err)
	}
}

func TestInitPlugins(t *testing.T) {
	d := New(nil)
	var got *buildroot.Buildroot
	d.RegisterInit(func(b *buildroot.Buildroot) error { got = b; return nil })

	b, err := buildroot.New(buildroot.Config{
		Name:    "plugin-test",
		BaseDir: t.TempDir(),
	}, buildroot.Collaborators{Plugins: d}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got != b {
		t.Error("initializer did not receive the buildroot under construction")
	}
}

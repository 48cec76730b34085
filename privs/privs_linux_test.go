package privs

import (
	"errors"
	"os"
	"testing"
)

func TestUnprivilegedPassthrough(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("test requires an unprivileged caller")
	}
	m := New(1000, 1000, nil)
	if err := m.DropPrivsTemp(); err != nil {
		t.Errorf("DropPrivsTemp without privilege: %v", err)
	}
	if err := m.RestorePrivs(); err != nil {
		t.Errorf("RestorePrivs without privilege: %v", err)
	}
	if err := m.BecomeUser(0, 0); err != nil {
		t.Errorf("BecomeUser without privilege: %v", err)
	}
}

func TestUnprivilegedRunsAndPropagates(t *testing.T) {
	m := New(os.Getuid(), os.Getgid(), nil)

	var ran bool
	if err := m.Unprivileged(func() error { ran = true; return nil }); err != nil {
		t.Fatalf("Unprivileged: %v", err)
	}
	if !ran {
		t.Error("closure did not run")
	}

	boom := errors.New("boom")
	if err := m.Unprivileged(func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("got %v, want boom", err)
	}
}

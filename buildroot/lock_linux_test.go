package buildroot

import (
	"errors"
	"testing"
)

func TestLockExclusivity(t *testing.T) {
	base := t.TempDir()
	b1 := newTestBuildroot(t, Config{BaseDir: base}, Collaborators{})
	b2 := newTestBuildroot(t, Config{BaseDir: base}, Collaborators{})
	defer b1.unlock()
	defer b2.unlock()

	if err := b1.lock(true); err != nil {
		t.Fatalf("first exclusive lock: %v", err)
	}
	if err := b2.lock(true); !errors.Is(err, ErrLocked) {
		t.Fatalf("second exclusive lock: got %v, want ErrLocked", err)
	}
	if err := b2.lock(false); !errors.Is(err, ErrLocked) {
		t.Fatalf("shared lock against exclusive holder: got %v, want ErrLocked", err)
	}

	// Downgrading the held lock is a conversion, not a release.
	if err := b1.lock(false); err != nil {
		t.Fatalf("downgrade to shared: %v", err)
	}
	if err := b2.lock(false); err != nil {
		t.Fatalf("second shared lock: %v", err)
	}
	if err := b1.lock(true); !errors.Is(err, ErrLocked) {
		t.Fatalf("exclusive upgrade with shared holder present: got %v, want ErrLocked", err)
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	b := newTestBuildroot(t, Config{}, Collaborators{})
	b.unlock() // never locked
	if err := b.lock(true); err != nil {
		t.Fatalf("lock: %v", err)
	}
	b.unlock()
	b.unlock()
}

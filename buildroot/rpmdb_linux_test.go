package buildroot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNukeRpmDB(t *testing.T) {
	b := newTestBuildroot(t, Config{}, Collaborators{})

	rpmDir := b.RootPath("var/lib/rpm")
	if err := os.MkdirAll(rpmDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"__db.001", "__db.002", "Packages"} {
		if err := os.WriteFile(filepath.Join(rpmDir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := b.nukeRpmDB(); err != nil {
		t.Fatalf("nukeRpmDB: %v", err)
	}

	for _, name := range []string{"__db.001", "__db.002"} {
		if _, err := os.Stat(filepath.Join(rpmDir, name)); !os.IsNotExist(err) {
			t.Errorf("lock file %s survived", name)
		}
	}
	if _, err := os.Stat(filepath.Join(rpmDir, "Packages")); err != nil {
		t.Error("database file removed alongside lock files")
	}
}

func TestNukeRpmDBWithoutLockFiles(t *testing.T) {
	b := newTestBuildroot(t, Config{}, Collaborators{})
	if err := b.nukeRpmDB(); err != nil {
		t.Fatalf("nukeRpmDB on absent rpm dir: %v", err)
	}
}

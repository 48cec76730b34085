package pkgmanager

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitializeConfig(t *testing.T) {
	root := t.TempDir()
	m := New("dnf", root, "[main]\nkeepcache=1\n", nil)

	if m.Command() != "dnf" {
		t.Errorf("Command() = %q", m.Command())
	}
	if err := m.InitializeConfig(); err != nil {
		t.Fatalf("InitializeConfig: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "etc", "dnf", "dnf.conf"))
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}
	if string(data) != "[main]\nkeepcache=1\n" {
		t.Errorf("config = %q", data)
	}
}

package buildroot

import (
	"path/filepath"
	"strings"
	"testing"
)

func newTestBuildroot(t *testing.T, conf Config, c Collaborators) *Buildroot {
	t.Helper()
	if conf.Name == "" {
		conf.Name = "test"
	}
	if conf.BaseDir == "" {
		conf.BaseDir = t.TempDir()
	}
	b, err := New(conf, c, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestRootPathContainment(t *testing.T) {
	b := newTestBuildroot(t, Config{}, Collaborators{})
	root := b.RootDir()

	cases := []struct {
		name string
		elem []string
		want string
	}{
		{"empty", nil, root},
		{"plain", []string{"etc/passwd"}, filepath.Join(root, "etc/passwd")},
		{"leading slash", []string{"/etc/passwd"}, filepath.Join(root, "etc/passwd")},
		{"parent escape", []string{"../etc/passwd"}, filepath.Join(root, "etc/passwd")},
		{"deep parent escape", []string{"../../../../etc/passwd"}, filepath.Join(root, "etc/passwd")},
		{"inner traversal", []string{"a/../../b"}, filepath.Join(root, "b")},
		{"multi element", []string{"../..", "etc"}, filepath.Join(root, "etc")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := b.RootPath(c.elem...)
			if got != c.want {
				t.Errorf("RootPath(%v) = %q, want %q", c.elem, got, c.want)
			}
			if !strings.HasPrefix(got, root) {
				t.Errorf("RootPath(%v) = %q escapes root %q", c.elem, got, root)
			}
		})
	}
}

func TestResolveResultDir(t *testing.T) {
	got := resolveResultDir(Config{Name: "f40", ResultDir: "/results/{name}"}, "/b/f40")
	if got != "/results/f40" {
		t.Errorf("template result dir = %q", got)
	}
	got = resolveResultDir(Config{Name: "f40"}, "/b/f40")
	if got != "/b/f40/result" {
		t.Errorf("default result dir = %q", got)
	}
	got = resolveResultDir(Config{Name: "f40", ResultDir: "{basedir}/out"}, "/b/f40")
	if got != "/b/f40/out" {
		t.Errorf("basedir template result dir = %q", got)
	}
}

func TestNewDefaults(t *testing.T) {
	b := newTestBuildroot(t, Config{}, Collaborators{})
	if b.conf.User != defaultUser || b.conf.Group != defaultGroup {
		t.Errorf("default identity = %s:%s", b.conf.User, b.conf.Group)
	}
	if b.homedir != defaultHomeDir {
		t.Errorf("default home = %q", b.homedir)
	}
	if b.builddir != filepath.Join(defaultHomeDir, "build") {
		t.Errorf("build dir = %q", b.builddir)
	}
	if b.rootdir != filepath.Join(b.basedir, "root") {
		t.Errorf("root dir = %q", b.rootdir)
	}
	if b.IsInitialized() {
		t.Error("fresh buildroot reports initialized")
	}
}

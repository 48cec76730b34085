package buildroot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeRunner struct {
	commands [][]string
	fail     map[string]bool
}

func (r *fakeRunner) Run(root string, env []string, argv ...string) error {
	r.commands = append(r.commands, argv)
	if r.fail[argv[0]] {
		return os.ErrPermission
	}
	return nil
}

func writeRootFile(t *testing.T, b *Buildroot, path, content string) {
	t.Helper()
	p := b.RootPath(path)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEnableUserAccount(t *testing.T) {
	b := newTestBuildroot(t, Config{}, Collaborators{})
	const before = "root:x:0:0:root:/root:/bin/bash\n" +
		"mockbuild:!!x:1000:1000::/builddir:/bin/bash\n" +
		"nobody:!!:65534:65534::/:/sbin/nologin\n"
	writeRootFile(t, b, "etc/passwd", before)

	if err := b.enableUserAccount(); err != nil {
		t.Fatalf("enableUserAccount: %v", err)
	}

	data, err := os.ReadFile(b.RootPath("etc/passwd"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if lines[1] != "mockbuild:x:1000:1000::/builddir:/bin/bash" {
		t.Errorf("build user entry = %q, want marker stripped only", lines[1])
	}
	// only the build user's marker is touched
	if lines[0] != "root:x:0:0:root:/root:/bin/bash" {
		t.Errorf("root entry changed: %q", lines[0])
	}
	if lines[2] != "nobody:!!:65534:65534::/:/sbin/nologin" {
		t.Errorf("unrelated disabled entry changed: %q", lines[2])
	}
}

func TestMakeBuildUserRequiresUseradd(t *testing.T) {
	b := newTestBuildroot(t, Config{}, Collaborators{})
	err := b.makeBuildUser()
	var rootErr *RootError
	if !errors.As(err, &rootErr) {
		t.Fatalf("got %T (%v), want *RootError", err, err)
	}
}

func TestMakeBuildUserCleanFlag(t *testing.T) {
	runner := &fakeRunner{fail: map[string]bool{
		// stale entry removal is expected to fail when nothing is there
		"/usr/sbin/userdel":  true,
		"/usr/sbin/groupdel": true,
	}}
	b := newTestBuildroot(t, Config{
		UID:   1000,
		GID:   1000,
		Clean: true,
	}, Collaborators{Runner: runner})

	writeRootFile(t, b, "usr/sbin/useradd", "")
	writeRootFile(t, b, "etc/passwd", "mockbuild:!!x:1000:1000::/builddir:/bin/bash\n")
	writeRootFile(t, b, filepath.Join(b.homedir, "leftover.txt"), "stale")

	if err := b.makeBuildUser(); err != nil {
		t.Fatalf("makeBuildUser: %v", err)
	}

	if _, err := os.Stat(b.RootPath(b.homedir, "leftover.txt")); !os.IsNotExist(err) {
		t.Error("clean flag left stale home contents behind")
	}

	var sawGroupadd, sawUseradd bool
	for _, argv := range runner.commands {
		switch argv[0] {
		case "/usr/sbin/groupadd":
			sawGroupadd = true
		case "/usr/sbin/useradd":
			sawUseradd = true
			joined := strings.Join(argv, " ")
			for _, want := range []string{"1000", "mockbuild", b.homedir} {
				if !strings.Contains(joined, want) {
					t.Errorf("useradd %q missing %q", joined, want)
				}
			}
		}
	}
	if !sawGroupadd || !sawUseradd {
		t.Errorf("groupadd/useradd not run: %v", runner.commands)
	}

	data, _ := os.ReadFile(b.RootPath("etc/passwd"))
	if !strings.HasPrefix(string(data), "mockbuild:x:") {
		t.Errorf("account not enabled: %q", string(data))
	}
}

func TestSetupBuildDirs(t *testing.T) {
	b := newTestBuildroot(t, Config{
		UID: os.Getuid(),
		GID: os.Getgid(),
		Macros: map[string]string{
			"%_topdir":     "/builddir/build",
			"%_smp_mflags": "-j4",
		},
	}, Collaborators{})

	if err := b.setupBuildDirs(); err != nil {
		t.Fatalf("setupBuildDirs: %v", err)
	}

	for _, d := range buildSubdirs {
		fi, err := os.Stat(b.RootPath(b.builddir, d))
		if err != nil || !fi.IsDir() {
			t.Errorf("build subdir %s missing", d)
		}
	}

	data, err := os.ReadFile(b.RootPath(b.homedir, ".rpmmacros"))
	if err != nil {
		t.Fatalf("reading .rpmmacros: %v", err)
	}
	for k, v := range b.conf.Macros {
		if !strings.Contains(string(data), k+" "+v+"\n") {
			t.Errorf(".rpmmacros missing %q", k)
		}
	}
}

package buildroot

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"go.uber.org/zap"
)

var buildSubdirs = []string{"RPMS", "SPECS", "SRPMS", "SOURCES", "BUILD", "BUILDROOT", "originals"}

// makeBuildUser creates and enables the build identity inside the sandbox.
// useradd must exist in the sandbox by now; its absence means base package
// installation did not succeed and nothing else can work either.
func (b *Buildroot) makeBuildUser() error {
	if _, err := os.Stat(b.RootPath("usr/sbin/useradd")); err != nil {
		return &RootError{Msg: "useradd not found in buildroot, install may have failed", Err: err}
	}

	if b.conf.Clean {
		if err := b.rmtree(b.RootPath(b.homedir)); err != nil {
			return err
		}
	}

	// Stale entries from an earlier buildroot are expected; removal
	// failing usually just means they are not there.
	if err := b.DoChroot("/usr/sbin/userdel", "-r", "-f", b.conf.User); err != nil {
		b.rootLog.Debug("userdel", zap.Error(err))
	}
	if err := b.DoChroot("/usr/sbin/groupdel", b.conf.Group); err != nil {
		b.rootLog.Debug("groupdel", zap.Error(err))
	}

	if err := b.DoChroot("/usr/sbin/groupadd", "-g", strconv.Itoa(b.conf.GID), b.conf.Group); err != nil {
		return err
	}
	argv, err := b.useraddArgs()
	if err != nil {
		return err
	}
	if err := b.DoChroot(argv...); err != nil {
		return err
	}
	return b.enableUserAccount()
}

func (b *Buildroot) useraddArgs() ([]string, error) {
	r := strings.NewReplacer(
		"{uid}", strconv.Itoa(b.conf.UID),
		"{gid}", strconv.Itoa(b.conf.GID),
		"{user}", b.conf.User,
		"{group}", b.conf.Group,
		"{home}", b.homedir,
	)
	return shlex.Split(r.Replace(b.conf.UseraddTemplate))
}

// enableUserAccount strips the "!!" disabled marker from the build user's
// passwd entry. useradd creates the account locked; without this every
// authenticated action in the sandbox would want a password nobody set.
func (b *Buildroot) enableUserAccount() error {
	p := b.RootPath("etc", "passwd")
	data, err := os.ReadFile(p)
	if err != nil {
		return err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	changed := false
	for i, line := range lines {
		parts := strings.Split(line, ":")
		if len(parts) > 1 && parts[0] == b.conf.User && strings.HasPrefix(parts[1], "!!") {
			parts[1] = parts[1][2:]
			lines[i] = strings.Join(parts, ":")
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}

// setupBuildDirs prepares the build user's working tree and rpm macros.
// Runs under dropped privileges so ownership semantics of the home
// directory hold even when the process is root.
func (b *Buildroot) setupBuildDirs() error {
	return b.privs.Unprivileged(func() error {
		for _, d := range buildSubdirs {
			if err := os.MkdirAll(b.RootPath(b.builddir, d), 0o755); err != nil {
				return err
			}
		}

		// The home tree must be writable by the build user regardless of
		// who created the individual entries.
		home := b.RootPath(b.homedir)
		err := filepath.Walk(home, func(path string, info os.FileInfo, err error) error {
			if err != nil || path == home {
				return err
			}
			if err := os.Chown(path, b.conf.UID, -1); err != nil {
				return err
			}
			return os.Chmod(path, 0o755)
		})
		if err != nil {
			return err
		}

		return b.writeRPMMacros()
	})
}

func (b *Buildroot) writeRPMMacros() error {
	keys := make([]string, 0, len(b.conf.Macros))
	for k := range b.conf.Macros {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte(' ')
		sb.WriteString(b.conf.Macros[k])
		sb.WriteByte('\n')
	}
	return os.WriteFile(b.RootPath(b.homedir, ".rpmmacros"), []byte(sb.String()), 0o644)
}

package config

import (
	"os"

	yaml "github.com/goccy/go-yaml"
)

// Profile carries the per-buildroot settings that do not fit flags: rpm
// macros, literal files seeded into the root, the command environment and
// the user creation template.
type Profile struct {
	Environment map[string]string `yaml:"environment"`
	Files       map[string]string `yaml:"files"`
	Macros      map[string]string `yaml:"macros"`
	ExtraDirs   []string          `yaml:"extraDirs"`
	Useradd     string            `yaml:"useradd"`
	PkgConfig   string            `yaml:"pkgConfig"`
}

// DefaultProfile is used when no profile file exists.
func DefaultProfile() *Profile {
	return &Profile{
		Environment: map[string]string{
			"PATH":     "/usr/bin:/bin:/usr/sbin:/sbin",
			"HOME":     "/builddir",
			"TERM":     "vt100",
			"SHELL":    "/bin/bash",
			"LANG":     "C.UTF-8",
			"TMPDIR":   "/tmp",
			"HOSTNAME": "go-buildroot",
		},
		Macros: map[string]string{
			"%_topdir":      "/builddir/build",
			"%_rpmfilename": "%%{NAME}-%%{VERSION}-%%{RELEASE}.%%{ARCH}.rpm",
		},
	}
}

// ReadProfile loads a profile from a YAML file; a missing file selects the
// default profile.
func ReadProfile(p string) (*Profile, error) {
	d, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultProfile(), nil
		}
		return nil, err
	}
	var prof Profile
	if err := yaml.Unmarshal(d, &prof); err != nil {
		return nil, err
	}
	return &prof, nil
}

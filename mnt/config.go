// Package mnt manages the configured mount table of a sandbox root.
package mnt

import (
	"fmt"
	"os"
	"path"

	yaml "gopkg.in/yaml.v2"
)

// Mount defines a single mount point inside the sandbox.
// type could be bind / tmpfs / proc / sysfs / devpts
type Mount struct {
	Type     string `yaml:"type"`
	Source   string `yaml:"source"`
	Target   string `yaml:"target"`
	Readonly bool   `yaml:"readonly"`
	Data     string `yaml:"data"`
}

type mountConfig struct {
	Mount []Mount `yaml:"mount"`
}

var validTypes = map[string]bool{
	"bind":   true,
	"tmpfs":  true,
	"proc":   true,
	"sysfs":  true,
	"devpts": true,
}

// ReadConfig loads a mount table from a YAML file. Targets are normalized
// to be relative to the sandbox root.
func ReadConfig(p string) ([]Mount, error) {
	d, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var mc mountConfig
	if err := yaml.Unmarshal(d, &mc); err != nil {
		return nil, err
	}
	return normalize(mc.Mount)
}

func normalize(mounts []Mount) ([]Mount, error) {
	out := make([]Mount, 0, len(mounts))
	for _, m := range mounts {
		if !validTypes[m.Type] {
			return nil, fmt.Errorf("invalid mount type %q for target %q", m.Type, m.Target)
		}
		if path.IsAbs(m.Target) {
			m.Target = path.Clean(m.Target)[1:]
		}
		if m.Target == "" {
			return nil, fmt.Errorf("mount of type %q has no target", m.Type)
		}
		out = append(out, m)
	}
	return out, nil
}

// DefaultTable is the minimal set a build needs: kernel interfaces plus a
// private terminal and shared memory instance.
func DefaultTable() []Mount {
	return []Mount{
		{Type: "proc", Source: "proc", Target: "proc"},
		{Type: "sysfs", Source: "sysfs", Target: "sys"},
		{Type: "devpts", Source: "devpts", Target: "dev/pts",
			Data: "newinstance,ptmxmode=0666,mode=620,gid=5"},
		{Type: "tmpfs", Source: "tmpfs", Target: "dev/shm", Data: "mode=1777"},
	}
}

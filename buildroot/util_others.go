//go:build !linux

package buildroot

func selinuxEnabled() bool { return false }

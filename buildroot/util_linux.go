package buildroot

import "os"

// selinuxEnabled reports whether the host enforces SELinux. Device nodes
// then get a security context copied from the matching host device.
func selinuxEnabled() bool {
	fi, err := os.Stat("/sys/fs/selinux/enforce")
	return err == nil && fi.Mode().IsRegular()
}

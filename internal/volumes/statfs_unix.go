//go:build darwin || linux

package volumes

import "golang.org/x/sys/unix"

// AvailableSpace returns the bytes available to unprivileged users on the
// filesystem mounted at mountPoint.
func AvailableSpace(mountPoint string) (uint64, error) {
	var fs unix.Statfs_t
	if err := unix.Statfs(mountPoint, &fs); err != nil {
		return 0, err
	}
	return uint64(fs.Bavail) * uint64(fs.Bsize), nil
}

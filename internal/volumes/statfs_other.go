//go:build !darwin && !linux

package volumes

import "github.com/pkg/errors"

func AvailableSpace(string) (uint64, error) {
	return 0, errors.New("free space is not supported on this platform")
}

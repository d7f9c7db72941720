package volumes

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// listEntry matches partition and APFS volume rows of `diskutil list`:
//
//	   3:                  Apple_HFS MyDisk                  500.1 GB   disk2s3
//
// Headers, whole-disk rows, snapshots and unknown partition types do not match.
var listEntry = regexp.MustCompile(
	`[0-9]+:\s+(Apple_APFS|Microsoft Basic Data|APFS Volume|EFI|Apple_HFS) (.+) ([0-9.]+) ([KMGT])B\s+(disk[0-9]+s[0-9]+)\s*$`)

// Newer diskutil releases wrap names in first-strong / pop directional isolates.
var isolateStripper = strings.NewReplacer("\u2068", "", "\u2069", "")

func cleanLine(line string) string {
	return isolateStripper.Replace(line)
}

// ParseList reads the output of `diskutil list` and returns one volume per
// partition or APFS volume row, in the order they were printed.
func ParseList(r io.Reader) ([]*Volume, error) {
	var vols []*Volume

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := cleanLine(scanner.Text())
		if line == "" {
			continue
		}
		m := listEntry.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		capacity, err := CapacityFromUnits(m[3], m[4][0])
		if err != nil {
			return vols, errors.Wrapf(err, "diskutil list entry %s", m[5])
		}

		v := NewVolume(m[5])
		v.FileSystemFormat = NormalizeFormat(m[1])
		v.VolumeName = strings.TrimSpace(m[2])
		v.Capacity = capacity
		vols = append(vols, v)
	}
	if err := scanner.Err(); err != nil {
		return vols, errors.Wrap(err, "reading diskutil list output")
	}
	return vols, nil
}

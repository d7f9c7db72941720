package volumes

import (
	"bufio"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Labels recognised in `diskutil info <device>` output.
const (
	labelVolumeName     = "Volume Name:"
	labelMounted        = "Mounted:"
	labelMountPoint     = "Mount Point:"
	labelPersonality    = "File System Personality:"
	labelPartitionUUID  = "Disk / Partition UUID:"
	labelContainerTotal = "Container Total Space:"
	labelVolumeTotal    = "Volume Total Space:"
)

// containerNamePrefix marks the listing name of an APFS container
// partition ("Container disk3"). It is kept over the info pass name.
const containerNamePrefix = "Container disk"

var exactBytes = regexp.MustCompile(`[0-9.]+ [A-Z]B \(([0-9]+) Bytes`)

// valueOf removes every label from line and trims what is left.
func valueOf(line string, labels ...string) string {
	for _, label := range labels {
		line = strings.ReplaceAll(line, label, "")
	}
	return strings.TrimSpace(line)
}

// ApplyInfo overlays the output of `diskutil info` onto v.
//
// Labels are matched by containment, first match wins, in the order of the
// constants above. A partition UUID that does not parse aborts the pass with
// ErrMalformedIdentifier; fields applied before that line are kept.
func ApplyInfo(v *Volume, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := cleanLine(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case strings.Contains(line, labelVolumeName):
			if !strings.HasPrefix(v.VolumeName, containerNamePrefix) {
				v.VolumeName = valueOf(line, labelVolumeName)
			}
		case strings.Contains(line, labelMounted):
			v.Mounted = strings.Contains(line, "Yes")
		case strings.Contains(line, labelMountPoint):
			// "Not applicable (no file system)" and similar are not paths.
			if mp := valueOf(line, labelMountPoint); filepath.IsAbs(mp) {
				v.MountPoint = mp
			}
		case strings.Contains(line, labelPersonality):
			if !isProtectedFormat(v.FileSystemFormat) {
				v.FileSystemFormat = NormalizeFormat(valueOf(line, labelPersonality))
			}
		case strings.Contains(line, labelPartitionUUID):
			value := valueOf(line, labelPartitionUUID)
			id, err := uuid.Parse(value)
			if err != nil {
				return errors.Wrapf(ErrMalformedIdentifier, "%s: %q: %v", v.deviceNode, value, err)
			}
			v.Identifier = id
		case strings.Contains(line, labelContainerTotal), strings.Contains(line, labelVolumeTotal):
			m := exactBytes.FindStringSubmatch(valueOf(line, labelContainerTotal, labelVolumeTotal))
			if m == nil {
				continue
			}
			capacity, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return errors.Wrapf(ErrMalformedCapacity, "%s: %q: %v", v.deviceNode, m[1], err)
			}
			v.Capacity = capacity
		}
	}
	return errors.Wrapf(scanner.Err(), "reading diskutil info output for %s", v.deviceNode)
}

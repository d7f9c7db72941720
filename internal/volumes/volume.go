// Package volumes builds a per-volume inventory of a macOS host by
// correlating diskutil output with what is visible on the filesystem.
package volumes

import (
	"strings"

	"github.com/Masterminds/semver"
	"github.com/google/uuid"
)

// OSFamily identifies the operating system found on a volume.
type OSFamily uint8

const (
	// FamilyOther is assigned to every listed volume until an OS is identified.
	FamilyOther OSFamily = iota
	FamilyMacOSX
)

func (f OSFamily) String() string {
	switch f {
	case FamilyMacOSX:
		return "MacOSX"
	default:
		return "Other"
	}
}

// MarshalText lets encoders print the family name instead of its number.
func (f OSFamily) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Volume is one partition or APFS volume reported by diskutil list,
// enriched in place by the later passes.
type Volume struct {
	deviceNode string

	VolumeName       string
	FileSystemFormat string
	Capacity         int64 // bytes
	MountPoint       string
	Identifier       uuid.UUID
	BootLabel        string
	Mounted          bool
	FreeSpace        uint64 // bytes available to unprivileged users, 0 if unknown

	osFamily  OSFamily
	osVersion *semver.Version
}

// NewVolume creates a record for a device node such as "disk0s2".
func NewVolume(deviceNode string) *Volume {
	if deviceNode == "" {
		panic("volumes: empty device node")
	}
	return &Volume{deviceNode: deviceNode, osFamily: FamilyOther}
}

// DeviceNode returns the diskutil identifier the volume was listed under.
func (v *Volume) DeviceNode() string { return v.deviceNode }

// OSFamily returns FamilyOther unless an installed OS was identified.
func (v *Volume) OSFamily() OSFamily { return v.osFamily }

// OSVersion returns nil unless an installed OS was identified.
func (v *Volume) OSVersion() *semver.Version { return v.osVersion }

// setOS records an identified OS. A version without a positive major
// component does not identify anything and is dropped.
func (v *Volume) setOS(family OSFamily, version *semver.Version) bool {
	if family == FamilyOther || version == nil || version.Major() <= 0 {
		return false
	}
	v.osFamily = family
	v.osVersion = version
	return true
}

// HasIdentifier reports whether diskutil info supplied a partition UUID.
func (v *Volume) HasIdentifier() bool {
	return v.Identifier != uuid.Nil
}

// IdentifierString returns the UUID in the uppercase form used by
// macOS for Preboot directories, or "" when it is unknown.
func (v *Volume) IdentifierString() string {
	if !v.HasIdentifier() {
		return ""
	}
	return strings.ToUpper(v.Identifier.String())
}

// OperatingSystem returns e.g. "MacOSX 14.2.1", or "" when nothing was identified.
func (v *Volume) OperatingSystem() string {
	return v.OperatingSystemOr("")
}

// OperatingSystemOr is OperatingSystem with a caller supplied fallback.
func (v *Volume) OperatingSystemOr(fallback string) string {
	if v.osFamily != FamilyOther && v.osVersion != nil && v.osVersion.Major() > 0 {
		return v.osFamily.String() + " " + v.osVersion.String()
	}
	return fallback
}

// Blocks returns the capacity in 1024-byte blocks.
func (v *Volume) Blocks() int64 {
	return v.Capacity / 1024
}

func (v *Volume) String() string {
	return v.VolumeName
}

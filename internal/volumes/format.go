package volumes

import "strings"

// Canonical filesystem format codes.
const (
	FormatEFI              = "efi"
	FormatAPFSContainer    = "container_apfs"
	FormatAPFS             = "apfs"
	FormatHFS              = "hfs"
	FormatHFSPlusJournaled = "hfs+j"
	FormatFAT              = "vfat"
)

var formatAliases = map[string]string{
	"Apple_APFS":           FormatAPFSContainer,
	"APFS Volume":          FormatAPFS,
	"Apple_HFS":            FormatHFS,
	"Journaled HFS+":       FormatHFSPlusJournaled,
	"Microsoft Basic Data": FormatFAT,
	"MS-DOS FAT32":         FormatFAT,
}

// NormalizeFormat maps a diskutil partition type or filesystem personality
// to a short code. Unknown labels come back lower-cased.
func NormalizeFormat(label string) string {
	if format, ok := formatAliases[label]; ok {
		return format
	}
	return strings.ToLower(label)
}

// Formats set by the listing pass that diskutil info must not overwrite.
// An EFI partition reports a FAT personality, and a container reports the
// personality of its first volume.
func isProtectedFormat(format string) bool {
	return format == FormatEFI || format == FormatAPFSContainer
}

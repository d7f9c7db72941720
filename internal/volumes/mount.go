package volumes

import (
	"path/filepath"
	"strings"
)

// ResolveMount fills in a missing mount point from /Volumes/<name> and then
// follows the mount point through one symbolic link.
//
// Only a single level is resolved: a link pointing at another link is left
// pointing at the second link.
func (p *Prober) ResolveMount(v *Volume) {
	if v.MountPoint == "" {
		name := strings.TrimSpace(v.VolumeName)
		if name != "" && !strings.ContainsRune(name, filepath.Separator) {
			candidate := filepath.Join(p.VolumesDir, name)
			if p.dirExists(candidate) {
				v.MountPoint = candidate
			}
		}
	}

	if v.MountPoint == "" {
		return
	}
	if target, ok := p.readlink(v.MountPoint); ok {
		v.MountPoint = target
	}
}

package volumes

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const bootLabelPath = "System/Library/CoreServices/.disk_label.contentDetails"

// ResolveBootLabel attaches the pre-boot picker label stored in the Preboot
// volume under the partition UUID. Most volumes do not have one.
func (p *Prober) ResolveBootLabel(v *Volume) error {
	if !v.HasIdentifier() {
		return nil
	}
	path := filepath.Join(p.PrebootDir, v.IdentifierString(), bootLabelPath)
	if !p.fileExists(path) {
		return nil
	}

	data, err := afero.ReadFile(p.Fs, path)
	if err != nil {
		return errors.Wrapf(err, "reading boot label %s", path)
	}
	v.BootLabel = string(data)
	return nil
}

package volumes

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Default locations on a macOS host.
const (
	DefaultVolumesDir = "/Volumes"
	DefaultPrebootDir = "/System/Volumes/Preboot"
)

// Prober answers the filesystem questions asked about each volume.
// Anything that cannot be found is reported as absent, never as an error.
type Prober struct {
	Fs         afero.Fs
	VolumesDir string
	PrebootDir string
}

// NewProber returns a Prober over fs using the standard macOS locations.
func NewProber(fs afero.Fs) *Prober {
	return &Prober{
		Fs:         fs,
		VolumesDir: DefaultVolumesDir,
		PrebootDir: DefaultPrebootDir,
	}
}

func (p *Prober) dirExists(path string) bool {
	ok, err := afero.DirExists(p.Fs, path)
	return err == nil && ok
}

func (p *Prober) fileExists(path string) bool {
	info, err := p.Fs.Stat(path)
	return err == nil && !info.IsDir()
}

// readlink resolves path by exactly one level if it is a symbolic link.
// Filesystems without symlink support report every path as a plain entry.
func (p *Prober) readlink(path string) (string, bool) {
	lstater, ok := p.Fs.(afero.Lstater)
	if !ok {
		return "", false
	}
	info, lstatCalled, err := lstater.LstatIfPossible(path)
	if err != nil || !lstatCalled || info.Mode()&os.ModeSymlink == 0 {
		return "", false
	}

	reader, ok := p.Fs.(afero.LinkReader)
	if !ok {
		return "", false
	}
	target, err := reader.ReadlinkIfPossible(path)
	if err != nil || target == "" {
		return "", false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return target, true
}

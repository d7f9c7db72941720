package volumes

import (
	"bufio"
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
	"howett.net/plist"
)

const (
	systemVersionPath = "System/Library/CoreServices/SystemVersion.plist"
	productVersionKey = "<key>ProductVersion</key>"
)

var binaryPlistMagic = []byte("bplist00")

type systemVersion struct {
	ProductVersion string `plist:"ProductVersion"`
}

// DetectOS looks for SystemVersion.plist under the mount point. Its presence
// alone marks the volume mounted; the OS is identified only when a
// ProductVersion with a positive major number is read from it.
func (p *Prober) DetectOS(v *Volume) error {
	if v.MountPoint == "" {
		return nil
	}
	path := filepath.Join(v.MountPoint, systemVersionPath)
	if !p.fileExists(path) {
		return nil
	}
	v.Mounted = true

	f, err := p.Fs.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	raw, found, err := readProductVersion(f)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	if !found {
		return nil
	}

	version, err := semver.NewVersion(raw)
	if err != nil {
		return errors.Wrapf(ErrMalformedVersion, "%s: %q: %v", path, raw, err)
	}
	v.setOS(FamilyMacOSX, version)
	return nil
}

// readProductVersion returns the ProductVersion string of a property list.
// XML lists are scanned line by line and reading stops as soon as the value
// is seen; binary lists are decoded whole.
func readProductVersion(r io.Reader) (string, bool, error) {
	br := bufio.NewReader(r)
	if magic, _ := br.Peek(len(binaryPlistMagic)); bytes.Equal(magic, binaryPlistMagic) {
		data, err := io.ReadAll(br)
		if err != nil {
			return "", false, err
		}
		var sv systemVersion
		if _, err := plist.Unmarshal(data, &sv); err != nil {
			return "", false, err
		}
		return sv.ProductVersion, sv.ProductVersion != "", nil
	}

	keyRead := false
	scanner := bufio.NewScanner(br)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if keyRead {
			return stringElement(line), true, nil
		}
		if i := strings.Index(line, productVersionKey); i >= 0 {
			// <key>ProductVersion</key><string>14.2.1</string> on one line
			if rest := strings.TrimSpace(line[i+len(productVersionKey):]); rest != "" {
				return stringElement(rest), true, nil
			}
			keyRead = true
		}
	}
	return "", false, scanner.Err()
}

// stringElement returns the text inside <string>...</string>.
func stringElement(s string) string {
	if i := strings.Index(s, "<string>"); i >= 0 {
		s = s[i+len("<string>"):]
	}
	if i := strings.Index(s, "</string>"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

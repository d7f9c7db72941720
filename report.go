package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"disklabels/internal/volumes"
)

func newRenderer(format string) (volumes.Renderer, error) {
	switch format {
	case outputTable:
		return tableRenderer{}, nil
	case outputJSON:
		return jsonRenderer{}, nil
	case outputYAML:
		return yamlRenderer{}, nil
	default:
		return nil, errors.Errorf("unsupported output format %q", format)
	}
}

type tableRenderer struct{}

func (tableRenderer) Render(w io.Writer, vols []*volumes.Volume) error {
	var b strings.Builder
	b.WriteString("Device node|Filesystem type|1024-blocks  |Ready|Installed OS  |Name\n")
	b.WriteString("\tUUID                                 |Boot Label|Mount point\n")
	b.WriteString(strings.Repeat("-", 78) + "\n")

	for _, v := range vols {
		ready := ' '
		if v.Mounted {
			ready = 'Y'
		}
		fmt.Fprintf(&b, "%-11s|%-15s|%13s|  %c  |%-14s|%s\n",
			v.DeviceNode(), v.FileSystemFormat, humanize.Comma(v.Blocks()), ready, v.OperatingSystem(), v.VolumeName)
		fmt.Fprintf(&b, "\t%s|%-10s|%s\n", v.IdentifierString(), v.BootLabel, v.MountPoint)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// volumeView is the serialized shape of a volume.
type volumeView struct {
	Device     string `json:"device" yaml:"device"`
	Name       string `json:"name" yaml:"name"`
	Format     string `json:"format" yaml:"format"`
	Capacity   int64  `json:"capacity" yaml:"capacity"`
	Mounted    bool   `json:"mounted" yaml:"mounted"`
	MountPoint string `json:"mount_point,omitempty" yaml:"mount_point,omitempty"`
	UUID       string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	OS         string `json:"os,omitempty" yaml:"os,omitempty"`
	BootLabel  string `json:"boot_label,omitempty" yaml:"boot_label,omitempty"`
	FreeSpace  uint64 `json:"free_space,omitempty" yaml:"free_space,omitempty"`
	Free       string `json:"free,omitempty" yaml:"free,omitempty"`
}

func newVolumeViews(vols []*volumes.Volume) []volumeView {
	views := make([]volumeView, 0, len(vols))
	for _, v := range vols {
		view := volumeView{
			Device:     v.DeviceNode(),
			Name:       v.VolumeName,
			Format:     v.FileSystemFormat,
			Capacity:   v.Capacity,
			Mounted:    v.Mounted,
			MountPoint: v.MountPoint,
			UUID:       v.IdentifierString(),
			OS:         v.OperatingSystem(),
			BootLabel:  v.BootLabel,
			FreeSpace:  v.FreeSpace,
		}
		if v.FreeSpace > 0 {
			view.Free = humanize.Bytes(v.FreeSpace)
		}
		views = append(views, view)
	}
	return views
}

type jsonRenderer struct{}

func (jsonRenderer) Render(w io.Writer, vols []*volumes.Volume) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(newVolumeViews(vols)), "encoding json")
}

type yamlRenderer struct{}

func (yamlRenderer) Render(w io.Writer, vols []*volumes.Volume) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newVolumeViews(vols)); err != nil {
		return errors.Wrap(err, "encoding yaml")
	}
	return errors.Wrap(enc.Close(), "encoding yaml")
}

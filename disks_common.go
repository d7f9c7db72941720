package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"disklabels/internal/volumes"
)

// newInventory wires the real diskutil and filesystem into an Inventory.
func newInventory(cfg config, logger zerolog.Logger) *volumes.Inventory {
	prober := volumes.NewProber(afero.NewOsFs())
	prober.VolumesDir = cfg.VolumesDir
	prober.PrebootDir = cfg.PrebootDir

	inv := volumes.NewInventory(volumes.ExecRunner{}, prober, logger)
	inv.Diskutil = cfg.Diskutil
	inv.Jobs = cfg.Jobs
	return inv
}

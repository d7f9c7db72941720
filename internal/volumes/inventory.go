package volumes

import (
	"context"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultDiskutil is where macOS installs diskutil.
const DefaultDiskutil = "/usr/sbin/diskutil"

// Renderer consumes the finished inventory.
type Renderer interface {
	Render(w io.Writer, vols []*Volume) error
}

// Inventory runs the listing pass once and then enriches every listed
// volume: diskutil info, mount resolution, OS detection, boot label.
type Inventory struct {
	Runner   Runner
	Prober   *Prober
	Diskutil string
	Logger   zerolog.Logger

	// Jobs bounds how many volumes are enriched at once. Values below 2
	// keep the enrichment strictly sequential.
	Jobs int

	// Progress, when set, is called after each volume is enriched.
	Progress func(done, total int, device string)

	// FreeSpace, when set, is queried for every mounted volume.
	FreeSpace func(mountPoint string) (uint64, error)
}

// NewInventory returns a sequential Inventory with free space lookups enabled.
func NewInventory(runner Runner, prober *Prober, logger zerolog.Logger) *Inventory {
	return &Inventory{
		Runner:    runner,
		Prober:    prober,
		Diskutil:  DefaultDiskutil,
		Logger:    logger,
		Jobs:      1,
		FreeSpace: AvailableSpace,
	}
}

// Collect returns the volumes in the order diskutil list printed them.
//
// A command that cannot be started, a failed listing pass or a cancelled
// context returns a nil slice. Failures confined to single volumes are
// logged, merged into a *multierror.Error and returned next to the full
// slice; the affected volumes are kept, partially enriched.
func (inv *Inventory) Collect(ctx context.Context) ([]*Volume, error) {
	vols, err := inv.list(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		done   int
		result *multierror.Error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(inv.Jobs, 1))
	for _, v := range vols {
		v := v
		g.Go(func() error {
			err := inv.enrich(gctx, v)

			mu.Lock()
			defer mu.Unlock()
			done++
			if inv.Progress != nil {
				inv.Progress(done, len(vols), v.DeviceNode())
			}
			if err == nil {
				return nil
			}
			if isFatal(err) {
				return err
			}
			inv.Logger.Warn().Err(err).Str("device", v.DeviceNode()).Msg("volume left partially enriched")
			result = multierror.Append(result, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vols, result.ErrorOrNil()
}

// Report collects the inventory and hands it to r. Per-volume failures do
// not prevent rendering and are returned afterwards.
func (inv *Inventory) Report(ctx context.Context, w io.Writer, r Renderer) error {
	vols, err := inv.Collect(ctx)
	if err != nil && vols == nil {
		return err
	}
	if rerr := r.Render(w, vols); rerr != nil {
		return errors.Wrap(rerr, "rendering report")
	}
	return err
}

func isFatal(err error) bool {
	var startErr *StartError
	return errors.As(err, &startErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (inv *Inventory) list(ctx context.Context) (vols []*Volume, err error) {
	out, err := inv.Runner.Start(ctx, inv.Diskutil, "list")
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			vols, err = nil, cerr
		}
	}()

	vols, err = ParseList(out)
	if err != nil {
		return nil, err
	}
	inv.Logger.Debug().Int("volumes", len(vols)).Msg("parsed diskutil list")
	return vols, nil
}

func (inv *Inventory) describe(ctx context.Context, v *Volume) (err error) {
	out, err := inv.Runner.Start(ctx, inv.Diskutil, "info", v.DeviceNode())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return ApplyInfo(v, out)
}

func (inv *Inventory) enrich(ctx context.Context, v *Volume) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var result *multierror.Error
	if err := inv.describe(ctx, v); err != nil {
		// The device may have gone away since the listing pass. Anything
		// else means a field later steps rely on is missing or wrong.
		var exitErr *ExitError
		if !errors.As(err, &exitErr) {
			return err
		}
		result = multierror.Append(result, err)
	}

	inv.Prober.ResolveMount(v)
	if err := inv.Prober.DetectOS(v); err != nil {
		result = multierror.Append(result, err)
	}
	if err := inv.Prober.ResolveBootLabel(v); err != nil {
		result = multierror.Append(result, err)
	}

	if v.Mounted && v.MountPoint != "" && inv.FreeSpace != nil {
		free, err := inv.FreeSpace(v.MountPoint)
		if err != nil {
			inv.Logger.Debug().Err(err).Str("device", v.DeviceNode()).Str("mount_point", v.MountPoint).Msg("free space unavailable")
		} else {
			v.FreeSpace = free
		}
	}

	inv.Logger.Debug().
		Str("device", v.DeviceNode()).
		Str("format", v.FileSystemFormat).
		Str("mount_point", v.MountPoint).
		Str("os", v.OperatingSystem()).
		Msg("volume enriched")
	return result.ErrorOrNil()
}

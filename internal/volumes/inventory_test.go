package volumes

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner serves canned diskutil output keyed by the argument list.
type fakeRunner struct {
	outputs   map[string]string
	exitFail  map[string]bool
	startFail map[string]bool

	mu     sync.Mutex
	opened []*fakeOutput
}

type fakeOutput struct {
	io.Reader
	err    error
	closed bool
}

func (o *fakeOutput) Close() error {
	o.closed = true
	return o.err
}

func (f *fakeRunner) Start(_ context.Context, name string, args ...string) (io.ReadCloser, error) {
	key := strings.Join(args, " ")
	if f.startFail[key] {
		return nil, &StartError{Path: name, Err: os.ErrPermission}
	}

	out := &fakeOutput{Reader: strings.NewReader(f.outputs[key])}
	if f.exitFail[key] {
		out.err = &ExitError{Path: name, Args: args, Stderr: "Could not find disk: " + args[len(args)-1], Err: errors.New("exit status 1")}
	}

	f.mu.Lock()
	f.opened = append(f.opened, out)
	f.mu.Unlock()
	return out, nil
}

func (f *fakeRunner) allClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, out := range f.opened {
		if !out.closed {
			return false
		}
	}
	return true
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(data)
}

func fixtureRunner(t *testing.T) *fakeRunner {
	return &fakeRunner{outputs: map[string]string{
		"list":         readFixture(t, "diskutil_list.txt"),
		"info disk0s2": readFixture(t, "diskutil_info_disk0s2.txt"),
		"info disk3s1": readFixture(t, "diskutil_info_disk3s1.txt"),
		"info disk4s1": readFixture(t, "diskutil_info_disk4s1.txt"),
		"info disk4s2": readFixture(t, "diskutil_info_disk4s2.txt"),
	}}
}

func fixtureFs(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/"+systemVersionPath, []byte(readFixture(t, "SystemVersion.plist")), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/System/Volumes/Preboot/8F1E4C3A-6A0B-4F0B-9E2C-6C1D0B2E7A11/"+bootLabelPath, []byte("Macintosh HD"), 0o644))
	require.NoError(t, fs.MkdirAll("/Volumes/Time Machine", 0o755))
	require.NoError(t, fs.MkdirAll("/Volumes/SHARED", 0o755))
	return fs
}

func newTestInventory(runner Runner, fs afero.Fs) *Inventory {
	inv := NewInventory(runner, NewProber(fs), zerolog.Nop())
	inv.FreeSpace = func(string) (uint64, error) { return 4096, nil }
	return inv
}

func devices(vols []*Volume) []string {
	var out []string
	for _, v := range vols {
		out = append(out, v.DeviceNode())
	}
	return out
}

var fixtureDevices = []string{
	"disk0s2", "disk3s1", "disk3s2", "disk3s3", "disk3s5", "disk3s6", "disk4s1", "disk4s2", "disk4s3",
}

func TestCollectFixture(t *testing.T) {
	runner := fixtureRunner(t)
	inv := newTestInventory(runner, fixtureFs(t))

	vols, err := inv.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixtureDevices, devices(vols))
	assert.True(t, runner.allClosed())

	container := vols[0]
	assert.Equal(t, "Container disk3", container.VolumeName)
	assert.Equal(t, FormatAPFSContainer, container.FileSystemFormat)
	assert.False(t, container.Mounted)

	system := vols[1]
	assert.True(t, system.Mounted)
	assert.Equal(t, "/", system.MountPoint)
	assert.Equal(t, "MacOSX 14.2.1", system.OperatingSystem())
	assert.Equal(t, "Macintosh HD", system.BootLabel)
	assert.Equal(t, uint64(4096), system.FreeSpace)

	efi := vols[6]
	assert.Equal(t, FormatEFI, efi.FileSystemFormat)
	assert.Equal(t, "0E239BC6-F960-3107-89CF-1C97F78BB46B", efi.IdentifierString())
	assert.Empty(t, efi.BootLabel)

	timeMachine := vols[7]
	assert.Equal(t, FormatHFSPlusJournaled, timeMachine.FileSystemFormat)
	assert.Equal(t, "/Volumes/Time Machine", timeMachine.MountPoint)
	assert.Equal(t, "", timeMachine.OperatingSystem())

	shared := vols[8]
	assert.Equal(t, "/Volumes/SHARED", shared.MountPoint)
	assert.False(t, shared.Mounted)
	assert.Zero(t, shared.FreeSpace)
}

func TestCollectEFIAndAPFS(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"list": "   1:                        EFI EFI                     209.7 MB   disk0s1\n" +
			"   2:                APFS Volume Macintosh HD            15.3 GB    disk1s1\n",
		"info disk0s1": "   Volume Name:   EFI\n   File System Personality:   MS-DOS FAT32\n",
		"info disk1s1": "   Volume Name:   Macintosh HD\n   File System Personality:   APFS\n   Mounted:   Yes\n",
	}}
	inv := newTestInventory(runner, afero.NewMemMapFs())

	vols, err := inv.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, vols, 2)
	assert.Equal(t, []string{"disk0s1", "disk1s1"}, devices(vols))
	assert.Equal(t, FormatEFI, vols[0].FileSystemFormat)
	assert.Equal(t, FormatAPFS, vols[1].FileSystemFormat)
	assert.True(t, vols[1].Mounted)
}

func TestCollectParallelKeepsListingOrder(t *testing.T) {
	inv := newTestInventory(fixtureRunner(t), fixtureFs(t))
	inv.Jobs = 4

	var mu sync.Mutex
	var calls int
	inv.Progress = func(done, total int, _ string) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		assert.Equal(t, len(fixtureDevices), total)
		assert.LessOrEqual(t, done, total)
	}

	vols, err := inv.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixtureDevices, devices(vols))
	assert.Equal(t, len(fixtureDevices), calls)
	assert.Equal(t, "MacOSX 14.2.1", vols[1].OperatingSystem())
}

func TestCollectKeepsVolumeWhenInfoFails(t *testing.T) {
	runner := fixtureRunner(t)
	delete(runner.outputs, "info disk4s2")
	runner.exitFail = map[string]bool{"info disk4s2": true}
	inv := newTestInventory(runner, fixtureFs(t))

	vols, err := inv.Collect(context.Background())
	require.Error(t, err)
	assert.Equal(t, fixtureDevices, devices(vols))

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 1)
	var exitErr *ExitError
	assert.True(t, errors.As(merr.Errors[0], &exitErr))

	// The listing data survives and the /Volumes probe still ran.
	tm := vols[7]
	assert.Equal(t, "Time Machine", tm.VolumeName)
	assert.Equal(t, FormatHFS, tm.FileSystemFormat)
	assert.Equal(t, "/Volumes/Time Machine", tm.MountPoint)
	assert.False(t, tm.Mounted)

	assert.Equal(t, "MacOSX 14.2.1", vols[1].OperatingSystem())
}

func TestCollectMalformedIdentifierStopsThatVolume(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/Volumes/Broken", 0o755))
	require.NoError(t, fs.MkdirAll("/Volumes/Fine", 0o755))

	runner := &fakeRunner{outputs: map[string]string{
		"list": "1: Apple_HFS Broken 1.0 GB disk2s1\n2: Apple_HFS Fine 2.0 GB disk2s2\n",
		"info disk2s1": "   Volume Name:   Broken\n   Disk / Partition UUID:   zzzz\n",
		"info disk2s2": "   Volume Name:   Fine\n",
	}}
	inv := newTestInventory(runner, fs)

	vols, err := inv.Collect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedIdentifier))
	require.Len(t, vols, 2)
	assert.True(t, runner.allClosed())

	assert.Empty(t, vols[0].MountPoint, "later steps are skipped for the broken volume")
	assert.Equal(t, "/Volumes/Fine", vols[1].MountPoint)
}

func TestCollectStartErrorIsFatal(t *testing.T) {
	runner := fixtureRunner(t)
	runner.startFail = map[string]bool{"info disk3s1": true}
	inv := newTestInventory(runner, fixtureFs(t))

	vols, err := inv.Collect(context.Background())
	assert.Nil(t, vols)
	var startErr *StartError
	assert.True(t, errors.As(err, &startErr))
}

func TestCollectListFailures(t *testing.T) {
	inv := newTestInventory(&fakeRunner{startFail: map[string]bool{"list": true}}, afero.NewMemMapFs())
	vols, err := inv.Collect(context.Background())
	assert.Nil(t, vols)
	var startErr *StartError
	assert.True(t, errors.As(err, &startErr))

	inv = newTestInventory(&fakeRunner{exitFail: map[string]bool{"list": true}}, afero.NewMemMapFs())
	vols, err = inv.Collect(context.Background())
	assert.Nil(t, vols)
	var exitErr *ExitError
	assert.True(t, errors.As(err, &exitErr))
}

func TestCollectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := newTestInventory(fixtureRunner(t), fixtureFs(t))
	vols, err := inv.Collect(ctx)
	assert.Nil(t, vols)
	assert.True(t, errors.Is(err, context.Canceled))
}

type recordingRenderer struct {
	got []*Volume
}

func (r *recordingRenderer) Render(w io.Writer, vols []*Volume) error {
	r.got = vols
	_, err := io.WriteString(w, "rendered")
	return err
}

func TestReportHandsVolumesToRenderer(t *testing.T) {
	runner := fixtureRunner(t)
	runner.exitFail = map[string]bool{"info disk4s1": true}
	inv := newTestInventory(runner, fixtureFs(t))

	var sb strings.Builder
	r := &recordingRenderer{}
	err := inv.Report(context.Background(), &sb, r)

	require.Error(t, err, "per-volume failures are still returned")
	assert.Equal(t, "rendered", sb.String())
	assert.Equal(t, fixtureDevices, devices(r.got))
}

func TestReportSkipsRendererOnFatalError(t *testing.T) {
	inv := newTestInventory(&fakeRunner{startFail: map[string]bool{"list": true}}, afero.NewMemMapFs())

	r := &recordingRenderer{}
	err := inv.Report(context.Background(), io.Discard, r)
	require.Error(t, err)
	assert.Nil(t, r.got)
}

package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netcore/internal/domain"
	"netcore/internal/repository"
	"netcore/internal/scan"
)

func TestImportCreatesClassifiedDevices(t *testing.T) {
	im, store := newTestImporter(t)
	ctx := context.Background()

	result, err := im.Import(ctx, []byte(discoveryXML), []byte(portScanXML))
	require.NoError(t, err)
	assert.Equal(t, 4, result.DevicesCreated)
	assert.Equal(t, 0, result.DevicesSkipped)
	// One router linked to the three other devices
	assert.Equal(t, 3, result.LinksCreated)

	devices := devicesByIP(t, store)
	require.Len(t, devices, 4)

	assert.Equal(t, domain.CategoryRouter, devices["192.168.1.1"].Category)
	assert.Equal(t, "gw.lan", devices["192.168.1.1"].Hostname)
	assert.Equal(t, "AA:BB:CC:00:00:01", devices["192.168.1.1"].MACAddress)
	assert.Equal(t, domain.CategoryNAS, devices["192.168.1.10"].Category)
	// No vendor, ssh open
	assert.Equal(t, domain.CategoryServer, devices["192.168.1.20"].Category)
	assert.Equal(t, "pi.hole", devices["192.168.1.20"].Hostname)
	// HP with jetdirect open
	assert.Equal(t, domain.CategoryPrinter, devices["192.168.1.30"].Category)

	for _, d := range devices {
		assert.Equal(t, domain.StatusUnknown, d.Status)
	}
	_, down := devices["192.168.1.99"]
	assert.False(t, down, "hosts that are down are not imported")
}

func TestImportIsIdempotent(t *testing.T) {
	im, store := newTestImporter(t)
	ctx := context.Background()

	_, err := im.Import(ctx, []byte(discoveryXML), []byte(portScanXML))
	require.NoError(t, err)
	before := devicesByIP(t, store)

	result, err := im.Import(ctx, []byte(discoveryXML), []byte(portScanXML))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{DevicesCreated: 0, DevicesSkipped: 4, LinksCreated: 0}, result)

	after := devicesByIP(t, store)
	assert.Equal(t, before, after)
}

func TestImportNeverOverwritesExisting(t *testing.T) {
	im, store := newTestImporter(t)
	ctx := context.Background()

	existing := seedDevice(t, store, "192.168.1.10", domain.CategoryMedia)
	_, err := store.UpdateDevice(ctx, existing.ID, domain.DevicePatch{Label: ptr("kept")})
	require.NoError(t, err)

	result, err := im.Import(ctx, []byte(discoveryXML), []byte(portScanXML))
	require.NoError(t, err)
	assert.Equal(t, 3, result.DevicesCreated)
	assert.Equal(t, 1, result.DevicesSkipped)

	got := devicesByIP(t, store)["192.168.1.10"]
	assert.Equal(t, existing.ID, got.ID)
	assert.Equal(t, domain.CategoryMedia, got.Category)
	assert.Equal(t, "kept", got.Label)
}

func TestImportMissingPortDataIsEmptySet(t *testing.T) {
	im, store := newTestImporter(t)

	emptyScan := `<nmaprun scanner="nmap"></nmaprun>`
	result, err := im.Import(context.Background(), []byte(discoveryXML), []byte(emptyScan))
	require.NoError(t, err)
	assert.Equal(t, 4, result.DevicesCreated)

	devices := devicesByIP(t, store)
	assert.Equal(t, domain.CategoryUnknown, devices["192.168.1.20"].Category)
	assert.Equal(t, domain.CategoryServer, devices["192.168.1.30"].Category)
}

func TestImportDuplicateAddressInOneDocument(t *testing.T) {
	im, store := newTestImporter(t)

	doc := `<nmaprun>
<host><status state="up"/><address addr="10.0.0.5" addrtype="ipv4"/></host>
<host><status state="up"/><address addr="10.0.0.5" addrtype="ipv4"/></host>
</nmaprun>`
	result, err := im.Import(context.Background(), []byte(doc), []byte(`<nmaprun></nmaprun>`))
	require.NoError(t, err)
	assert.Equal(t, 1, result.DevicesCreated)
	assert.Equal(t, 1, result.DevicesSkipped)
	assert.Len(t, devicesByIP(t, store), 1)
}

func TestImportParseFailureWritesNothing(t *testing.T) {
	im, store := newTestImporter(t)
	ctx := context.Background()

	_, err := im.Import(ctx, []byte(discoveryXML), []byte("<nmaprun><host>"))
	assert.ErrorIs(t, err, scan.ErrParse)

	_, err = im.Import(ctx, []byte("not xml at all <"), []byte(portScanXML))
	assert.ErrorIs(t, err, scan.ErrParse)

	assert.Empty(t, devicesByIP(t, store))
}

func TestImportInvalidAddressWritesNothing(t *testing.T) {
	im, store := newTestImporter(t)
	discovery := `<nmaprun>
<host><status state="up"/><address addr="192.168.1.1" addrtype="ipv4"/>
<address addr="AA:BB:CC:00:00:01" addrtype="mac" vendor="Routerboard.com"/></host>
<host><status state="up"/><address addr="192.168.1.300" addrtype="ipv4"/></host>
</nmaprun>`

	result, err := im.Import(context.Background(), []byte(discovery), []byte(portScanXML))
	assert.ErrorIs(t, err, scan.ErrParse)
	assert.Equal(t, ImportResult{}, result)
	assert.Empty(t, devicesByIP(t, store))
}

func TestImportDir(t *testing.T) {
	im, store := newTestImporter(t)
	ctx := context.Background()
	dir := t.TempDir()

	_, err := im.ImportDir(ctx, dir)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultDiscoveryFile), []byte(discoveryXML), 0o644))
	_, err = im.ImportDir(ctx, dir)
	assert.ErrorIs(t, err, domain.ErrNotFound, "port scan still missing")
	assert.Empty(t, devicesByIP(t, store))

	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPortScanFile), []byte(portScanXML), 0o644))
	result, err := im.ImportDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 4, result.DevicesCreated)
}

// racingStore reports every address as unknown and every insert as a duplicate
type racingStore struct {
	repository.DeviceStore
}

func (racingStore) ListAddresses(context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (racingStore) CreateDevice(context.Context, *domain.Device) error {
	return domain.ErrDuplicateAddress
}

func (racingStore) ListDevices(context.Context) ([]domain.Device, error) {
	return nil, nil
}

func TestImportDuplicateFromStoreCountsAsSkipped(t *testing.T) {
	store := newTestStore(t)
	devices := racingStore{}
	im := NewImporter(devices, NewLinker(devices, store, zerolog.Nop()), zerolog.Nop())

	result, err := im.Import(context.Background(), []byte(discoveryXML), []byte(portScanXML))
	require.NoError(t, err)
	assert.Equal(t, 0, result.DevicesCreated)
	assert.Equal(t, 4, result.DevicesSkipped)
}

// failingLinkStore fails every link insert
type failingLinkStore struct {
	repository.LinkStore
}

func (failingLinkStore) ListLinkPairs(context.Context) ([]domain.Pair, error) {
	return nil, nil
}

func (failingLinkStore) CreateLink(context.Context, *domain.Link) error {
	return errors.New("disk full")
}

func TestImportLinkerFailureKeepsCounts(t *testing.T) {
	store := newTestStore(t)
	im := NewImporter(store, NewLinker(store, failingLinkStore{}, zerolog.Nop()), zerolog.Nop())

	result, err := im.Import(context.Background(), []byte(discoveryXML), []byte(portScanXML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 4, result.DevicesCreated)
	assert.Equal(t, 0, result.LinksCreated)
}

func ptr[T any](v T) *T { return &v }

package repository

import (
	"context"

	"netcore/internal/domain"
)

// DeviceStore persists devices and their liveness status
type DeviceStore interface {
	// ListAddresses returns every known device address
	ListAddresses(ctx context.Context) (map[string]struct{}, error)
	// CreateDevice inserts a new device. Returns domain.ErrDuplicateAddress
	// when a device with the same address exists.
	CreateDevice(ctx context.Context, device *domain.Device) error
	ListDevices(ctx context.Context) ([]domain.Device, error)
	GetDevice(ctx context.Context, id string) (*domain.Device, error)
	UpdateDevice(ctx context.Context, id string, patch domain.DevicePatch) (*domain.Device, error)
	// DeleteDevice removes a device and every link touching it
	DeleteDevice(ctx context.Context, id string) error

	// Liveness
	ListProbeTargets(ctx context.Context) ([]domain.ProbeTarget, error)
	// UpdateStatuses writes a whole monitor round as one batch
	UpdateStatuses(ctx context.Context, updates []domain.StatusUpdate) error
}

// LinkStore persists links between devices
type LinkStore interface {
	// ListLinkPairs returns the unordered endpoint pair of every link
	ListLinkPairs(ctx context.Context) ([]domain.Pair, error)
	CreateLink(ctx context.Context, link *domain.Link) error
	ListLinks(ctx context.Context) ([]domain.Link, error)
	GetLink(ctx context.Context, id string) (*domain.Link, error)
	UpdateLink(ctx context.Context, id string, patch domain.LinkPatch) (*domain.Link, error)
	DeleteLink(ctx context.Context, id string) error
}

// Store is the full persistence surface used by the CLI and API
type Store interface {
	DeviceStore
	LinkStore

	// Ping checks that the backing database is reachable
	Ping(ctx context.Context) error
	// Close releases resources
	Close() error
}

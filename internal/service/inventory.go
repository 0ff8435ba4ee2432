package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"netcore/internal/codec"
	"netcore/internal/domain"
	"netcore/internal/repository"
)

// InventoryService is the device and link CRUD surface used by the HTTP API
type InventoryService struct {
	store repository.Store
}

// NewInventoryService creates a new inventory service
func NewInventoryService(store repository.Store) *InventoryService {
	return &InventoryService{store: store}
}

// Ready reports whether the store is reachable
func (s *InventoryService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ListDevices returns all devices
func (s *InventoryService) ListDevices(ctx context.Context) ([]domain.Device, error) {
	return s.store.ListDevices(ctx)
}

// GetDevice retrieves a single device by ID
func (s *InventoryService) GetDevice(ctx context.Context, id string) (*domain.Device, error) {
	return s.store.GetDevice(ctx, id)
}

// CreateDevice stores a manually entered device. Server-managed fields are
// reset so clients cannot forge them.
func (s *InventoryService) CreateDevice(ctx context.Context, device *domain.Device) error {
	device.ID = ""
	device.Status = domain.StatusUnknown
	device.CreatedAt = time.Time{}
	device.UpdatedAt = time.Time{}
	device.ApplyDefaults()
	if err := s.validateDevice(device); err != nil {
		return err
	}
	return s.store.CreateDevice(ctx, device)
}

// UpdateDevice applies a partial update
func (s *InventoryService) UpdateDevice(ctx context.Context, id string, patch domain.DevicePatch) (*domain.Device, error) {
	return s.store.UpdateDevice(ctx, id, patch)
}

// DeleteDevice removes a device and its links
func (s *InventoryService) DeleteDevice(ctx context.Context, id string) error {
	return s.store.DeleteDevice(ctx, id)
}

// ListLinks returns all links
func (s *InventoryService) ListLinks(ctx context.Context) ([]domain.Link, error) {
	return s.store.ListLinks(ctx)
}

// GetLink returns a link by ID
func (s *InventoryService) GetLink(ctx context.Context, id string) (*domain.Link, error) {
	return s.store.GetLink(ctx, id)
}

// CreateLink stores a manually drawn link
func (s *InventoryService) CreateLink(ctx context.Context, link *domain.Link) error {
	link.ID = ""
	link.ApplyDefaults()
	if err := s.validateLink(link); err != nil {
		return err
	}
	return s.store.CreateLink(ctx, link)
}

// UpdateLink applies a partial update
func (s *InventoryService) UpdateLink(ctx context.Context, id string, patch domain.LinkPatch) (*domain.Link, error) {
	return s.store.UpdateLink(ctx, id, patch)
}

// DeleteLink removes a link
func (s *InventoryService) DeleteLink(ctx context.Context, id string) error {
	return s.store.DeleteLink(ctx, id)
}

// Snapshot reads the whole inventory
func (s *InventoryService) Snapshot(ctx context.Context) (*codec.Snapshot, error) {
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	links, err := s.store.ListLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	if devices == nil {
		devices = []domain.Device{}
	}
	if links == nil {
		links = []domain.Link{}
	}
	return &codec.Snapshot{Devices: devices, Links: links}, nil
}

// Export writes the inventory to w in the named format and returns the
// content type. Nothing is written to w on error.
func (s *InventoryService) Export(ctx context.Context, format string, w io.Writer) (string, error) {
	exporter, err := codec.ForFormat(format)
	if err != nil {
		return "", err
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := exporter.Export(snap, &buf); err != nil {
		return "", err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return exporter.ContentType(), nil
}

func (s *InventoryService) validateDevice(device *domain.Device) error {
	return device.Validate()
}

func (s *InventoryService) validateLink(link *domain.Link) error {
	if err := link.Validate(); err != nil {
		return err
	}
	if !link.Type.Valid() {
		return &domain.ValidationError{Field: "link_type", Reason: "unknown link type " + string(link.Type)}
	}
	return nil
}

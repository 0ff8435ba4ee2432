package domain

import (
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is the inferred kind of a device
type Category string

const (
	CategoryServer  Category = "server"
	CategoryNAS     Category = "nas"
	CategoryRouter  Category = "router"
	CategorySwitch  Category = "switch"
	CategoryMedia   Category = "media"
	CategoryConsole Category = "console"
	CategoryIoT     Category = "iot"
	CategoryPrinter Category = "printer"
	CategoryNetwork Category = "network"
	CategoryUnknown Category = "unknown"
)

// Categories lists every category in declaration order
var Categories = []Category{
	CategoryServer,
	CategoryNAS,
	CategoryRouter,
	CategorySwitch,
	CategoryMedia,
	CategoryConsole,
	CategoryIoT,
	CategoryPrinter,
	CategoryNetwork,
	CategoryUnknown,
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Status is the most recently observed reachability of a device
type Status string

const (
	StatusUnknown     Status = "unknown"     // Never probed
	StatusAlive       Status = "alive"       // Answered the last probe
	StatusUnreachable Status = "unreachable" // Last probe failed or timed out
)

// StatusFromProbe maps a probe outcome to a liveness status
func StatusFromProbe(alive bool) Status {
	if alive {
		return StatusAlive
	}
	return StatusUnreachable
}

// Device is a persisted network endpoint
type Device struct {
	ID         string    `json:"id"`
	IPAddress  string    `json:"ip_address"`
	MACAddress string    `json:"mac_address,omitempty"`
	Hostname   string    `json:"hostname,omitempty"`
	Vendor     string    `json:"vendor,omitempty"`
	Label      string    `json:"label,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	Category   Category  `json:"device_type"`
	Status     Status    `json:"status"`
	Position   *Position `json:"position,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewDevice creates a device with a fresh ID and default category/status
func NewDevice(ip string) *Device {
	now := time.Now().UTC()
	return &Device{
		ID:        uuid.NewString(),
		IPAddress: ip,
		Category:  CategoryUnknown,
		Status:    StatusUnknown,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DeviceFromObservation builds a new device record from a scan observation
func DeviceFromObservation(obs HostObservation, category Category) *Device {
	d := NewDevice(obs.IPAddress)
	d.MACAddress = obs.MACAddress
	d.Hostname = obs.Hostname
	d.Vendor = obs.Vendor
	if category != "" {
		d.Category = category
	}
	return d
}

// ApplyDefaults fills empty enum fields and timestamps
func (d *Device) ApplyDefaults() {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Category == "" {
		d.Category = CategoryUnknown
	}
	if d.Status == "" {
		d.Status = StatusUnknown
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
}

// Validate checks the fields a store requires before insert
func (d *Device) Validate() error {
	if strings.TrimSpace(d.IPAddress) == "" {
		return &ValidationError{Field: "ip_address", Reason: "is required"}
	}
	if ip := net.ParseIP(d.IPAddress); ip == nil || ip.To4() == nil {
		return &ValidationError{Field: "ip_address", Reason: "must be a dotted-quad IPv4 address"}
	}
	if d.Category != "" && !d.Category.Valid() {
		return &ValidationError{Field: "device_type", Reason: "unknown category " + string(d.Category)}
	}
	return nil
}

// DisplayName returns the label, hostname or address, whichever is set first
func (d *Device) DisplayName() string {
	switch {
	case d.Label != "":
		return d.Label
	case d.Hostname != "":
		return d.Hostname
	default:
		return d.IPAddress
	}
}

// DevicePatch holds the user-editable device fields; nil means unchanged
type DevicePatch struct {
	Label    *string   `json:"label,omitempty"`
	Hostname *string   `json:"hostname,omitempty"`
	Category *Category `json:"device_type,omitempty"`
	ImageURL *string   `json:"image_url,omitempty"`
	X        *float64  `json:"x_pos,omitempty"`
	Y        *float64  `json:"y_pos,omitempty"`
}

// Apply copies the set fields onto d
func (p DevicePatch) Apply(d *Device) error {
	if p.Category != nil && !p.Category.Valid() {
		return &ValidationError{Field: "device_type", Reason: "unknown category " + string(*p.Category)}
	}
	if (p.X == nil) != (p.Y == nil) {
		return &ValidationError{Field: "position", Reason: "x_pos and y_pos must be set together"}
	}
	if p.Label != nil {
		d.Label = *p.Label
	}
	if p.Hostname != nil {
		d.Hostname = *p.Hostname
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.ImageURL != nil {
		d.ImageURL = *p.ImageURL
	}
	if p.X != nil {
		d.Position = &Position{X: *p.X, Y: *p.Y}
	}
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// ProbeTarget is the (id, address) pair the liveness monitor works on
type ProbeTarget struct {
	DeviceID  string
	IPAddress string
}

// StatusUpdate is one liveness write-back
type StatusUpdate struct {
	DeviceID string
	Status   Status
}

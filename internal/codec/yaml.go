package codec

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

func (c *YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

type yamlSnapshot struct {
	Devices []yamlDevice `yaml:"devices"`
	Links   []yamlLink   `yaml:"links"`
}

type yamlDevice struct {
	ID         string        `yaml:"id"`
	IPAddress  string        `yaml:"ip_address"`
	MACAddress string        `yaml:"mac_address,omitempty"`
	Hostname   string        `yaml:"hostname,omitempty"`
	Vendor     string        `yaml:"vendor,omitempty"`
	Label      string        `yaml:"label,omitempty"`
	ImageURL   string        `yaml:"image_url,omitempty"`
	Type       string        `yaml:"device_type"`
	Status     string        `yaml:"status"`
	Position   *yamlPosition `yaml:"position,omitempty"`
	UpdatedAt  time.Time     `yaml:"updated_at"`
}

type yamlPosition struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type yamlLink struct {
	ID       string `yaml:"id"`
	SourceID string `yaml:"source_id"`
	TargetID string `yaml:"target_id"`
	Type     string `yaml:"link_type"`
}

// Export writes the snapshot as YAML
func (c *YAMLCodec) Export(snap *Snapshot, w io.Writer) error {
	ys := yamlSnapshot{
		Devices: make([]yamlDevice, 0, len(snap.Devices)),
		Links:   make([]yamlLink, 0, len(snap.Links)),
	}

	for _, d := range snap.Devices {
		yd := yamlDevice{
			ID:         d.ID,
			IPAddress:  d.IPAddress,
			MACAddress: d.MACAddress,
			Hostname:   d.Hostname,
			Vendor:     d.Vendor,
			Label:      d.Label,
			ImageURL:   d.ImageURL,
			Type:       string(d.Category),
			Status:     string(d.Status),
			UpdatedAt:  d.UpdatedAt,
		}
		if d.Position != nil {
			yd.Position = &yamlPosition{X: d.Position.X, Y: d.Position.Y}
		}
		ys.Devices = append(ys.Devices, yd)
	}

	for _, l := range snap.Links {
		ys.Links = append(ys.Links, yamlLink{
			ID:       l.ID,
			SourceID: l.SourceID,
			TargetID: l.TargetID,
			Type:     string(l.Type),
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&ys); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}

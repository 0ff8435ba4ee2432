package codec

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"netcore/internal/domain"
)

// AnsibleCodec exports devices as an Ansible YAML inventory grouped by
// device type
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return "ansible-inventory"
}

func (c *AnsibleCodec) ContentType() string {
	return "application/x-yaml"
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string `yaml:"ansible_host"`
	MACAddress  string `yaml:"mac_address,omitempty"`
	Vendor      string `yaml:"vendor,omitempty"`
	DeviceType  string `yaml:"device_type"`
	Status      string `yaml:"status"`
}

// Export writes the devices as an Ansible inventory. Links are not
// represented. Hosts are keyed by display name; a name already taken falls
// back to the IP address.
func (c *AnsibleCodec) Export(snap *Snapshot, w io.Writer) error {
	inv := ansibleInventory{
		All: ansibleGroup{
			Children: make(map[string]ansibleGroupDef),
		},
	}

	seen := make(map[string]bool, len(snap.Devices))
	for _, d := range snap.Devices {
		group := groupName(d.Category)
		if _, ok := inv.All.Children[group]; !ok {
			inv.All.Children[group] = ansibleGroupDef{Hosts: make(map[string]ansibleHost)}
		}

		name := hostName(d.DisplayName())
		if name == "" || seen[name] {
			name = d.IPAddress
		}
		seen[name] = true

		inv.All.Children[group].Hosts[name] = ansibleHost{
			AnsibleHost: d.IPAddress,
			MACAddress:  d.MACAddress,
			Vendor:      d.Vendor,
			DeviceType:  string(d.Category),
			Status:      string(d.Status),
		}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}

	return nil
}

func groupName(c domain.Category) string {
	if c == "" {
		return string(domain.CategoryUnknown)
	}
	return string(c)
}

// hostName turns a display name into an inventory-safe host key
func hostName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, s)
}

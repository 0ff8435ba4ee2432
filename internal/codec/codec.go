// Package codec exports inventory snapshots in JSON, YAML and Ansible
// inventory form.
package codec

import (
	"fmt"
	"io"
	"sort"

	"netcore/internal/domain"
)

// Snapshot is the full device and link inventory at one point in time
type Snapshot struct {
	Devices []domain.Device `json:"devices"`
	Links   []domain.Link   `json:"links"`
}

// Exporter writes a snapshot in one format
type Exporter interface {
	Export(snap *Snapshot, w io.Writer) error
	Format() string
	ContentType() string
}

var exporters = map[string]Exporter{}

func register(e Exporter) {
	exporters[e.Format()] = e
}

func init() {
	register(NewJSONCodec())
	register(NewYAMLCodec())
	register(NewAnsibleCodec())
}

// ForFormat returns the exporter for a format name
func ForFormat(format string) (Exporter, error) {
	e, ok := exporters[format]
	if !ok {
		return nil, &domain.ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported export format %q", format)}
	}
	return e, nil
}

// Formats lists the supported format names
func Formats() []string {
	out := make([]string, 0, len(exporters))
	for name := range exporters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

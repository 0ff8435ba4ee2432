package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"netcore/internal/classify"
	"netcore/internal/domain"
	"netcore/internal/repository"
	"netcore/internal/scan"
)

// Scan document names expected in the scan directory
const (
	DefaultDiscoveryFile = "nmap-host-discovery.xml"
	DefaultPortScanFile  = "nmap-top200.xml"
)

// ImportResult summarizes one import pass
type ImportResult struct {
	DevicesCreated int `json:"devices_created"`
	DevicesSkipped int `json:"devices_skipped"`
	LinksCreated   int `json:"links_created"`
}

// Importer turns scan documents into device records and then runs the
// topology linker. Imports are serialized per Importer.
type Importer struct {
	mu      sync.Mutex
	devices repository.DeviceStore
	linker  *Linker
	log     zerolog.Logger
}

// NewImporter creates an importer writing to devices and linking with linker
func NewImporter(devices repository.DeviceStore, linker *Linker, log zerolog.Logger) *Importer {
	return &Importer{
		devices: devices,
		linker:  linker,
		log:     log.With().Str("component", "importer").Logger(),
	}
}

// ImportDir imports the two default scan documents from dir
func (im *Importer) ImportDir(ctx context.Context, dir string) (ImportResult, error) {
	return im.ImportFiles(ctx,
		filepath.Join(dir, DefaultDiscoveryFile),
		filepath.Join(dir, DefaultPortScanFile))
}

// ImportFiles imports a discovery document and a port scan document from disk.
// A missing file fails with domain.ErrNotFound before anything is written.
func (im *Importer) ImportFiles(ctx context.Context, discoveryPath, portScanPath string) (ImportResult, error) {
	hosts, err := scan.ParseDiscoveryFile(discoveryPath)
	if err != nil {
		return ImportResult{}, fmt.Errorf("discovery document: %w", err)
	}
	ports, err := scan.ParsePortScanFile(portScanPath)
	if err != nil {
		return ImportResult{}, fmt.Errorf("port scan document: %w", err)
	}
	return im.importObservations(ctx, hosts, ports)
}

// Import parses both documents and creates a device for every discovered
// address not already in the store. Existing devices are never modified, so
// rerunning with the same documents creates nothing.
func (im *Importer) Import(ctx context.Context, discovery, portScan []byte) (ImportResult, error) {
	hosts, err := scan.ParseDiscovery(discovery)
	if err != nil {
		return ImportResult{}, fmt.Errorf("discovery document: %w", err)
	}
	ports, err := scan.ParsePortScan(portScan)
	if err != nil {
		return ImportResult{}, fmt.Errorf("port scan document: %w", err)
	}
	return im.importObservations(ctx, hosts, ports)
}

func (im *Importer) importObservations(ctx context.Context, hosts []domain.HostObservation, ports []scan.PortScanResult) (ImportResult, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	var result ImportResult
	portsByAddr := scan.PortMap(ports)

	known, err := im.devices.ListAddresses(ctx)
	if err != nil {
		return result, fmt.Errorf("list known addresses: %w", err)
	}

	for _, host := range hosts {
		if _, ok := known[host.IPAddress]; ok {
			result.DevicesSkipped++
			continue
		}

		// Missing port data is an empty set
		open := portsByAddr[host.IPAddress]
		category, rule := classify.Explain(host.Vendor, open)

		device := domain.DeviceFromObservation(host, category)
		if err := im.devices.CreateDevice(ctx, device); err != nil {
			if errors.Is(err, domain.ErrDuplicateAddress) {
				// Created by another process since ListAddresses
				known[host.IPAddress] = struct{}{}
				result.DevicesSkipped++
				continue
			}
			return result, fmt.Errorf("create device %s: %w", host.IPAddress, err)
		}

		known[host.IPAddress] = struct{}{}
		result.DevicesCreated++
		im.log.Debug().
			Str("ip", host.IPAddress).
			Str("vendor", host.Vendor).
			Ints("open_ports", open.Sorted()).
			Str("category", string(category)).
			Str("rule", rule).
			Msg("device created")
	}

	links, err := im.linker.LinkRouters(ctx)
	result.LinksCreated = links
	if err != nil {
		return result, fmt.Errorf("link routers: %w", err)
	}

	im.log.Info().
		Int("observed", len(hosts)).
		Int("created", result.DevicesCreated).
		Int("skipped", result.DevicesSkipped).
		Int("links", result.LinksCreated).
		Msg("import complete")

	return result, nil
}

package scan

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"

	nmap "github.com/Ullaakut/nmap/v3"
	"netcore/internal/domain"
)

const (
	addrTypeIPv4  = "ipv4"
	addrTypeMAC   = "mac"
	hostStateUp   = "up"
	portStateOpen = "open"
)

// PortScanResult is the set of open ports reported for one address
type PortScanResult struct {
	IPAddress string
	OpenPorts domain.PortSet
}

// ParseDiscoveryFile reads and parses a host-discovery document
func ParseDiscoveryFile(path string) ([]domain.HostObservation, error) {
	data, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	hosts, err := ParseDiscovery(data)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Document = path
		}
		return nil, err
	}
	return hosts, nil
}

// ParseDiscovery returns one observation per host that is up and has an
// IPv4 address. Hosts without IPv4 are dropped silently; an ipv4 record that
// is not a dotted quad is a ParseError.
func ParseDiscovery(data []byte) ([]domain.HostObservation, error) {
	run, err := decodeRun(data)
	if err != nil {
		return nil, err
	}

	var hosts []domain.HostObservation
	for i, host := range run.Hosts {
		if host.Status.State != hostStateUp {
			continue
		}

		var obs domain.HostObservation
		for _, addr := range host.Addresses {
			switch addr.AddrType {
			case addrTypeIPv4:
				obs.IPAddress = addr.Addr
			case addrTypeMAC:
				// Last hardware record wins, vendor included (empty for unknown OUIs)
				obs.MACAddress = addr.Addr
				obs.Vendor = addr.Vendor
			}
		}

		if len(host.Hostnames) > 0 {
			obs.Hostname = host.Hostnames[0].Name
		}

		if obs.IPAddress == "" {
			continue
		}
		// A bad address fails the whole document so an import never stops halfway
		if ip := net.ParseIP(obs.IPAddress); ip == nil || ip.To4() == nil {
			return nil, &ParseError{Err: fmt.Errorf("host %d: invalid ipv4 address %q", i, obs.IPAddress)}
		}
		hosts = append(hosts, obs)
	}

	return hosts, nil
}

// ParsePortScanFile reads and parses a port-scan document
func ParsePortScanFile(path string) ([]PortScanResult, error) {
	data, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	results, err := ParsePortScan(data)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Document = path
		}
		return nil, err
	}
	return results, nil
}

// ParsePortScan returns the open ports of every scanned host with an IPv4
// address. <hosthint> entries carry no port data and are not decoded.
func ParsePortScan(data []byte) ([]PortScanResult, error) {
	run, err := decodeRun(data)
	if err != nil {
		return nil, err
	}

	var results []PortScanResult
	for _, host := range run.Hosts {
		ip := firstIPv4(host.Addresses)
		if ip == "" {
			continue
		}

		results = append(results, PortScanResult{
			IPAddress: ip,
			OpenPorts: openPorts(host.Ports),
		})
	}

	return results, nil
}

// PortMap indexes port-scan results by address. If an address appears more
// than once the last entry wins.
func PortMap(results []PortScanResult) map[string]domain.PortSet {
	m := make(map[string]domain.PortSet, len(results))
	for _, r := range results {
		m[r.IPAddress] = r.OpenPorts
	}
	return m
}

// decodeRun unmarshals an <nmaprun> document
func decodeRun(data []byte) (*nmap.Run, error) {
	var run nmap.Run
	if err := xml.Unmarshal(data, &run); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &run, nil
}

// readDocument loads a scan document from disk
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("scan document %s: %w", path, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read scan document %s: %w", path, err)
	}
	return data, nil
}

// firstIPv4 returns the first ipv4 address record, or ""
func firstIPv4(addrs []nmap.Address) string {
	for _, addr := range addrs {
		if addr.AddrType == addrTypeIPv4 {
			return addr.Addr
		}
	}
	return ""
}

// openPorts extracts port numbers whose state is exactly "open"
func openPorts(ports []nmap.Port) domain.PortSet {
	set := make(domain.PortSet)
	for _, port := range ports {
		if port.State.State == portStateOpen {
			set.Add(int(port.ID))
		}
	}
	return set
}

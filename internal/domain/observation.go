package domain

import "sort"

// HostObservation is one scanned endpoint before it becomes a Device
type HostObservation struct {
	IPAddress  string  `json:"ip_address"`
	MACAddress string  `json:"mac_address,omitempty"`
	Vendor     string  `json:"vendor,omitempty"`
	Hostname   string  `json:"hostname,omitempty"`
	OpenPorts  PortSet `json:"open_ports,omitempty"`
}

// PortSet is a set of TCP/UDP port numbers. A nil PortSet is empty.
type PortSet map[int]struct{}

// NewPortSet builds a set from port numbers
func NewPortSet(ports ...int) PortSet {
	s := make(PortSet, len(ports))
	for _, p := range ports {
		s[p] = struct{}{}
	}
	return s
}

// Add inserts a port
func (s PortSet) Add(port int) {
	s[port] = struct{}{}
}

// Has reports whether port is in the set
func (s PortSet) Has(port int) bool {
	_, ok := s[port]
	return ok
}

// HasAny reports whether any of ports is in the set
func (s PortSet) HasAny(ports ...int) bool {
	for _, p := range ports {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// Sorted returns the ports in ascending order
func (s PortSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

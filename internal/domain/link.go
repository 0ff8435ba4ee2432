package domain

import (
	"time"

	"github.com/google/uuid"
)

// LinkType represents the kind of connection between two devices
type LinkType string

const (
	LinkTypeEthernet LinkType = "ethernet"
	LinkTypeWiFi     LinkType = "wifi"
	LinkTypeVLAN     LinkType = "vlan"
	LinkTypeVirtual  LinkType = "virtual"
)

// Link connects a source device to a target device
type Link struct {
	ID        string    `json:"id"`
	SourceID  string    `json:"source_id"`
	TargetID  string    `json:"target_id"`
	Type      LinkType  `json:"link_type"`
	CreatedAt time.Time `json:"created_at"`
}

// NewLink creates a link with a fresh ID
func NewLink(sourceID, targetID string, linkType LinkType) *Link {
	if linkType == "" {
		linkType = LinkTypeEthernet
	}
	return &Link{
		ID:        uuid.NewString(),
		SourceID:  sourceID,
		TargetID:  targetID,
		Type:      linkType,
		CreatedAt: time.Now().UTC(),
	}
}

// ApplyDefaults fills the ID, type and creation time when unset
func (l *Link) ApplyDefaults() {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Type == "" {
		l.Type = LinkTypeEthernet
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
}

// Validate checks the endpoint fields
func (l *Link) Validate() error {
	if l.SourceID == "" {
		return &ValidationError{Field: "source_id", Reason: "is required"}
	}
	if l.TargetID == "" {
		return &ValidationError{Field: "target_id", Reason: "is required"}
	}
	if l.SourceID == l.TargetID {
		return &ValidationError{Field: "target_id", Reason: "must differ from source_id"}
	}
	return nil
}

// Pair returns the unordered endpoint pair of the link
func (l *Link) Pair() Pair {
	return NewPair(l.SourceID, l.TargetID)
}

// LinkPatch holds the user-editable link fields
type LinkPatch struct {
	Type *LinkType `json:"link_type,omitempty"`
}

// Pair is an unordered pair of device IDs, normalized so that A <= B
type Pair struct {
	A string
	B string
}

// NewPair normalizes the endpoints so (x, y) and (y, x) compare equal
func NewPair(x, y string) Pair {
	if x > y {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

// PairSet tracks which device pairs are already connected
type PairSet map[Pair]struct{}

// NewPairSet seeds a set from existing pairs
func NewPairSet(pairs ...Pair) PairSet {
	s := make(PairSet, len(pairs))
	for _, p := range pairs {
		s.Add(p.A, p.B)
	}
	return s
}

// Add records the unordered pair (x, y)
func (s PairSet) Add(x, y string) {
	s[NewPair(x, y)] = struct{}{}
}

// Has reports whether (x, y) or (y, x) is present
func (s PairSet) Has(x, y string) bool {
	_, ok := s[NewPair(x, y)]
	return ok
}

// Valid reports whether t is a known link type
func (t LinkType) Valid() bool {
	switch t {
	case LinkTypeEthernet, LinkTypeWiFi, LinkTypeVLAN, LinkTypeVirtual:
		return true
	}
	return false
}

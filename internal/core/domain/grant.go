package domain

import "time"

type Capability string

const (
	CapRead   Capability = "read"
	CapEdit   Capability = "edit"
	CapDelete Capability = "delete"
)

// ParseCapability maps a wire string to a Capability.
func ParseCapability(s string) (Capability, error) {
	switch Capability(s) {
	case CapRead, CapEdit, CapDelete:
		return Capability(s), nil
	}
	return "", ErrInvalidCapability
}

// CapabilitySet is the set of capabilities an actor holds on a video.
// The zero value is the empty set.
type CapabilitySet map[Capability]struct{}

func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// OwnerCapabilities is the full set every video owner receives at upload.
func OwnerCapabilities() CapabilitySet {
	return NewCapabilitySet(CapRead, CapEdit, CapDelete)
}

// DelegableCapabilities is the widest set a non-owner may ever be granted.
func DelegableCapabilities() CapabilitySet {
	return NewCapabilitySet(CapRead, CapEdit)
}

func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

func (s CapabilitySet) SubsetOf(other CapabilitySet) bool {
	for c := range s {
		if !other.Has(c) {
			return false
		}
	}
	return true
}

func (s CapabilitySet) Equal(other CapabilitySet) bool {
	return len(s) == len(other) && s.SubsetOf(other)
}

func (s CapabilitySet) Clone() CapabilitySet {
	out := make(CapabilitySet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// Slice returns the capabilities in a stable order for serialization.
func (s CapabilitySet) Slice() []Capability {
	out := make([]Capability, 0, len(s))
	for _, c := range []Capability{CapRead, CapEdit, CapDelete} {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Grant binds one actor to one video's capability set. There is at most
// one Grant per (VideoID, ActorID) pair; re-granting overwrites it.
type Grant struct {
	VideoID      VideoID
	ActorID      ActorID
	Capabilities CapabilitySet
	GrantedAt    time.Time
	GrantedBy    ActorID
}

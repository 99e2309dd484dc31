// Package hostentry defines the normalized host record produced by a
// successful resolution. Backends report results in whatever shape their
// underlying call returns; an Entry flattens all of them into one
// canonical-name + aliases + addresses record that is immutable after
// construction, so cache consumers can share a single stored entry
// without copying.
package hostentry

import "net"

// Record is the raw, unnormalized result shape reported by a resolution
// backend. Fields may alias backend-owned storage; New copies them.
type Record struct {
	Name    string   // canonical name as reported
	Aliases []string // alternate names, in reported order
	Addrs   []net.IP // resolved addresses, in reported order
}

// Entry is an immutable host record. The zero value is an entry with an
// empty name and no aliases or addresses; construct real entries with New.
type Entry struct {
	name    string
	aliases []string
	addrs   []net.IP
}

// New builds an Entry from a raw backend record. The alias and address
// slices are copied so the entry does not alias backend storage. An entry
// with no addresses is legal: callers that require at least one address
// must check for themselves.
func New(rec Record) *Entry {
	e := &Entry{name: rec.Name}
	if len(rec.Aliases) > 0 {
		e.aliases = make([]string, len(rec.Aliases))
		copy(e.aliases, rec.Aliases)
	}
	if len(rec.Addrs) > 0 {
		e.addrs = make([]net.IP, len(rec.Addrs))
		copy(e.addrs, rec.Addrs)
	}
	return e
}

// Name returns the canonical name of the host.
func (e *Entry) Name() string { return e.name }

// Aliases returns the host's alternate names in the order the backend
// reported them. The returned slice is shared; callers must not modify it.
func (e *Entry) Aliases() []string { return e.aliases }

// Addresses returns the host's resolved addresses in the order the backend
// reported them. The returned slice is shared; callers must not modify it.
func (e *Entry) Addresses() []net.IP { return e.addrs }

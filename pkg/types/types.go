package types

import (
	"fmt"
	"net"
	"strings"
)

// Record is a container's resolvable name/address pairing derived at
// inspection time. A container may yield zero or more records; a record
// with an empty Address is not resolvable and must never reach the table.
type Record struct {
	ID      string // runtime-assigned container ID, opaque
	Name    string // fully-qualified domain name candidate
	Running bool   // lifecycle state at inspection time
	Address string // IPv4 address, empty when the container has none
}

// Resolvable reports whether the record carries an address worth serving.
func (r Record) Resolvable() bool {
	return r.Address != ""
}

// StaticRecord is a name:address pair seeded into the table at startup.
// Static records are ordinary table entries: they get the same domain
// suffix and canonicalization as runtime containers and can be overwritten
// by a later runtime event for the same name.
type StaticRecord struct {
	Name    string
	Address string
}

// ParseStaticRecord parses the "name:address" flag format.
// An unparseable record is a configuration error and fatal to startup.
func ParseStaticRecord(s string) (StaticRecord, error) {
	name, addr, ok := strings.Cut(s, ":")
	if !ok {
		return StaticRecord{}, fmt.Errorf("invalid static record %q: expected name:address", s)
	}
	if name == "" {
		return StaticRecord{}, fmt.Errorf("invalid static record %q: empty name", s)
	}
	ip := net.ParseIP(addr)
	if ip == nil || ip.To4() == nil {
		return StaticRecord{}, fmt.Errorf("invalid static record %q: %q is not an IPv4 address", s, addr)
	}
	return StaticRecord{Name: name, Address: addr}, nil
}

// ParseStaticRecords parses a list of "name:address" pairs, failing on the
// first invalid entry.
func ParseStaticRecords(specs []string) ([]StaticRecord, error) {
	records := make([]StaticRecord, 0, len(specs))
	for _, s := range specs {
		rec, err := ParseStaticRecord(s)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

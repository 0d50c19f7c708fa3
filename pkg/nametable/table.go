package nametable

import (
	"strings"
	"sync"

	"github.com/miekg/dns"

	"github.com/parapanda/docker-dns/pkg/events"
	"github.com/parapanda/docker-dns/pkg/log"
)

// Table is a concurrent mapping from canonical DNS name to IPv4 address.
// One writer (the event monitor) and any number of readers (in-flight DNS
// queries) share a single instance; all access goes through the methods
// below, which serialize against each other on one lock.
type Table struct {
	mu      sync.RWMutex
	entries map[string]string // canonical name -> IPv4 address
	broker  *events.Broker    // optional, may be nil
}

// New creates an empty name table. The broker is optional; when non-nil
// every applied mutation is published to it.
func New(broker *events.Broker) *Table {
	return &Table{
		entries: make(map[string]string),
		broker:  broker,
	}
}

// canonicalKey normalizes a name to its table key form: lower-cased,
// trailing dot stripped. Names that do not parse as a DNS label sequence
// fail canonicalization.
func canonicalKey(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if _, ok := dns.IsDomainName(name); !ok {
		return "", false
	}
	key := strings.TrimSuffix(strings.ToLower(name), ".")
	if key == "" {
		return "", false
	}
	return key, true
}

// Add inserts or overwrites the entry for name. A name that fails
// canonicalization makes the call a silent no-op; the event stream
// occasionally carries transient or partial data and must not error out.
func (t *Table) Add(name, address string) {
	key, ok := canonicalKey(name)
	if !ok {
		log.Logger.Debug().
			Str("component", "nametable").
			Str("name", name).
			Msg("skipping add: name does not canonicalize")
		return
	}

	t.mu.Lock()
	t.entries[key] = address
	t.mu.Unlock()

	log.Logger.Debug().
		Str("component", "nametable").
		Str("name", key).
		Str("address", address).
		Msg("record added")

	t.publish(events.EventRecordAdded, key, map[string]string{"address": address})
}

// Get returns the address stored for name, canonicalizing the query name
// first so differently-cased or dot-terminated equivalents hit the same
// entry.
func (t *Table) Get(name string) (string, bool) {
	key, ok := canonicalKey(name)
	if !ok {
		return "", false
	}

	t.mu.RLock()
	address, found := t.entries[key]
	t.mu.RUnlock()
	return address, found
}

// Rename migrates the entry stored under the literal oldName key to the
// canonical key of newName, preserving the address. No-op when either name
// is empty, the names are equal, or oldName has no entry. Readers observe
// either the old mapping or the new one, never neither and never both.
func (t *Table) Rename(oldName, newName string) {
	if oldName == "" || newName == "" || oldName == newName {
		return
	}
	newKey, ok := canonicalKey(newName)
	if !ok {
		log.Logger.Debug().
			Str("component", "nametable").
			Str("name", newName).
			Msg("skipping rename: new name does not canonicalize")
		return
	}

	t.mu.Lock()
	address, found := t.entries[oldName]
	if !found {
		t.mu.Unlock()
		return
	}
	delete(t.entries, oldName)
	t.entries[newKey] = address
	t.mu.Unlock()

	log.Logger.Debug().
		Str("component", "nametable").
		Str("old_name", oldName).
		Str("new_name", newKey).
		Msg("record renamed")

	t.publish(events.EventRecordRenamed, newKey, map[string]string{
		"address":       address,
		"previous_name": oldName,
	})
}

// Remove deletes the entry for name; no-op when absent or when the name
// fails canonicalization.
func (t *Table) Remove(name string) {
	key, ok := canonicalKey(name)
	if !ok {
		return
	}

	t.mu.Lock()
	_, found := t.entries[key]
	if found {
		delete(t.entries, key)
	}
	t.mu.Unlock()

	if !found {
		return
	}

	log.Logger.Debug().
		Str("component", "nametable").
		Str("name", key).
		Msg("record removed")

	t.publish(events.EventRecordRemoved, key, nil)
}

// Len returns the number of entries currently stored.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *Table) publish(eventType events.EventType, name string, metadata map[string]string) {
	if t.broker == nil {
		return
	}
	t.broker.Publish(&events.Event{
		Type:     eventType,
		Name:     name,
		Metadata: metadata,
	})
}

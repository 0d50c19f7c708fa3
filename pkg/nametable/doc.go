/*
Package nametable implements the in-memory name-to-address table that backs
docker-dns resolution.

The table maps canonical DNS names (lower-cased, trailing dot stripped) to
IPv4 addresses. Keys are always derived through canonicalization, never
stored raw, so lookups for "Web.docker." and "web.docker" hit the same
entry.

# Lifecycle

	Add      container start, or a static --record at bootstrap
	Add      re-add replaces the address (restart with a new IP)
	Rename   key migrated, address preserved (docker rename)
	Remove   container death

All four operations serialize on a single lock. A concurrent Get during a
Rename observes either the fully-old or the fully-new mapping, never a torn
state. Names that fail canonicalization make the mutation a silent no-op;
the runtime event stream is expected to occasionally carry partial data.

The table is rebuilt from bootstrap plus streamed events on every process
start; nothing is persisted.
*/
package nametable

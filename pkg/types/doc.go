/*
Package types defines shared domain types for docker-dns.

The central type is Record, the resolvable (name, address) pairing derived
from a container at inspection time. StaticRecord covers operator-supplied
name:address pairs seeded before any runtime event is processed.

Types here carry no behavior beyond parsing and validation so that every
other package can depend on them without cycles.
*/
package types

/*
Package dns implements the UDP DNS responder for docker-dns.

The server answers one query per datagram. Names present in the table get
authoritative answers; unknown names are resolved recursively through the
configured upstream servers, or answered empty when recursion is disabled.

# Query Handling

	Query type A, ANY      table lookup, A record on a hit
	Query type AAAA        table lookup for the aa flag, answer always empty
	                       (IPv4 only; an AAAA response never carries A data)
	Other types            non-authoritative empty, no lookup or recursion

Response flags: qr is always set, aa reflects whether the table owned the
name, ra reflects whether any upstream resolver is configured, independent
of whether recursion ran for this particular query. The transaction id and
question section of the request are always echoed.

# Upstream Resolution

Each upstream is tried once per query with a bounded timeout. Timeouts and
NXDOMAIN are benign "no answer" outcomes; any other failure is logged as an
error but still yields an empty answer rather than a failed query.
*/
package dns

package dns

import (
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/parapanda/docker-dns/pkg/log"
	"github.com/parapanda/docker-dns/pkg/metrics"
)

// Resolver performs recursive resolution against upstream DNS servers for
// names the table does not own.
type Resolver struct {
	upstreams []string
	client    *dns.Client
}

// NewResolver creates a resolver trying each upstream once per query, with
// a bounded per-attempt timeout.
func NewResolver(upstreams []string, timeout time.Duration) *Resolver {
	return &Resolver{
		upstreams: upstreams,
		client: &dns.Client{
			Net:     "udp",
			Timeout: timeout,
		},
	}
}

// Resolve resolves name to an IPv4 address via the upstream servers.
// Timeouts and NXDOMAIN are expected outcomes and yield (_, false) without
// error logging; anything else is logged but still degrades to "no answer".
// A query is never failed outright because of upstream problems.
func (r *Resolver) Resolve(name string) (string, bool) {
	query := new(dns.Msg)
	query.SetQuestion(dns.Fqdn(name), dns.TypeA)

	for _, upstream := range r.upstreams {
		start := time.Now()
		resp, _, err := r.client.Exchange(query, upstream)
		metrics.UpstreamLatency.Observe(time.Since(start).Seconds())

		if err != nil {
			if isTimeout(err) {
				log.Logger.Debug().
					Str("component", "dns.resolver").
					Str("query", name).
					Str("upstream", upstream).
					Msg("upstream resolution timed out")
			} else {
				log.Logger.Error().
					Err(err).
					Str("component", "dns.resolver").
					Str("query", name).
					Str("upstream", upstream).
					Msg("upstream resolution failed")
			}
			continue
		}

		if resp.Rcode == dns.RcodeNameError {
			log.Logger.Debug().
				Str("component", "dns.resolver").
				Str("query", name).
				Str("upstream", upstream).
				Msg("upstream resolution: no such name")
			continue
		}

		if address, ok := firstA(resp); ok {
			log.Logger.Debug().
				Str("component", "dns.resolver").
				Str("query", name).
				Str("address", address).
				Str("upstream", upstream).
				Msg("resolved upstream")
			return address, true
		}
	}
	return "", false
}

// firstA extracts the first A record from a response
func firstA(resp *dns.Msg) (string, bool) {
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.String(), true
		}
	}
	return "", false
}

func isTimeout(err error) bool {
	netErr, ok := err.(net.Error)
	return ok && netErr.Timeout()
}

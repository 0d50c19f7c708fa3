package dns

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/miekg/dns"

	"github.com/parapanda/docker-dns/pkg/log"
	"github.com/parapanda/docker-dns/pkg/metrics"
	"github.com/parapanda/docker-dns/pkg/nametable"
)

const (
	// DefaultListenAddr is the default UDP bind address
	DefaultListenAddr = ":53"

	// DefaultUpstreamTimeout bounds each upstream resolution attempt
	DefaultUpstreamTimeout = 3 * time.Second

	// answerTTL is the TTL on answers; entries churn with containers, so
	// keep it short
	answerTTL = 10
)

// Config holds DNS server configuration
type Config struct {
	ListenAddr      string        // UDP address to bind (default: ":53")
	Upstream        []string      // upstream resolvers; empty disables recursion
	UpstreamTimeout time.Duration // per-attempt upstream timeout
}

// Server answers DNS queries from the name table over UDP, deferring
// unknown names to the upstream resolver when one is configured.
type Server struct {
	table      *nametable.Table
	resolver   *Resolver // nil when recursion is disabled
	dnsServer  *dns.Server
	listenAddr string
	mu         sync.Mutex
	running    bool
}

// NewServer creates a DNS server reading from the given table.
func NewServer(table *nametable.Table, config *Config) *Server {
	if config == nil {
		config = &Config{}
	}
	listenAddr := config.ListenAddr
	if listenAddr == "" {
		listenAddr = DefaultListenAddr
	}

	s := &Server{
		table:      table,
		listenAddr: listenAddr,
	}
	if len(config.Upstream) > 0 {
		timeout := config.UpstreamTimeout
		if timeout <= 0 {
			timeout = DefaultUpstreamTimeout
		}
		s.resolver = NewResolver(config.Upstream, timeout)
	}
	return s
}

// Start starts the UDP listener. It returns once the server is accepting
// queries or the listener failed to bind.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("DNS server already running")
	}
	s.running = true
	s.mu.Unlock()

	log.Logger.Info().
		Str("component", "dns").
		Str("address", s.listenAddr).
		Bool("recursion", s.resolver != nil).
		Msg("starting DNS server")

	mux := dns.NewServeMux()
	mux.HandleFunc(".", s.handleQuery)

	started := make(chan struct{})
	errCh := make(chan error, 1)
	s.dnsServer = &dns.Server{
		Addr:              s.listenAddr,
		Net:               "udp",
		Handler:           mux,
		NotifyStartedFunc: func() { close(started) },
	}

	go func() {
		if err := s.dnsServer.ListenAndServe(); err != nil {
			log.Logger.Error().
				Err(err).
				Str("component", "dns").
				Msg("DNS server error")
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	case <-ctx.Done():
		return s.Stop()
	case <-started:
		log.Logger.Info().
			Str("component", "dns").
			Str("address", s.listenAddr).
			Msg("DNS server started")
		return nil
	}
}

// Stop shuts the listener down; no further datagrams are accepted.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	log.Logger.Info().
		Str("component", "dns").
		Msg("stopping DNS server")

	if s.dnsServer != nil {
		if err := s.dnsServer.Shutdown(); err != nil {
			return err
		}
	}
	s.running = false
	return nil
}

// IsRunning returns true if the DNS server is running
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// handleQuery answers a single query: table lookup for A/AAAA/ANY,
// upstream recursion on a miss, exactly one reply either way.
func (s *Server) handleQuery(w dns.ResponseWriter, r *dns.Msg) {
	msg := new(dns.Msg)
	msg.SetReply(r)
	// ra reflects configuration, independent of whether recursion was
	// attempted for this query.
	msg.RecursionAvailable = s.resolver != nil

	if len(r.Question) == 0 {
		s.reply(w, msg)
		return
	}

	q := r.Question[0]
	metrics.QueriesTotal.WithLabelValues(dns.TypeToString[q.Qtype]).Inc()

	log.Logger.Debug().
		Str("component", "dns").
		Str("query", q.Name).
		Str("type", dns.TypeToString[q.Qtype]).
		Msg("query received")

	switch q.Qtype {
	case dns.TypeA, dns.TypeAAAA, dns.TypeANY:
		address, found := s.table.Get(q.Name)
		if found {
			msg.Authoritative = true
			metrics.AnswersTotal.WithLabelValues("table").Inc()
		} else if s.resolver != nil {
			address, found = s.resolver.Resolve(q.Name)
			if found {
				metrics.AnswersTotal.WithLabelValues("upstream").Inc()
			}
		}

		// Never answer AAAA with an A-record payload: the response stays
		// empty, authoritative when the name is ours.
		if found && q.Qtype != dns.TypeAAAA {
			msg.Answer = append(msg.Answer, &dns.A{
				Hdr: dns.RR_Header{
					Name:   q.Name,
					Rrtype: dns.TypeA,
					Class:  dns.ClassINET,
					Ttl:    answerTTL,
				},
				A: net.ParseIP(address),
			})
		}
		if !found {
			metrics.AnswersTotal.WithLabelValues("none").Inc()
		}
	default:
		// No lookup or recursion for other types.
		metrics.AnswersTotal.WithLabelValues("none").Inc()
	}

	s.reply(w, msg)
}

func (s *Server) reply(w dns.ResponseWriter, msg *dns.Msg) {
	if err := w.WriteMsg(msg); err != nil {
		log.Logger.Error().
			Err(err).
			Str("component", "dns").
			Msg("failed to write DNS response")
	}
}

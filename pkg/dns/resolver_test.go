package dns

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolverResolvesFirstUpstream verifies the first answering upstream wins
func TestResolverResolvesFirstUpstream(t *testing.T) {
	upstream, stop := testUpstream(t, map[string]string{
		"example.org.": "93.184.216.34",
	})
	defer stop()

	r := NewResolver([]string{upstream}, time.Second)

	addr, ok := r.Resolve("example.org")
	require.True(t, ok)
	assert.Equal(t, "93.184.216.34", addr)

	// Trailing dot form resolves the same.
	addr, ok = r.Resolve("example.org.")
	require.True(t, ok)
	assert.Equal(t, "93.184.216.34", addr)
}

// TestResolverNXDomain verifies name-not-found is a benign no-answer
func TestResolverNXDomain(t *testing.T) {
	upstream, stop := testUpstream(t, map[string]string{})
	defer stop()

	r := NewResolver([]string{upstream}, time.Second)

	_, ok := r.Resolve("nope.example.org")
	assert.False(t, ok)
}

// TestResolverTimeout verifies an unresponsive upstream degrades to
// no-answer within the attempt timeout.
func TestResolverTimeout(t *testing.T) {
	// A listener that never replies.
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	r := NewResolver([]string{pc.LocalAddr().String()}, 100*time.Millisecond)

	start := time.Now()
	_, ok := r.Resolve("example.org")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second, "timeout should be bounded")
}

// TestResolverFallsThroughUpstreams verifies a dead upstream doesn't mask a
// working one.
func TestResolverFallsThroughUpstreams(t *testing.T) {
	dead, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer dead.Close()

	alive, stop := testUpstream(t, map[string]string{
		"example.org.": "93.184.216.34",
	})
	defer stop()

	r := NewResolver([]string{dead.LocalAddr().String(), alive}, 100*time.Millisecond)

	addr, ok := r.Resolve("example.org")
	require.True(t, ok)
	assert.Equal(t, "93.184.216.34", addr)
}

// TestResolverNoUpstreams verifies an empty upstream list yields no answer
func TestResolverNoUpstreams(t *testing.T) {
	r := NewResolver(nil, time.Second)
	_, ok := r.Resolve("example.org")
	assert.False(t, ok)
}

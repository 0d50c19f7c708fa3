package monitor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parapanda/docker-dns/pkg/nametable"
	"github.com/parapanda/docker-dns/pkg/runtime"
	"github.com/parapanda/docker-dns/pkg/types"
)

// fakeRuntime implements runtime.Runtime for tests
type fakeRuntime struct {
	containers []runtime.ContainerSummary
	details    map[string]runtime.ContainerDetails
	inspectErr map[string]error
	eventCh    chan runtime.Event
	errCh      chan error
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		details:    make(map[string]runtime.ContainerDetails),
		inspectErr: make(map[string]error),
		eventCh:    make(chan runtime.Event),
		errCh:      make(chan error, 1),
	}
}

func (f *fakeRuntime) ListContainers(ctx context.Context) ([]runtime.ContainerSummary, error) {
	return f.containers, nil
}

func (f *fakeRuntime) InspectContainer(ctx context.Context, id string) (runtime.ContainerDetails, error) {
	if err := f.inspectErr[id]; err != nil {
		return runtime.ContainerDetails{}, err
	}
	details, ok := f.details[id]
	if !ok {
		return runtime.ContainerDetails{}, fmt.Errorf("no such container: %s", id)
	}
	return details, nil
}

func (f *fakeRuntime) Events(ctx context.Context) (<-chan runtime.Event, <-chan error) {
	return f.eventCh, f.errCh
}

// startMonitor runs the monitor in the background and returns a stop func
func startMonitor(t *testing.T, m *Monitor) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Run(ctx)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("monitor did not stop")
		}
	}
}

// waitFor polls until the condition holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// TestQualifyName tests derived name construction
func TestQualifyName(t *testing.T) {
	m := New(newFakeRuntime(), nametable.New(nil), Config{Domain: "docker"})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain name",
			input: "web",
			want:  "web.docker",
		},
		{
			name:  "trailing dot stripped",
			input: "web.",
			want:  "web.docker",
		},
		{
			name:  "invalid characters removed",
			input: "web server!",
			want:  "webserver.docker",
		},
		{
			name:  "slash prefix removed",
			input: "/web",
			want:  "web.docker",
		},
		{
			name:  "empty name yields nothing",
			input: "",
			want:  "",
		},
		{
			name:  "only invalid characters yields nothing",
			input: "!!!",
			want:  "",
		},
		{
			name:  "underscores and hyphens kept",
			input: "my_app-1",
			want:  "my_app-1.docker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.qualifyName(tt.input))
		})
	}
}

// TestContainerName tests identity resolution during inspect
func TestContainerName(t *testing.T) {
	m := New(newFakeRuntime(), nametable.New(nil), Config{Domain: "docker"})

	tests := []struct {
		name    string
		details runtime.ContainerDetails
		want    string
	}{
		{
			name:    "explicit name preferred",
			details: runtime.ContainerDetails{ID: "abc123", Name: "worker", Hostname: "custom-host"},
			want:    "worker",
		},
		{
			name:    "hostname when name empty",
			details: runtime.ContainerDetails{ID: "abc123", Hostname: "custom-host"},
			want:    "custom-host",
		},
		{
			name:    "auto-derived hostname wins over name",
			details: runtime.ContainerDetails{ID: "abc123", Name: "worker", Hostname: "abc123def"},
			want:    "abc123def",
		},
		{
			name:    "no usable identity",
			details: runtime.ContainerDetails{ID: "abc123"},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.containerName(tt.details))
		})
	}
}

// TestContainerAddress tests address resolution with and without a filter
func TestContainerAddress(t *testing.T) {
	details := runtime.ContainerDetails{
		IPAddress: "172.17.0.2",
		Networks: map[string]string{
			"frontend": "10.1.0.2",
			"backend":  "10.2.0.2",
		},
	}

	noFilter := New(newFakeRuntime(), nametable.New(nil), Config{Domain: "docker"})
	assert.Equal(t, "172.17.0.2", noFilter.containerAddress(details))

	filtered := New(newFakeRuntime(), nametable.New(nil), Config{Domain: "docker", Network: "frontend"})
	assert.Equal(t, "10.1.0.2", filtered.containerAddress(details))

	missing := New(newFakeRuntime(), nametable.New(nil), Config{Domain: "docker", Network: "absent"})
	assert.Equal(t, "172.17.0.2", missing.containerAddress(details))
}

// TestBootstrapStaticRecords verifies static records are seeded with the
// domain suffix applied.
func TestBootstrapStaticRecords(t *testing.T) {
	table := nametable.New(nil)
	m := New(newFakeRuntime(), table, Config{
		Domain:        "docker",
		StaticRecords: []types.StaticRecord{{Name: "web", Address: "10.0.0.5"}},
	})

	require.NoError(t, m.bootstrap(context.Background()))

	addr, found := table.Get("web.docker")
	require.True(t, found)
	assert.Equal(t, "10.0.0.5", addr)
}

// TestBootstrapRunningContainers verifies the table is seeded from the
// currently running containers.
func TestBootstrapRunningContainers(t *testing.T) {
	rt := newFakeRuntime()
	rt.containers = []runtime.ContainerSummary{
		{ID: "abc123", Name: "worker", NetworkMode: "bridge"},
		{ID: "def456", Name: "db", NetworkMode: "bridge"},
	}
	rt.details["abc123"] = runtime.ContainerDetails{
		ID: "abc123", Name: "worker", Running: true, IPAddress: "10.0.0.9",
	}
	rt.details["def456"] = runtime.ContainerDetails{
		ID: "def456", Name: "db", Running: true, IPAddress: "10.0.0.10",
	}

	table := nametable.New(nil)
	m := New(rt, table, Config{Domain: "docker"})
	require.NoError(t, m.bootstrap(context.Background()))

	addr, found := table.Get("worker.docker")
	require.True(t, found)
	assert.Equal(t, "10.0.0.9", addr)

	addr, found = table.Get("db.docker")
	require.True(t, found)
	assert.Equal(t, "10.0.0.10", addr)
}

// TestBootstrapNetworkFilter verifies containers on other networks are
// skipped when a filter is configured.
func TestBootstrapNetworkFilter(t *testing.T) {
	rt := newFakeRuntime()
	rt.containers = []runtime.ContainerSummary{
		{ID: "abc123", Name: "tracked", NetworkMode: "frontend"},
		{ID: "def456", Name: "ignored", NetworkMode: "bridge"},
	}
	rt.details["abc123"] = runtime.ContainerDetails{
		ID: "abc123", Name: "tracked", Running: true,
		Networks: map[string]string{"frontend": "10.1.0.2"},
	}
	rt.details["def456"] = runtime.ContainerDetails{
		ID: "def456", Name: "ignored", Running: true, IPAddress: "172.17.0.3",
	}

	table := nametable.New(nil)
	m := New(rt, table, Config{Domain: "docker", Network: "frontend"})
	require.NoError(t, m.bootstrap(context.Background()))

	addr, found := table.Get("tracked.docker")
	require.True(t, found)
	assert.Equal(t, "10.1.0.2", addr)

	_, found = table.Get("ignored.docker")
	assert.False(t, found)
}

// TestBootstrapInspectFailure verifies a disappearing container doesn't
// fail bootstrap.
func TestBootstrapInspectFailure(t *testing.T) {
	rt := newFakeRuntime()
	rt.containers = []runtime.ContainerSummary{
		{ID: "gone", Name: "gone"},
		{ID: "abc123", Name: "worker"},
	}
	rt.details["abc123"] = runtime.ContainerDetails{
		ID: "abc123", Name: "worker", Running: true, IPAddress: "10.0.0.9",
	}

	table := nametable.New(nil)
	m := New(rt, table, Config{Domain: "docker"})
	require.NoError(t, m.bootstrap(context.Background()))

	_, found := table.Get("worker.docker")
	assert.True(t, found)
}

// TestStartEventAddsRecord covers the container start path end to end
func TestStartEventAddsRecord(t *testing.T) {
	rt := newFakeRuntime()
	rt.details["abc123"] = runtime.ContainerDetails{
		ID: "abc123", Name: "worker", Running: true, IPAddress: "10.0.0.9",
	}

	table := nametable.New(nil)
	m := New(rt, table, Config{Domain: "docker"})
	stop := startMonitor(t, m)
	defer stop()

	rt.eventCh <- runtime.Event{Type: "container", ID: "abc123", Action: "start"}

	waitFor(t, "worker.docker entry", func() bool {
		addr, found := table.Get("worker.docker")
		return found && addr == "10.0.0.9"
	})
}

// TestRenameEventMigratesRecord covers the rename path: actor attributes
// only, no inspection.
func TestRenameEventMigratesRecord(t *testing.T) {
	rt := newFakeRuntime()
	table := nametable.New(nil)
	table.Add("worker.docker", "10.0.0.9")

	m := New(rt, table, Config{Domain: "docker"})
	stop := startMonitor(t, m)
	defer stop()

	rt.eventCh <- runtime.Event{
		Type:   "container",
		ID:     "abc123",
		Action: "rename",
		Attributes: map[string]string{
			"oldName": "worker",
			"name":    "worker2",
		},
	}

	waitFor(t, "worker2.docker entry", func() bool {
		addr, found := table.Get("worker2.docker")
		return found && addr == "10.0.0.9"
	})

	_, found := table.Get("worker.docker")
	assert.False(t, found)
}

// TestDieEventRemovesRecord covers the die path
func TestDieEventRemovesRecord(t *testing.T) {
	rt := newFakeRuntime()
	rt.details["abc123"] = runtime.ContainerDetails{
		ID: "abc123", Name: "worker", Running: false,
	}

	table := nametable.New(nil)
	table.Add("worker.docker", "10.0.0.9")

	m := New(rt, table, Config{Domain: "docker"})
	stop := startMonitor(t, m)
	defer stop()

	rt.eventCh <- runtime.Event{Type: "container", ID: "abc123", Action: "die"}

	waitFor(t, "worker.docker removal", func() bool {
		_, found := table.Get("worker.docker")
		return !found
	})
}

// TestDieInspectFailureLeavesEntry verifies the documented stale-entry
// behavior: a die whose inspection fails skips the removal.
func TestDieInspectFailureLeavesEntry(t *testing.T) {
	rt := newFakeRuntime()
	rt.inspectErr["abc123"] = fmt.Errorf("no such container: abc123")
	rt.details["def456"] = runtime.ContainerDetails{
		ID: "def456", Name: "db", Running: true, IPAddress: "10.0.0.10",
	}

	table := nametable.New(nil)
	table.Add("worker.docker", "10.0.0.9")

	m := New(rt, table, Config{Domain: "docker"})
	stop := startMonitor(t, m)
	defer stop()

	rt.eventCh <- runtime.Event{Type: "container", ID: "abc123", Action: "die"}
	// The loop must survive the failure and process the next event.
	rt.eventCh <- runtime.Event{Type: "container", ID: "def456", Action: "start"}

	waitFor(t, "db.docker entry", func() bool {
		_, found := table.Get("db.docker")
		return found
	})

	addr, found := table.Get("worker.docker")
	require.True(t, found, "stale entry should persist")
	assert.Equal(t, "10.0.0.9", addr)
}

// TestIgnoredEvents verifies non-container types, missing ids, and other
// actions are skipped without table mutation.
func TestIgnoredEvents(t *testing.T) {
	rt := newFakeRuntime()
	rt.details["abc123"] = runtime.ContainerDetails{
		ID: "abc123", Name: "worker", Running: true, IPAddress: "10.0.0.9",
	}
	rt.details["def456"] = runtime.ContainerDetails{
		ID: "def456", Name: "db", Running: true, IPAddress: "10.0.0.10",
	}

	table := nametable.New(nil)
	m := New(rt, table, Config{Domain: "docker"})
	stop := startMonitor(t, m)
	defer stop()

	rt.eventCh <- runtime.Event{Type: "network", ID: "abc123", Action: "start"}
	rt.eventCh <- runtime.Event{Type: "container", Action: "start"}
	rt.eventCh <- runtime.Event{Type: "container", ID: "abc123", Action: "pause"}
	rt.eventCh <- runtime.Event{Type: "container", ID: "def456", Action: "start"}

	waitFor(t, "db.docker entry", func() bool {
		_, found := table.Get("db.docker")
		return found
	})

	_, found := table.Get("worker.docker")
	assert.False(t, found, "ignored events must not mutate the table")
}

// TestStartEventNoAddress verifies a container without a resolvable
// address is never stored.
func TestStartEventNoAddress(t *testing.T) {
	rt := newFakeRuntime()
	rt.details["abc123"] = runtime.ContainerDetails{
		ID: "abc123", Name: "worker", Running: true,
	}

	table := nametable.New(nil)
	m := New(rt, table, Config{Domain: "docker"})
	require.NoError(t, m.addContainer(context.Background(), "abc123"))

	assert.Equal(t, 0, table.Len())
}

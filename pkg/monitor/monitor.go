package monitor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/parapanda/docker-dns/pkg/log"
	"github.com/parapanda/docker-dns/pkg/metrics"
	"github.com/parapanda/docker-dns/pkg/nametable"
	"github.com/parapanda/docker-dns/pkg/runtime"
	"github.com/parapanda/docker-dns/pkg/types"
)

const (
	// DefaultDomain is the base domain appended to container names
	DefaultDomain = "docker"

	actionStart  = "start"
	actionDie    = "die"
	actionRename = "rename"

	containerEventType = "container"
)

// invalidNameChars matches everything a derived name may not contain.
var invalidNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Config holds monitor configuration
type Config struct {
	Domain        string               // base domain appended to names (default: "docker")
	Network       string               // optional network filter, empty tracks everything
	StaticRecords []types.StaticRecord // seeded before any runtime event is processed
}

// Monitor keeps the name table consistent with the live state of the
// container runtime: a bootstrap catch-up read followed by an event
// streaming phase that runs for the life of the process.
type Monitor struct {
	runtime runtime.Runtime
	table   *nametable.Table
	domain  string
	network string
	static  []types.StaticRecord
	logger  zerolog.Logger
}

// New creates a monitor feeding the given table from the given runtime.
func New(rt runtime.Runtime, table *nametable.Table, cfg Config) *Monitor {
	domain := cfg.Domain
	if domain == "" {
		domain = DefaultDomain
	}
	return &Monitor{
		runtime: rt,
		table:   table,
		domain:  domain,
		network: cfg.Network,
		static:  cfg.StaticRecords,
		logger:  log.WithComponent("monitor"),
	}
}

// Run subscribes to the runtime event stream, bootstraps the table from the
// currently running containers, then consumes events until the context is
// cancelled. Subscription happens before bootstrap so transitions occurring
// during the catch-up read are buffered, not lost.
func (m *Monitor) Run(ctx context.Context) error {
	eventCh, errCh := m.runtime.Events(ctx)

	if err := m.bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	m.logger.Info().
		Str("domain", m.domain).
		Str("network", m.network).
		Int("records", m.table.Len()).
		Msg("monitor started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return fmt.Errorf("event stream failed: %w", err)
		case evt, ok := <-eventCh:
			if !ok {
				return fmt.Errorf("event stream closed")
			}
			// A single malformed or unreachable-container event must never
			// terminate the stream consumer.
			if err := m.handleEvent(ctx, evt); err != nil {
				metrics.EventErrorsTotal.Inc()
				m.logger.Error().
					Err(err).
					Str("container_id", evt.ID).
					Str("action", evt.Action).
					Msg("failed to process event")
			}
		}
	}
}

// bootstrap seeds static records and the currently running containers.
func (m *Monitor) bootstrap(ctx context.Context) error {
	for _, rec := range m.static {
		m.table.Add(m.qualifyName(rec.Name), rec.Address)
	}

	containers, err := m.runtime.ListContainers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	for _, c := range containers {
		if m.network != "" && c.NetworkMode != m.network {
			continue
		}
		if err := m.addContainer(ctx, c.ID); err != nil {
			// A container may disappear between list and inspect.
			m.logger.Warn().
				Err(err).
				Str("container_id", c.ID).
				Msg("skipping container during bootstrap")
		}
	}
	return nil
}

func (m *Monitor) handleEvent(ctx context.Context, evt runtime.Event) error {
	if evt.Type != containerEventType {
		return nil
	}
	if evt.ID == "" {
		return nil
	}

	switch evt.Action {
	case actionStart:
		metrics.RuntimeEventsTotal.WithLabelValues(actionStart).Inc()
		return m.addContainer(ctx, evt.ID)
	case actionDie:
		metrics.RuntimeEventsTotal.WithLabelValues(actionDie).Inc()
		return m.removeContainer(ctx, evt.ID)
	case actionRename:
		metrics.RuntimeEventsTotal.WithLabelValues(actionRename).Inc()
		m.renameContainer(evt)
		return nil
	default:
		return nil
	}
}

// addContainer inspects a container and adds every resolvable record. The
// event payload alone is insufficient; inspection gives fresh metadata.
func (m *Monitor) addContainer(ctx context.Context, id string) error {
	details, err := m.runtime.InspectContainer(ctx, id)
	if err != nil {
		return err
	}

	for _, rec := range m.records(details) {
		if !rec.Resolvable() {
			continue
		}
		m.logger.Debug().
			Str("container_id", rec.ID).
			Str("name", rec.Name).
			Str("address", rec.Address).
			Msg("adding container record")
		m.table.Add(rec.Name, rec.Address)
	}
	return nil
}

// removeContainer inspects a (possibly already dead) container to recover
// its names and removes them. The name doesn't change at death, so stale
// inspection data is sufficient; when inspection fails because the container
// object is already gone, the removal is skipped and the entry goes stale
// until a later event for the same name corrects it.
func (m *Monitor) removeContainer(ctx context.Context, id string) error {
	details, err := m.runtime.InspectContainer(ctx, id)
	if err != nil {
		return err
	}

	for _, rec := range m.records(details) {
		m.logger.Debug().
			Str("container_id", rec.ID).
			Str("name", rec.Name).
			Msg("removing container record")
		m.table.Remove(rec.Name)
	}
	return nil
}

// renameContainer migrates the table entry using the old/new names carried
// in the event's actor attributes. Only the name identity changes, not the
// address, so no inspection is needed.
func (m *Monitor) renameContainer(evt runtime.Event) {
	oldName := m.qualifyName(evt.Attributes["oldName"])
	newName := m.qualifyName(evt.Attributes["name"])

	m.logger.Debug().
		Str("container_id", evt.ID).
		Str("old_name", oldName).
		Str("new_name", newName).
		Msg("renaming container record")
	m.table.Rename(oldName, newName)
}

// records derives the resolvable records for an inspected container.
// Currently a container yields at most one candidate name.
func (m *Monitor) records(details runtime.ContainerDetails) []types.Record {
	name := m.containerName(details)
	if name == "" {
		return nil
	}

	var records []types.Record
	for _, candidate := range []string{name} {
		qualified := m.qualifyName(candidate)
		if qualified == "" {
			continue
		}
		records = append(records, types.Record{
			ID:      details.ID,
			Name:    qualified,
			Running: details.Running,
			Address: m.containerAddress(details),
		})
	}
	return records
}

// containerName picks the resolvable identity for a container: the explicit
// name, or the hostname when the name is empty or the hostname was
// auto-derived from the container id.
func (m *Monitor) containerName(details runtime.ContainerDetails) string {
	if details.Hostname != "" && strings.HasPrefix(details.Hostname, details.ID) {
		return details.Hostname
	}
	if details.Name != "" {
		return details.Name
	}
	return details.Hostname
}

// containerAddress resolves the container's IPv4 address, preferring the
// filter network's settings when a filter is configured.
func (m *Monitor) containerAddress(details runtime.ContainerDetails) string {
	if m.network != "" {
		if ip, ok := details.Networks[m.network]; ok && ip != "" {
			return ip
		}
	}
	return details.IPAddress
}

// qualifyName derives the fully-qualified name used as the table key input:
// strip characters outside [A-Za-z0-9_.-], strip a trailing dot, append the
// base domain.
func (m *Monitor) qualifyName(raw string) string {
	name := invalidNameChars.ReplaceAllString(raw, "")
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return ""
	}
	return name + "." + m.domain
}

package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	dockerevents "github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// ContainerSummary is a running container as returned by a list call.
type ContainerSummary struct {
	ID          string
	Name        string
	NetworkMode string
}

// ContainerDetails is the inspection-time view of a container: everything
// the monitor needs to derive resolvable records.
type ContainerDetails struct {
	ID          string
	Name        string
	Hostname    string
	Running     bool
	NetworkMode string
	IPAddress   string            // default network IP, empty when none
	Networks    map[string]string // network name -> IP address
}

// Event is a container lifecycle event from the runtime's stream.
type Event struct {
	Type       string            // event category, "container" for container events
	ID         string            // container id, empty for events without an actor
	Action     string            // start, die, rename, ...
	Attributes map[string]string // actor attributes (name, oldName on rename)
}

// Runtime is the container runtime capability set the monitor consumes:
// list running containers, stream lifecycle events, inspect by id.
type Runtime interface {
	ListContainers(ctx context.Context) ([]ContainerSummary, error)
	InspectContainer(ctx context.Context, id string) (ContainerDetails, error)
	Events(ctx context.Context) (<-chan Event, <-chan error)
}

// DockerRuntime implements Runtime over the Docker Engine API.
type DockerRuntime struct {
	cli *client.Client
}

// NewDockerRuntime creates a Docker runtime client from the environment
// (DOCKER_HOST and friends), negotiating the API version with the daemon.
func NewDockerRuntime() (*DockerRuntime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerRuntime{cli: cli}, nil
}

// Close closes the underlying client connection.
func (r *DockerRuntime) Close() error {
	if r.cli != nil {
		return r.cli.Close()
	}
	return nil
}

// ListContainers returns the currently running containers.
func (r *DockerRuntime) ListContainers(ctx context.Context) ([]ContainerSummary, error) {
	containers, err := r.cli.ContainerList(ctx, types.ContainerListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	result := make([]ContainerSummary, 0, len(containers))
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		result = append(result, ContainerSummary{
			ID:          c.ID,
			Name:        name,
			NetworkMode: c.HostConfig.NetworkMode,
		})
	}
	return result, nil
}

// InspectContainer returns fresh metadata for a container by id.
func (r *DockerRuntime) InspectContainer(ctx context.Context, id string) (ContainerDetails, error) {
	cj, err := r.cli.ContainerInspect(ctx, id)
	if err != nil {
		return ContainerDetails{}, fmt.Errorf("failed to inspect container %s: %w", id, err)
	}

	details := ContainerDetails{
		ID:   cj.ID,
		Name: strings.TrimPrefix(cj.Name, "/"),
	}
	if cj.Config != nil {
		details.Hostname = cj.Config.Hostname
	}
	if cj.State != nil {
		details.Running = cj.State.Running
	}
	if cj.HostConfig != nil {
		details.NetworkMode = string(cj.HostConfig.NetworkMode)
	}
	if cj.NetworkSettings != nil {
		details.IPAddress = cj.NetworkSettings.IPAddress
		details.Networks = make(map[string]string, len(cj.NetworkSettings.Networks))
		for name, endpoint := range cj.NetworkSettings.Networks {
			if endpoint != nil {
				details.Networks[name] = endpoint.IPAddress
			}
		}
	}
	return details, nil
}

// Events subscribes to the daemon's container event stream. The returned
// channels follow the Docker client convention: the event channel closes
// when the stream ends, and at most one error is delivered.
func (r *DockerRuntime) Events(ctx context.Context) (<-chan Event, <-chan error) {
	filter := filters.NewArgs()
	filter.Add("type", "container")

	msgCh, errCh := r.cli.Events(ctx, types.EventsOptions{Filters: filter})

	out := make(chan Event)
	outErr := make(chan error, 1)
	go func() {
		defer close(out)
		for {
			select {
			case m, ok := <-msgCh:
				if !ok {
					return
				}
				select {
				case out <- convertMessage(m):
				case <-ctx.Done():
					return
				}
			case err := <-errCh:
				if err != nil {
					outErr <- err
				}
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, outErr
}

func convertMessage(m dockerevents.Message) Event {
	return Event{
		Type:       string(m.Type),
		ID:         m.Actor.ID,
		Action:     string(m.Action),
		Attributes: m.Actor.Attributes,
	}
}

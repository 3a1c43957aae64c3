package docker

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/docker/cli/cli/connhelper"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/swarm"
	"github.com/docker/docker/api/types/system"
	dc "github.com/docker/docker/client"

	"github.com/sungazer-io/swarm-cli/pkg/util/console"
)

// Engine is the part of the engine API the CLI talks to. *client.Client satisfies it.
type Engine interface {
	Info(ctx context.Context) (system.Info, error)
	TaskList(ctx context.Context, options types.TaskListOptions) ([]swarm.Task, error)
	NodeInspectWithRaw(ctx context.Context, nodeID string) (swarm.Node, []byte, error)
	ServiceInspectWithRaw(ctx context.Context, serviceID string, options types.ServiceInspectOptions) (swarm.Service, []byte, error)
	ServiceUpdate(ctx context.Context, serviceID string, version swarm.Version, service swarm.ServiceSpec, options types.ServiceUpdateOptions) (swarm.ServiceUpdateResponse, error)
	ServiceRemove(ctx context.Context, serviceID string) error
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	NetworkInspect(ctx context.Context, networkID string, options network.InspectOptions) (network.Inspect, error)
	NetworkCreate(ctx context.Context, name string, options network.CreateOptions) (network.CreateResponse, error)
	Close() error
}

var _ Engine = (*dc.Client)(nil)

// NewClient connects to the engine at the configured host. ssh:// hosts are reached through the
// docker cli's ssh connection helper, the same way the docker command does it.
func NewClient(ctx context.Context, opts ...Option) (*dc.Client, error) {
	clientOptions := &clientOptions{}
	for _, opt := range opts {
		opt(clientOptions)
	}
	if clientOptions.host == "" {
		clientOptions.host = defaultDockerHost
	}

	dockerClientOpts := []dc.Opt{
		dc.WithTLSClientConfigFromEnv(),
		dc.WithVersionFromEnv(),
		dc.WithAPIVersionNegotiation(),
	}

	helper, err := connhelper.GetConnectionHelper(clientOptions.host)
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", clientOptions.host, err)
	}
	if helper != nil {
		dockerClientOpts = append(dockerClientOpts, dc.WithHost(helper.Host), dc.WithDialContext(helper.Dialer))
	} else {
		dockerClientOpts = append(dockerClientOpts, dc.WithHost(clientOptions.host))
	}

	client, err := dc.NewClientWithOpts(dockerClientOpts...)
	if err != nil {
		return nil, fmt.Errorf("error creating docker client: %w", err)
	}

	if clientOptions.ping {
		if _, err := client.Ping(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("error pinging docker daemon at %s: %w", clientOptions.host, err)
		}
	}
	return client, nil
}

// Factory opens an engine connection for host.
type Factory func(ctx context.Context, host string) (Engine, error)

// DefaultFactory opens real clients.
func DefaultFactory(ctx context.Context, host string) (Engine, error) {
	return NewClient(ctx, WithHost(host))
}

// ClientCache keeps one connection per host for the lifetime of a command.
type ClientCache struct {
	factory Factory

	mu      sync.Mutex
	clients map[string]Engine
}

func NewClientCache(factory Factory) *ClientCache {
	if factory == nil {
		factory = DefaultFactory
	}
	return &ClientCache{factory: factory, clients: map[string]Engine{}}
}

// Get returns the connection for host, opening it on first use.
func (c *ClientCache) Get(ctx context.Context, host string) (Engine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[host]; ok {
		return client, nil
	}
	console.Debugf("Connecting to docker engine at %s", host)
	client, err := c.factory(ctx, host)
	if err != nil {
		return nil, err
	}
	c.clients[host] = client
	return client, nil
}

// Close closes every connection the cache opened.
func (c *ClientCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for host, client := range c.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.clients, host)
	}
	return firstErr
}

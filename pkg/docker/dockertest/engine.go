// Package dockertest has in-memory stand-ins for the engine and the process runner.
package dockertest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/swarm"
	"github.com/docker/docker/api/types/system"
	"github.com/docker/docker/errdefs"
)

// FakeEngine serves services, tasks, nodes and networks from memory.
type FakeEngine struct {
	mu sync.Mutex

	// NodeID is the swarm node the engine itself runs on.
	NodeID string

	Services   map[string]swarm.Service
	Tasks      []swarm.Task
	Nodes      map[string]swarm.Node
	Networks   map[string]network.Inspect
	Containers map[string]container.InspectResponse
	// Logs is the raw stream ContainerLogs returns, keyed by container id.
	Logs map[string]string

	Updated    []swarm.ServiceSpec
	Removed    []string
	Created    []network.CreateOptions
	TaskQuery  []types.TaskListOptions
	LogQueries []container.LogsOptions
	Closed     bool
}

func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		Services:   map[string]swarm.Service{},
		Nodes:      map[string]swarm.Node{},
		Networks:   map[string]network.Inspect{},
		Containers: map[string]container.InspectResponse{},
		Logs:       map[string]string{},
	}
}

func notFound(object string, ref string) error {
	return errdefs.NotFound(fmt.Errorf("%s %s not found", object, ref))
}

func (f *FakeEngine) TaskList(ctx context.Context, options types.TaskListOptions) ([]swarm.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TaskQuery = append(f.TaskQuery, options)

	names := options.Filters.Get("service")
	states := options.Filters.Get("desired-state")
	var tasks []swarm.Task
	for _, task := range f.Tasks {
		if len(names) > 0 && !f.taskOf(task, names) {
			continue
		}
		if len(states) > 0 && !contains(states, string(task.DesiredState)) {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (f *FakeEngine) taskOf(task swarm.Task, names []string) bool {
	for _, name := range names {
		if svc, ok := f.Services[name]; ok && svc.ID == task.ServiceID {
			return true
		}
		if task.ServiceID == name {
			return true
		}
	}
	return false
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func (f *FakeEngine) NodeInspectWithRaw(ctx context.Context, nodeID string) (swarm.Node, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	node, ok := f.Nodes[nodeID]
	if !ok {
		return swarm.Node{}, nil, notFound("node", nodeID)
	}
	return node, nil, nil
}

func (f *FakeEngine) ServiceInspectWithRaw(ctx context.Context, serviceID string, options types.ServiceInspectOptions) (swarm.Service, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	svc, ok := f.Services[serviceID]
	if !ok {
		return swarm.Service{}, nil, notFound("service", serviceID)
	}
	return svc, nil, nil
}

func (f *FakeEngine) ServiceUpdate(ctx context.Context, serviceID string, version swarm.Version, service swarm.ServiceSpec, options types.ServiceUpdateOptions) (swarm.ServiceUpdateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, svc := range f.Services {
		if svc.ID != serviceID {
			continue
		}
		if svc.Version.Index != version.Index {
			return swarm.ServiceUpdateResponse{}, fmt.Errorf("update out of sequence")
		}
		svc.Spec = service
		svc.Version.Index++
		f.Services[name] = svc
		f.Updated = append(f.Updated, service)
		return swarm.ServiceUpdateResponse{}, nil
	}
	return swarm.ServiceUpdateResponse{}, notFound("service", serviceID)
}

func (f *FakeEngine) ServiceRemove(ctx context.Context, serviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, svc := range f.Services {
		if svc.ID == serviceID {
			delete(f.Services, name)
			f.Removed = append(f.Removed, serviceID)
			return nil
		}
	}
	return notFound("service", serviceID)
}

func (f *FakeEngine) ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.Containers[containerID]
	if !ok {
		return container.InspectResponse{}, notFound("container", containerID)
	}
	return c, nil
}

func (f *FakeEngine) ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LogQueries = append(f.LogQueries, options)
	logs, ok := f.Logs[containerID]
	if !ok {
		return nil, notFound("container", containerID)
	}
	return io.NopCloser(strings.NewReader(logs)), nil
}

func (f *FakeEngine) NetworkInspect(ctx context.Context, networkID string, options network.InspectOptions) (network.Inspect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.Networks[networkID]
	if !ok {
		return network.Inspect{}, notFound("network", networkID)
	}
	return n, nil
}

func (f *FakeEngine) NetworkCreate(ctx context.Context, name string, options network.CreateOptions) (network.CreateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Networks[name]; ok {
		return network.CreateResponse{}, errdefs.Conflict(fmt.Errorf("network with name %s already exists", name))
	}
	id := fmt.Sprintf("net-%d", len(f.Networks)+1)
	f.Networks[name] = network.Inspect{ID: id, Name: name, Driver: options.Driver, Attachable: options.Attachable}
	f.Created = append(f.Created, options)
	return network.CreateResponse{ID: id}, nil
}

func (f *FakeEngine) Info(ctx context.Context) (system.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return system.Info{Swarm: swarm.Info{NodeID: f.NodeID}}, nil
}

func (f *FakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

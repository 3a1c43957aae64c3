package docker

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/swarm"

	"github.com/sungazer-io/swarm-cli/pkg/errors"
	"github.com/sungazer-io/swarm-cli/pkg/util/console"
)

// RemoteContainer is a running container of a service, together with a client for the node it runs on.
type RemoteContainer struct {
	// Host is the engine address of the node, in DOCKER_HOST form.
	Host        string
	NodeID      string
	ContainerID string
	Engine      Engine
}

// Locator finds which node runs a service's container and connects to that node.
type Locator struct {
	cache *ClientCache
	// BaseHost is the manager the stack is deployed through. Node addresses inherit its scheme and port.
	BaseHost string
	// User is put in front of node addresses when set.
	User string
}

func NewLocator(cache *ClientCache, baseHost string, user string) *Locator {
	return &Locator{cache: cache, BaseHost: baseHost, User: user}
}

// Locate returns the container of the first running task of the service called fqsn.
// A service without running tasks is a NoRunningTask error, which callers report without failing.
func (l *Locator) Locate(ctx context.Context, fqsn string) (*RemoteContainer, error) {
	manager, err := l.cache.Get(ctx, l.BaseHost)
	if err != nil {
		return nil, err
	}

	tasks, err := manager.TaskList(ctx, types.TaskListOptions{
		Filters: filters.NewArgs(
			filters.Arg("service", fqsn),
			filters.Arg("desired-state", string(swarm.TaskStateRunning)),
		),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, errors.NoRunningTask(fqsn)
		}
		return nil, fmt.Errorf("failed to list tasks of %s: %w", fqsn, err)
	}

	task, err := firstRunningTask(fqsn, tasks)
	if err != nil {
		return nil, err
	}
	console.Debugf("Task %s of %s runs on node %s", task.ID, fqsn, task.NodeID)

	// the manager's own node is reached through the connection that is already open,
	// which also covers a local socket that has no address another machine could use
	info, err := manager.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query docker engine at %s: %w", l.BaseHost, err)
	}
	if info.Swarm.NodeID != "" && info.Swarm.NodeID == task.NodeID {
		return &RemoteContainer{
			Host:        l.BaseHost,
			NodeID:      task.NodeID,
			ContainerID: task.Status.ContainerStatus.ContainerID,
			Engine:      manager,
		}, nil
	}

	node, _, err := manager.NodeInspectWithRaw(ctx, task.NodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect node %s: %w", task.NodeID, err)
	}
	addr, err := nodeAddress(node)
	if err != nil {
		return nil, err
	}
	host, err := hostForNode(l.BaseHost, l.User, addr)
	if err != nil {
		return nil, err
	}

	engine, err := l.cache.Get(ctx, host)
	if err != nil {
		return nil, err
	}
	return &RemoteContainer{
		Host:        host,
		NodeID:      node.ID,
		ContainerID: task.Status.ContainerStatus.ContainerID,
		Engine:      engine,
	}, nil
}

// firstRunningTask prefers a task that is running already over one that is still starting.
func firstRunningTask(fqsn string, tasks []swarm.Task) (swarm.Task, error) {
	if len(tasks) == 0 {
		return swarm.Task{}, errors.NoRunningTask(fqsn)
	}
	var candidate *swarm.Task
	for i := range tasks {
		task := &tasks[i]
		if task.DesiredState != swarm.TaskStateRunning {
			continue
		}
		if task.Status.ContainerStatus == nil || task.Status.ContainerStatus.ContainerID == "" {
			continue
		}
		if task.Status.State == swarm.TaskStateRunning {
			return *task, nil
		}
		if candidate == nil {
			candidate = task
		}
	}
	if candidate == nil {
		return swarm.Task{}, errors.NoRunningContainer(fqsn)
	}
	return *candidate, nil
}

// nodeAddress is the address the node advertises. A node that advertises the unspecified
// address falls back to its manager address, then to its hostname.
func nodeAddress(node swarm.Node) (string, error) {
	if addr := node.Status.Addr; addr != "" && !isUnspecified(addr) {
		return addr, nil
	}
	if node.ManagerStatus != nil && node.ManagerStatus.Addr != "" {
		addr := node.ManagerStatus.Addr
		if host, _, err := net.SplitHostPort(addr); err == nil {
			addr = host
		}
		if addr != "" && !isUnspecified(addr) {
			return addr, nil
		}
	}
	if node.Description.Hostname != "" {
		return node.Description.Hostname, nil
	}
	return "", errors.NodeAddressUnavailable(node.ID)
}

func isUnspecified(addr string) bool {
	ip := net.ParseIP(addr)
	return ip != nil && ip.IsUnspecified()
}

// hostForNode builds the DOCKER_HOST of a node from the manager's. Local sockets cannot reach
// another machine, so those become ssh:// addresses.
func hostForNode(baseHost string, user string, addr string) (string, error) {
	target := &url.URL{Scheme: "ssh"}
	port := ""
	if baseHost != "" {
		base, err := url.Parse(baseHost)
		if err != nil {
			return "", fmt.Errorf("invalid docker host %q: %w", baseHost, err)
		}
		switch base.Scheme {
		case "unix", "npipe", "fd", "":
		default:
			target.Scheme = base.Scheme
			port = base.Port()
			target.User = base.User
		}
	}
	if user != "" {
		target.User = url.User(user)
	}
	if port != "" {
		target.Host = net.JoinHostPort(addr, port)
	} else if ip := net.ParseIP(addr); ip != nil && ip.To4() == nil {
		target.Host = "[" + addr + "]"
	} else {
		target.Host = addr
	}
	return target.String(), nil
}

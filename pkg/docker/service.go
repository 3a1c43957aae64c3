package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/swarm"

	"github.com/sungazer-io/swarm-cli/pkg/util/console"
)

func inspectService(ctx context.Context, e Engine, fqsn string) (swarm.Service, error) {
	svc, _, err := e.ServiceInspectWithRaw(ctx, fqsn, types.ServiceInspectOptions{})
	if err != nil {
		if isNotFoundError(err) {
			return swarm.Service{}, &NotFoundError{Object: "service", Ref: fqsn}
		}
		return swarm.Service{}, fmt.Errorf("failed to inspect service %s: %w", fqsn, err)
	}
	return svc, nil
}

// ServicePorts returns the ports the service publishes.
func ServicePorts(ctx context.Context, e Engine, fqsn string) ([]swarm.PortConfig, error) {
	svc, err := inspectService(ctx, e, fqsn)
	if err != nil {
		return nil, err
	}
	return svc.Endpoint.Ports, nil
}

// PrintPorts writes fqsn followed by one "protocol: published -> target" line per port.
// Nothing is written for a service without published ports.
func PrintPorts(w io.Writer, fqsn string, ports []swarm.PortConfig) {
	if len(ports) == 0 {
		return
	}
	fmt.Fprintln(w, fqsn)
	for _, port := range ports {
		fmt.Fprintf(w, "\t%6s: %6d -> %-6d\n", port.Protocol, port.PublishedPort, port.TargetPort)
	}
}

// ForceUpdate makes the engine reschedule every task of the service even though its spec is unchanged.
func ForceUpdate(ctx context.Context, e Engine, fqsn string) ([]string, error) {
	svc, err := inspectService(ctx, e, fqsn)
	if err != nil {
		return nil, err
	}
	spec := svc.Spec
	spec.TaskTemplate.ForceUpdate++

	resp, err := e.ServiceUpdate(ctx, svc.ID, svc.Version, spec, types.ServiceUpdateOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to update service %s: %w", fqsn, err)
	}
	return resp.Warnings, nil
}

// RemoveService removes the service called fqsn and returns its id.
func RemoveService(ctx context.Context, e Engine, fqsn string) (string, error) {
	svc, err := inspectService(ctx, e, fqsn)
	if err != nil {
		return "", err
	}
	if err := e.ServiceRemove(ctx, svc.ID); err != nil {
		return "", fmt.Errorf("failed to remove service %s: %w", fqsn, err)
	}
	return svc.ID, nil
}

// EnsureOverlayNetwork creates an attachable overlay network called name unless one exists.
// It reports whether the network was created.
func EnsureOverlayNetwork(ctx context.Context, e Engine, name string) (bool, error) {
	_, err := e.NetworkInspect(ctx, name, network.InspectOptions{})
	if err == nil {
		console.Debugf("Network %s already exists", name)
		return false, nil
	}
	if !isNotFoundError(err) {
		return false, fmt.Errorf("failed to inspect network %s: %w", name, err)
	}

	_, err = e.NetworkCreate(ctx, name, network.CreateOptions{
		Driver:     "overlay",
		Attachable: true,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create network %s: %w", name, err)
	}
	return true, nil
}

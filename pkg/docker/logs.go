package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
)

// Logs copies the container's log to stdout and stderr. tail is a line count or "all".
func (c *RemoteContainer) Logs(ctx context.Context, stdout io.Writer, stderr io.Writer, follow bool, tail string) error {
	inspect, err := c.Engine.ContainerInspect(ctx, c.ContainerID)
	if err != nil {
		if isNotFoundError(err) {
			return &NotFoundError{Object: "container", Ref: c.ContainerID}
		}
		return fmt.Errorf("failed to inspect container %s: %w", c.ContainerID, err)
	}

	rc, err := c.Engine.ContainerLogs(ctx, c.ContainerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
		Tail:       tail,
	})
	if err != nil {
		return fmt.Errorf("failed to read logs of %s: %w", c.ContainerID, err)
	}
	defer rc.Close()

	// tty containers send a raw stream, everything else is multiplexed
	if inspect.Config != nil && inspect.Config.Tty {
		_, err = io.Copy(stdout, rc)
	} else {
		_, err = stdcopy.StdCopy(stdout, stderr, rc)
	}
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

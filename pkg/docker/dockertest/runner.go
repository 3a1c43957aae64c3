package dockertest

import (
	"context"
	"sync"

	"github.com/sungazer-io/swarm-cli/pkg/docker/command"
)

// RecordingRunner records commands instead of running them.
type RecordingRunner struct {
	mu   sync.Mutex
	Cmds []*command.Cmd
	// Codes are returned in order, one per call. Calls past the end exit 0.
	Codes []int
}

func (r *RecordingRunner) Run(ctx context.Context, cmd *command.Cmd) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Cmds = append(r.Cmds, cmd)
	if len(r.Codes) == 0 {
		return 0, nil
	}
	code := r.Codes[0]
	r.Codes = r.Codes[1:]
	return code, nil
}

// Lines returns every recorded command line.
func (r *RecordingRunner) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := make([]string, len(r.Cmds))
	for i, cmd := range r.Cmds {
		lines[i] = cmd.String()
	}
	return lines
}

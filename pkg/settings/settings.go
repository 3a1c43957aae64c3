package settings

import (
	"fmt"

	"github.com/caarlos0/env/v9"
)

// Settings configures the tool itself rather than the project it operates on.
type Settings struct {
	DockerCommand  string `env:"SWARM_CLI_DOCKER_COMMAND" envDefault:"docker"`
	ComposeCommand string `env:"SWARM_CLI_COMPOSE_COMMAND" envDefault:"docker-compose"`
	// StackConfig is the file read by the stack command group.
	StackConfig string `env:"SWARM_CLI_STACK_CONFIG" envDefault:"stack-config.yml"`
	// SwarmConfig is the file read by the swarm command group.
	SwarmConfig string `env:"SWARM_CLI_SWARM_CONFIG" envDefault:"swarm-config.yml"`
	// BuildDir is relative to the directory holding the swarm config.
	BuildDir string `env:"SWARM_CLI_BUILD_DIR" envDefault:"build"`
	NoColor  bool   `env:"SWARM_CLI_NO_COLOR" envDefault:"false"`
}

// Load reads settings from the process environment.
func Load() (*Settings, error) {
	s := &Settings{}
	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}

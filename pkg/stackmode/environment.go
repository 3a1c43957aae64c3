// Package stackmode resolves the environments declared in stack-config.yml.
package stackmode

import (
	"context"
	"fmt"
	"sort"

	"github.com/sungazer-io/swarm-cli/pkg/environ"
	"github.com/sungazer-io/swarm-cli/pkg/errors"
)

// Environment is a deployment target with everything inherited through extends already applied.
type Environment struct {
	Name string
	// BasePath is the directory holding the environment's own files.
	BasePath   string
	StackName  string
	DockerHost string
	DockerUser string
	Production bool
	DeployArgs []string
	// StackFiles lists compose files with every ancestor's files before the environment's own.
	StackFiles []string
	// EnvFiles lists env files in load order, secrets before env and ancestors before self.
	EnvFiles []string
	// Services maps each service name to its definition from the last stack file declaring it.
	Services map[string]interface{}
}

func (e *Environment) HasService(service string) bool {
	_, ok := e.Services[service]
	return ok
}

// EnsureService returns a NoSuchService error if service is not defined.
func (e *Environment) EnsureService(service string) error {
	if !e.HasService(service) {
		return errors.NoSuchService(service, e.Name)
	}
	return nil
}

// ServiceNames returns the service names in sorted order.
func (e *Environment) ServiceNames() []string {
	names := make([]string, 0, len(e.Services))
	for name := range e.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FullServiceName is the name the engine knows the service by.
func (e *Environment) FullServiceName(service string) string {
	return fmt.Sprintf("%s_%s", e.StackName, service)
}

// Environ returns base with STACK_NAME and, when the environment targets a remote engine, DOCKER_HOST set.
func (e *Environment) Environ(base environ.Environ) environ.Environ {
	env := base.With("STACK_NAME", e.StackName)
	if e.DockerHost != "" {
		env = env.With("DOCKER_HOST", e.DockerHost)
	}
	return env
}

// LoadEnv builds the environment commands run with: Environ(base) plus every env file that exists.
// Values already present are never replaced by file contents.
func (e *Environment) LoadEnv(ctx context.Context, base environ.Environ) (environ.Environ, error) {
	return environ.LoadFiles(ctx, e.Environ(base), e.EnvFiles, true, false)
}

package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sungazer-io/swarm-cli/pkg/config"
	"github.com/sungazer-io/swarm-cli/pkg/docker"
	"github.com/sungazer-io/swarm-cli/pkg/environ"
	"github.com/sungazer-io/swarm-cli/pkg/errors"
	"github.com/sungazer-io/swarm-cli/pkg/global"
	"github.com/sungazer-io/swarm-cli/pkg/settings"
	"github.com/sungazer-io/swarm-cli/pkg/stackmode"
	"github.com/sungazer-io/swarm-cli/pkg/util/console"
)

var stackEnvFlag string

// confirmInput answers the production prompt. Nil reads stdin.
var confirmInput io.Reader

func newStackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Work with the environments of stack-config.yml",
	}
	addConfigFlag(cmd, "stack-config.yml")
	cmd.PersistentFlags().StringVar(&stackEnvFlag, "env", "dev", "Environment to work with")

	cmd.AddCommand(
		newStackListCommand(),
		newStackLogsCommand(),
		newStackBuildCommand(),
		newStackPushCommand(),
		newStackDeployCommand(),
		newStackBPDCommand(),
		newStackRemoveCommand(),
		newStackShellCommand(),
		newStackExecCommand(),
		newStackPsCommand(),
		newStackEnvCommand(),
		newStackRunCommand(),
		newStackPortsCommand(),
		newStackForceUpdateCommand(),
		newStackConfigCommand(),
	)
	return cmd
}

// stackSession is the selected environment together with the process environment it starts from.
type stackSession struct {
	env  *stackmode.Environment
	base environ.Environ
}

func loadStack() (*stackSession, error) {
	s, err := settings.Load()
	if err != nil {
		return nil, err
	}
	path, err := configPath(s.StackConfig)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadStackConfig(path)
	if err != nil {
		return nil, err
	}
	env, err := stackmode.Resolve(cfg, filepath.Dir(path), stackEnvFlag)
	if err != nil {
		return nil, err
	}
	if err := confirmProduction(env); err != nil {
		return nil, err
	}
	return &stackSession{env: env, base: environ.FromOS()}, nil
}

// confirmProduction asks before anything runs against a production environment, unless --yes was passed.
func confirmProduction(env *stackmode.Environment) error {
	if !env.Production || global.AssumeYes {
		return nil
	}
	ok, err := console.InteractiveBool{
		Prompt:         fmt.Sprintf("You are going to run on the PRODUCTION environment %s. Confirm?", env.Name),
		Default:        false,
		NonDefaultFlag: "--yes",
		In:             confirmInput,
	}.Read()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("Aborted")
	}
	return nil
}

// vars is the environment without env files: STACK_NAME and DOCKER_HOST applied.
func (s *stackSession) vars() environ.Environ {
	return s.env.Environ(s.base)
}

// loadedVars is vars plus the environment's secrets and env files.
func (s *stackSession) loadedVars(ctx context.Context) (environ.Environ, error) {
	return s.env.LoadEnv(ctx, s.base)
}

func (s *stackSession) host() (string, error) {
	return docker.DetermineHost(s.vars())
}

// manager returns a client for the engine the environment deploys to.
func (s *stackSession) manager(ctx context.Context, cache *docker.ClientCache) (docker.Engine, error) {
	host, err := s.host()
	if err != nil {
		return nil, err
	}
	return cache.Get(ctx, host)
}

// locate finds a running container of service. It returns nil without an error when the service
// has no running container, after telling the user.
func (s *stackSession) locate(ctx context.Context, cache *docker.ClientCache, service string) (*docker.RemoteContainer, error) {
	if err := s.env.EnsureService(service); err != nil {
		return nil, err
	}
	host, err := s.host()
	if err != nil {
		return nil, err
	}
	fqsn := s.env.FullServiceName(service)
	rc, err := docker.NewLocator(cache, host, s.env.DockerUser).Locate(ctx, fqsn)
	if err != nil {
		if errors.IsNotRunning(err) {
			console.Warnf("No running container found for %s", fqsn)
			return nil, nil
		}
		return nil, err
	}
	return rc, nil
}

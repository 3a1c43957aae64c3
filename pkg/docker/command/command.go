// Package command builds the docker and docker-compose invocations the CLI runs, and runs them.
//
// Everything that turns resolved configuration into a command line lives here as plain functions
// over their inputs, so command lines can be checked without running anything.
package command

import (
	"fmt"
	"strings"

	"github.com/sungazer-io/swarm-cli/pkg/environ"
	"github.com/sungazer-io/swarm-cli/pkg/util/shell"
)

type Action string

const (
	Build  Action = "build"
	Push   Action = "push"
	Deploy Action = "deploy"
)

// Cmd is a process to run. Env is the complete environment the process sees.
type Cmd struct {
	Path string
	Args []string
	Env  environ.Environ
	Dir  string
}

// Argv is Path followed by Args.
func (c *Cmd) Argv() []string {
	return append([]string{c.Path}, c.Args...)
}

// String renders the command as a line that could be pasted into sh.
func (c *Cmd) String() string {
	return shell.Join(c.Argv())
}

// ComposeArgs is "-f <file>" for every file, in order.
func ComposeArgs(files []string) []string {
	return repeatFlag("-f", files)
}

// StackArgs is "-c <file>" for every file, in order.
func StackArgs(files []string) []string {
	return repeatFlag("-c", files)
}

// ComposeSequence renders ComposeArgs as a single string.
func ComposeSequence(files []string) string {
	return shell.Join(ComposeArgs(files))
}

// DeploySequence renders StackArgs as a single string.
func DeploySequence(files []string) string {
	return shell.Join(StackArgs(files))
}

func repeatFlag(flag string, values []string) []string {
	args := make([]string, 0, 2*len(values))
	for _, v := range values {
		args = append(args, flag, v)
	}
	return args
}

// LocalEnv is env without DOCKER_HOST, for commands that must talk to the local engine.
func LocalEnv(env environ.Environ) environ.Environ {
	return env.Without("DOCKER_HOST")
}

// RemoteEnv points env at host. An empty host means the local engine.
func RemoteEnv(env environ.Environ, host string) environ.Environ {
	if host == "" {
		return LocalEnv(env)
	}
	return env.With("DOCKER_HOST", host)
}

// Builder knows which executables stand for docker and docker-compose.
type Builder struct {
	docker  []string
	compose []string
}

// NewBuilder splits the configured command strings, so "docker compose" works as a compose command.
func NewBuilder(dockerCommand string, composeCommand string) (*Builder, error) {
	docker, err := shell.Split(dockerCommand)
	if err != nil || len(docker) == 0 {
		return nil, fmt.Errorf("invalid docker command %q", dockerCommand)
	}
	compose, err := shell.Split(composeCommand)
	if err != nil || len(compose) == 0 {
		return nil, fmt.Errorf("invalid compose command %q", composeCommand)
	}
	return &Builder{docker: docker, compose: compose}, nil
}

func (b *Builder) newCmd(base []string, env environ.Environ, args ...string) *Cmd {
	all := append(append([]string{}, base[1:]...), args...)
	return &Cmd{Path: base[0], Args: all, Env: env}
}

// Docker runs the docker executable with args and env unchanged.
func (b *Builder) Docker(env environ.Environ, args ...string) *Cmd {
	return b.newCmd(b.docker, env, args...)
}

// Compose is "docker-compose -f ... <action> [extra]" against the local engine.
func (b *Builder) Compose(files []string, action Action, env environ.Environ, extra ...string) *Cmd {
	args := append(ComposeArgs(files), string(action))
	args = append(args, extra...)
	return b.newCmd(b.compose, LocalEnv(env), args...)
}

// StackDeploy is "docker stack deploy -c ... [--with-registry-auth] [extra] <stack>". env decides which engine it reaches.
func (b *Builder) StackDeploy(files []string, stackName string, withRegistryAuth bool, env environ.Environ, extra ...string) *Cmd {
	args := append([]string{"stack", "deploy"}, StackArgs(files)...)
	if withRegistryAuth {
		args = append(args, "--with-registry-auth")
	}
	args = append(args, extra...)
	args = append(args, stackName)
	return b.newCmd(b.docker, env, args...)
}

// StackPs is "docker stack ps <stack> [extra]".
func (b *Builder) StackPs(stackName string, env environ.Environ, extra ...string) *Cmd {
	args := append([]string{"stack", "ps", stackName}, extra...)
	return b.newCmd(b.docker, env, args...)
}

// NetworkCreate is the command equivalent of creating an attachable overlay network.
func (b *Builder) NetworkCreate(name string, env environ.Environ) *Cmd {
	return b.newCmd(b.docker, env, "network", "create", "--driver", "overlay", "--attachable", name)
}

// Exec is "docker exec [-t] [-i] <container> <cmd> [args]" on host.
func (b *Builder) Exec(host string, env environ.Environ, containerID string, tty bool, interactive bool, cmd string, args ...string) *Cmd {
	all := []string{"exec"}
	if tty {
		all = append(all, "-t")
	}
	if interactive {
		all = append(all, "-i")
	}
	all = append(all, containerID, cmd)
	all = append(all, args...)
	return b.newCmd(b.docker, RemoteEnv(env, host), all...)
}

// Shell opens sh in the container, or runs script with sh -c when it is not empty.
// Without tty the pseudo-terminal is not requested, so piped input still works.
func (b *Builder) Shell(host string, env environ.Environ, containerID string, tty bool, script string) *Cmd {
	if script == "" {
		return b.Exec(host, env, containerID, tty, true, "sh")
	}
	return b.Exec(host, env, containerID, tty, true, "sh", "-c", script)
}

// ShellCommand runs words joined by spaces through sh -c, so the user can write pipelines and expansions.
func ShellCommand(env environ.Environ, words []string) *Cmd {
	return &Cmd{Path: "sh", Args: []string{"-c", strings.Join(words, " ")}, Env: env}
}

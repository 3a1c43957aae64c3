package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sungazer-io/swarm-cli/pkg/compose"
	"github.com/sungazer-io/swarm-cli/pkg/docker"
	"github.com/sungazer-io/swarm-cli/pkg/docker/command"
	"github.com/sungazer-io/swarm-cli/pkg/util/console"
)

var (
	tailFlag            string
	followFlag          bool
	execTTYFlag         bool
	execInteractiveFlag bool
)

func newStackListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List the services of the environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadStack()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available services:")
			for _, name := range session.env.ServiceNames() {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}

func newStackLogsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs SERVICE",
		Short: "Show the logs of a running container of a service",
		Args:  cobra.ExactArgs(1),
		RunE:  stackLogs,
	}
	cmd.Flags().StringVar(&tailFlag, "tail", "100", "Number of lines to show from the end, or \"all\"")
	cmd.Flags().BoolVarP(&followFlag, "follow", "f", true, "Keep streaming new output")
	return cmd
}

func stackLogs(cmd *cobra.Command, args []string) error {
	session, err := loadStack()
	if err != nil {
		return err
	}
	cache := docker.NewClientCache(engineFactory)
	defer cache.Close()

	rc, err := session.locate(cmd.Context(), cache, args[0])
	if err != nil || rc == nil {
		return err
	}
	return rc.Logs(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), followFlag, tailFlag)
}

func buildStack(cmd *cobra.Command, session *stackSession, tc *toolchain) error {
	vars, err := session.loadedVars(cmd.Context())
	if err != nil {
		return err
	}
	return tc.run(cmd, tc.builder.Compose(session.env.StackFiles, command.Build, vars))
}

func pushStack(cmd *cobra.Command, session *stackSession, tc *toolchain) error {
	vars, err := session.loadedVars(cmd.Context())
	if err != nil {
		return err
	}
	return tc.run(cmd, tc.builder.Compose(session.env.StackFiles, command.Push, vars))
}

func deployStack(cmd *cobra.Command, session *stackSession, tc *toolchain) error {
	vars, err := session.loadedVars(cmd.Context())
	if err != nil {
		return err
	}
	env := session.env
	return tc.run(cmd, tc.builder.StackDeploy(env.StackFiles, env.StackName, true, vars, env.DeployArgs...))
}

type stackStep func(cmd *cobra.Command, session *stackSession, tc *toolchain) error

// newStackStepsCommand runs steps in order and stops at the first one that fails.
func newStackStepsCommand(use string, short string, steps ...stackStep) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadStack()
			if err != nil {
				return err
			}
			tc, err := newToolchain(dryRunFlag)
			if err != nil {
				return err
			}
			for _, step := range steps {
				if err := step(cmd, session, tc); err != nil {
					return err
				}
			}
			return nil
		},
	}
	addDryRunFlag(cmd)
	return cmd
}

func newStackBuildCommand() *cobra.Command {
	return newStackStepsCommand("build", "Build the environment's images with docker-compose", buildStack)
}

func newStackPushCommand() *cobra.Command {
	return newStackStepsCommand("push", "Push the environment's images", pushStack)
}

func newStackDeployCommand() *cobra.Command {
	return newStackStepsCommand("deploy", "Deploy the environment as a swarm stack", deployStack)
}

func newStackBPDCommand() *cobra.Command {
	return newStackStepsCommand("bpd", "Build, push and deploy", buildStack, pushStack, deployStack)
}

func newStackRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Remove every service of the environment from the swarm",
		Args:  cobra.NoArgs,
		RunE:  stackRemove,
	}
	addDryRunFlag(cmd)
	return cmd
}

func stackRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	session, err := loadStack()
	if err != nil {
		return err
	}
	cache := docker.NewClientCache(engineFactory)
	defer cache.Close()

	var engine docker.Engine
	if !dryRunFlag {
		if engine, err = session.manager(ctx, cache); err != nil {
			return err
		}
	}
	for _, service := range session.env.ServiceNames() {
		fqsn := session.env.FullServiceName(service)
		if dryRunFlag {
			console.Infof("Would remove %s", fqsn)
			continue
		}
		id, err := docker.RemoveService(ctx, engine, fqsn)
		if err != nil {
			if docker.IsNotFound(err) {
				console.Warnf("Service %s is not deployed", fqsn)
				continue
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removing %s - %s\n", fqsn, id)
	}
	return nil
}

func newStackShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sh SERVICE [COMMAND]",
		Short: "Open a shell in a running container of a service, or run COMMAND with sh -c",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			script := ""
			if len(args) > 1 {
				script = args[1]
			}
			return attach(cmd, args[0], func(tc *toolchain, rc *docker.RemoteContainer, session *stackSession) *command.Cmd {
				return tc.builder.Shell(rc.Host, session.vars(), rc.ContainerID, console.IsTTY(os.Stdin), script)
			})
		},
	}
}

func newStackExecCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec SERVICE COMMAND [ARGS...]",
		Short: "Run a command in a running container of a service",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return attach(cmd, args[0], func(tc *toolchain, rc *docker.RemoteContainer, session *stackSession) *command.Cmd {
				return tc.builder.Exec(rc.Host, session.vars(), rc.ContainerID, execTTYFlag, execInteractiveFlag, args[1], args[2:]...)
			})
		},
	}
	cmd.Flags().BoolVarP(&execTTYFlag, "tty", "t", false, "Allocate a pseudo-TTY")
	cmd.Flags().BoolVarP(&execInteractiveFlag, "interactive", "i", false, "Keep STDIN open")
	// everything after the service name belongs to the command
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// attach locates a container of service and runs the command build returns against its node.
func attach(cmd *cobra.Command, service string, build func(*toolchain, *docker.RemoteContainer, *stackSession) *command.Cmd) error {
	session, err := loadStack()
	if err != nil {
		return err
	}
	tc, err := newToolchain(false)
	if err != nil {
		return err
	}
	cache := docker.NewClientCache(engineFactory)
	defer cache.Close()

	rc, err := session.locate(cmd.Context(), cache, service)
	if err != nil || rc == nil {
		return err
	}
	console.Infof("Attaching to '%s'", rc.ContainerID)
	return tc.run(cmd, build(tc, rc, session))
}

func newStackPsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ps [ARGS...]",
		Short: "List the tasks of the environment's stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadStack()
			if err != nil {
				return err
			}
			tc, err := newToolchain(false)
			if err != nil {
				return err
			}
			return tc.run(cmd, tc.builder.StackPs(session.env.StackName, session.vars(), args...))
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newStackEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print the environment commands of this environment run with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadStack()
			if err != nil {
				return err
			}
			vars, err := session.loadedVars(cmd.Context())
			if err != nil {
				return err
			}
			printEnviron(cmd, vars)
			return nil
		},
	}
}

func newStackRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run COMMAND...",
		Short: "Run a shell command with the environment's variables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadStack()
			if err != nil {
				return err
			}
			vars, err := session.loadedVars(cmd.Context())
			if err != nil {
				return err
			}
			tc, err := newToolchain(dryRunFlag)
			if err != nil {
				return err
			}
			return tc.run(cmd, command.ShellCommand(vars, args))
		},
	}
	addDryRunFlag(cmd)
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newStackPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports [SERVICE...]",
		Short: "Show the ports services publish",
		RunE:  stackPorts,
	}
}

func stackPorts(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	session, err := loadStack()
	if err != nil {
		return err
	}
	services := args
	if len(services) == 0 {
		services = session.env.ServiceNames()
	}
	for _, service := range services {
		if err := session.env.EnsureService(service); err != nil {
			return err
		}
	}

	cache := docker.NewClientCache(engineFactory)
	defer cache.Close()
	engine, err := session.manager(ctx, cache)
	if err != nil {
		return err
	}
	for _, service := range services {
		fqsn := session.env.FullServiceName(service)
		ports, err := docker.ServicePorts(ctx, engine, fqsn)
		if err != nil {
			if docker.IsNotFound(err) {
				console.Errorf("No service found %s", fqsn)
				continue
			}
			return err
		}
		docker.PrintPorts(cmd.OutOrStdout(), fqsn, ports)
	}
	return nil
}

func newStackForceUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "force-update SERVICE...",
		Short: "Restart the tasks of services without changing them",
		Args:  cobra.MinimumNArgs(1),
		RunE:  stackForceUpdate,
	}
}

func stackForceUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	session, err := loadStack()
	if err != nil {
		return err
	}
	for _, service := range args {
		if err := session.env.EnsureService(service); err != nil {
			return err
		}
	}

	cache := docker.NewClientCache(engineFactory)
	defer cache.Close()
	engine, err := session.manager(ctx, cache)
	if err != nil {
		return err
	}
	for _, service := range args {
		fqsn := session.env.FullServiceName(service)
		warnings, err := docker.ForceUpdate(ctx, engine, fqsn)
		if err != nil {
			if docker.IsNotFound(err) {
				console.Errorf("No service found %s", fqsn)
				continue
			}
			return err
		}
		for _, w := range warnings {
			console.Warn(w)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", fqsn)
	}
	return nil
}

func newStackConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the merged compose configuration of the environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadStack()
			if err != nil {
				return err
			}
			vars, err := session.loadedVars(cmd.Context())
			if err != nil {
				return err
			}
			rendered, err := compose.Render(cmd.Context(), compose.Options{
				Files:       session.env.StackFiles,
				ProjectName: session.env.StackName,
				Env:         vars,
			})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(rendered)
			return err
		},
	}
}

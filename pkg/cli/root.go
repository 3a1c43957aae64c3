package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sungazer-io/swarm-cli/pkg/config"
	"github.com/sungazer-io/swarm-cli/pkg/docker"
	"github.com/sungazer-io/swarm-cli/pkg/docker/command"
	"github.com/sungazer-io/swarm-cli/pkg/global"
	"github.com/sungazer-io/swarm-cli/pkg/settings"
	"github.com/sungazer-io/swarm-cli/pkg/util/console"
)

var configFlag string
var dryRunFlag bool

// newRunner and engineFactory are replaced in tests.
var newRunner = func(dryRun bool) command.Runner {
	return command.NewExecRunner(dryRun)
}
var engineFactory docker.Factory = docker.DefaultFactory

func NewRootCommand() (*cobra.Command, error) {
	rootCmd := cobra.Command{
		Use:     "swarm-cli",
		Short:   "Build and deploy docker swarm stacks from layered configuration",
		Version: fmt.Sprintf("%s (built %s)", global.Version, global.BuildTime),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			console.SetLevel(console.LevelFromVerbosity(global.Verbosity))
			s, err := settings.Load()
			if err != nil {
				return err
			}
			console.SetColor(console.ColorEnabled(s.NoColor))
			cmd.SilenceUsage = true
			return nil
		},
		// This stops errors being printed because we print them in cmd/swarm-cli/main.go
		SilenceErrors: true,
	}
	setPersistentFlags(&rootCmd)

	rootCmd.AddCommand(
		newPrintenvCommand(),
		newSwarmCommand(),
		newStackCommand(),
	)

	return &rootCmd, nil
}

func setPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().CountVarP(&global.Verbosity, "verbose", "v", "Increase verbosity, repeat for more (-vvv)")
	cmd.PersistentFlags().BoolVarP(&global.AssumeYes, "yes", "y", false, "Don't ask for confirmation before touching a production environment")
}

func addConfigFlag(cmd *cobra.Command, defaultName string) {
	cmd.PersistentFlags().StringVar(&configFlag, "config", "", fmt.Sprintf("Config file, defaults to the nearest %s", defaultName))
}

func addDryRunFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Print commands instead of running them")
}

// configPath returns the absolute path of --config, or of the nearest file called name.
func configPath(name string) (string, error) {
	if configFlag != "" {
		return filepath.Abs(configFlag)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return config.FindConfigFile(cwd, name)
}

// toolchain is what every command that spawns docker needs.
type toolchain struct {
	settings *settings.Settings
	builder  *command.Builder
	runner   command.Runner
}

func newToolchain(dryRun bool) (*toolchain, error) {
	s, err := settings.Load()
	if err != nil {
		return nil, err
	}
	builder, err := command.NewBuilder(s.DockerCommand, s.ComposeCommand)
	if err != nil {
		return nil, err
	}
	return &toolchain{settings: s, builder: builder, runner: newRunner(dryRun)}, nil
}

func (t *toolchain) run(cmd *cobra.Command, c *command.Cmd) error {
	return command.RunChecked(cmd.Context(), t.runner, c)
}

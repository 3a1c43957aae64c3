package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sungazer-io/swarm-cli/pkg/config"
	"github.com/sungazer-io/swarm-cli/pkg/environ"
	"github.com/sungazer-io/swarm-cli/pkg/settings"
	"github.com/sungazer-io/swarm-cli/pkg/swarmmode"
	"github.com/sungazer-io/swarm-cli/pkg/util/files"
)

var envFilesFlag []string
var presetFlag string

func newSwarmCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swarm",
		Short: "Work with the layers and presets of swarm-config.yml",
	}
	addConfigFlag(cmd, "swarm-config.yml")
	cmd.PersistentFlags().StringArrayVarP(&envFilesFlag, "environment", "e", nil, "Env file to load before anything else, can be repeated")

	cmd.AddCommand(newPresetCommand())
	return cmd
}

func newPresetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Build, push and deploy the stacks a preset selects",
	}
	cmd.AddCommand(
		newPresetListCommand(),
		newPresetBuildCommand(),
		newPresetPushCommand(),
		newPresetDeployCommand(),
		newPresetSetupCommand(),
		newPresetConfigCommand(),
	)
	return cmd
}

func addPresetFlag(cmd *cobra.Command, required bool) {
	cmd.Flags().StringVarP(&presetFlag, "preset", "p", "", "Select a preset")
	if required {
		_ = cmd.MarkFlagRequired("preset")
	}
}

// swarmSession is a loaded swarm config plus the environment its commands start from.
type swarmSession struct {
	state *swarmmode.State
	base  environ.Environ
}

func loadSwarm(ctx context.Context) (*swarmSession, error) {
	s, err := settings.Load()
	if err != nil {
		return nil, err
	}
	path, err := configPath(s.SwarmConfig)
	if err != nil {
		return nil, err
	}
	state, err := swarmmode.Load(path, s.BuildDir)
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	envFiles := make([]string, 0, len(envFilesFlag))
	for _, f := range envFilesFlag {
		abs, err := files.ExpandPath(cwd, f)
		if err != nil {
			return nil, err
		}
		envFiles = append(envFiles, abs)
	}
	base, err := state.BaseEnviron(ctx, environ.FromOS(), envFiles)
	if err != nil {
		return nil, err
	}
	return &swarmSession{state: state, base: base}, nil
}

// presetStack is one selected stack of a preset with the environment its commands run with.
type presetStack struct {
	config.StackSelection
	Files []string
	Env   environ.Environ
}

// presetStacks validates the preset before returning anything, so a bad preset never half-runs.
func (s *swarmSession) presetStacks(ctx context.Context, name string) (*config.Preset, []presetStack, error) {
	preset, err := s.state.EnsurePreset(name)
	if err != nil {
		return nil, nil, err
	}
	env, err := s.state.PresetEnviron(ctx, s.base, preset)
	if err != nil {
		return nil, nil, err
	}
	stacks := make([]presetStack, 0, len(preset.Stacks))
	for _, sel := range preset.Stacks {
		stacks = append(stacks, presetStack{
			StackSelection: sel,
			Files:          s.state.ComposeFiles(sel.Name, sel.Variant),
			Env:            s.state.StackEnviron(env, preset, sel.Name),
		})
	}
	return preset, stacks, nil
}

func (s *swarmSession) relative(path string) string {
	if rel, err := filepath.Rel(s.state.RootPath, path); err == nil {
		return rel
	}
	return path
}

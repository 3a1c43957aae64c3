package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sungazer-io/swarm-cli/pkg/compose"
	"github.com/sungazer-io/swarm-cli/pkg/docker"
	"github.com/sungazer-io/swarm-cli/pkg/docker/command"
	"github.com/sungazer-io/swarm-cli/pkg/util/console"
	"github.com/sungazer-io/swarm-cli/pkg/util/shell"
)

func newPresetListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List presets and the stacks they select",
		Args:  cobra.NoArgs,
		RunE:  presetList,
	}
	addPresetFlag(cmd, false)
	return cmd
}

func presetList(cmd *cobra.Command, args []string) error {
	session, err := loadSwarm(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if presetFlag != "" {
		preset, err := session.state.EnsurePreset(presetFlag)
		if err != nil {
			return err
		}
		for _, sel := range preset.Stacks {
			fmt.Fprintln(out, sel.String())
		}
		return nil
	}
	for _, preset := range session.state.Config.Presets {
		fmt.Fprintf(out, "Preset %s\n", preset.Name)
		for _, sel := range preset.Stacks {
			fmt.Fprintf(out, "  - %s\n", sel.String())
		}
	}
	return nil
}

func newPresetBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build every stack of a preset with docker-compose",
		Args:  cobra.NoArgs,
		RunE:  presetBuild,
	}
	addPresetFlag(cmd, true)
	addDryRunFlag(cmd)
	return cmd
}

func presetBuild(cmd *cobra.Command, args []string) error {
	session, err := loadSwarm(cmd.Context())
	if err != nil {
		return err
	}
	_, stacks, err := session.presetStacks(cmd.Context(), presetFlag)
	if err != nil {
		return err
	}
	tc, err := newToolchain(dryRunFlag)
	if err != nil {
		return err
	}

	for _, stack := range stacks {
		folder := session.state.BuildFolder(presetFlag, stack.Name, stack.Variant)
		if !dryRunFlag {
			folder, err = session.state.PrepareBuildFolder(presetFlag, stack.Name, stack.Variant)
			if err != nil {
				return err
			}
		}
		console.Infof("Building %s in %s", stack.StackSelection, session.relative(folder))
		c := tc.builder.Compose(stack.Files, command.Build, stack.Env)
		c.Dir = folder
		if err := tc.run(cmd, c); err != nil {
			return err
		}
	}
	return nil
}

func newPresetPushCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push the images of every stack of a preset",
		Args:  cobra.NoArgs,
		RunE:  presetPush,
	}
	addPresetFlag(cmd, true)
	addDryRunFlag(cmd)
	return cmd
}

func presetPush(cmd *cobra.Command, args []string) error {
	session, err := loadSwarm(cmd.Context())
	if err != nil {
		return err
	}
	_, stacks, err := session.presetStacks(cmd.Context(), presetFlag)
	if err != nil {
		return err
	}
	tc, err := newToolchain(dryRunFlag)
	if err != nil {
		return err
	}

	for _, stack := range stacks {
		console.Infof("Pushing %s", stack.StackSelection)
		if err := tc.run(cmd, tc.builder.Compose(stack.Files, command.Push, stack.Env)); err != nil {
			return err
		}
	}
	return nil
}

func newPresetDeployCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy every stack of a preset to the swarm",
		Args:  cobra.NoArgs,
		RunE:  presetDeploy,
	}
	addPresetFlag(cmd, true)
	addDryRunFlag(cmd)
	return cmd
}

func presetDeploy(cmd *cobra.Command, args []string) error {
	session, err := loadSwarm(cmd.Context())
	if err != nil {
		return err
	}
	preset, stacks, err := session.presetStacks(cmd.Context(), presetFlag)
	if err != nil {
		return err
	}
	extra, err := shell.Split(preset.DeployArgs)
	if err != nil {
		return fmt.Errorf("invalid deploy_args of preset %s: %w", preset.Name, err)
	}
	tc, err := newToolchain(dryRunFlag)
	if err != nil {
		return err
	}

	for _, stack := range stacks {
		console.Infof("Deploying %s", stack.StackSelection)
		c := tc.builder.StackDeploy(stack.Files, stack.Name, false, stack.Env, extra...)
		if err := tc.run(cmd, c); err != nil {
			return err
		}
	}
	return nil
}

func newPresetSetupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the external overlay networks the stacks of a preset expect",
		Args:  cobra.NoArgs,
		RunE:  presetSetup,
	}
	addPresetFlag(cmd, true)
	addDryRunFlag(cmd)
	return cmd
}

func presetSetup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	session, err := loadSwarm(ctx)
	if err != nil {
		return err
	}
	_, stacks, err := session.presetStacks(ctx, presetFlag)
	if err != nil {
		return err
	}
	tc, err := newToolchain(dryRunFlag)
	if err != nil {
		return err
	}

	cache := docker.NewClientCache(engineFactory)
	defer cache.Close()

	for _, stack := range stacks {
		host, err := docker.DetermineHost(stack.Env)
		if err != nil {
			return err
		}
		for _, name := range session.state.ExternalNetworks(stack.Name, stack.Variant) {
			if dryRunFlag {
				if _, err := tc.runner.Run(ctx, tc.builder.NetworkCreate(name, stack.Env)); err != nil {
					return err
				}
				continue
			}
			engine, err := cache.Get(ctx, host)
			if err != nil {
				return err
			}
			created, err := docker.EnsureOverlayNetwork(ctx, engine, name)
			if err != nil {
				return err
			}
			if created {
				console.Infof("Created overlay network %s", name)
			} else {
				console.Verbosef("Network %s already exists", name)
			}
		}
	}
	return nil
}

func newPresetConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the merged compose configuration of every stack of a preset",
		Args:  cobra.NoArgs,
		RunE:  presetConfig,
	}
	addPresetFlag(cmd, true)
	return cmd
}

func presetConfig(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	session, err := loadSwarm(ctx)
	if err != nil {
		return err
	}
	_, stacks, err := session.presetStacks(ctx, presetFlag)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, stack := range stacks {
		rendered, err := compose.Render(ctx, compose.Options{
			Files:       stack.Files,
			ProjectName: stack.Name,
			Env:         stack.Env,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", stack.StackSelection, err)
		}
		fmt.Fprintf(out, "# %s\n%s", stack.StackSelection, rendered)
	}
	return nil
}

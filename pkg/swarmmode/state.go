package swarmmode

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sungazer-io/swarm-cli/pkg/config"
	"github.com/sungazer-io/swarm-cli/pkg/environ"
	"github.com/sungazer-io/swarm-cli/pkg/errors"
	"github.com/sungazer-io/swarm-cli/pkg/util/console"
	"github.com/sungazer-io/swarm-cli/pkg/util/files"
)

// State is a loaded swarm-config.yml together with the layers it lists.
type State struct {
	Config *config.SwarmConfig
	// RootPath is the directory holding the config file. Relative paths in the config are resolved against it.
	RootPath string
	// BuildDir is the absolute directory build folders are created in.
	BuildDir string
	Layers   []*Layer
}

// Load reads the swarm config at path and every layer it declares, in declaration order.
// buildDir is resolved against the config's directory when relative.
func Load(path string, buildDir string) (*State, error) {
	cfg, err := config.LoadSwarmConfig(path)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	build, err := files.ExpandPath(root, buildDir)
	if err != nil {
		return nil, err
	}

	state := &State{Config: cfg, RootPath: root, BuildDir: build}
	for _, layerPath := range cfg.Layers {
		abs, err := files.ExpandPath(root, layerPath)
		if err != nil {
			return nil, err
		}
		console.Verbosef("Parsing layer %s", layerPath)
		layer, err := LoadLayer(abs)
		if err != nil {
			return nil, err
		}
		state.Layers = append(state.Layers, layer)
	}
	return state, nil
}

// Preset returns the preset called name, or an UnknownPreset error.
func (s *State) Preset(name string) (*config.Preset, error) {
	preset, ok := s.Config.Presets.Get(name)
	if !ok {
		return nil, errors.UnknownPreset(name)
	}
	return preset, nil
}

// EnsurePreset checks that every stack the preset selects is defined by at least one layer.
// It touches nothing on disk, so callers run it before any build or deploy step.
func (s *State) EnsurePreset(name string) (*config.Preset, error) {
	preset, err := s.Preset(name)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, sel := range preset.Stacks {
		if len(s.LayeredStacks(sel.Name, sel.Variant)) == 0 {
			missing = append(missing, sel.String())
		}
	}
	if len(missing) > 0 {
		return nil, errors.StackNotFound(name, missing...)
	}
	return preset, nil
}

// LayeredStacks returns every definition of (name, variant), in layer order.
func (s *State) LayeredStacks(name string, variant string) []*Stack {
	var stacks []*Stack
	for _, layer := range s.Layers {
		if stack := layer.Get(name, variant); stack != nil {
			stacks = append(stacks, stack)
		}
	}
	return stacks
}

// ComposeFiles returns the absolute compose file paths for (name, variant), in layer order.
func (s *State) ComposeFiles(name string, variant string) []string {
	var paths []string
	for _, stack := range s.LayeredStacks(name, variant) {
		paths = append(paths, stack.ComposePath())
	}
	return paths
}

// ExternalNetworks returns the external networks any layer of (name, variant) expects, without duplicates.
func (s *State) ExternalNetworks(name string, variant string) []string {
	seen := map[string]bool{}
	var names []string
	for _, stack := range s.LayeredStacks(name, variant) {
		for _, network := range stack.ExternalNetworks() {
			if !seen[network] {
				seen[network] = true
				names = append(names, network)
			}
		}
	}
	return names
}

// BuildFolder is <build dir>/<preset>/<name>/<variant>.
func (s *State) BuildFolder(preset string, name string, variant string) string {
	return filepath.Join(s.BuildDir, preset, name, variant)
}

// PrepareBuildFolder empties the build folder of (name, variant) and fills it with the files_dir of
// every layer, in layer order. A file present in several layers ends up with the last layer's content.
func (s *State) PrepareBuildFolder(preset string, name string, variant string) (string, error) {
	folder := s.BuildFolder(preset, name, variant)
	if err := files.ResetDir(folder); err != nil {
		return "", err
	}
	for _, stack := range s.LayeredStacks(name, variant) {
		src := stack.FilesPath()
		isDir, err := files.IsDir(src)
		if err != nil || !isDir {
			continue
		}
		console.Debugf("Preparing folder %s", src)
		if err := files.MergeTree(src, filepath.Join(folder, stack.FilesDir)); err != nil {
			return "", fmt.Errorf("Failed to copy %s into %s: %w", src, folder, err)
		}
	}
	return folder, nil
}

// BaseEnviron is base plus the -e env files, which must exist, plus the config's environment section.
// Nothing already in base is replaced.
func (s *State) BaseEnviron(ctx context.Context, base environ.Environ, envFiles []string) (environ.Environ, error) {
	env, err := environ.LoadFiles(ctx, base, envFiles, false, false)
	if err != nil {
		return environ.Environ{}, err
	}
	return env.Merge(s.Config.Environment, false), nil
}

// PresetEnviron adds the preset's env_files to base. Missing files are skipped.
func (s *State) PresetEnviron(ctx context.Context, base environ.Environ, preset *config.Preset) (environ.Environ, error) {
	paths := make([]string, 0, len(preset.EnvFiles))
	for _, p := range preset.EnvFiles {
		abs, err := files.ExpandPath(s.RootPath, p)
		if err != nil {
			return environ.Environ{}, err
		}
		paths = append(paths, abs)
	}
	return environ.LoadFiles(ctx, base, paths, true, false)
}

// StackEnviron is the environment commands for one stack of a preset run with.
// The preset's environment section replaces existing values and STACK_NAME is the stack's name.
func (s *State) StackEnviron(base environ.Environ, preset *config.Preset, name string) environ.Environ {
	return base.Merge(preset.Environment, true).With("STACK_NAME", name)
}

// Package compose merges a stack's compose files the way docker-compose would, for display.
package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/compose-spec/compose-go/v2/loader"
	composetypes "github.com/compose-spec/compose-go/v2/types"

	"github.com/sungazer-io/swarm-cli/pkg/environ"
	"github.com/sungazer-io/swarm-cli/pkg/util/console"
)

type Options struct {
	// Files are merged in order, later files override earlier ones.
	Files       []string
	ProjectName string
	// Env is used for variable interpolation. The process environment is never consulted.
	Env environ.Environ
	// WorkingDir defaults to the directory of the first file.
	WorkingDir string
}

// Load parses and merges the compose files into one project.
func Load(ctx context.Context, opts Options) (*composetypes.Project, error) {
	if len(opts.Files) == 0 {
		return nil, errors.New("no compose files specified")
	}

	configFiles := make([]composetypes.ConfigFile, 0, len(opts.Files))
	for _, path := range opts.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read compose file %s: %w", path, err)
		}
		configFiles = append(configFiles, composetypes.ConfigFile{Filename: path, Content: data})
	}

	workingDir := opts.WorkingDir
	if workingDir == "" {
		workingDir = filepath.Dir(opts.Files[0])
	}

	details := composetypes.ConfigDetails{
		WorkingDir:  workingDir,
		ConfigFiles: configFiles,
		Environment: composetypes.Mapping(opts.Env.Map()),
	}

	console.Debugf("Loading compose project %s from %d files", opts.ProjectName, len(opts.Files))
	project, err := loader.LoadWithContext(ctx, details, func(o *loader.Options) {
		if opts.ProjectName != "" {
			o.SetProjectName(loader.NormalizeProjectName(opts.ProjectName), true)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load compose files: %w", err)
	}
	return project, nil
}

// Render returns the merged configuration as YAML.
func Render(ctx context.Context, opts Options) ([]byte, error) {
	project, err := Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return project.MarshalYAML()
}

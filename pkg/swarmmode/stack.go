// Package swarmmode resolves the layers and presets declared in swarm-config.yml.
package swarmmode

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/sungazer-io/swarm-cli/pkg/config"
	"github.com/sungazer-io/swarm-cli/pkg/errors"
)

const stackFileSuffix = ".stack.yml"

// Stack is one <name>_<variant>.stack.yml file found in a layer.
type Stack struct {
	Name    string
	Variant string
	// RootPath is the directory holding the .stack.yml file.
	RootPath string
	// StackFile and FilesDir are relative to RootPath.
	StackFile  string
	FilesDir   string
	Definition *config.ComposeDocument
}

// ParseStackFilename splits "api_prod" or "api_prod.stack.yml" into ("api", "prod").
func ParseStackFilename(filename string) (name string, variant string, err error) {
	base := strings.TrimSuffix(filepath.Base(filename), stackFileSuffix)
	parts := strings.Split(base, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.InvalidStackFilename(filepath.Base(filename))
	}
	return parts[0], parts[1], nil
}

// LoadStack reads a .stack.yml file and the compose file it points at.
func LoadStack(path string) (*Stack, error) {
	name, variant, err := ParseStackFilename(path)
	if err != nil {
		return nil, err
	}
	overrides, err := config.LoadStackFile(path)
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	stack := &Stack{
		Name:      name,
		Variant:   variant,
		RootPath:  root,
		StackFile: config.DefaultStackFile,
		FilesDir:  config.DefaultFilesDir,
	}
	if overrides.Name != "" {
		stack.Name = overrides.Name
	}
	if overrides.Variant != "" {
		stack.Variant = overrides.Variant
	}
	if overrides.StackFile != "" {
		stack.StackFile = overrides.StackFile
	}
	if overrides.FilesDir != "" {
		stack.FilesDir = overrides.FilesDir
	}

	stack.Definition, err = config.LoadComposeDocument(stack.ComposePath())
	if err != nil {
		return nil, err
	}
	return stack, nil
}

func (s *Stack) String() string {
	return s.Name + ":" + s.Variant
}

// ComposePath is the absolute path of the stack's compose file.
func (s *Stack) ComposePath() string {
	return filepath.Join(s.RootPath, s.StackFile)
}

// FilesPath is the absolute path of the stack's static files directory, which may not exist.
func (s *Stack) FilesPath() string {
	return filepath.Join(s.RootPath, s.FilesDir)
}

// ExternalNetworks returns the engine names of the networks the stack expects to already exist, sorted.
func (s *Stack) ExternalNetworks() []string {
	var names []string
	for key, network := range s.Definition.Networks {
		if !network.External.Enabled {
			continue
		}
		name := key
		switch {
		case network.External.Name != "":
			name = network.External.Name
		case network.Name != "":
			name = network.Name
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

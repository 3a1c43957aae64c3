package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/sungazer-io/swarm-cli/pkg/errors"
	"github.com/sungazer-io/swarm-cli/pkg/util/files"
)

const maxSearchDepth = 100

// FindConfigFile walks up from startDir until it finds a directory containing filename.
func FindConfigFile(startDir string, filename string) (string, error) {
	dir := startDir
	for i := 0; i < maxSearchDepth; i++ {
		candidate := filepath.Join(dir, filename)
		exists, err := files.Exists(candidate)
		if err != nil {
			return "", err
		}
		if exists {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errors.MissingConfigFile(fmt.Sprintf("%s (searched %s and its parents)", filename, startDir))
}

// readFile returns the contents of path. A missing file is a MissingConfigFile error.
func readFile(path string) ([]byte, error) {
	exists, err := files.Exists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.MissingConfigFile(path)
	}
	return os.ReadFile(path)
}

func decodeYAML(path string, contents []byte, out interface{}) error {
	if err := yaml.Unmarshal(contents, out); err != nil {
		return &ParseError{Filename: path, Err: err}
	}
	return nil
}

// readYAML decodes the file at path into out.
func readYAML(path string, out interface{}) error {
	contents, err := readFile(path)
	if err != nil {
		return err
	}
	return decodeYAML(path, contents, out)
}

// readValidatedYAML checks the file at path against schema, then decodes it into out.
func readValidatedYAML(path string, schema []byte, out interface{}) error {
	contents, err := readFile(path)
	if err != nil {
		return err
	}
	if err := validateSchema(path, contents, schema); err != nil {
		return err
	}
	return decodeYAML(path, contents, out)
}

func LoadStackConfig(path string) (*StackConfig, error) {
	cfg := &StackConfig{}
	if err := readValidatedYAML(path, stackConfigSchema, cfg); err != nil {
		return nil, err
	}
	if cfg.Basename == "" {
		return nil, &ValidationError{Filename: path, Field: "basename", Message: "must be set"}
	}
	for name, env := range cfg.Environments {
		for _, parent := range env.Extends {
			if parent == "" {
				return nil, &ValidationError{Filename: path, Field: "environments." + name + ".extends", Message: "contains an empty name"}
			}
		}
	}
	return cfg, nil
}

func LoadSwarmConfig(path string) (*SwarmConfig, error) {
	cfg := &SwarmConfig{}
	if err := readValidatedYAML(path, swarmConfigSchema, cfg); err != nil {
		return nil, err
	}
	for _, preset := range cfg.Presets {
		for _, sel := range preset.Stacks {
			if sel.Variant == "" {
				return nil, &ValidationError{Filename: path, Field: "presets." + preset.Name + ".stacks." + sel.Name + ".variant", Message: "must be set"}
			}
		}
	}
	return cfg, nil
}

// LoadStackFile reads the overrides in a *.stack.yml file. An empty file is valid.
func LoadStackFile(path string) (*StackFile, error) {
	sf := &StackFile{}
	if err := readYAML(path, sf); err != nil {
		return nil, err
	}
	return sf, nil
}

func LoadComposeDocument(path string) (*ComposeDocument, error) {
	doc := &ComposeDocument{}
	if err := readYAML(path, doc); err != nil {
		return nil, err
	}
	if err := checkComposeVersion(path, doc.Version); err != nil {
		return nil, err
	}
	return doc, nil
}

package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	DefaultEnvFile     = "env"
	DefaultSecretsFile = "secrets"
	DefaultStackFile   = "docker-compose.yml"
	DefaultFilesDir    = "files"
	// EnvironmentComposeFile is the compose file every stack-mode environment directory holds.
	EnvironmentComposeFile = "docker-compose.yml"
)

// StackConfig is the stack-mode document, usually stack-config.yml.
type StackConfig struct {
	Basename     string                       `yaml:"basename"`
	Environments map[string]EnvironmentConfig `yaml:"environments"`
}

// EnvironmentConfig is a single entry under environments.
type EnvironmentConfig struct {
	Extends     StringList `yaml:"extends"`
	StackName   string     `yaml:"stack_name"`
	DockerHost  string     `yaml:"docker_host"`
	DockerUser  string     `yaml:"docker_user"`
	EnvFile     string     `yaml:"env_file"`
	SecretsFile string     `yaml:"secrets_file"`
	Production  *YAMLBool  `yaml:"production"`
	// DeployArgs are extra words appended to docker stack deploy.
	DeployArgs string `yaml:"deploy_args"`
}

// SwarmConfig is the swarm-mode document, usually swarm-config.yml.
type SwarmConfig struct {
	Layers      []string          `yaml:"layers"`
	Environment map[string]string `yaml:"environment"`
	Presets     Presets           `yaml:"presets"`
}

// Presets keeps the order presets are declared in.
type Presets []Preset

type Preset struct {
	Name        string            `yaml:"-"`
	Stacks      StackSelections   `yaml:"stacks"`
	Environment map[string]string `yaml:"environment"`
	EnvFiles    []string          `yaml:"env_files"`
	DeployArgs  string            `yaml:"deploy_args"`
}

// Get returns the preset called name.
func (p Presets) Get(name string) (*Preset, bool) {
	for i := range p {
		if p[i].Name == name {
			return &p[i], true
		}
	}
	return nil, false
}

func (p *Presets) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var order yaml.MapSlice
	if err := unmarshal(&order); err != nil {
		return err
	}
	var bodies map[string]Preset
	if err := unmarshal(&bodies); err != nil {
		return err
	}
	out := make(Presets, 0, len(order))
	for _, item := range order {
		name := fmt.Sprint(item.Key)
		preset, ok := bodies[name]
		if !ok {
			return fmt.Errorf("preset name %v must be quoted", item.Key)
		}
		preset.Name = name
		out = append(out, preset)
	}
	*p = out
	return nil
}

// StackSelection picks one variant of a stack for a preset.
type StackSelection struct {
	Name    string `yaml:"-"`
	Variant string `yaml:"variant"`
}

func (s StackSelection) String() string {
	return s.Name + ":" + s.Variant
}

// StackSelections keeps the order stacks are declared in within a preset.
type StackSelections []StackSelection

func (s *StackSelections) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var order yaml.MapSlice
	if err := unmarshal(&order); err != nil {
		return err
	}
	var bodies map[string]StackSelection
	if err := unmarshal(&bodies); err != nil {
		return err
	}
	out := make(StackSelections, 0, len(order))
	for _, item := range order {
		name := fmt.Sprint(item.Key)
		sel, ok := bodies[name]
		if !ok {
			return fmt.Errorf("stack name %v must be quoted", item.Key)
		}
		sel.Name = name
		out = append(out, sel)
	}
	*s = out
	return nil
}

// StackFile holds the optional overrides written inside a <name>_<variant>.stack.yml file.
type StackFile struct {
	Name      string `yaml:"name"`
	Variant   string `yaml:"variant"`
	StackFile string `yaml:"stack_file"`
	FilesDir  string `yaml:"files_dir"`
}

// ComposeDocument is the part of a compose file this tool reads itself.
// Everything else is left for docker and docker-compose to interpret.
type ComposeDocument struct {
	Version  string                    `yaml:"version"`
	Services map[string]interface{}    `yaml:"services"`
	Networks map[string]ComposeNetwork `yaml:"networks"`
}

type ComposeNetwork struct {
	External External `yaml:"external"`
	Name     string   `yaml:"name"`
	Driver   string   `yaml:"driver"`
}

// External accepts both `external: true` and the older `external: {name: foo}` form.
type External struct {
	Enabled bool
	Name    string
}

func (e *External) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var enabled bool
	if err := unmarshal(&enabled); err == nil {
		e.Enabled = enabled
		return nil
	}
	var named struct {
		Name string `yaml:"name"`
	}
	if err := unmarshal(&named); err != nil {
		return err
	}
	e.Enabled = true
	e.Name = named.Name
	return nil
}

// StringList accepts either a single string or a list of strings.
type StringList []string

func (l *StringList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		if single == "" {
			*l = nil
		} else {
			*l = StringList{single}
		}
		return nil
	}
	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}
	*l = many
	return nil
}

// YAMLBool accepts YAML booleans as well as the strings true, 1, t, y and yes in any case.
type YAMLBool bool

func (b *YAMLBool) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var v bool
	if err := unmarshal(&v); err == nil {
		*b = YAMLBool(v)
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*b = YAMLBool(ParseBool(s))
	return nil
}

func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "t", "y", "yes":
		return true
	}
	return false
}

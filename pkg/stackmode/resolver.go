package stackmode

import (
	"fmt"
	"path/filepath"

	"github.com/sungazer-io/swarm-cli/pkg/config"
	"github.com/sungazer-io/swarm-cli/pkg/errors"
	"github.com/sungazer-io/swarm-cli/pkg/util/console"
	"github.com/sungazer-io/swarm-cli/pkg/util/shell"
)

var productionNames = map[string]bool{
	"prod":       true,
	"production": true,
}

// Resolver turns environment names into Environments. It is not safe for concurrent use.
type Resolver struct {
	cfg      *config.StackConfig
	rootPath string
	// names currently being resolved, outermost first
	path []string
	docs map[string]*config.ComposeDocument
}

func NewResolver(cfg *config.StackConfig, rootPath string) *Resolver {
	return &Resolver{
		cfg:      cfg,
		rootPath: rootPath,
		docs:     map[string]*config.ComposeDocument{},
	}
}

// Resolve is a shortcut for NewResolver(cfg, rootPath).Resolve(name).
func Resolve(cfg *config.StackConfig, rootPath string, name string) (*Environment, error) {
	return NewResolver(cfg, rootPath).Resolve(name)
}

// Resolve resolves the environment called name, parents first in the order they are listed in extends.
func (r *Resolver) Resolve(name string) (*Environment, error) {
	r.path = nil
	env, err := r.resolve(name)
	if err != nil {
		return nil, err
	}

	env.Services = map[string]interface{}{}
	for _, file := range env.StackFiles {
		doc, err := r.document(file)
		if err != nil {
			return nil, err
		}
		for service, def := range doc.Services {
			env.Services[service] = def
		}
	}
	return env, nil
}

func (r *Resolver) resolve(name string) (*Environment, error) {
	for i, n := range r.path {
		if n == name {
			chain := append(append([]string{}, r.path[i:]...), name)
			return nil, errors.ConfigCycle(chain)
		}
	}
	ec, ok := r.cfg.Environments[name]
	if !ok {
		return nil, errors.UnknownEnvironment(name)
	}

	r.path = append(r.path, name)
	defer func() { r.path = r.path[:len(r.path)-1] }()

	env := &Environment{
		Name:     name,
		BasePath: filepath.Join(r.rootPath, name),
	}
	inheritedProduction := false
	for _, parentName := range ec.Extends {
		parent, err := r.resolve(parentName)
		if err != nil {
			return nil, err
		}
		console.Debugf("Environment %s extends %s", name, parentName)
		env.StackFiles = appendMissing(env.StackFiles, parent.StackFiles...)
		env.EnvFiles = appendMissing(env.EnvFiles, parent.EnvFiles...)
		if parent.DockerHost != "" {
			env.DockerHost = parent.DockerHost
		}
		if parent.DockerUser != "" {
			env.DockerUser = parent.DockerUser
		}
		if len(parent.DeployArgs) > 0 {
			env.DeployArgs = parent.DeployArgs
		}
		inheritedProduction = inheritedProduction || parent.Production
	}

	env.StackName = ec.StackName
	if env.StackName == "" {
		env.StackName = fmt.Sprintf("%s-%s", r.cfg.Basename, name)
	}
	if ec.DockerHost != "" {
		env.DockerHost = ec.DockerHost
	}
	if ec.DockerUser != "" {
		env.DockerUser = ec.DockerUser
	}
	if ec.DeployArgs != "" {
		args, err := shell.Split(ec.DeployArgs)
		if err != nil {
			return nil, &config.ValidationError{Field: "environments." + name + ".deploy_args", Value: ec.DeployArgs, Message: err.Error()}
		}
		env.DeployArgs = args
	}

	production := inheritedProduction
	if ec.Production != nil {
		production = bool(*ec.Production)
	}
	env.Production = production || productionNames[name]

	composeFile := filepath.Join(env.BasePath, config.EnvironmentComposeFile)
	if _, err := r.document(composeFile); err != nil {
		return nil, err
	}
	secretsFile := ec.SecretsFile
	if secretsFile == "" {
		secretsFile = config.DefaultSecretsFile
	}
	envFile := ec.EnvFile
	if envFile == "" {
		envFile = config.DefaultEnvFile
	}
	env.StackFiles = appendMissing(env.StackFiles, composeFile)
	env.EnvFiles = appendMissing(env.EnvFiles, filepath.Join(env.BasePath, secretsFile), filepath.Join(env.BasePath, envFile))

	return env, nil
}

func (r *Resolver) document(path string) (*config.ComposeDocument, error) {
	if doc, ok := r.docs[path]; ok {
		return doc, nil
	}
	doc, err := config.LoadComposeDocument(path)
	if err != nil {
		return nil, err
	}
	r.docs[path] = doc
	return doc, nil
}

// appendMissing appends the items not already in list, keeping the first position of duplicates.
func appendMissing(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range list {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}

package docker

import (
	"fmt"

	dconfig "github.com/docker/cli/cli/config"
	dctxdocker "github.com/docker/cli/cli/context/docker"
	dctxstore "github.com/docker/cli/cli/context/store"
	dc "github.com/docker/docker/client"

	"github.com/sungazer-io/swarm-cli/pkg/environ"
	"github.com/sungazer-io/swarm-cli/pkg/util/console"
)

const defaultDockerHost = dc.DefaultDockerHost

// DetermineHost returns the engine address commands run with env would reach.
// DOCKER_HOST wins, then the docker context, then the platform default.
func DetermineHost(env environ.Environ) (string, error) {
	if host, ok := env.Get("DOCKER_HOST"); ok && host != "" {
		return host, nil
	}

	contextName, _ := env.Get("DOCKER_CONTEXT")
	if host, err := dockerHostFromContext(contextName); err != nil {
		console.Debugf("error finding docker host from context: %v", err)

		// an explicit DOCKER_CONTEXT the user asked for must not silently fall back
		if contextName != "" {
			return "", err
		}
	} else if host != "" {
		return host, nil
	}

	return defaultDockerHost, nil
}

func dockerHostFromContext(contextName string) (string, error) {
	if contextName == "" {
		cf, err := dconfig.Load(dconfig.Dir())
		if err != nil {
			return "", err
		}
		contextName = cf.CurrentContext
	}
	if contextName == "" || contextName == "default" {
		return "", nil
	}

	typeGetter := func() any { return &dctxdocker.EndpointMeta{} }
	storeConfig := dctxstore.NewConfig(typeGetter, dctxstore.EndpointTypeGetter(dctxdocker.DockerEndpoint, typeGetter))

	store := dctxstore.New(dconfig.ContextStoreDir(), storeConfig)
	meta, err := store.GetMetadata(contextName)
	if err != nil {
		return "", err
	}

	endpoint, ok := meta.Endpoints[dctxdocker.DockerEndpoint]
	if !ok {
		return "", fmt.Errorf("no docker endpoints found for context %s", contextName)
	}

	dockerEPMeta, ok := endpoint.(dctxdocker.EndpointMeta)
	if !ok {
		return "", fmt.Errorf("invalid context config: %v", endpoint)
	}

	if dockerEPMeta.Host == "" {
		return "", fmt.Errorf("no host found for context %s", contextName)
	}

	return dockerEPMeta.Host, nil
}

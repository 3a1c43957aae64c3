package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docker/docker/api/types/swarm"
	"github.com/stretchr/testify/require"

	"github.com/sungazer-io/swarm-cli/pkg/docker"
	"github.com/sungazer-io/swarm-cli/pkg/docker/command"
	"github.com/sungazer-io/swarm-cli/pkg/docker/dockertest"
	"github.com/sungazer-io/swarm-cli/pkg/errors"
)

const testStackConfig = `
basename: shop
environments:
  dev:
    docker_host: ssh://deploy@manager
    deploy_args: --prune
  prod:
    extends: dev
`

const testSwarmConfig = `
layers:
  - layers/base
presets:
  edge:
    stacks:
      web:
        variant: v1
    deploy_args: --prune
`

func writeFile(t *testing.T, root string, name string, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// fakes swaps the runner and the engine factory for the duration of the test.
func fakes(t *testing.T) (*dockertest.RecordingRunner, *dockertest.FakeEngine) {
	t.Helper()
	runner := &dockertest.RecordingRunner{}
	engine := dockertest.NewFakeEngine()
	oldRunner, oldFactory, oldInput := newRunner, engineFactory, confirmInput
	newRunner = func(dryRun bool) command.Runner { return runner }
	engineFactory = func(ctx context.Context, host string) (docker.Engine, error) { return engine, nil }
	t.Cleanup(func() {
		newRunner, engineFactory, confirmInput = oldRunner, oldFactory, oldInput
	})
	return runner, engine
}

func stackProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "stack-config.yml", testStackConfig)
	writeFile(t, root, "dev/docker-compose.yml", "services:\n  web:\n    image: shop/web\n  db:\n    image: postgres\n")
	writeFile(t, root, "prod/docker-compose.yml", "services:\n  web:\n    deploy:\n      replicas: 3\n")
	return filepath.Join(root, "stack-config.yml")
}

func swarmProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "swarm-config.yml", testSwarmConfig)
	writeFile(t, root, "layers/base/web/web_v1.stack.yml", "")
	writeFile(t, root, "layers/base/web/docker-compose.yml", "services:\n  web:\n    image: nginx\nnetworks:\n  public:\n    external: true\n")
	return filepath.Join(root, "swarm-config.yml")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd, err := NewRootCommand()
	require.NoError(t, err)
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandTree(t *testing.T) {
	rootCmd, err := NewRootCommand()
	require.NoError(t, err)

	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	require.Subset(t, names, []string{"printenv", "swarm", "stack"})

	stackCmd, _, err := rootCmd.Find([]string{"stack", "bpd"})
	require.NoError(t, err)
	require.Equal(t, "bpd", stackCmd.Name())

	presetCmd, _, err := rootCmd.Find([]string{"swarm", "preset", "setup"})
	require.NoError(t, err)
	require.Equal(t, "setup", presetCmd.Name())
}

func TestPrintenv(t *testing.T) {
	t.Setenv("SWARM_CLI_TEST_VALUE", "hello")
	out, err := execute(t, "printenv")
	require.NoError(t, err)
	require.Contains(t, strings.Split(out, "\n"), "SWARM_CLI_TEST_VALUE=hello")
}

func TestStackList(t *testing.T) {
	fakes(t)
	out, err := execute(t, "stack", "--config", stackProject(t), "ls")
	require.NoError(t, err)
	require.Equal(t, "Available services:\ndb\nweb\n", out)
}

func TestStackDeploy(t *testing.T) {
	runner, _ := fakes(t)
	path := stackProject(t)

	_, err := execute(t, "stack", "--config", path, "deploy")
	require.NoError(t, err)

	require.Len(t, runner.Cmds, 1)
	c := runner.Cmds[0]
	require.Equal(t, "docker", c.Path)
	require.Equal(t, []string{
		"stack", "deploy",
		"-c", filepath.Join(filepath.Dir(path), "dev", "docker-compose.yml"),
		"--with-registry-auth", "--prune", "shop-dev",
	}, c.Args)
	host, _ := c.Env.Get("DOCKER_HOST")
	require.Equal(t, "ssh://deploy@manager", host)
	stackName, _ := c.Env.Get("STACK_NAME")
	require.Equal(t, "shop-dev", stackName)
}

func TestStackBPDStopsAtFirstFailure(t *testing.T) {
	runner, _ := fakes(t)
	runner.Codes = []int{2}

	_, err := execute(t, "stack", "--config", stackProject(t), "bpd")
	var exitErr *command.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)

	require.Len(t, runner.Cmds, 1)
	build := runner.Cmds[0]
	require.Equal(t, "docker-compose", build.Path)
	require.Equal(t, "build", build.Args[len(build.Args)-1])
	_, ok := build.Env.Get("DOCKER_HOST")
	require.False(t, ok)
}

func TestStackBPDRunsEveryStep(t *testing.T) {
	runner, _ := fakes(t)
	_, err := execute(t, "stack", "--config", stackProject(t), "bpd")
	require.NoError(t, err)

	require.Len(t, runner.Cmds, 3)
	require.Equal(t, "build", runner.Cmds[0].Args[len(runner.Cmds[0].Args)-1])
	require.Equal(t, "push", runner.Cmds[1].Args[len(runner.Cmds[1].Args)-1])
	require.Equal(t, []string{"stack", "deploy"}, runner.Cmds[2].Args[:2])
}

func TestStackProductionConfirmation(t *testing.T) {
	runner, _ := fakes(t)
	path := stackProject(t)

	confirmInput = strings.NewReader("n\n")
	_, err := execute(t, "stack", "--config", path, "--env", "prod", "deploy")
	require.EqualError(t, err, "Aborted")
	require.Empty(t, runner.Cmds)

	confirmInput = strings.NewReader("")
	_, err = execute(t, "stack", "--config", path, "--env", "prod", "--yes", "deploy")
	require.NoError(t, err)
	require.Len(t, runner.Cmds, 1)
	c := runner.Cmds[0]
	require.Equal(t, "shop-prod", c.Args[len(c.Args)-1])
	require.Contains(t, c.Args, filepath.Join(filepath.Dir(path), "dev", "docker-compose.yml"))
	require.Contains(t, c.Args, filepath.Join(filepath.Dir(path), "prod", "docker-compose.yml"))
}

func TestStackUnknownEnvironment(t *testing.T) {
	fakes(t)
	_, err := execute(t, "stack", "--config", stackProject(t), "--env", "staging", "ls")
	require.True(t, errors.IsUnknownEnvironment(err))
}

func TestStackExecUnknownService(t *testing.T) {
	runner, _ := fakes(t)
	_, err := execute(t, "stack", "--config", stackProject(t), "exec", "cache", "ls")
	require.True(t, errors.IsNoSuchService(err))
	require.Empty(t, runner.Cmds)
}

func TestStackPorts(t *testing.T) {
	_, engine := fakes(t)
	engine.Services["shop-dev_web"] = swarm.Service{
		ID: "svc-web",
		Endpoint: swarm.Endpoint{Ports: []swarm.PortConfig{
			{Protocol: swarm.PortConfigProtocolTCP, PublishedPort: 8080, TargetPort: 80},
		}},
	}

	out, err := execute(t, "stack", "--config", stackProject(t), "ports", "web")
	require.NoError(t, err)
	require.Equal(t, "shop-dev_web\n\t   tcp:   8080 -> 80    \n", out)
}

func TestStackForceUpdate(t *testing.T) {
	_, engine := fakes(t)
	engine.Services["shop-dev_web"] = swarm.Service{ID: "svc-web"}

	out, err := execute(t, "stack", "--config", stackProject(t), "force-update", "web")
	require.NoError(t, err)
	require.Equal(t, "Updated shop-dev_web\n", out)
	require.Len(t, engine.Updated, 1)
	require.Equal(t, uint64(1), engine.Updated[0].TaskTemplate.ForceUpdate)
}

func TestStackRemove(t *testing.T) {
	_, engine := fakes(t)
	engine.Services["shop-dev_web"] = swarm.Service{ID: "svc-web"}

	out, err := execute(t, "stack", "--config", stackProject(t), "rm")
	require.NoError(t, err)
	require.Equal(t, "Removing shop-dev_web - svc-web\n", out)
	require.Equal(t, []string{"svc-web"}, engine.Removed)
}

func TestStackRemoveDryRun(t *testing.T) {
	_, engine := fakes(t)
	engine.Services["shop-dev_web"] = swarm.Service{ID: "svc-web"}

	out, err := execute(t, "stack", "--config", stackProject(t), "rm", "--dry-run")
	require.NoError(t, err)
	require.Empty(t, out)
	require.Empty(t, engine.Removed)
}

func TestStackRun(t *testing.T) {
	runner, _ := fakes(t)
	_, err := execute(t, "stack", "--config", stackProject(t), "run", "echo", "$STACK_NAME")
	require.NoError(t, err)

	require.Len(t, runner.Cmds, 1)
	require.Equal(t, "sh", runner.Cmds[0].Path)
	require.Equal(t, "-c", runner.Cmds[0].Args[0])
}

func TestPresetList(t *testing.T) {
	fakes(t)
	path := swarmProject(t)

	out, err := execute(t, "swarm", "--config", path, "preset", "ls")
	require.NoError(t, err)
	require.Equal(t, "Preset edge\n  - web:v1\n", out)

	out, err = execute(t, "swarm", "--config", path, "preset", "ls", "-p", "edge")
	require.NoError(t, err)
	require.Equal(t, "web:v1\n", out)
}

func TestPresetDeploy(t *testing.T) {
	runner, _ := fakes(t)
	path := swarmProject(t)

	_, err := execute(t, "swarm", "--config", path, "preset", "deploy", "-p", "edge")
	require.NoError(t, err)

	require.Len(t, runner.Cmds, 1)
	require.Equal(t, []string{
		"stack", "deploy",
		"-c", filepath.Join(filepath.Dir(path), "layers", "base", "web", "docker-compose.yml"),
		"--prune", "web",
	}, runner.Cmds[0].Args)
}

func TestPresetRequiresPreset(t *testing.T) {
	runner, _ := fakes(t)
	_, err := execute(t, "swarm", "--config", swarmProject(t), "preset", "push")
	require.Error(t, err)
	require.Empty(t, runner.Cmds)
}

func TestPresetSetup(t *testing.T) {
	t.Setenv("DOCKER_HOST", "tcp://swarm:2376")
	runner, engine := fakes(t)
	path := swarmProject(t)

	_, err := execute(t, "swarm", "--config", path, "preset", "setup", "-p", "edge", "--dry-run")
	require.NoError(t, err)
	require.Len(t, runner.Cmds, 1)
	require.Equal(t, []string{"network", "create", "--driver", "overlay", "--attachable", "public"}, runner.Cmds[0].Args)
	require.Empty(t, engine.Created)

	_, err = execute(t, "swarm", "--config", path, "preset", "setup", "-p", "edge")
	require.NoError(t, err)
	require.Len(t, engine.Created, 1)
	require.Equal(t, "overlay", engine.Created[0].Driver)
}

const testBuildSwarmConfig = `
layers:
  - layers/base
  - layers/site
presets:
  edge:
    stacks:
      web:
        variant: v1
      api:
        variant: v2
`

func buildProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "swarm-config.yml", testBuildSwarmConfig)
	writeFile(t, root, "layers/base/web/web_v1.stack.yml", "")
	writeFile(t, root, "layers/base/web/docker-compose.yml", "services:\n  web:\n    image: nginx\n")
	writeFile(t, root, "layers/base/web/files/nginx.conf", "base")
	writeFile(t, root, "layers/site/web/web_v1.stack.yml", "")
	writeFile(t, root, "layers/site/web/docker-compose.yml", "services:\n  web:\n    environment:\n      SITE: 1\n")
	writeFile(t, root, "layers/site/web/files/nginx.conf", "site")
	writeFile(t, root, "layers/base/api/api_v2.stack.yml", "")
	writeFile(t, root, "layers/base/api/docker-compose.yml", "services:\n  api:\n    image: api\n")
	return filepath.Join(root, "swarm-config.yml")
}

func TestPresetBuild(t *testing.T) {
	t.Setenv("DOCKER_HOST", "tcp://swarm:2376")
	runner, _ := fakes(t)
	path := buildProject(t)
	root := filepath.Dir(path)

	_, err := execute(t, "swarm", "--config", path, "preset", "build", "-p", "edge")
	require.NoError(t, err)

	require.Len(t, runner.Cmds, 2)
	web, api := runner.Cmds[0], runner.Cmds[1]

	require.Equal(t, "docker-compose", web.Path)
	require.Equal(t, []string{
		"-f", filepath.Join(root, "layers", "base", "web", "docker-compose.yml"),
		"-f", filepath.Join(root, "layers", "site", "web", "docker-compose.yml"),
		"build",
	}, web.Args)
	require.Equal(t, filepath.Join(root, "build", "edge", "web", "v1"), web.Dir)
	_, ok := web.Env.Get("DOCKER_HOST")
	require.False(t, ok)
	stackName, _ := web.Env.Get("STACK_NAME")
	require.Equal(t, "web", stackName)

	require.Equal(t, filepath.Join(root, "build", "edge", "api", "v2"), api.Dir)
	stackName, _ = api.Env.Get("STACK_NAME")
	require.Equal(t, "api", stackName)

	content, err := os.ReadFile(filepath.Join(root, "build", "edge", "web", "v1", "files", "nginx.conf"))
	require.NoError(t, err)
	require.Equal(t, "site", string(content))
}

func TestPresetBuildDryRunLeavesBuildFolderAlone(t *testing.T) {
	runner, _ := fakes(t)
	path := buildProject(t)
	root := filepath.Dir(path)

	_, err := execute(t, "swarm", "--config", path, "preset", "build", "-p", "edge", "--dry-run")
	require.NoError(t, err)
	require.Len(t, runner.Cmds, 2)
	require.Equal(t, filepath.Join(root, "build", "edge", "web", "v1"), runner.Cmds[0].Dir)

	_, err = os.Stat(filepath.Join(root, "build"))
	require.True(t, os.IsNotExist(err))
}

func TestPresetPush(t *testing.T) {
	t.Setenv("DOCKER_HOST", "tcp://swarm:2376")
	runner, _ := fakes(t)
	path := buildProject(t)
	root := filepath.Dir(path)

	_, err := execute(t, "swarm", "--config", path, "preset", "push", "-p", "edge")
	require.NoError(t, err)

	require.Len(t, runner.Cmds, 2)
	require.Equal(t, []string{
		"-f", filepath.Join(root, "layers", "base", "web", "docker-compose.yml"),
		"-f", filepath.Join(root, "layers", "site", "web", "docker-compose.yml"),
		"push",
	}, runner.Cmds[0].Args)
	require.Equal(t, []string{
		"-f", filepath.Join(root, "layers", "base", "api", "docker-compose.yml"),
		"push",
	}, runner.Cmds[1].Args)
	for _, c := range runner.Cmds {
		_, ok := c.Env.Get("DOCKER_HOST")
		require.False(t, ok)
	}
}

func TestPresetPushStopsAtFirstFailure(t *testing.T) {
	runner, _ := fakes(t)
	runner.Codes = []int{1}

	_, err := execute(t, "swarm", "--config", buildProject(t), "preset", "push", "-p", "edge")
	var exitErr *command.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Len(t, runner.Cmds, 1)
}

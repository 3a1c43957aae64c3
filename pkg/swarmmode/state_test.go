package swarmmode

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sungazer-io/swarm-cli/pkg/environ"
	"github.com/sungazer-io/swarm-cli/pkg/errors"
)

const testConfig = `
layers:
  - layers/base
  - layers/site
environment:
  REGISTRY: registry.local
presets:
  edge:
    stacks:
      web:
        variant: v1
      proxy:
        variant: traefik
    environment:
      DOMAIN: example.org
    env_files:
      - edge.env
      - missing.env
  broken:
    stacks:
      web:
        variant: v1
      ghost:
        variant: v9
      phantom:
        variant: v1
`

func write(t *testing.T, root string, name string, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newState(t *testing.T) (*State, string) {
	t.Helper()
	root := t.TempDir()
	write(t, root, "swarm-config.yml", testConfig)

	write(t, root, "layers/base/web/web_v1.stack.yml", "")
	write(t, root, "layers/base/web/docker-compose.yml", "services:\n  web:\n    image: nginx\nnetworks:\n  public:\n    external: true\n")
	write(t, root, "layers/base/web/files/nginx.conf", "base")
	write(t, root, "layers/base/web/files/mime.types", "types")

	write(t, root, "layers/base/proxy/proxy_traefik.stack.yml", "stack_file: stack.yml\n")
	write(t, root, "layers/base/proxy/stack.yml", "services:\n  traefik:\n    image: traefik\n")

	write(t, root, "layers/site/nested/web/web_v1.stack.yml", "")
	write(t, root, "layers/site/nested/web/docker-compose.yml", "services:\n  web:\n    environment:\n      SITE: 1\nnetworks:\n  public:\n    external: true\n  metrics:\n    external:\n      name: prom-net\n")
	write(t, root, "layers/site/nested/web/files/nginx.conf", "site")

	write(t, root, "edge.env", "EDGE_TOKEN=abc\nREGISTRY=from-file\n")

	state, err := Load(filepath.Join(root, "swarm-config.yml"), "build")
	require.NoError(t, err)
	return state, root
}

func TestParseStackFilename(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		stack   string
		variant string
		wantErr bool
	}{
		{name: "plain", in: "api_prod", stack: "api", variant: "prod"},
		{name: "with suffix", in: "/layers/base/api_prod.stack.yml", stack: "api", variant: "prod"},
		{name: "no separator", in: "api.stack.yml", wantErr: true},
		{name: "two separators", in: "my_api_prod.stack.yml", wantErr: true},
		{name: "empty variant", in: "api_.stack.yml", wantErr: true},
		{name: "empty name", in: "_prod", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, variant, err := ParseStackFilename(tt.in)
			if tt.wantErr {
				require.True(t, errors.IsInvalidStackFilename(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.stack, name)
			require.Equal(t, tt.variant, variant)
		})
	}
}

func TestLoadDiscoversLayers(t *testing.T) {
	state, root := newState(t)

	require.Len(t, state.Layers, 2)
	require.Equal(t, "base", state.Layers[0].Name)
	require.Len(t, state.Layers[0].Stacks, 2)
	require.Len(t, state.Layers[1].Stacks, 1)
	require.Equal(t, filepath.Join(root, "build"), state.BuildDir)

	proxy := state.Layers[0].Get("proxy", "traefik")
	require.NotNil(t, proxy)
	require.Equal(t, filepath.Join(root, "layers/base/proxy/stack.yml"), proxy.ComposePath())
	require.Nil(t, state.Layers[1].Get("proxy", "traefik"))
}

func TestLoadStackOverrides(t *testing.T) {
	root := t.TempDir()
	write(t, root, "backend_v1.stack.yml", "name: api\nvariant: v2\nfiles_dir: assets\n")
	write(t, root, "docker-compose.yml", "services: {}\n")

	stack, err := LoadStack(filepath.Join(root, "backend_v1.stack.yml"))
	require.NoError(t, err)
	require.Equal(t, "api", stack.Name)
	require.Equal(t, "v2", stack.Variant)
	require.Equal(t, filepath.Join(root, "assets"), stack.FilesPath())
}

func TestLoadStackMissingComposeFile(t *testing.T) {
	root := t.TempDir()
	write(t, root, "web_v1.stack.yml", "")
	_, err := LoadStack(filepath.Join(root, "web_v1.stack.yml"))
	require.True(t, errors.IsMissingConfigFile(err))
}

func TestComposeFilesFollowLayerOrder(t *testing.T) {
	state, root := newState(t)

	require.Equal(t, []string{
		filepath.Join(root, "layers/base/web/docker-compose.yml"),
		filepath.Join(root, "layers/site/nested/web/docker-compose.yml"),
	}, state.ComposeFiles("web", "v1"))
}

func TestEnsurePreset(t *testing.T) {
	state, _ := newState(t)

	preset, err := state.EnsurePreset("edge")
	require.NoError(t, err)
	require.Equal(t, "edge", preset.Name)

	_, err = state.EnsurePreset("nope")
	require.True(t, errors.IsUnknownPreset(err))

	_, err = state.EnsurePreset("broken")
	require.True(t, errors.IsStackNotFound(err))
	require.ErrorContains(t, err, "ghost:v9, phantom:v1")
}

func TestEnsurePresetHasNoSideEffects(t *testing.T) {
	state, _ := newState(t)

	_, err := state.EnsurePreset("broken")
	require.Error(t, err)

	_, err = os.Stat(state.BuildDir)
	require.True(t, os.IsNotExist(err))
}

func TestExternalNetworks(t *testing.T) {
	state, _ := newState(t)
	require.Equal(t, []string{"public", "prom-net"}, state.ExternalNetworks("web", "v1"))
	require.Empty(t, state.ExternalNetworks("proxy", "traefik"))
}

func listTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		out[rel] = string(content)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestPrepareBuildFolder(t *testing.T) {
	state, root := newState(t)

	folder, err := state.PrepareBuildFolder("edge", "web", "v1")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "build", "edge", "web", "v1"), folder)

	want := map[string]string{
		filepath.Join("files", "nginx.conf"): "site",
		filepath.Join("files", "mime.types"): "types",
	}
	require.Equal(t, want, listTree(t, folder))

	// stale files do not survive a rebuild
	write(t, folder, "stale.txt", "old")
	again, err := state.PrepareBuildFolder("edge", "web", "v1")
	require.NoError(t, err)
	require.Equal(t, folder, again)
	require.Equal(t, want, listTree(t, folder))

	// the source layers are left as they were
	content, err := os.ReadFile(filepath.Join(root, "layers/base/web/files/nginx.conf"))
	require.NoError(t, err)
	require.Equal(t, "base", string(content))
}

func TestPrepareBuildFolderWithoutFiles(t *testing.T) {
	state, _ := newState(t)
	folder, err := state.PrepareBuildFolder("edge", "proxy", "traefik")
	require.NoError(t, err)
	entries, err := os.ReadDir(folder)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestEnvironments(t *testing.T) {
	state, _ := newState(t)
	ctx := context.Background()

	base, err := state.BaseEnviron(ctx, environ.New(map[string]string{"HOME": "/root"}), nil)
	require.NoError(t, err)
	v, _ := base.Get("REGISTRY")
	require.Equal(t, "registry.local", v)

	preset, err := state.EnsurePreset("edge")
	require.NoError(t, err)
	withFiles, err := state.PresetEnviron(ctx, base, preset)
	require.NoError(t, err)
	v, _ = withFiles.Get("EDGE_TOKEN")
	require.Equal(t, "abc", v)
	v, _ = withFiles.Get("REGISTRY")
	require.Equal(t, "registry.local", v)

	stackEnv := state.StackEnviron(withFiles.With("DOMAIN", "old.example.org"), preset, "web")
	v, _ = stackEnv.Get("DOMAIN")
	require.Equal(t, "example.org", v)
	v, _ = stackEnv.Get("STACK_NAME")
	require.Equal(t, "web", v)

	// other stacks of the same preset never see each other's STACK_NAME
	other := state.StackEnviron(withFiles, preset, "proxy")
	v, _ = other.Get("STACK_NAME")
	require.Equal(t, "proxy", v)
}

func TestBaseEnvironMissingFileIsFatal(t *testing.T) {
	state, root := newState(t)
	_, err := state.BaseEnviron(context.Background(), environ.Environ{}, []string{filepath.Join(root, "nope.env")})
	require.True(t, errors.IsMissingConfigFile(err))
}

func TestLayerStacksAreSorted(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"c", "a", "b"} {
		write(t, root, filepath.Join(dir, dir+"_v1.stack.yml"), "")
		write(t, root, filepath.Join(dir, "docker-compose.yml"), "services: {}\n")
	}
	layer, err := LoadLayer(root)
	require.NoError(t, err)

	var names []string
	for _, s := range layer.Stacks {
		names = append(names, s.Name)
	}
	require.True(t, sort.StringsAreSorted(names))
	require.Equal(t, []string{"a", "b", "c"}, names)
}

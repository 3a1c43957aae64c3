package docker

import (
	"bytes"
	"context"
	"testing"

	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/swarm"
	"github.com/stretchr/testify/require"

	"github.com/sungazer-io/swarm-cli/pkg/docker/dockertest"
)

func newServiceEngine() *dockertest.FakeEngine {
	engine := dockertest.NewFakeEngine()
	engine.Services["shop_web"] = swarm.Service{
		ID:   "svc-web",
		Meta: swarm.Meta{Version: swarm.Version{Index: 7}},
		Endpoint: swarm.Endpoint{Ports: []swarm.PortConfig{
			{Protocol: swarm.PortConfigProtocolTCP, PublishedPort: 8080, TargetPort: 80},
			{Protocol: swarm.PortConfigProtocolUDP, PublishedPort: 5353, TargetPort: 53},
		}},
	}
	engine.Services["shop_worker"] = swarm.Service{ID: "svc-worker"}
	return engine
}

func TestServicePorts(t *testing.T) {
	engine := newServiceEngine()

	ports, err := ServicePorts(context.Background(), engine, "shop_web")
	require.NoError(t, err)
	require.Len(t, ports, 2)

	var out bytes.Buffer
	PrintPorts(&out, "shop_web", ports)
	require.Equal(t, "shop_web\n\t   tcp:   8080 -> 80    \n\t   udp:   5353 -> 53    \n", out.String())

	out.Reset()
	ports, err = ServicePorts(context.Background(), engine, "shop_worker")
	require.NoError(t, err)
	PrintPorts(&out, "shop_worker", ports)
	require.Empty(t, out.String())

	_, err = ServicePorts(context.Background(), engine, "shop_missing")
	require.True(t, IsNotFound(err))
}

func TestForceUpdate(t *testing.T) {
	engine := newServiceEngine()

	_, err := ForceUpdate(context.Background(), engine, "shop_web")
	require.NoError(t, err)
	_, err = ForceUpdate(context.Background(), engine, "shop_web")
	require.NoError(t, err)

	require.Len(t, engine.Updated, 2)
	require.Equal(t, uint64(1), engine.Updated[0].TaskTemplate.ForceUpdate)
	require.Equal(t, uint64(2), engine.Updated[1].TaskTemplate.ForceUpdate)
	require.Equal(t, uint64(9), engine.Services["shop_web"].Version.Index)
}

func TestRemoveService(t *testing.T) {
	engine := newServiceEngine()

	id, err := RemoveService(context.Background(), engine, "shop_worker")
	require.NoError(t, err)
	require.Equal(t, "svc-worker", id)
	require.Equal(t, []string{"svc-worker"}, engine.Removed)

	_, err = RemoveService(context.Background(), engine, "shop_worker")
	require.True(t, IsNotFound(err))
}

func TestEnsureOverlayNetwork(t *testing.T) {
	engine := dockertest.NewFakeEngine()
	engine.Networks["existing"] = network.Inspect{Name: "existing"}

	created, err := EnsureOverlayNetwork(context.Background(), engine, "existing")
	require.NoError(t, err)
	require.False(t, created)

	created, err = EnsureOverlayNetwork(context.Background(), engine, "public")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, []network.CreateOptions{{Driver: "overlay", Attachable: true}}, engine.Created)

	created, err = EnsureOverlayNetwork(context.Background(), engine, "public")
	require.NoError(t, err)
	require.False(t, created)
}

func TestClientCache(t *testing.T) {
	var opened []string
	engines := map[string]*dockertest.FakeEngine{}
	cache := NewClientCache(func(ctx context.Context, host string) (Engine, error) {
		opened = append(opened, host)
		engines[host] = dockertest.NewFakeEngine()
		return engines[host], nil
	})

	a, err := cache.Get(context.Background(), "ssh://a")
	require.NoError(t, err)
	again, err := cache.Get(context.Background(), "ssh://a")
	require.NoError(t, err)
	require.Same(t, a, again)
	_, err = cache.Get(context.Background(), "ssh://b")
	require.NoError(t, err)
	require.Equal(t, []string{"ssh://a", "ssh://b"}, opened)

	require.NoError(t, cache.Close())
	require.True(t, engines["ssh://a"].Closed)
	require.True(t, engines["ssh://b"].Closed)
}

package launcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/hoyamaster/pkg/clusterdesc"
	"github.com/cuemby/hoyamaster/pkg/events"
	"github.com/cuemby/hoyamaster/pkg/nmclient"
)

func TestLaunchPromotesNodeOnSuccess(t *testing.T) {
	sink := events.NewSink()
	client := nmclient.NewSimulatedClient(sink)
	store := clusterdesc.NewStore(clusterdesc.New("test", 1, 1, 512, 512, 0))
	l := New(client, store)

	container := clusterdesc.Container{ID: "c-1", NodeHost: "node-a", Resource: clusterdesc.Resource{MemoryMB: 256}}
	l.Launch(container, clusterdesc.RoleWorker, Spec{Command: []string{"/bin/region-server"}}, "worker-abc123")

	require.Eventually(t, func() bool {
		return store.WorkerCount() == 1
	}, time.Second, 5*time.Millisecond)

	l.Shutdown()
}

func TestShutdownReturnsWhenNoLaunchesPending(t *testing.T) {
	sink := events.NewSink()
	client := nmclient.NewSimulatedClient(sink)
	store := clusterdesc.NewStore(clusterdesc.New("test", 1, 1, 512, 512, 0))
	l := New(client, store)

	done := make(chan struct{})
	go func() {
		l.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown did not return promptly with no pending launches")
	}
	assert.Equal(t, 0, store.WorkerCount())
}

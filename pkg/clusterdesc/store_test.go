package clusterdesc

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(workers int) *Store {
	desc := New("test-cluster", 1, workers, 512, 1024, time.Now().UnixMilli())
	return NewStore(desc)
}

func TestSnapshotJSONWellFormed(t *testing.T) {
	store := newTestStore(2)
	store.RecordRequested(&ClusterNode{Name: "container_1", State: NodeRequested})

	raw, err := store.SnapshotJSON(time.Now())
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	require.Equal(t, "test-cluster", out["name"])
	require.Contains(t, out, "requestedNodes")
}

func TestPromoteRequestedToLaunchingThenLive(t *testing.T) {
	store := newTestStore(1)
	store.RecordRequested(&ClusterNode{Name: "container_1", State: NodeRequested})

	ok := store.PromoteRequestedToLaunching("container_1", RoleWorker, "10.0.0.1:1234", "bin/worker start")
	require.True(t, ok)
	require.Equal(t, 1, store.WorkerCount())

	ok = store.PromoteToLive("container_1")
	require.True(t, ok)

	store.mu.Lock()
	require.Equal(t, NodeLive, store.desc.WorkerNodes[0].State)
	store.mu.Unlock()
}

func TestMoveToTerminalRemovesFromWorkerNodes(t *testing.T) {
	store := newTestStore(1)
	store.RecordRequested(&ClusterNode{Name: "container_1", State: NodeRequested})
	require.True(t, store.PromoteRequestedToLaunching("container_1", RoleWorker, "host:1", "cmd"))

	node := store.MoveToTerminal("container_1", false, 0, "clean exit")
	require.NotNil(t, node)
	require.Equal(t, 0, store.WorkerCount())

	store.mu.Lock()
	require.Len(t, store.desc.CompletedNodes, 1)
	require.Equal(t, NodeDestroyed, store.desc.CompletedNodes[0].State)
	store.mu.Unlock()
}

func TestSetDesiredWorkersFloorsAtZero(t *testing.T) {
	store := newTestStore(3)
	store.SetDesiredWorkers(-5)
	require.Equal(t, 0, store.DesiredWorkers())
}

func TestClientPropertiesPreservesOrder(t *testing.T) {
	store := newTestStore(0)
	store.SetBackingServiceConfig("/rootpath", "zk1,zk2", 2181, "/hoya",
		map[string]string{"b": "2", "a": "1"}, []string{"b", "a"})

	store.mu.Lock()
	keys := store.desc.ClientProperties.Keys()
	store.mu.Unlock()
	require.Equal(t, []interface{}{"b", "a"}, keys)
}

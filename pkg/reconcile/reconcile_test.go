package reconcile

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/hoyamaster/pkg/clusterdesc"
	"github.com/cuemby/hoyamaster/pkg/events"
	"github.com/cuemby/hoyamaster/pkg/launcher"
	"github.com/cuemby/hoyamaster/pkg/nmclient"
	"github.com/cuemby/hoyamaster/pkg/rmclient"
)

func newTestEngine(t *testing.T, workers int, hasMaster bool, maxTolerable int) (*Engine, *clusterdesc.Store, events.Sink) {
	t.Helper()
	sink := events.NewSink()
	desc := clusterdesc.New("test", boolToInt(hasMaster), workers, 512, 1024, time.Now().UnixMilli())
	store := clusterdesc.NewStore(desc)

	rm := rmclient.NewSimulatedClient(sink, time.Hour) // heartbeat never fires in tests
	nm := nmclient.NewSimulatedClient(sink)
	launch := launcher.New(nm, store)

	engine := New(sink, store, rm, nm, launch, WorkerSpec{Image: "test", Command: []string{"true"}}, clusterdesc.Resource{MemoryMB: 512}, hasMaster, maxTolerable)
	go engine.Run()
	return engine, store, sink
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func waitForCompletion(t *testing.T, engine *Engine, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		engine.WaitForCompletion()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for AM completion signal")
	}
}

// S1 — happy path: two workers requested, both allocated and launched.
func TestHappyPathTwoWorkers(t *testing.T) {
	engine, store, sink := newTestEngine(t, 2, true, 10)

	sink.Publish(events.Event{Kind: events.KindAllocated, Containers: []clusterdesc.Container{
		{ID: "c1", NodeHost: "10.0.0.1:1"},
		{ID: "c2", NodeHost: "10.0.0.2:1"},
	}})

	require.Eventually(t, func() bool {
		return store.WorkerCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	snap := engine.Snapshot()
	require.EqualValues(t, 2, snap.Allocated)
}

// S2 — over-allocation: three containers granted for two desired
// workers; exactly one is released.
func TestOverAllocationReleasesExcess(t *testing.T) {
	engine, _, sink := newTestEngine(t, 2, true, 10)

	sink.Publish(events.Event{Kind: events.KindAllocated, Containers: []clusterdesc.Container{
		{ID: "c1"}, {ID: "c2"}, {ID: "c3"},
	}})

	require.Eventually(t, func() bool {
		return engine.Snapshot().Allocated == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return engine.Snapshot().Released == 1
	}, 2*time.Second, 10*time.Millisecond)
}

// S3 — worker churn: one of two workers fails with a non-ABORTED
// status; the engine requests a replacement, which the simulated RM
// allocates and which brings the worker count back to two.
func TestWorkerChurnRequestsReplacement(t *testing.T) {
	engine, store, sink := newTestEngine(t, 2, true, 10)

	sink.Publish(events.Event{Kind: events.KindAllocated, Containers: []clusterdesc.Container{
		{ID: "c1"}, {ID: "c2"},
	}})
	require.Eventually(t, func() bool { return engine.Snapshot().Allocated == 2 }, 2*time.Second, 10*time.Millisecond)

	sink.Publish(events.Event{Kind: events.KindCompleted, Statuses: []clusterdesc.ContainerStatus{
		{ID: "c1", State: "COMPLETE", Aborted: false, ExitCode: 1, Diagnostics: "oom"},
	}})

	require.Eventually(t, func() bool {
		return engine.Snapshot().Failed == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return engine.Snapshot().Requested >= 1 && engine.Snapshot().Allocated == 2 && store.WorkerCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(func() []*clusterdesc.ClusterNode {
			var out []*clusterdesc.ClusterNode
			store.Mutate(func(d *clusterdesc.ClusterDescription) { out = d.CompletedNodes })
			return out
		}()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

// S4 — no master: once the single worker completes cleanly, the AM
// signals completion even with no master supervised.
func TestNoMasterAllDone(t *testing.T) {
	engine, _, sink := newTestEngine(t, 1, false, 10)

	sink.Publish(events.Event{Kind: events.KindAllocated, Containers: []clusterdesc.Container{{ID: "c1"}}})
	require.Eventually(t, func() bool { return engine.Snapshot().Allocated == 1 }, 2*time.Second, 10*time.Millisecond)

	sink.Publish(events.Event{Kind: events.KindCompleted, Statuses: []clusterdesc.ContainerStatus{
		{ID: "c1", State: "COMPLETE", Aborted: false, ExitCode: 0},
	}})

	waitForCompletion(t, engine, 2*time.Second)
	require.EqualValues(t, 0, engine.NumFailed())
}

// S5 — catastrophic failures: enough non-ABORTED completions arrive to
// cross the failure threshold, and the AM signals completion with a
// nonzero failure count.
func TestCatastrophicFailureThreshold(t *testing.T) {
	engine, _, sink := newTestEngine(t, 5, true, 3)

	containers := make([]clusterdesc.Container, 5)
	for i := range containers {
		containers[i] = clusterdesc.Container{ID: clusterdesc.ContainerID(fmt.Sprintf("c%d", i))}
	}
	sink.Publish(events.Event{Kind: events.KindAllocated, Containers: containers})
	require.Eventually(t, func() bool { return engine.Snapshot().Allocated == 5 }, 2*time.Second, 10*time.Millisecond)

	statuses := make([]clusterdesc.ContainerStatus, 0, 3)
	for i := 0; i < 3; i++ {
		statuses = append(statuses, clusterdesc.ContainerStatus{ID: containers[i].ID, State: "COMPLETE", Aborted: false, ExitCode: 1})
	}
	sink.Publish(events.Event{Kind: events.KindCompleted, Statuses: statuses})

	waitForCompletion(t, engine, 2*time.Second)
	require.GreaterOrEqual(t, engine.NumFailed(), int64(3))
}

// S6 — shutdown via RPC-equivalent event: a shutdownRequested event
// wakes the completion signal immediately.
func TestShutdownRequestedSignalsCompletion(t *testing.T) {
	engine, _, sink := newTestEngine(t, 2, true, 10)
	sink.Publish(events.Event{Kind: events.KindShutdownRequested})
	waitForCompletion(t, engine, 2*time.Second)
}

// Testable Property 6: the master exiting always triggers completion.
func TestMasterExitTriggersCompletion(t *testing.T) {
	engine, _, sink := newTestEngine(t, 3, true, 10)
	sink.Publish(events.Event{Kind: events.KindApplicationExited, ExitCode: 1})
	waitForCompletion(t, engine, 2*time.Second)
}

// SignalAMComplete is idempotent: repeated signals collapse to one.
func TestSignalAMCompleteIdempotent(t *testing.T) {
	engine, _, _ := newTestEngine(t, 1, true, 10)
	engine.SignalAMComplete()
	engine.SignalAMComplete()
	engine.SignalAMComplete()
	waitForCompletion(t, engine, time.Second)
}

// getProgress reflects whether the master is supervised and running.
func TestGetProgressReflectsMasterState(t *testing.T) {
	engine, _, sink := newTestEngine(t, 1, true, 10)
	require.Equal(t, float64(0), engine.GetProgress())

	sink.Publish(events.Event{Kind: events.KindApplicationStarted})
	require.Eventually(t, func() bool { return engine.GetProgress() == 50 }, time.Second, 5*time.Millisecond)
}

func TestGetProgressNoMasterIsAlwaysRunning(t *testing.T) {
	engine, _, _ := newTestEngine(t, 1, false, 10)
	require.Equal(t, float64(50), engine.GetProgress())
}

// The master node, once registered the way the AM lifecycle registers
// it, moves LIVE on applicationStarted and into failedNodes on a
// nonzero applicationExited, mirroring the worker completion path.
func TestMasterNodeLifecycleReflectedInStore(t *testing.T) {
	engine, store, sink := newTestEngine(t, 0, true, 10)

	store.RecordRequested(&clusterdesc.ClusterNode{Name: MasterNodeName, Role: clusterdesc.RoleMaster})
	require.True(t, store.PromoteRequestedToLaunching(MasterNodeName, clusterdesc.RoleMaster, "host:1", "hbase master start"))

	sink.Publish(events.Event{Kind: events.KindApplicationStarted})
	require.Eventually(t, func() bool {
		var live bool
		store.Mutate(func(d *clusterdesc.ClusterDescription) {
			for _, n := range d.MasterNodes {
				if n.Name == MasterNodeName && n.State == clusterdesc.NodeLive {
					live = true
				}
			}
		})
		return live
	}, 2*time.Second, 10*time.Millisecond)

	sink.Publish(events.Event{Kind: events.KindApplicationExited, ExitCode: 1})
	waitForCompletion(t, engine, 2*time.Second)

	var failedCount int
	store.Mutate(func(d *clusterdesc.ClusterDescription) {
		failedCount = len(d.FailedNodes)
	})
	require.Equal(t, 1, failedCount)
}

package reconcile

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/hoyamaster/pkg/clusterdesc"
	"github.com/cuemby/hoyamaster/pkg/events"
	"github.com/cuemby/hoyamaster/pkg/launcher"
	"github.com/cuemby/hoyamaster/pkg/log"
	"github.com/cuemby/hoyamaster/pkg/metrics"
	"github.com/cuemby/hoyamaster/pkg/nmclient"
	"github.com/cuemby/hoyamaster/pkg/rmclient"
)

// DefaultMaxTolerableFailures is the catastrophic-failure threshold
// (§4.F) used when the AM's runtime options don't override it.
const DefaultMaxTolerableFailures = 10

// MasterNodeName is the fixed node name the AM Lifecycle registers the
// supervised master process under, since (unlike workers) there is only
// ever at most one and it is never allocated through the RM/NM adapters.
const MasterNodeName = "master"

// DeleteNodesStopTimeout bounds how long a deleteNodes-induced stop
// waits before the NM adapter escalates to a forceful kill.
const DeleteNodesStopTimeout = 10 * time.Second

// WorkerSpec describes what the launcher should run for a worker
// container (§4.E).
type WorkerSpec = launcher.Spec

// Engine is the Reconciliation Engine (§4.F), the AM's central state
// machine. A single goroutine drains one event queue fed by the RM
// adapter, the NM adapter, the supervised master process, and the
// control RPC server, and applies the allocation/completion/refill/
// catastrophic-failure/all-done policies against the desired worker
// count.
type Engine struct {
	sink   events.Sink
	store  *clusterdesc.Store
	rm     rmclient.Client
	nm     nmclient.Client
	launch *launcher.Launcher

	workerSpec   WorkerSpec
	resource     clusterdesc.Resource
	maxTolerable int64
	hasMaster    bool

	// mu guards the allocated-container map and the outstanding-request
	// count together, since the over-allocation check-and-release must
	// not race with a concurrent allocation (§5 shared-resource policy).
	mu           sync.Mutex
	allocated    map[clusterdesc.ContainerID]string // container -> node name
	numRequested int64

	numAllocated int64 // atomic, |A|
	numCompleted int64 // atomic, clean worker exits
	numFailed    int64 // atomic, non-ABORTED (crash/churn) completions
	numReleased  int64 // atomic, ABORTED (AM-induced release) completions

	masterRunning int32 // atomic bool

	doneMu   sync.Mutex
	doneCond *sync.Cond
	done     bool
	signaled int32 // atomic bool, guards SignalAMComplete idempotency

	seq int64 // atomic, node-name sequence
}

// New builds a Reconciliation Engine. hasMaster indicates whether a
// master subprocess is supervised alongside the workers.
func New(sink events.Sink, store *clusterdesc.Store, rm rmclient.Client, nm nmclient.Client, launch *launcher.Launcher, workerSpec WorkerSpec, resource clusterdesc.Resource, hasMaster bool, maxTolerable int) *Engine {
	if maxTolerable <= 0 {
		maxTolerable = DefaultMaxTolerableFailures
	}
	e := &Engine{
		sink:         sink,
		store:        store,
		rm:           rm,
		nm:           nm,
		launch:       launch,
		workerSpec:   workerSpec,
		resource:     resource,
		hasMaster:    hasMaster,
		maxTolerable: int64(maxTolerable),
		allocated:    make(map[clusterdesc.ContainerID]string),
	}
	e.doneCond = sync.NewCond(&e.doneMu)
	rm.SetProgressFunc(e.GetProgress)
	return e
}

// Run drains the event sink until it is closed, applying each event's
// policy in turn. Intended to be run on its own goroutine (§5 "single
// goroutine draining the shared event channel").
func (e *Engine) Run() {
	for ev := range e.sink {
		e.handle(ev)
	}
}

func (e *Engine) handle(ev events.Event) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationEventsTotal.WithLabelValues(string(ev.Kind)).Inc()

		c := e.Snapshot()
		metrics.ContainersTotal.WithLabelValues("requested").Set(float64(c.Requested))
		metrics.ContainersTotal.WithLabelValues("allocated").Set(float64(c.Allocated))
		metrics.ContainersTotal.WithLabelValues("completed").Set(float64(c.Completed))
		metrics.ContainersTotal.WithLabelValues("failed").Set(float64(c.Failed))
		metrics.ContainersTotal.WithLabelValues("released").Set(float64(c.Released))
	}()

	switch ev.Kind {
	case events.KindAllocated:
		e.handleAllocated(ev.Containers)
	case events.KindCompleted:
		e.handleCompleted(ev.Statuses)
	case events.KindContainerStarted:
		e.handleContainerStarted(ev.ContainerID)
	case events.KindContainerStopped:
		log.WithComponent("reconcile").Info().Str("container", string(ev.ContainerID)).Msg("container stopped")
	case events.KindContainerStartError:
		e.handleContainerStartError(ev.ContainerID, ev.Err)
	case events.KindContainerStopError:
		log.WithComponent("reconcile").Warn().Str("container", string(ev.ContainerID)).Err(ev.Err).Msg("stop container failed")
	case events.KindApplicationStarted:
		atomic.StoreInt32(&e.masterRunning, 1)
		if e.hasMaster && !e.store.PromoteToLive(MasterNodeName) {
			log.WithComponent("reconcile").Warn().Msg("master started but its node was not found in store")
		}
	case events.KindApplicationExited:
		e.handleApplicationExited(ev.ExitCode)
	case events.KindShutdownRequested:
		e.SignalAMComplete()
	case events.KindAdapterError:
		log.WithComponent("reconcile").Error().Err(ev.Err).Msg("adapter reported a transport error; signaling shutdown")
		e.SignalAMComplete()
	case events.KindAddNodes:
		e.handleAddNodes(ev.N)
	case events.KindDeleteNodes:
		e.handleDeleteNodes(ev.N)
	}
}

func (e *Engine) nextName() string {
	n := atomic.AddInt64(&e.seq, 1)
	return fmt.Sprintf("container_%d_%s", n, uuid.NewString()[:8])
}

// handleAllocated applies the allocation-handling policy (§4.F): newly
// allocated containers beyond D are released back to the RM; the rest
// are recorded and handed to the launcher.
func (e *Engine) handleAllocated(containers []clusterdesc.Container) {
	desired := int64(e.store.DesiredWorkers())

	for _, c := range containers {
		e.mu.Lock()
		if int64(len(e.allocated)) >= desired {
			e.mu.Unlock()
			log.WithComponent("reconcile").Info().Str("container", string(c.ID)).Msg("over-allocated container, releasing")
			e.rm.ReleaseContainer(c.ID)
			continue
		}

		name := e.nextName()
		e.allocated[c.ID] = name
		// An accepted allocation is a request the RM granted: requests
		// issued outside refill (the lifecycle's initial ask) are counted
		// here as their containers arrive, so numRequested never trails |A|.
		if n := int64(len(e.allocated)); e.numRequested < n {
			e.numRequested = n
		}
		e.mu.Unlock()

		atomic.AddInt64(&e.numAllocated, 1)
		metrics.ContainerAllocationsTotal.Inc()
		e.launch.Launch(c, clusterdesc.RoleWorker, e.workerSpec, name)
	}
}

// handleCompleted applies the completion-handling policy (§4.F).
func (e *Engine) handleCompleted(statuses []clusterdesc.ContainerStatus) {
	desired := int64(e.store.DesiredWorkers())

	for _, st := range statuses {
		if st.State != "COMPLETE" {
			log.WithComponent("reconcile").Warn().Str("container", string(st.ID)).Str("state", st.State).Msg("completion reported non-COMPLETE terminal state; treating as completion anyway")
		}

		e.mu.Lock()
		name, known := e.allocated[st.ID]
		if known {
			delete(e.allocated, st.ID)
		}
		e.mu.Unlock()

		if known {
			// Every worker completion, clean or not, is recorded in
			// completedNodes; numFailed below tells the outcomes apart.
			e.store.MoveToTerminal(name, false, st.ExitCode, st.Diagnostics)
		}

		switch {
		case st.Aborted:
			atomic.AddInt64(&e.numReleased, 1)
			metrics.ContainerReleasesTotal.Inc()
		case st.ExitCode == 0:
			atomic.AddInt64(&e.numCompleted, 1)
		default:
			atomic.AddInt64(&e.numFailed, 1)
		}

		if known {
			atomic.AddInt64(&e.numAllocated, -1)
			e.mu.Lock()
			e.numRequested--
			e.mu.Unlock()
		}
	}

	if atomic.LoadInt64(&e.numFailed) >= e.maxTolerable {
		log.WithComponent("reconcile").Error().Int64("failed", atomic.LoadInt64(&e.numFailed)).Msg("catastrophic failure threshold reached")
		e.SignalAMComplete()
		return
	}

	// Termination is decided before refilling, so that no container is
	// requested once completion has been signaled.
	e.checkAllDone(desired)
	if atomic.LoadInt32(&e.signaled) == 1 {
		return
	}

	e.refill(desired)
}

// refill computes ask = D - numRequested and requests more containers
// if positive.
func (e *Engine) refill(desired int64) {
	e.mu.Lock()
	ask := desired - e.numRequested
	if ask > 0 {
		e.numRequested += ask
	}
	e.mu.Unlock()

	if ask > 0 {
		e.rm.RequestContainers(e.resource, nil, nil, 0, int(ask))
		metrics.RequestContainersTotal.Add(float64(ask))
	}
}

// checkAllDone applies the all-done rule: every desired worker slot has
// reached a terminal outcome and nothing remains outstanding or
// allocated.
func (e *Engine) checkAllDone(desired int64) {
	completed := atomic.LoadInt64(&e.numCompleted)
	failed := atomic.LoadInt64(&e.numFailed)
	released := atomic.LoadInt64(&e.numReleased)

	e.mu.Lock()
	outstanding := e.numRequested
	allocated := int64(len(e.allocated))
	e.mu.Unlock()

	if completed+failed+released >= desired && allocated == 0 && outstanding <= 0 {
		log.WithComponent("reconcile").Info().Msg("all workers reached a terminal state; signaling completion")
		e.SignalAMComplete()
	}
}

func (e *Engine) handleContainerStarted(id clusterdesc.ContainerID) {
	e.mu.Lock()
	name, ok := e.allocated[id]
	e.mu.Unlock()
	if !ok {
		name = string(id)
	}
	if !e.store.PromoteToLive(name) {
		log.WithComponent("reconcile").Warn().Str("container", string(id)).Msg("container started but node not found in store (may not be promoted from requested yet)")
	}
}

func (e *Engine) handleContainerStartError(id clusterdesc.ContainerID, err error) {
	e.mu.Lock()
	name, ok := e.allocated[id]
	if ok {
		delete(e.allocated, id)
	}
	e.mu.Unlock()
	if !ok {
		name = string(id)
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	e.store.MoveToTerminal(name, true, -1, msg)
	atomic.AddInt64(&e.numAllocated, -1)
}

func (e *Engine) handleApplicationExited(code int) {
	atomic.StoreInt32(&e.masterRunning, 0)
	if e.hasMaster {
		e.store.MoveToTerminal(MasterNodeName, code != 0, code, "")
	}
	log.WithComponent("reconcile").Info().Int("exitCode", code).Msg("supervised master exited; signaling AM completion")
	// §4.F and Testable Property 6: the master's exit always triggers
	// completion, regardless of its exit code.
	e.SignalAMComplete()
}

// handleAddNodes implements the addNodes scaling decision (§9): raise D
// under the store's lock; the next refill check picks up the new
// desired count.
func (e *Engine) handleAddNodes(n int) {
	if n <= 0 {
		return
	}
	desired := e.store.DesiredWorkers() + n
	e.store.SetDesiredWorkers(desired)
	e.refill(int64(desired))
}

// handleDeleteNodes implements the deleteNodes scaling decision (§9):
// lower D (floored at 0); excess live workers are stopped on this pass.
func (e *Engine) handleDeleteNodes(n int) {
	if n <= 0 {
		return
	}
	desired := e.store.DesiredWorkers() - n
	if desired < 0 {
		desired = 0
	}
	e.store.SetDesiredWorkers(desired)

	excess := e.store.WorkerCount() - desired
	if excess <= 0 {
		return
	}

	e.mu.Lock()
	type stopTarget struct {
		id   clusterdesc.ContainerID
		name string
	}
	targets := make([]stopTarget, 0, excess)
	for id, name := range e.allocated {
		if len(targets) >= excess {
			break
		}
		targets = append(targets, stopTarget{id: id, name: name})
	}
	e.mu.Unlock()

	for _, t := range targets {
		_ = e.nm.StopContainer(context.Background(), t.id, e.store.NodeHost(t.name), DeleteNodesStopTimeout)
	}
}

// GetProgress reports the reconciliation engine's coarse progress
// estimate for the RM heartbeat (§4.F "Progress").
func (e *Engine) GetProgress() float64 {
	if e.hasMaster && atomic.LoadInt32(&e.masterRunning) == 0 {
		return 0
	}
	return 50
}

// SignalAMComplete wakes the AM lifecycle; idempotent (§4.F, §5).
func (e *Engine) SignalAMComplete() {
	if !atomic.CompareAndSwapInt32(&e.signaled, 0, 1) {
		return
	}
	e.doneMu.Lock()
	e.done = true
	e.doneMu.Unlock()
	e.doneCond.Broadcast()
}

// WaitForCompletion blocks until SignalAMComplete has been observed
// (§4.H step 9).
func (e *Engine) WaitForCompletion() {
	e.doneMu.Lock()
	defer e.doneMu.Unlock()
	for !e.done {
		e.doneCond.Wait()
	}
}

// NumFailed returns the current failed-completion count; the AM
// lifecycle uses this to decide SUCCEEDED vs FAILED on unregister.
func (e *Engine) NumFailed() int64 {
	return atomic.LoadInt64(&e.numFailed)
}

// Counters is a point-in-time snapshot of the engine's counters, used by
// tests and by the per-event container-count gauges.
type Counters struct {
	Allocated int64
	Requested int64
	Completed int64
	Failed    int64
	Released  int64
}

// Snapshot returns the current counter values.
func (e *Engine) Snapshot() Counters {
	e.mu.Lock()
	requested := e.numRequested
	e.mu.Unlock()
	return Counters{
		Allocated: atomic.LoadInt64(&e.numAllocated),
		Requested: requested,
		Completed: atomic.LoadInt64(&e.numCompleted),
		Failed:    atomic.LoadInt64(&e.numFailed),
		Released:  atomic.LoadInt64(&e.numReleased),
	}
}

package launcher

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cuemby/hoyamaster/pkg/clusterdesc"
	"github.com/cuemby/hoyamaster/pkg/log"
	"github.com/cuemby/hoyamaster/pkg/metrics"
	"github.com/cuemby/hoyamaster/pkg/nmclient"
)

// JoinTimeout bounds how long Shutdown waits for any one in-flight
// launch goroutine before giving up on it (§5 "Cancellation &
// timeouts").
const JoinTimeout = 10 * time.Second

// Spec describes what a Launcher should run for worker containers:
// the image, base command, and per-node environment overrides it
// should apply to every allocated container of that role.
type Spec struct {
	Image   string
	Command []string
	Env     map[string]string
}

// Launcher builds launch contexts and submits them to an NM Client
// Adapter, one goroutine per container, tracked so Shutdown can join
// them (§4.E).
type Launcher struct {
	client nmclient.Client
	store  *clusterdesc.Store

	mu sync.Mutex
	wg sync.WaitGroup
}

// New creates a Launcher submitting containers through client and
// recording REQUESTED/LIVE node transitions in store.
func New(client nmclient.Client, store *clusterdesc.Store) *Launcher {
	return &Launcher{client: client, store: store}
}

// Launch starts one goroutine that builds a launch context for
// container under spec and role, registers a REQUESTED ClusterNode
// keyed by name (assigned by the caller, which must keep its own
// ContainerID-to-name mapping for later completion handling), and
// calls the NM adapter's StartContainer. Promotion to LIVE happens
// later, driven by the adapter's onContainerStarted callback (§4.E).
func (l *Launcher) Launch(container clusterdesc.Container, role clusterdesc.NodeRole, spec Spec, name string) {
	l.mu.Lock()
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()

		logger := log.WithContainerID(string(container.ID)).With().Str("node", name).Logger()

		l.store.RecordRequested(&clusterdesc.ClusterNode{
			Name:  name,
			Role:  role,
			State: clusterdesc.NodeRequested,
			Host:  container.NodeHost,
		})

		launch := nmclient.LaunchContext{
			Image:     spec.Image,
			Command:   spec.Command,
			Env:       spec.Env,
			Resources: container.Resource,
		}

		timer := metrics.NewTimer()
		ctx, cancel := context.WithTimeout(context.Background(), JoinTimeout)
		defer cancel()

		if err := l.client.StartContainer(ctx, container, launch); err != nil {
			logger.Error().Err(err).Msg("start container failed")
			l.store.MoveToTerminal(name, true, -1, err.Error())
			timer.ObserveDuration(metrics.ContainerLaunchDuration)
			return
		}

		if !l.store.PromoteRequestedToLaunching(name, role, container.NodeHost, strings.Join(launch.Command, " ")) {
			logger.Warn().Msg("requested node vanished before launch could be recorded")
		}
		timer.ObserveDuration(metrics.ContainerLaunchDuration)
	}()
}

// Shutdown waits for all in-flight launches, up to JoinTimeout total;
// launches that do not complete in time are abandoned (their node
// state remains whatever the store last recorded, per §5).
func (l *Launcher) Shutdown() {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(JoinTimeout):
	}
}

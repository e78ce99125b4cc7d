package rmclient

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/hoyamaster/pkg/clusterdesc"
	"github.com/cuemby/hoyamaster/pkg/events"
	"github.com/cuemby/hoyamaster/pkg/log"
)

// SimulatedClient is an in-memory fake resource manager (§4.C; the AM
// lifecycle uses it with or without --x-test): it allocates containers
// shortly after each
// RequestContainers call and reports AM-induced releases as ABORTED
// completions, the way a real RM eventually would.
type SimulatedClient struct {
	sink             events.Sink
	allocationDelay  time.Duration
	heartbeatPeriod  time.Duration
	maxCapabilityMB  int

	mu          sync.Mutex
	progressFn  func() float64
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewSimulatedClient builds a SimulatedClient that publishes its
// callbacks onto sink.
func NewSimulatedClient(sink events.Sink, heartbeatPeriod time.Duration) *SimulatedClient {
	c := &SimulatedClient{
		sink:            sink,
		allocationDelay: 5 * time.Millisecond,
		heartbeatPeriod: heartbeatPeriod,
		maxCapabilityMB: 4096,
		stopCh:          make(chan struct{}),
	}
	go c.heartbeatLoop()
	return c
}

func (c *SimulatedClient) Register(ctx context.Context, host string, port int, trackingURL string) (RegistrationResponse, error) {
	log.WithComponent("rmclient.simulated").Info().
		Str("host", host).Int("port", port).Str("trackingUrl", trackingURL).
		Msg("registered with simulated resource manager")
	return RegistrationResponse{MaxCapabilityMB: c.maxCapabilityMB}, nil
}

func (c *SimulatedClient) RequestContainers(resource clusterdesc.Resource, hostHints, rackHints []string, priority, count int) {
	if count <= 0 {
		return
	}
	go func(n int) {
		time.Sleep(c.allocationDelay)
		containers := make([]clusterdesc.Container, 0, n)
		for i := 0; i < n; i++ {
			containers = append(containers, clusterdesc.Container{
				ID:       clusterdesc.ContainerID(uuid.NewString()),
				NodeHost: "127.0.0.1:9999",
				NodePort: 9999,
				Resource: resource,
			})
		}
		c.sink.Publish(events.Event{Kind: events.KindAllocated, Containers: containers})
	}(count)
}

func (c *SimulatedClient) ReleaseContainer(id clusterdesc.ContainerID) {
	go func() {
		time.Sleep(c.allocationDelay)
		c.sink.Publish(events.Event{
			Kind: events.KindCompleted,
			Statuses: []clusterdesc.ContainerStatus{{
				ID:          id,
				State:       "COMPLETE",
				Aborted:     true,
				ExitCode:    0,
				Diagnostics: "released due to over-allocation",
			}},
		})
	}()
}

func (c *SimulatedClient) Unregister(ctx context.Context, status FinalStatus, message string) error {
	log.WithComponent("rmclient.simulated").Info().
		Str("status", string(status)).Str("message", message).
		Msg("unregistered from simulated resource manager")
	return nil
}

func (c *SimulatedClient) GetProgress() float64 {
	c.mu.Lock()
	fn := c.progressFn
	c.mu.Unlock()
	if fn == nil {
		return 0
	}
	return fn()
}

func (c *SimulatedClient) SetProgressFunc(fn func() float64) {
	c.mu.Lock()
	c.progressFn = fn
	c.mu.Unlock()
}

func (c *SimulatedClient) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *SimulatedClient) heartbeatLoop() {
	ticker := time.NewTicker(c.heartbeatPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.GetProgress()
		case <-c.stopCh:
			return
		}
	}
}

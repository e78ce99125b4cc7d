package nmclient

import (
	"context"
	"time"

	"github.com/cuemby/hoyamaster/pkg/clusterdesc"
	"github.com/cuemby/hoyamaster/pkg/events"
)

// SimulatedClient fakes container launch/stop without a real containerd
// socket, for --x-test and the reconciliation engine's own test suite.
// It reports every start as successful after a short delay; stop
// requests always succeed.
type SimulatedClient struct {
	sink  events.Sink
	delay time.Duration
}

// NewSimulatedClient builds a SimulatedClient publishing onto sink.
func NewSimulatedClient(sink events.Sink) *SimulatedClient {
	return &SimulatedClient{sink: sink, delay: 2 * time.Millisecond}
}

func (c *SimulatedClient) StartContainer(ctx context.Context, container clusterdesc.Container, launch LaunchContext) error {
	go func() {
		time.Sleep(c.delay)
		c.sink.Publish(events.Event{Kind: events.KindContainerStarted, ContainerID: container.ID})
	}()
	return nil
}

func (c *SimulatedClient) StopContainer(ctx context.Context, id clusterdesc.ContainerID, nodeID string, timeout time.Duration) error {
	go func() {
		time.Sleep(c.delay)
		c.sink.Publish(events.Event{Kind: events.KindContainerStopped, ContainerID: id})
	}()
	return nil
}

func (c *SimulatedClient) GetStatus(ctx context.Context, id clusterdesc.ContainerID, nodeID string) error {
	return nil
}

func (c *SimulatedClient) Close() error { return nil }

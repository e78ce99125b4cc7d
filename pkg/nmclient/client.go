package nmclient

import (
	"context"
	"time"

	"github.com/cuemby/hoyamaster/pkg/clusterdesc"
)

// LaunchContext is the command vector, environment, and resource tags
// the Container Launcher (§4.E) builds for one allocated container.
type LaunchContext struct {
	Image     string
	Command   []string
	Env       map[string]string
	Resources clusterdesc.Resource
}

// Client is the NM Client Adapter's Go interface (§4.D). All methods
// return once the request is submitted; outcomes arrive as events on the
// Sink supplied to the concrete implementation's constructor.
type Client interface {
	// StartContainer submits a container for launch under the given
	// allocation and launch context.
	StartContainer(ctx context.Context, container clusterdesc.Container, launch LaunchContext) error

	// StopContainer requests termination of a running container, with a
	// graceful-then-forceful timeout.
	StopContainer(ctx context.Context, id clusterdesc.ContainerID, nodeID string, timeout time.Duration) error

	// GetStatus queries a container's current status.
	GetStatus(ctx context.Context, id clusterdesc.ContainerID, nodeID string) error

	// Close releases any underlying connection (e.g. the containerd
	// client socket).
	Close() error
}

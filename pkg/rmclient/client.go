package rmclient

import (
	"context"

	"github.com/cuemby/hoyamaster/pkg/clusterdesc"
)

// RegistrationResponse is returned by Register (§4.C).
type RegistrationResponse struct {
	MaxCapabilityMB int
}

// FinalStatus is reported to the RM on Unregister.
type FinalStatus string

const (
	StatusSucceeded FinalStatus = "SUCCEEDED"
	StatusFailed    FinalStatus = "FAILED"
)

// Client is the RM Client Adapter's Go interface (§4.C). The wire
// protocol of the real resource manager is out of scope (§1); concrete
// implementations translate these calls into whatever that protocol
// actually is. This module ships only SimulatedClient, which the AM
// lifecycle uses in every mode and the reconciliation engine's test
// suite uses too.
type Client interface {
	// Register registers the AM with the resource manager, returning the
	// maximum single-container capability it may request.
	Register(ctx context.Context, host string, port int, trackingURL string) (RegistrationResponse, error)

	// RequestContainers asks for count additional containers matching
	// resource; non-blocking, results arrive as allocated events on the
	// Sink supplied to New.
	RequestContainers(resource clusterdesc.Resource, hostHints, rackHints []string, priority, count int)

	// ReleaseContainer returns an over-allocated container to the RM;
	// non-blocking.
	ReleaseContainer(id clusterdesc.ContainerID)

	// Unregister reports final status to the RM; blocking, may fail with
	// a transport error.
	Unregister(ctx context.Context, status FinalStatus, message string) error

	// GetProgress is polled by the adapter's own heartbeat goroutine;
	// callers do not call it directly.
	GetProgress() float64

	// SetProgressFunc installs the callback the heartbeat goroutine polls
	// for progress (§4.F "Progress").
	SetProgressFunc(fn func() float64)

	// Close stops the adapter's heartbeat goroutine.
	Close()
}

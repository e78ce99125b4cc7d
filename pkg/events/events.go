package events

import (
	"github.com/cuemby/hoyamaster/pkg/clusterdesc"
)

// Kind identifies which of the reconciliation engine's input event
// classes (§4.F "Inputs") an Event carries.
type Kind string

const (
	KindAllocated           Kind = "allocated"
	KindCompleted           Kind = "completed"
	KindContainerStarted    Kind = "container_started"
	KindContainerStopped    Kind = "container_stopped"
	KindContainerStartError Kind = "container_start_error"
	KindContainerStopError  Kind = "container_stop_error"
	KindApplicationStarted  Kind = "application_started"
	KindApplicationExited   Kind = "application_exited"
	KindShutdownRequested   Kind = "shutdown_requested"
	KindAdapterError        Kind = "adapter_error"
	KindAddNodes            Kind = "add_nodes"
	KindDeleteNodes         Kind = "delete_nodes"
)

// Event is the common envelope for every event kind; only the fields
// relevant to Kind are populated.
type Event struct {
	Kind Kind

	Containers []clusterdesc.Container
	Statuses   []clusterdesc.ContainerStatus

	ContainerID clusterdesc.ContainerID
	Err         error

	ExitCode int

	N int // addNodes / deleteNodes count
}

// Sink is the single queue every event source publishes onto; the
// Reconciliation Engine is its only consumer. Buffered so that a burst
// of callbacks from one source never blocks that source's own dispatcher
// goroutine (mirrors the 100-event buffer this codebase's pub/sub broker
// uses for the same reason).
type Sink chan Event

// NewSink creates a Sink with the conventional buffer size.
func NewSink() Sink {
	return make(Sink, 100)
}

// Publish enqueues an event, respecting the Sink's buffer; it never
// blocks past the buffer limit in normal operation since the
// Reconciliation Engine drains continuously.
func (s Sink) Publish(e Event) {
	s <- e
}

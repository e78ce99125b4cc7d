package amerrors

import "fmt"

// Exit codes by error category (§6).
const (
	ExitSuccess      = 0
	ExitBadConfig    = 64
	ExitLaunchFailed = 65
	ExitInternal     = 70
)

// Kind tags one of the seven error categories from §7.
type Kind string

const (
	KindBadCommandArguments Kind = "bad_command_arguments"
	KindBadConfig           Kind = "bad_config"
	KindTransportError      Kind = "transport_error"
	KindInternalState       Kind = "internal_state"
	KindContainerStartError Kind = "container_start_error"
	KindContainerStopError  Kind = "container_stop_error"
	KindChildExited         Kind = "child_exited"
)

// AMError is the common shape for every tagged error kind below.
type AMError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AMError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AMError) Unwrap() error { return e.Cause }

// ExitCode maps the error's kind to an AM process exit code. Kinds with
// no defined mapping (per-container errors, which never escape to the
// lifecycle) return ExitInternal as a conservative default.
func (e *AMError) ExitCode() int {
	switch e.Kind {
	case KindBadCommandArguments, KindBadConfig:
		return ExitBadConfig
	case KindTransportError, KindChildExited:
		return ExitLaunchFailed
	default:
		return ExitInternal
	}
}

func newErr(kind Kind, message string, cause error) *AMError {
	return &AMError{Kind: kind, Message: message, Cause: cause}
}

// BadCommandArguments reports malformed or missing CLI flags; unrecoverable,
// the AM fails fast before registering with the resource manager.
func BadCommandArguments(message string, cause error) *AMError {
	return newErr(KindBadCommandArguments, message, cause)
}

// BadConfig reports a missing or malformed backing-site configuration
// file; unrecoverable, same disposition as BadCommandArguments.
func BadConfig(message string, cause error) *AMError {
	return newErr(KindBadConfig, message, cause)
}

// TransportError reports a resource-manager or node-manager communication
// failure surfaced through an adapter's onError callback; the adapter has
// already retried what it can.
func TransportError(message string, cause error) *AMError {
	return newErr(KindTransportError, message, cause)
}

// InternalState reports an invariant violation, such as spawning an
// already-running child process; unrecoverable.
func InternalState(message string, cause error) *AMError {
	return newErr(KindInternalState, message, cause)
}

// ContainerStartError reports a per-container launch failure; the node
// moves to failedNodes and the AM continues.
func ContainerStartError(message string, cause error) *AMError {
	return newErr(KindContainerStartError, message, cause)
}

// ContainerStopError reports a per-container stop failure; not fatal.
func ContainerStopError(message string, cause error) *AMError {
	return newErr(KindContainerStopError, message, cause)
}

// ChildExited reports the supervised child's termination; it always
// triggers AM completion regardless of the exit code carried in Message.
func ChildExited(message string, cause error) *AMError {
	return newErr(KindChildExited, message, cause)
}

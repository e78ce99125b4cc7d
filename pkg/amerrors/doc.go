/*
Package amerrors defines the application master's error taxonomy (§7):
a small set of tagged error kinds, each carrying an exit code so the
lifecycle can map any startup failure straight to a process exit status
without a second classification step.

Per-container failures (ContainerStartError, ContainerStopError) are not
fatal — they are absorbed into the cluster description and counted, never
propagated to the lifecycle. For startup failures, lifecycle.Run picks
the matching Exit* constant itself and returns it; cmd/appmaster passes
that code to os.Exit. AMError.ExitCode gives the same mapping for a
single error value.
*/
package amerrors

/*
Package supervisor owns the one supervised child process the
application master spawns for the database's master role (§4.A).

Its process lifecycle — exec.CommandContext, pipe-capture goroutines for
combined stdout/stderr, SIGTERM then SIGKILL after a grace period,
Stop idempotency via sync.Once — is adapted from this codebase's own
process-supervision test harness. The captured-output ring buffer is
backed by github.com/armon/circbuf instead of an unbounded buffer, to
bound memory to the last N lines of output.
*/
package supervisor

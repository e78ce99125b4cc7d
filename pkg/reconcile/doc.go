/*
Package reconcile implements the Reconciliation Engine (§4.F), the
application master's central state machine. A single goroutine drains
one event queue fed by all four event sources — the resource-manager
adapter, the node-manager adapter, the supervised master process, and
the control RPC server — and applies the allocation, completion,
refill, catastrophic-failure, and all-done policies against the
desired worker count D.

The single-consumer event-queue shape replaces this codebase's
publish/subscribe broker: with exactly one state machine ever acting on
these events, a multi-subscriber broker bought nothing but the
complexity of ordering subscriber fan-out, so events are funneled
through one buffered channel instead.
*/
package reconcile

/*
Package events defines the single typed event envelope that the
application master's four independent event sources — the RM Client
Adapter, the NM Client Adapter, the Process Supervisor, and the Control
RPC Server — all push onto one queue for the Reconciliation Engine to
drain single-threaded (Design Notes §9, "callback → event-queue
refactor").

This replaces ad-hoc per-source callback locking with one ordering rule:
events from the same source arrive in the order that source observed
them (§5); across sources, no ordering is assumed. The shape is adapted
from this codebase's publish/subscribe event broker, narrowed from a
many-subscriber broadcast to a single consumer, since the Reconciliation
Engine is the only reader that exists in this domain.
*/
package events

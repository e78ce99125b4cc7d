/*
Package rmclient wraps the resource-manager's callback API (§4.C). The
real wire protocol is an abstract, out-of-scope collaborator (§1); this
package expresses it as a Go interface plus one concrete implementation,
SimulatedClient, an in-memory fake resource manager that the AM lifecycle
uses in every mode (--x-test only switches the node-manager adapter) and
that the reconciliation engine's own test suite uses.

Every callback the real adapter would deliver on its own dispatcher
goroutines is instead pushed onto the caller-supplied events.Sink,
closing the cyclic-reference loop the Design Notes call out: the AM
never holds a back-pointer into the adapter, and the adapter never holds
a back-pointer into the AM — both just share a channel.
*/
package rmclient

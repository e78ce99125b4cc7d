/*
Package nmclient wraps the node-manager API (§4.D): startContainer,
stopContainer, getStatus, all non-blocking from the caller's point of
view. Start and stop results are delivered as events; GetStatus returns
nil and publishes no event in either implementation.

ContainerdClient generalizes "node manager" into a containerd-backed per-node
agent (DOMAIN STACK): it pulls images, builds an OCI runtime spec from a
LaunchContext, and drives containers through containerd's client API,
adapted from this codebase's own worker-side container executor. A
SimulatedClient stands in during --x-test so the reconciliation engine's
test suite never needs a live containerd socket.
*/
package nmclient

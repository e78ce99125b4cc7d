/*
Package controlrpc implements the Control RPC Server (§4.G): a small
net/rpc endpoint, bound to an ephemeral loopback TCP port, exposing
getClusterStatus, stopCluster, addNodes, deleteNodes, and a
getProtocolVersion/getProtocolSignature pair for client version
negotiation.

This module has no .proto to generate from and no protoc in its
toolchain, so the transport is the standard library's net/rpc,
gob-encoded over TCP, closer in spirit to the Hadoop IPC mechanism the
application-master protocol this component stands in for was
originally built on. See DESIGN.md for the full rationale.
*/
package controlrpc

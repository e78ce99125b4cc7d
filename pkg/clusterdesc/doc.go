/*
Package clusterdesc holds the application master's single authoritative
document of desired and observed cluster state (§3, §4.B): the
ClusterDescription and its ClusterNode entries, plus a mutex-guarded
Store that serializes every mutation and publishes consistent JSON
snapshots.

# Shape

	┌──────────────── ClusterDescription ────────────────┐
	│ name, phase, createTime/startTime/statusTime        │
	│ masters, workers, masterHeap, workerHeap            │
	│ clientProperties (ordered)                          │
	│ masterNodes / workerNodes / requestedNodes          │
	│ completedNodes / failedNodes                        │
	│ rootPath, zkHosts, zkPort, zkPath                   │
	└──────────────────────────────────────────────────────┘

Every field name and JSON key is part of the external contract (§6): the
getClusterStatus RPC serializes this struct directly, so renaming a field
here is a wire-compatibility break.

The Store is the only code path allowed to read or write a
ClusterDescription; every other package goes through it, never holding a
pointer to a node list across a reconciliation step.
*/
package clusterdesc

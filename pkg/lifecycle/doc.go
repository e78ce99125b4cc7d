/*
Package lifecycle implements the AM Lifecycle (§4.H): the ordered
startup sequence (register with the resource manager, validate the
staged backing-service configuration, spawn the supervised master,
request workers), the steady-state wait on the reconciliation engine's
completion signal, and ordered shutdown (stop the master, join
launchers, unregister, stop the control RPC server).

Grounded on cmd/warren/main.go's clusterInitCmd ordered
start-everything/select{sigCh, errCh}/ordered-shutdown shape, extended
with a third completion source (the reconciliation engine's condition
variable) per the Open Question resolution recorded in DESIGN.md.
*/
package lifecycle

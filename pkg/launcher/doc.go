/*
Package launcher implements the Container Launcher (§4.E): for each
container the Reconciliation Engine accepts from an allocation, it
builds a launch context (command vector, environment, resource tags)
and submits it to the NM Client Adapter on its own short-lived
goroutine. There is no pool: every Launch call starts one goroutine, so
the number of concurrent launches is not bounded.

Launches are tracked with a WaitGroup. Shutdown waits for all of them
under one shared JoinTimeout; launches do not get a deadline each, and
any still running when that timeout expires are abandoned.
*/
package launcher

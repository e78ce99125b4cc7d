/*
Package log provides structured logging for the application master using
zerolog. It wraps a single global Logger, initialized once via Init from
the AM's --log-level/--log-json flags, with helpers for attaching
component, node, service, task, container, and role fields to a child
logger rather than repeating Str() calls at every call site.

Output goes to stdout as JSON or, for local/interactive runs, a
human-readable console writer; the resource manager and node manager are
expected to capture the AM container's stdout/stderr themselves, the way
any other supervised container's output is collected.
*/
package log

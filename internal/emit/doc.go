// Package emit drives code generation. The Scheduler walks the units
// reachable from the entry point in a single stream and hands each one to
// a Backend exactly once.
package emit

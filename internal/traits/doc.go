// Package traits selects trait implementations.
//
// Queries run inside replayable jobs: they wait for the registry to be
// sealed and for every impl record to be finalized, and return
// asyncrt.ErrPending until then. Candidates are visited in sorted name
// order and any remaining tie is an error, so the answer never depends
// on declaration order or scheduling.
package traits

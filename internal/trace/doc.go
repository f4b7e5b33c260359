// Package trace records what the raven compiler is doing while it runs.
//
// Events form spans (begin/end pairs) and points, tagged with a scope:
//
//   - ScopeDriver: one build, from loading to emission
//   - ScopePass: tokenize, parse, check, emit
//   - ScopeUnit: finalization of a single compilation unit
//   - ScopeJob: executor internals (spawn, park, wake)
//
// The level picks how deep the output goes: phase shows driver and
// pass spans, detail adds units, debug adds jobs.
//
// Tracers travel through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "check", 0)
//	defer span.End("")
//
// A heartbeat goroutine can be started next to a build so that a stuck
// scheduler still produces output.
package trace

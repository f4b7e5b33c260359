// Package diag defines the diagnostic model shared by all pipeline phases.
//
// # Purpose
//
//   - Provide deterministic data structures for findings produced by the
//     lexer, parser, checker, degenericing cache and compilation scheduler.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting.
//   - Provide Error, the typed error a failed unit carries in the symbol
//     registry until the driver turns it into a Diagnostic.
//
// # Scope
//
// Package diag does not perform formatting or IO. Rendering lives in
// internal/diagfmt; deciding the final severity of unit failures (error when
// reachable from the entry point, warning otherwise) lives in the driver.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error.
//   - Code: compact numeric identifier (see codes.go) with stable string form.
//   - Unit: fully qualified name of the compilation unit, empty for file-level
//     findings such as lexical errors.
//   - Message: short human-oriented text.
//   - Primary: the source.Span pointing to the issue.
//   - Notes: optional secondary spans/messages.
//
// # Concurrency
//
// Bag is not synchronized. Each job collects into its own Bag (or into an
// Error list) and the driver merges them after the executor is quiescent.
//
// # Determinism
//
// Bag.Sort orders by file, span, severity and code so output does not depend
// on the order in which concurrent jobs finished.
package diag

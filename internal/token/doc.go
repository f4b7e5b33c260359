// Package token defines lexical token kinds for Raven sources.
// Invariants:
//   - Token.Span covers the lexeme in the original source.
//   - Token.Text holds the lexeme; identifiers are NFC-normalized, string
//     literals keep their quotes.
//   - Builtin type names (i64, f64, bool, str, void) are identifiers; the
//     checker recognizes them.
//   - Invalid tokens mark unrecognized input and never stop the stream.
package token

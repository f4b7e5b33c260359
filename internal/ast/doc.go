// Package ast holds raw (unresolved) syntax produced by the parser.
//
// Each top-level item becomes a Unit. Units are independent values: a
// check job receives one *Unit and never walks its siblings, so nodes are
// plain pointers rather than arena indices.
package ast

// Package textir is the reference backend. It writes an SSA-like text form
// of each unit: functions as labelled blocks of numbered temporaries,
// structs as field layouts, internal functions as declarations.
package textir

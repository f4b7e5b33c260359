// Package sema finalizes raw units into typed hir units.
//
// Each unit is checked by its own job. A check is replayable: every poll
// starts over, and any registry query that cannot answer yet parks the
// job and unwinds the poll with asyncrt.ErrPending. Diagnostics gathered
// during a poll are only committed with the unit's terminal transition.
package sema

package diag

import "raven/internal/source"

// cascadeKey identifies an error by where it starts. Recovery that stalls
// on one token reports again at the same offset, often with a new message.
type cascadeKey struct {
	file  source.FileID
	start uint32
}

type exactKey struct {
	cascadeKey
	code Code
	sev  Severity
	end  uint32
	msg  string
}

// DedupReporter forwards the first error reported at each start offset and
// drops the rest; warnings and infos are only dropped when repeated exactly.
// Parse jobs wrap their bag with it.
type DedupReporter struct {
	next       Reporter
	errAt      map[cascadeKey]struct{}
	seen       map[exactKey]struct{}
	suppressed int
}

// NewDedupReporter wraps next.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next:  next,
		errAt: make(map[cascadeKey]struct{}),
		seen:  make(map[exactKey]struct{}),
	}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r == nil {
		return
	}
	at := cascadeKey{file: primary.File, start: primary.Start}
	if sev >= SevError {
		if _, ok := r.errAt[at]; ok {
			r.suppressed++
			return
		}
		r.errAt[at] = struct{}{}
	} else {
		key := exactKey{cascadeKey: at, code: code, sev: sev, end: primary.End, msg: msg}
		if _, ok := r.seen[key]; ok {
			r.suppressed++
			return
		}
		r.seen[key] = struct{}{}
	}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}

// Suppressed counts the diagnostics dropped so far.
func (r *DedupReporter) Suppressed() int {
	if r == nil {
		return 0
	}
	return r.suppressed
}

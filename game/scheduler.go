package game

import "time"

// timerKind identifies the four single-shot timers a table schedules.
// At most one timer of each kind is ever pending.
type timerKind int

const (
	timerTurn timerKind = iota
	timerStreetReveal
	timerRoundEnd
	timerNextHand
	timerKindCount
)

// schedule arms a single-shot timer of the given kind, cancelling any
// previously pending timer of the same kind first. The callback runs
// under the engine lock; a fire that was already queued when the timer
// got cancelled or rescheduled finds a newer sequence number and no-ops.
// Callers must hold mu.
func (e *Engine) schedule(kind timerKind, d time.Duration, fn func()) {
	e.cancelTimer(kind)
	seq := e.timerSeq[kind]

	e.timers[kind] = time.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.timerSeq[kind] != seq {
			return // stale fire, state moved on
		}
		e.timers[kind] = nil
		fn()
	})
}

// cancelTimer stops any pending timer of the given kind and invalidates
// fires already in flight. Callers must hold mu.
func (e *Engine) cancelTimer(kind timerKind) {
	e.timerSeq[kind]++
	if t := e.timers[kind]; t != nil {
		t.Stop()
		e.timers[kind] = nil
	}
	if kind == timerTurn {
		e.table.TurnDeadline = time.Time{}
	}
}

// cancelAllTimers stops every pending timer. Callers must hold mu.
func (e *Engine) cancelAllTimers() {
	for kind := timerKind(0); kind < timerKindCount; kind++ {
		e.cancelTimer(kind)
	}
}

package game

import (
	"fmt"
	"strings"
	"time"
)

const maxSnapshots = 200

// Snapshot is one line of the table's internal audit trail: a trigger
// label plus the numbers that must reconcile (stacks, pots, total bets).
type Snapshot struct {
	At        time.Time
	Trigger   string
	Stage     Stage
	MainPot   int
	StreetPot int
	Seats     []SnapshotSeat
}

// SnapshotSeat captures one seat's chip accounting at snapshot time
type SnapshotSeat struct {
	ID       string
	Name     string
	Stack    int
	TotalBet int
	InHand   bool
	Folded   bool
}

// pushSnapshot records the table's chip state after a mutation.
// Caller holds mu. The trail is bounded to the most recent entries.
func (e *Engine) pushSnapshot(trigger string) {
	snap := Snapshot{
		At:        time.Now(),
		Trigger:   trigger,
		Stage:     e.table.Stage,
		MainPot:   e.table.MainPot,
		StreetPot: e.table.StreetPot,
	}

	for _, s := range e.table.Seats {
		if s == nil {
			continue
		}
		snap.Seats = append(snap.Seats, SnapshotSeat{
			ID:       s.ID,
			Name:     s.Name,
			Stack:    s.Stack,
			TotalBet: s.TotalBet,
			InHand:   s.InHand,
			Folded:   s.HasFolded,
		})
	}

	e.snapshots = append(e.snapshots, snap)
	if len(e.snapshots) > maxSnapshots {
		e.snapshots = e.snapshots[len(e.snapshots)-maxSnapshots:]
	}
}

// String renders the snapshot as a single audit line
func (s Snapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | stage=%s main=%d street=%d",
		s.At.Format("15:04:05.000"), s.Trigger, s.Stage, s.MainPot, s.StreetPot)
	for _, seat := range s.Seats {
		state := "live"
		switch {
		case seat.Folded:
			state = "folded"
		case !seat.InHand:
			state = "out"
		}
		fmt.Fprintf(&b, " | %s stack=%d bet=%d %s", seat.Name, seat.Stack, seat.TotalBet, state)
	}
	return b.String()
}

// AuditTrail renders the retained snapshots, oldest first
func (e *Engine) AuditTrail() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var b strings.Builder
	for _, snap := range e.snapshots {
		b.WriteString(snap.String())
		b.WriteByte('\n')
	}
	return b.String()
}

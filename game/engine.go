package game

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lazharichir/holdem/cards"
	"github.com/sanity-io/litter"
)

// Config configures a new table engine
type Config struct {
	TableID    string
	LimitID    string
	SmallBlind int
	BigBlind   int
	Timings    Timings
	Logger     *zap.Logger
}

// Engine runs a single poker table. It owns the table state and behaves
// as an actor: one mutex serializes every entry point (player actions,
// facade calls, timer callbacks), so no two mutations ever interleave.
// Tables are fully independent of each other.
type Engine struct {
	mu      sync.Mutex
	table   *Table
	timings Timings
	log     *zap.Logger

	timers   [timerKindCount]*time.Timer
	timerSeq [timerKindCount]uint64

	onState func(seatID string, view View)
	onSound func(sound Sound)
	onChat  func(msg ChatMessage)

	chatLog   []ChatMessage
	snapshots []Snapshot
}

// New creates an engine for a fresh, empty table
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		table: &Table{
			ID:               cfg.TableID,
			LimitID:          cfg.LimitID,
			SmallBlind:       cfg.SmallBlind,
			BigBlind:         cfg.BigBlind,
			Seats:            make([]*Seat, MaxSeats),
			Stage:            StageWaiting,
			MinRaise:         cfg.BigBlind,
			CurrentTurnIndex: -1,
		},
		timings: cfg.Timings,
		log:     logger.With(zap.String("table", cfg.TableID)),
	}
}

// ID returns the table identifier
func (e *Engine) ID() string { return e.table.ID }

// LimitID returns the stake level this table belongs to
func (e *Engine) LimitID() string { return e.table.LimitID }

// OnState registers the per-player broadcast callback. The engine calls
// it with a fresh projection after every state change; it must not block.
func (e *Engine) OnState(fn func(seatID string, view View)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onState = fn
}

// OnSound registers the named-event sink for audio/animation cues
func (e *Engine) OnSound(fn func(sound Sound)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSound = fn
}

// OnChat registers the chat fan-out callback
func (e *Engine) OnChat(fn func(msg ChatMessage)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChat = fn
}

// Close cancels every pending timer. The table is unusable afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelAllTimers()
}

// Occupancy returns the number of occupied seats
func (e *Engine) Occupancy() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seatCount()
}

// CurrentStage returns the table's stage
func (e *Engine) CurrentStage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.table.Stage
}

// DumpState renders the raw table state for debugging
func (e *Engine) DumpState() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return litter.Sdump(e.table)
}

// ---------------------------------------------------------------------
// Facade: seat management
// ---------------------------------------------------------------------

// AddPlayer seats a new player with the default starting stack. A full
// table or a duplicate seat ID is a no-op.
func (e *Engine) AddPlayer(seatID, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.seatIndexByID(seatID) >= 0 {
		return
	}

	idx := -1
	for i, s := range e.table.Seats {
		if s == nil {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.log.Debug("table full, join rejected", zap.String("seat", seatID))
		return
	}

	e.table.Seats[idx] = &Seat{
		ID:    seatID,
		Name:  name,
		Stack: DefaultStartingStack,
	}

	e.log.Info("player joined", zap.String("seat", seatID), zap.String("name", name))
	e.pushSnapshot("player joined")
	e.broadcast()
	e.autoStartIfReady("player joined")
}

// RemovePlayer frees the player's seat immediately (disconnect path).
// If the hand can no longer continue it is resolved on the spot.
func (e *Engine) RemovePlayer(seatID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removePlayerLocked(seatID)
}

func (e *Engine) removePlayerLocked(seatID string) {
	idx := e.seatIndexByID(seatID)
	if idx < 0 {
		return
	}

	e.table.Seats[idx] = nil

	switch {
	case e.seatCount() == 0:
		e.cancelAllTimers()
		e.resetHandState()
	case e.table.Stage.IsBettingStage():
		if len(e.contenders()) <= 1 {
			e.goToShowdown()
			break
		}
		if e.table.CurrentTurnIndex == idx {
			e.advanceTurn()
			e.scheduleTurnTimer()
		}
		// the removed seat may have been the only one still owing action
		e.scheduleRoundEndIfComplete()
	}

	e.log.Info("player removed", zap.String("seat", seatID))
	e.pushSnapshot("player removed")
	e.broadcast()
}

// LeaveTable removes the player gracefully: immediately when not part of
// an active hand, otherwise the seat is marked for release and folds
// itself when the turn reaches it.
func (e *Engine) LeaveTable(seatID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.seatIndexByID(seatID)
	if idx < 0 {
		return
	}
	seat := e.table.Seats[idx]

	inActiveHand := e.table.Stage != StageWaiting && seat.InHand && !seat.HasFolded
	if !inActiveHand {
		e.removePlayerLocked(seatID)
		return
	}

	seat.PendingLeave = true
	seat.Paused = true

	if e.table.CurrentTurnIndex == idx {
		e.applyAction(seatID, Action{Type: ActionFold}, true)
	}

	e.pushSnapshot("leave pending")
	e.broadcast()
}

// SetPlaying toggles the seat's pause state. Unpausing also cancels a
// pending leave and may auto-start a hand.
func (e *Engine) SetPlaying(seatID string, playing bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.seatIndexByID(seatID)
	if idx < 0 {
		return
	}
	seat := e.table.Seats[idx]

	seat.Paused = !playing
	if playing {
		seat.PendingLeave = false
	}

	e.log.Debug("setPlaying", zap.String("seat", seatID), zap.Bool("playing", playing))
	e.pushSnapshot("setPlaying")
	e.broadcast()

	if playing {
		e.autoStartIfReady("setPlaying")
	}
}

// ---------------------------------------------------------------------
// Facade: hand control
// ---------------------------------------------------------------------

// StartHand starts a new hand if enough eligible seats are present
func (e *Engine) StartHand() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.startHandLocked()
	e.pushSnapshot("after startHand")
	e.broadcast()
}

// NextStage manually advances the table (debug aid): during showdown it
// resets to waiting, otherwise it runs the usual street-advance check.
func (e *Engine) NextStage() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.table.Stage == StageShowdown {
		e.resetHandState()
		e.pushSnapshot("manual reset to waiting")
	} else {
		e.autoAdvanceIfReady()
		e.pushSnapshot("manual nextStage")
	}
	e.broadcast()
	e.scheduleTurnTimer()
}

// HandleAction applies a player's action. Stale or out-of-turn actions
// are dropped silently.
func (e *Engine) HandleAction(seatID string, action Action) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.log.Debug("action",
		zap.String("seat", seatID),
		zap.String("type", string(action.Type)),
		zap.Int("amount", action.Amount),
	)

	e.applyAction(seatID, action, false)
	e.pushSnapshot(fmt.Sprintf("after action %s from %s", action.Type, seatID))
	e.broadcast()
}

// ---------------------------------------------------------------------
// Seat helpers (callers hold mu)
// ---------------------------------------------------------------------

func (e *Engine) seatIndexByID(seatID string) int {
	for i, s := range e.table.Seats {
		if s != nil && s.ID == seatID {
			return i
		}
	}
	return -1
}

func (e *Engine) seatCount() int {
	n := 0
	for _, s := range e.table.Seats {
		if s != nil {
			n++
		}
	}
	return n
}

// occupiedSeats returns every occupied seat in seat order
func (e *Engine) occupiedSeats() []*Seat {
	var seats []*Seat
	for _, s := range e.table.Seats {
		if s != nil {
			seats = append(seats, s)
		}
	}
	return seats
}

// contenders returns the seats still fighting for the pot
func (e *Engine) contenders() []*Seat {
	var res []*Seat
	for _, s := range e.table.Seats {
		if s != nil && s.InHand && !s.HasFolded {
			res = append(res, s)
		}
	}
	return res
}

// eligibleSeatIndices returns seats that may join the next hand
func (e *Engine) eligibleSeatIndices() []int {
	var res []int
	for i, s := range e.table.Seats {
		if s != nil && !s.Paused && s.Stack > 0 {
			res = append(res, i)
		}
	}
	return res
}

// nextEligibleIndexFrom walks circularly from baseIndex to the next seat
// eligible for a new hand. Returns -1 when there is none.
func (e *Engine) nextEligibleIndexFrom(baseIndex int) int {
	n := len(e.table.Seats)
	for step := 1; step <= n; step++ {
		idx := (baseIndex + step) % n
		if s := e.table.Seats[idx]; s != nil && !s.Paused && s.Stack > 0 {
			return idx
		}
	}
	return -1
}

// ---------------------------------------------------------------------
// Hand lifecycle (callers hold mu)
// ---------------------------------------------------------------------

func (e *Engine) autoStartIfReady(trigger string) {
	if e.table.Stage != StageWaiting {
		return
	}
	if len(e.eligibleSeatIndices()) < 2 {
		return
	}

	e.log.Info("auto-start hand", zap.String("trigger", trigger))
	e.startHandLocked()
	e.pushSnapshot("auto start hand: " + trigger)
	e.broadcast()
}

// resetHandState clears every hand-scoped field and returns the table to
// waiting. Stacks and seat occupancy survive.
func (e *Engine) resetHandState() {
	t := e.table
	t.Deck = nil
	t.CommunityCards = nil
	t.MainPot = 0
	t.StreetPot = 0
	t.Stage = StageWaiting
	t.CurrentBet = 0
	t.MinRaise = t.BigBlind
	t.CurrentTurnIndex = -1
	t.TurnDeadline = time.Time{}
	t.PotDetails = nil
	t.DealerDetails = ""

	for _, s := range t.Seats {
		if s == nil {
			continue
		}
		s.HoleCards = nil
		s.InHand = false
		s.HasFolded = false
		s.BetThisStreet = 0
		s.TotalBet = 0
		s.HasActedThisStreet = false
		s.HasClickedThisHand = false
		s.Message = ""
	}
}

func (e *Engine) startHandLocked() {
	t := e.table
	if t.Stage != StageWaiting {
		return
	}

	active := e.eligibleSeatIndices()
	if len(active) < 2 {
		e.log.Debug("not enough eligible seats to start hand")
		return
	}

	e.cancelTimer(timerTurn)
	e.cancelTimer(timerNextHand)

	deck := cards.NewDeck52()
	deck.Shuffle()
	t.Deck = deck
	t.CommunityCards = nil
	t.MainPot = 0
	t.StreetPot = 0
	t.Stage = StagePreflop
	t.CurrentBet = 0
	t.MinRaise = t.BigBlind
	t.PotDetails = nil
	t.DealerDetails = ""

	for _, s := range t.Seats {
		if s == nil {
			continue
		}
		s.HoleCards = nil
		s.InHand = false
		s.HasFolded = false
		s.BetThisStreet = 0
		s.TotalBet = 0
		s.HasActedThisStreet = false
		s.HasClickedThisHand = false
		s.Message = ""
	}

	for _, idx := range active {
		t.Seats[idx].InHand = true
	}

	// re-anchor the button if its seat emptied or sat out
	if t.ButtonIndex < 0 || t.ButtonIndex >= len(t.Seats) ||
		t.Seats[t.ButtonIndex] == nil ||
		t.Seats[t.ButtonIndex].Paused ||
		t.Seats[t.ButtonIndex].Stack <= 0 {
		t.ButtonIndex = active[0]
	}

	sbIndex := e.nextEligibleIndexFrom(t.ButtonIndex)
	bbIndex := -1
	utgIndex := -1
	if sbIndex >= 0 {
		bbIndex = e.nextEligibleIndexFrom(sbIndex)
	}
	if bbIndex >= 0 {
		utgIndex = e.nextEligibleIndexFrom(bbIndex)
	}

	if sbIndex >= 0 {
		e.postBlind(sbIndex, t.SmallBlind)
	}
	if bbIndex >= 0 {
		e.postBlind(bbIndex, t.BigBlind)
	}

	e.emitSound(SoundCardDeal)
	for round := 0; round < 2; round++ {
		for _, idx := range active {
			card := t.Deck.DealCard()
			t.Seats[idx].HoleCards = append(t.Seats[idx].HoleCards, card)
		}
	}

	t.CurrentBet = t.BigBlind
	t.MinRaise = t.BigBlind
	t.CurrentTurnIndex = -1

	if sbIndex >= 0 && bbIndex >= 0 {
		t.LastLogMessage = fmt.Sprintf("%s posts the small blind (%d), %s posts the big blind (%d)",
			t.Seats[sbIndex].Name, t.SmallBlind, t.Seats[bbIndex].Name, t.BigBlind)
	} else {
		t.LastLogMessage = "New hand started"
	}

	e.log.Info("hand started",
		zap.Int("streetPot", t.StreetPot),
		zap.Int("button", t.ButtonIndex),
	)

	// hold the opening turn until the deal beat is over
	e.schedule(timerStreetReveal, e.timings.CardDealDelay, func() {
		t.CurrentTurnIndex = utgIndex
		utg := (*Seat)(nil)
		if utgIndex >= 0 {
			utg = t.Seats[utgIndex]
		}
		// the seat may have emptied or folded out during the beat
		if utg == nil || !utg.InHand || utg.HasFolded {
			e.advanceTurn()
		}
		e.broadcast()
		e.scheduleTurnTimer()
	})
}

// postBlind moves a forced bet into the street pot, capped at the stack
// so a short stack simply goes all-in for less
func (e *Engine) postBlind(idx, amount int) {
	seat := e.table.Seats[idx]
	if seat == nil {
		return
	}
	blind := min(seat.Stack, amount)
	if blind <= 0 {
		return
	}
	seat.Stack -= blind
	seat.BetThisStreet += blind
	seat.TotalBet += blind
	e.table.StreetPot += blind
}

// collapseStreetPot moves the finished street's wagers into the main pot
func (e *Engine) collapseStreetPot() {
	e.table.MainPot += e.table.StreetPot
	e.table.StreetPot = 0
}

// ---------------------------------------------------------------------
// Betting round bookkeeping (callers hold mu)
// ---------------------------------------------------------------------

// isBettingRoundComplete reports whether the current betting round is
// closed: every contender with chips behind has acted and matched the
// current bet. All-in seats are exempt from matching. Re-checking without
// a new action always yields the same answer.
func (e *Engine) isBettingRoundComplete() bool {
	actives := e.contenders()
	if len(actives) <= 1 {
		return true
	}

	for _, s := range actives {
		if s.Stack == 0 {
			continue // all-in
		}
		if !s.HasActedThisStreet || s.BetThisStreet != e.table.CurrentBet {
			return false
		}
	}
	return true
}

// advanceTurn passes the acting turn circularly to the next seat still in
// the hand with chips behind. A seat marked pendingLeave is auto-folded
// the moment the turn reaches it. Paused seats stay in the rotation for
// the hand they already joined; the turn timer acts for them.
func (e *Engine) advanceTurn() {
	t := e.table
	n := len(t.Seats)
	if e.seatCount() == 0 {
		t.CurrentTurnIndex = -1
		e.cancelTimer(timerTurn)
		return
	}

	base := t.CurrentTurnIndex
	if base < 0 {
		base = 0
	}

	for i := 1; i <= n; i++ {
		idx := (base + i) % n
		s := t.Seats[idx]
		if s == nil {
			continue
		}

		if s.PendingLeave && s.InHand && !s.HasFolded {
			s.HasFolded = true
			s.InHand = false
			s.HasActedThisStreet = true
			t.LastLogMessage = fmt.Sprintf("%s left the table, auto-fold", s.Name)
			e.emitSound(SoundFold)

			// The auto-fold may have been the action the round was
			// waiting on; assigning a new turn then would reopen a
			// closed round.
			if e.isBettingRoundComplete() {
				t.CurrentTurnIndex = -1
				e.cancelTimer(timerTurn)
				e.broadcast()
				e.scheduleRoundEndIfComplete()
				return
			}
			continue
		}

		if s.InHand && !s.HasFolded && s.Stack > 0 {
			t.CurrentTurnIndex = idx
			return
		}
	}

	t.CurrentTurnIndex = -1
	e.cancelTimer(timerTurn)
}

// finishAction routes control after any applied action: either pass the
// turn, or arm the round-end grace timer when the round closed (or only
// one contender remains).
func (e *Engine) finishAction() {
	if !e.isBettingRoundComplete() && len(e.contenders()) > 1 {
		e.advanceTurn()
		e.broadcast()
		e.scheduleTurnTimer()
	} else {
		e.broadcast()
		e.scheduleRoundEndIfComplete()
	}
}

func (e *Engine) scheduleRoundEndIfComplete() {
	e.cancelTimer(timerRoundEnd)
	if !e.isBettingRoundComplete() {
		return
	}

	e.schedule(timerRoundEnd, e.timings.RoundEndDelay, func() {
		e.autoAdvanceIfReady()
	})
}

// ---------------------------------------------------------------------
// Actions (callers hold mu)
// ---------------------------------------------------------------------

// applyAction validates and applies one action. Anything stale (wrong
// seat, wrong turn, wrong stage, folded or paused seat) is silently
// dropped; clients race and resubmit, and that must never corrupt state.
// isAuto marks scheduler-generated actions, which bypass the pause check
// and never count as a manual click.
func (e *Engine) applyAction(seatID string, action Action, isAuto bool) {
	t := e.table

	idx := e.seatIndexByID(seatID)
	if idx < 0 {
		return
	}
	seat := t.Seats[idx]

	if !seat.InHand || seat.HasFolded || (seat.Paused && !isAuto) {
		return
	}
	if !t.Stage.IsBettingStage() {
		return
	}
	if t.CurrentTurnIndex != idx {
		e.log.Debug("action out of turn", zap.String("seat", seatID))
		return
	}

	if !isAuto {
		seat.HasClickedThisHand = true
	}

	switch action.Type {
	case ActionFold:
		seat.HasFolded = true
		seat.InHand = false
		seat.HasActedThisStreet = true
		t.LastLogMessage = fmt.Sprintf("%s folds", seat.Name)
		e.emitSound(SoundFold)
		e.finishAction()

	case ActionCall:
		toCall := t.CurrentBet - seat.BetThisStreet

		if toCall <= 0 {
			seat.HasActedThisStreet = true
			t.LastLogMessage = fmt.Sprintf("%s checks", seat.Name)
			e.emitSound(SoundCheck)
			e.finishAction()
			return
		}

		pay := min(seat.Stack, toCall)
		if pay <= 0 {
			return
		}

		seat.Stack -= pay
		seat.BetThisStreet += pay
		seat.TotalBet += pay
		t.StreetPot += pay
		seat.HasActedThisStreet = true

		switch {
		case seat.Stack == 0 && seat.BetThisStreet < t.CurrentBet:
			t.LastLogMessage = fmt.Sprintf("%s is all-in for %d (short of the current bet)", seat.Name, seat.BetThisStreet)
		case seat.Stack == 0:
			t.LastLogMessage = fmt.Sprintf("%s calls all-in (%d)", seat.Name, seat.BetThisStreet)
		default:
			t.LastLogMessage = fmt.Sprintf("%s calls %d", seat.Name, pay)
		}

		e.emitSound(SoundCall)
		e.finishAction()

	case ActionAllIn:
		if seat.Stack <= 0 {
			return
		}

		all := seat.Stack
		seat.Stack = 0
		seat.BetThisStreet += all
		seat.TotalBet += all
		t.StreetPot += all
		seat.HasActedThisStreet = true

		switch {
		case seat.BetThisStreet > t.CurrentBet:
			raiseSize := seat.BetThisStreet - t.CurrentBet
			t.MinRaise = max(t.MinRaise, raiseSize)
			t.CurrentBet = seat.BetThisStreet
			e.reopenAction(seat)
			t.LastLogMessage = fmt.Sprintf("%s goes all-in for %d", seat.Name, seat.BetThisStreet)
		case seat.BetThisStreet == t.CurrentBet:
			t.LastLogMessage = fmt.Sprintf("%s calls all-in (%d)", seat.Name, seat.BetThisStreet)
		default:
			t.LastLogMessage = fmt.Sprintf("%s is all-in for %d (short of the current bet)", seat.Name, seat.BetThisStreet)
		}

		e.emitSound(SoundAllIn)
		e.finishAction()

	case ActionBet:
		e.applyBet(seat, action.Amount)

	default:
		e.log.Debug("unknown action type", zap.String("type", string(action.Type)))
	}
}

// applyBet handles both the opening bet of a street and raises over an
// existing bet. Amounts below the legal minimum are bumped up to it; a
// stack too short for the minimum becomes an all-in for less.
func (e *Engine) applyBet(seat *Seat, amount int) {
	t := e.table

	if amount < 0 {
		amount = 0
	}

	// opening bet
	if t.CurrentBet == 0 {
		desired := amount
		if desired <= 0 {
			desired = t.BigBlind
		}
		toBet := min(seat.Stack, desired)
		if toBet <= 0 {
			return
		}

		seat.Stack -= toBet
		seat.BetThisStreet += toBet
		seat.TotalBet += toBet
		t.StreetPot += toBet

		t.CurrentBet = seat.BetThisStreet
		t.MinRaise = max(t.BigBlind, seat.BetThisStreet)
		seat.HasActedThisStreet = true
		t.LastLogMessage = fmt.Sprintf("%s bets %d", seat.Name, toBet)

		e.emitSound(SoundBet)
		e.reopenAction(seat)
		e.finishAction()
		return
	}

	// raise
	desiredTarget := amount
	if desiredTarget <= 0 || desiredTarget < t.CurrentBet+t.MinRaise {
		desiredTarget = t.CurrentBet + t.MinRaise
	}

	toPay := desiredTarget - seat.BetThisStreet
	pay := min(seat.Stack, toPay)
	if pay <= 0 {
		return
	}

	seat.Stack -= pay
	seat.BetThisStreet += pay
	seat.TotalBet += pay
	t.StreetPot += pay

	oldBet := t.CurrentBet
	t.CurrentBet = max(t.CurrentBet, seat.BetThisStreet)
	if raiseSize := t.CurrentBet - oldBet; raiseSize > 0 {
		t.MinRaise = max(t.MinRaise, raiseSize)
	}

	seat.HasActedThisStreet = true

	if seat.Stack == 0 && seat.BetThisStreet > oldBet {
		t.LastLogMessage = fmt.Sprintf("%s raises all-in to %d", seat.Name, seat.BetThisStreet)
	} else {
		t.LastLogMessage = fmt.Sprintf("%s raises to %d", seat.Name, seat.BetThisStreet)
	}

	e.emitSound(SoundRaise)
	e.reopenAction(seat)
	e.finishAction()
}

// reopenAction clears hasActed for every other live seat with chips, so
// a bet or raise gives everyone another turn
func (e *Engine) reopenAction(actor *Seat) {
	for _, s := range e.table.Seats {
		if s == nil || s == actor {
			continue
		}
		if s.InHand && !s.HasFolded && !s.Paused && s.Stack > 0 {
			s.HasActedThisStreet = false
		}
	}
}

// ---------------------------------------------------------------------
// Turn timer (callers hold mu)
// ---------------------------------------------------------------------

func (e *Engine) scheduleTurnTimer() {
	e.cancelTimer(timerTurn)

	t := e.table
	if !t.Stage.IsBettingStage() || t.CurrentTurnIndex < 0 {
		return
	}
	seat := t.Seats[t.CurrentTurnIndex]
	if seat == nil || !seat.InHand || seat.HasFolded {
		return
	}

	// pause does not stop the clock for a hand already joined
	t.TurnDeadline = time.Now().Add(e.timings.TurnTimeout)
	e.schedule(timerTurn, e.timings.TurnTimeout, e.handleTurnTimeout)
}

// handleTurnTimeout acts for a seat that let its deadline expire: facing
// a live bet it is folded and paused, otherwise it just checks. Runs
// under mu via the scheduler; state may have moved on while the fire was
// queued, so everything is re-checked.
func (e *Engine) handleTurnTimeout() {
	t := e.table

	if !t.Stage.IsBettingStage() || t.CurrentTurnIndex < 0 {
		return
	}
	seat := t.Seats[t.CurrentTurnIndex]
	if seat == nil || !seat.InHand || seat.HasFolded {
		return
	}

	toCall := t.CurrentBet - seat.BetThisStreet

	someoneBet := false
	for _, s := range e.contenders() {
		if s != seat && s.BetThisStreet > 0 {
			someoneBet = true
			break
		}
	}

	if toCall > 0 && someoneBet {
		e.applyAction(seat.ID, Action{Type: ActionFold}, true)
		seat.Paused = true
		t.LastLogMessage = fmt.Sprintf("%s ran out of time, auto-fold and pause", seat.Name)
		e.pushSnapshot("timeout auto-fold")
		e.broadcast()
		return
	}

	// nothing to call: auto-check. The seat stays able to act; only the
	// next-hand boundary pauses seats that never clicked.
	e.applyAction(seat.ID, Action{Type: ActionCall}, true)
	t.LastLogMessage = fmt.Sprintf("%s ran out of time, auto-check", seat.Name)
	e.pushSnapshot("timeout auto-check")
	e.broadcast()
}

// ---------------------------------------------------------------------
// Streets (callers hold mu)
// ---------------------------------------------------------------------

// dealCommunity burns one card, then deals count cards to the board
func (e *Engine) dealCommunity(count int, sound Sound) {
	t := e.table
	t.Deck.Burn()
	e.emitSound(sound)
	for i := 0; i < count; i++ {
		t.CommunityCards = append(t.CommunityCards, t.Deck.DealCard())
	}
}

// autoAdvanceIfReady moves the hand forward once a betting round is
// closed: next street, straight to showdown when contenders are all-in,
// or showdown after the river.
func (e *Engine) autoAdvanceIfReady() {
	t := e.table
	if !t.Stage.IsBettingStage() {
		return
	}
	if e.timers[timerStreetReveal] != nil {
		return // the next street is already on its way
	}

	actives := e.contenders()
	if len(actives) <= 1 {
		e.goToShowdown()
		return
	}

	if !e.isBettingRoundComplete() {
		return
	}

	allAllIn := true
	for _, s := range actives {
		if s.Stack != 0 {
			allAllIn = false
			break
		}
	}
	if allAllIn {
		// no more betting possible: reveal every remaining street at once
		e.collapseStreetPot()
		switch t.Stage {
		case StagePreflop:
			e.dealCommunity(3, SoundCardBoard)
			e.dealCommunity(1, SoundCardTurnRiver)
			e.dealCommunity(1, SoundCardTurnRiver)
		case StageFlop:
			e.dealCommunity(1, SoundCardTurnRiver)
			e.dealCommunity(1, SoundCardTurnRiver)
		case StageTurn:
			e.dealCommunity(1, SoundCardTurnRiver)
		}
		e.goToShowdown()
		return
	}

	e.collapseStreetPot()

	switch t.Stage {
	case StagePreflop:
		e.revealStreet(3, StageFlop)
	case StageFlop:
		e.revealStreet(1, StageTurn)
	case StageTurn:
		e.revealStreet(1, StageRiver)
	case StageRiver:
		e.goToShowdown()
	}
}

// revealStreet deals the next street's cards and announces the stage,
// holding betting closed for the reveal beat before play reopens
func (e *Engine) revealStreet(count int, newStage Stage) {
	e.cancelTimer(timerTurn)

	sound := SoundCardTurnRiver
	if newStage == StageFlop {
		sound = SoundCardBoard
	}
	e.dealCommunity(count, sound)

	e.table.Stage = newStage
	e.table.CurrentTurnIndex = -1 // nobody acts until the reveal beat ends
	e.broadcast()

	delay := e.timings.TurnRiverDelay
	if newStage == StageFlop {
		delay = e.timings.FlopRevealDelay
	}

	e.schedule(timerStreetReveal, delay, func() {
		e.startNewStreet(newStage)
	})
}

// startNewStreet resets the per-street betting state and opens the action
// at the first live seat after the button
func (e *Engine) startNewStreet(newStage Stage) {
	t := e.table
	t.Stage = newStage
	t.CurrentBet = 0
	t.MinRaise = t.BigBlind

	for _, s := range t.Seats {
		if s == nil {
			continue
		}
		s.BetThisStreet = 0
		s.HasActedThisStreet = false
	}

	n := len(t.Seats)
	if e.seatCount() == 0 {
		t.CurrentTurnIndex = -1
		e.cancelTimer(timerTurn)
		return
	}

	start := (t.ButtonIndex + 1) % n
	t.CurrentTurnIndex = -1
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		s := t.Seats[idx]
		// a paused seat still plays out this hand via auto-actions
		if s != nil && s.InHand && !s.HasFolded && s.Stack > 0 {
			t.CurrentTurnIndex = idx
			break
		}
	}

	e.broadcast()
	e.scheduleTurnTimer()
}

// ---------------------------------------------------------------------
// Showdown and next hand (callers hold mu)
// ---------------------------------------------------------------------

func (e *Engine) goToShowdown() {
	e.cancelAllTimers()

	t := e.table
	e.collapseStreetPot()
	t.Stage = StageShowdown
	t.CurrentTurnIndex = -1
	t.TurnDeadline = time.Time{}
	t.PotDetails = nil
	t.DealerDetails = ""

	e.resolveShowdown()
	e.pushSnapshot("after showdown")
	e.emitSound(SoundShowdown)
	e.broadcast()
	e.scheduleNextHand()
}

// scheduleNextHand arms the post-showdown pause: seats that never acted
// manually this hand are paused, pending leavers are released, and a new
// hand auto-starts when enough players remain.
func (e *Engine) scheduleNextHand() {
	e.schedule(timerNextHand, e.timings.NextHandDelay, func() {
		t := e.table

		for _, s := range t.Seats {
			if s != nil && s.InHand && !s.HasClickedThisHand {
				s.Paused = true
			}
		}

		e.releasePendingLeaves()

		active := e.eligibleSeatIndices()
		if len(active) < 2 {
			e.resetHandState()
			e.pushSnapshot("after showdown: not enough players for next hand")
			e.broadcast()
			return
		}

		if nextBtn := e.nextEligibleIndexFrom(t.ButtonIndex); nextBtn >= 0 {
			t.ButtonIndex = nextBtn
		}

		e.resetHandState()
		e.startHandLocked()
		e.pushSnapshot("auto start next hand after showdown")
		e.broadcast()
	})
}

// releasePendingLeaves frees every seat whose graceful leave was deferred
// by an active hand. Runs at the next-hand boundary, when no hand needs
// the seats anymore.
func (e *Engine) releasePendingLeaves() {
	for i, s := range e.table.Seats {
		if s != nil && s.PendingLeave {
			e.log.Info("releasing seat after deferred leave", zap.String("seat", s.ID))
			e.table.Seats[i] = nil
		}
	}
}

// ---------------------------------------------------------------------
// Output (callers hold mu)
// ---------------------------------------------------------------------

// broadcast pushes a fresh per-player projection to the transport.
// The callback must be non-blocking; the engine never waits on it.
func (e *Engine) broadcast() {
	if e.onState == nil {
		return
	}
	for _, s := range e.occupiedSeats() {
		e.onState(s.ID, e.buildView(s.ID))
	}
}

func (e *Engine) emitSound(sound Sound) {
	if e.onSound != nil {
		e.onSound(sound)
	}
}

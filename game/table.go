package game

import (
	"time"

	"github.com/lazharichir/holdem/cards"
)

// Stage represents the current phase of a hand at the table
type Stage string

const (
	StageWaiting  Stage = "waiting"
	StagePreflop  Stage = "preflop"
	StageFlop     Stage = "flop"
	StageTurn     Stage = "turn"
	StageRiver    Stage = "river"
	StageShowdown Stage = "showdown"
)

// IsBettingStage reports whether players act during this stage
func (s Stage) IsBettingStage() bool {
	switch s {
	case StagePreflop, StageFlop, StageTurn, StageRiver:
		return true
	default:
		return false
	}
}

// ActionType enumerates the legal player intents
type ActionType string

const (
	ActionFold  ActionType = "fold"
	ActionCall  ActionType = "call" // serves as check when nothing to call
	ActionBet   ActionType = "bet"  // opening bet or raise
	ActionAllIn ActionType = "allin"
)

// Action is a player's intent for their turn. Amount is only meaningful
// for bets and raises; zero means "use the default size".
type Action struct {
	Type   ActionType `json:"type"`
	Amount int        `json:"amount,omitempty"`
}

// Sound is a named audio/animation cue emitted alongside state changes.
// The engine only names them; the transport decides what to do with them.
type Sound string

const (
	SoundFold          Sound = "FOLD"
	SoundCheck         Sound = "CHECK"
	SoundCall          Sound = "CALL"
	SoundBet           Sound = "BET"
	SoundRaise         Sound = "RAISE"
	SoundAllIn         Sound = "ALLIN"
	SoundCardDeal      Sound = "CARD_DEAL"
	SoundCardBoard     Sound = "CARD_BOARD"
	SoundCardTurnRiver Sound = "CARD_TURN_RIVER"
	SoundShowdown      Sound = "SHOWDOWN"
	SoundPotWin        Sound = "POT_WIN"
)

const (
	// MaxSeats is the fixed seat capacity of a table
	MaxSeats = 6

	// DefaultStartingStack is the chip count a player joins with
	DefaultStartingStack = 1000
)

// Seat holds one occupied seat's identity, stack and per-hand state.
// Every hand-scoped field is reset when a new hand starts.
type Seat struct {
	ID    string
	Name  string
	Stack int

	HoleCards cards.Stack

	InHand             bool
	HasFolded          bool
	BetThisStreet      int
	TotalBet           int // cumulative contribution this hand, drives side pots
	HasActedThisStreet bool
	HasClickedThisHand bool // manual actions only; decides auto-pause at the next hand
	Paused             bool // sits out future hands; a hand already joined plays out
	PendingLeave       bool // seat is released once the current hand no longer needs it

	Message string // private result text shown to this seat
}

// Table is the authoritative state of one poker table. All access goes
// through the owning Engine, which serializes every mutation.
type Table struct {
	ID         string
	LimitID    string
	SmallBlind int
	BigBlind   int

	Seats []*Seat // fixed capacity, nil marks an empty seat

	Deck             cards.Stack
	CommunityCards   cards.Stack
	MainPot          int // chips collapsed over from finished streets
	StreetPot        int // chips wagered in the current street
	Stage            Stage
	ButtonIndex      int
	CurrentBet       int
	MinRaise         int
	CurrentTurnIndex int // -1 when nobody is to act
	TurnDeadline     time.Time

	LastLogMessage string
	PotDetails     []string
	DealerDetails  string
}

// Timings holds every delay the turn scheduler uses. Production values
// match the live table pacing; tests shrink them.
type Timings struct {
	TurnTimeout     time.Duration // acting deadline per turn
	NextHandDelay   time.Duration // pause after showdown before the next hand
	CardDealDelay   time.Duration // hole-card deal beat before preflop betting opens
	FlopRevealDelay time.Duration // announcement beat after the flop is dealt
	TurnRiverDelay  time.Duration // announcement beat after turn/river cards
	RoundEndDelay   time.Duration // grace period after a completed betting round
}

// DefaultTimings returns the production table pacing
func DefaultTimings() Timings {
	return Timings{
		TurnTimeout:     30 * time.Second,
		NextHandDelay:   6 * time.Second,
		CardDealDelay:   2 * time.Second,
		FlopRevealDelay: 2 * time.Second,
		TurnRiverDelay:  time.Second,
		RoundEndDelay:   time.Second,
	}
}

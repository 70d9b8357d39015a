// Package lobby pools the running tables: a fixed stake catalogue, a
// bounded number of tables per stake, a pick-a-table policy for players
// arriving without a table ID and cleanup of surplus empty tables.
package lobby

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lazharichir/holdem/game"
)

// Limit is one stake level players can sit at
type Limit struct {
	ID         string `json:"limitId"`
	Name       string `json:"name"`
	SmallBlind int    `json:"smallBlind"`
	BigBlind   int    `json:"bigBlind"`
	MaxTables  int    `json:"-"`
}

// Limits is the fixed stake catalogue, micro to high
var Limits = []Limit{
	{ID: "nl_1_2", Name: "NL 1 / 2", SmallBlind: 1, BigBlind: 2, MaxTables: 6},
	{ID: "nl_2_4", Name: "NL 2 / 4", SmallBlind: 2, BigBlind: 4, MaxTables: 6},
	{ID: "nl_3_6", Name: "NL 3 / 6", SmallBlind: 3, BigBlind: 6, MaxTables: 6},
	{ID: "nl_5_10", Name: "NL 5 / 10", SmallBlind: 5, BigBlind: 10, MaxTables: 6},
	{ID: "nl_10_20", Name: "NL 10 / 20", SmallBlind: 10, BigBlind: 20, MaxTables: 6},
	{ID: "nl_25_50", Name: "NL 25 / 50", SmallBlind: 25, BigBlind: 50, MaxTables: 6},
	{ID: "nl_50_100", Name: "NL 50 / 100", SmallBlind: 50, BigBlind: 100, MaxTables: 6},
	{ID: "nl_100_200", Name: "NL 100 / 200", SmallBlind: 100, BigBlind: 200, MaxTables: 6},
	{ID: "nl_200_400", Name: "NL 200 / 400", SmallBlind: 200, BigBlind: 400, MaxTables: 4},
}

// DefaultLimitID seats players that arrive without picking a stake
const DefaultLimitID = "nl_10_20"

var (
	ErrUnknownLimit = errors.New("unknown limit")
	ErrLimitFull    = errors.New("no more tables for limit")
)

// LimitByID looks a stake level up in the catalogue
func LimitByID(id string) (Limit, bool) {
	for _, l := range Limits {
		if l.ID == id {
			return l, true
		}
	}
	return Limit{}, false
}

// Lobby owns every table engine. Table creation order is preserved so
// the seat policy and cleanup have a stable notion of "first".
type Lobby struct {
	mu      sync.Mutex
	tables  []*game.Engine
	seq     map[string]int // per-limit table numbering, never reused
	timings game.Timings
	log     *zap.Logger

	// onCreate lets the transport attach its callbacks to every new
	// engine before any player can reach it
	onCreate func(e *game.Engine)
}

// Config configures the lobby
type Config struct {
	Timings  game.Timings
	Logger   *zap.Logger
	OnCreate func(e *game.Engine)
}

// New creates an empty lobby
func New(cfg Config) *Lobby {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lobby{
		seq:      make(map[string]int),
		timings:  cfg.Timings,
		log:      logger,
		onCreate: cfg.OnCreate,
	}
}

// Close shuts every table down
func (l *Lobby) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.tables {
		e.Close()
	}
	l.tables = nil
}

// TableByID returns the engine for a table ID
func (l *Lobby) TableByID(tableID string) (*game.Engine, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.tables {
		if e.ID() == tableID {
			return e, true
		}
	}
	return nil, false
}

// CreateTable opens a new table of the given stake, bounded by the
// stake's table cap
func (l *Lobby) CreateTable(limitID string) (*game.Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createTableLocked(limitID)
}

func (l *Lobby) createTableLocked(limitID string) (*game.Engine, error) {
	limit, ok := LimitByID(limitID)
	if !ok {
		return nil, ErrUnknownLimit
	}

	if len(l.sameLimitLocked(limitID)) >= limit.MaxTables {
		return nil, fmt.Errorf("%w: %s", ErrLimitFull, limitID)
	}

	l.seq[limitID]++
	tableID := fmt.Sprintf("%s#%d", limitID, l.seq[limitID])
	engine := game.New(game.Config{
		TableID:    tableID,
		LimitID:    limitID,
		SmallBlind: limit.SmallBlind,
		BigBlind:   limit.BigBlind,
		Timings:    l.timings,
		Logger:     l.log,
	})
	if l.onCreate != nil {
		l.onCreate(engine)
	}

	l.tables = append(l.tables, engine)
	l.log.Info("table created",
		zap.String("table", tableID),
		zap.String("limit", limit.Name),
	)
	return engine, nil
}

// TableToSeat picks the table a player of this stake should sit at:
// the first partially filled table, else the first empty one, else a
// freshly created table.
func (l *Lobby) TableToSeat(limitID string) (*game.Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := LimitByID(limitID); !ok {
		return nil, ErrUnknownLimit
	}

	same := l.sameLimitLocked(limitID)

	for _, e := range same {
		if n := e.Occupancy(); n > 0 && n < game.MaxSeats {
			return e, nil
		}
	}
	for _, e := range same {
		if e.Occupancy() == 0 {
			return e, nil
		}
	}

	return l.createTableLocked(limitID)
}

// CleanupEmpty removes surplus empty tables of a stake, keeping one
// empty table around as long as any table of the stake has players
func (l *Lobby) CleanupEmpty(limitID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var playing, empty []*game.Engine
	for _, e := range l.sameLimitLocked(limitID) {
		if e.Occupancy() > 0 {
			playing = append(playing, e)
		} else {
			empty = append(empty, e)
		}
	}

	if len(playing) == 0 || len(empty) <= 1 {
		return
	}

	remove := map[string]bool{}
	for _, e := range empty[1:] {
		e.Close()
		remove[e.ID()] = true
		l.log.Info("removed extra empty table", zap.String("table", e.ID()))
	}

	kept := l.tables[:0]
	for _, e := range l.tables {
		if !remove[e.ID()] {
			kept = append(kept, e)
		}
	}
	l.tables = kept
}

func (l *Lobby) sameLimitLocked(limitID string) []*game.Engine {
	var same []*game.Engine
	for _, e := range l.tables {
		if e.LimitID() == limitID {
			same = append(same, e)
		}
	}
	return same
}

// TableInfo is one table row in the lobby snapshot
type TableInfo struct {
	TableID string     `json:"tableId"`
	Players int        `json:"players"`
	Stage   game.Stage `json:"stage"`
	Status  string     `json:"status"`
}

// LimitInfo is one stake row in the lobby snapshot. Only occupied
// tables are listed; HasEmptyPlaceholder tells the client whether an
// extra "open a table" slot should be shown.
type LimitInfo struct {
	LimitID             string      `json:"limitId"`
	Name                string      `json:"name"`
	SmallBlind          int         `json:"smallBlind"`
	BigBlind            int         `json:"bigBlind"`
	Tables              []TableInfo `json:"tables"`
	HasEmptyPlaceholder bool        `json:"hasEmptyPlaceholder"`
}

// Snapshot builds the lobby overview for the HTTP endpoint
func (l *Lobby) Snapshot() []LimitInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]LimitInfo, 0, len(Limits))
	for _, limit := range Limits {
		info := LimitInfo{
			LimitID:    limit.ID,
			Name:       limit.Name,
			SmallBlind: limit.SmallBlind,
			BigBlind:   limit.BigBlind,
			Tables:     []TableInfo{},
		}

		emptyCount := 0
		total := 0
		for _, e := range l.sameLimitLocked(limit.ID) {
			total++
			n := e.Occupancy()
			if n == 0 {
				emptyCount++
				continue
			}

			stage := e.CurrentStage()
			status := "playing"
			if stage == game.StageWaiting {
				status = "waiting_players"
			}
			info.Tables = append(info.Tables, TableInfo{
				TableID: e.ID(),
				Players: n,
				Stage:   stage,
				Status:  status,
			})
		}

		info.HasEmptyPlaceholder = emptyCount > 0 || total < limit.MaxTables
		out = append(out, info)
	}
	return out
}

// AuditTrail concatenates every table's audit trail for the debug page
func (l *Lobby) AuditTrail() string {
	l.mu.Lock()
	engines := append([]*game.Engine{}, l.tables...)
	l.mu.Unlock()

	var b strings.Builder
	for _, e := range engines {
		trail := e.AuditTrail()
		if trail == "" {
			continue
		}
		fmt.Fprintf(&b, "=== %s ===\n%s\n", e.ID(), trail)
	}
	if b.Len() == 0 {
		return "audit trail is empty\n"
	}
	return b.String()
}

// DumpState renders the raw state of every table for the debug page
func (l *Lobby) DumpState() string {
	l.mu.Lock()
	engines := append([]*game.Engine{}, l.tables...)
	l.mu.Unlock()

	var b strings.Builder
	for _, e := range engines {
		fmt.Fprintf(&b, "=== %s ===\n%s\n", e.ID(), e.DumpState())
	}
	if b.Len() == 0 {
		return "no tables\n"
	}
	return b.String()
}

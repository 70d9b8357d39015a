package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazharichir/holdem/game"
)

func newTestLobby(t *testing.T) *Lobby {
	t.Helper()
	l := New(Config{Timings: game.DefaultTimings()})
	t.Cleanup(l.Close)
	return l
}

func TestLimitCatalogue(t *testing.T) {
	require.NotEmpty(t, Limits)

	_, ok := LimitByID(DefaultLimitID)
	assert.True(t, ok, "default limit must exist")

	_, ok = LimitByID("nl_9999")
	assert.False(t, ok)

	for _, l := range Limits {
		assert.Equal(t, l.BigBlind, 2*l.SmallBlind, "%s blinds", l.ID)
		assert.Greater(t, l.MaxTables, 0)
	}
}

func TestCreateTable(t *testing.T) {
	l := newTestLobby(t)

	e, err := l.CreateTable("nl_1_2")
	require.NoError(t, err)
	assert.Equal(t, "nl_1_2#1", e.ID())
	assert.Equal(t, "nl_1_2", e.LimitID())

	got, ok := l.TableByID("nl_1_2#1")
	require.True(t, ok)
	assert.Same(t, e, got)

	_, err = l.CreateTable("nope")
	assert.ErrorIs(t, err, ErrUnknownLimit)
}

func TestCreateTableCapPerLimit(t *testing.T) {
	l := newTestLobby(t)
	limit, _ := LimitByID("nl_200_400")

	for i := 0; i < limit.MaxTables; i++ {
		_, err := l.CreateTable(limit.ID)
		require.NoError(t, err)
	}

	_, err := l.CreateTable(limit.ID)
	assert.ErrorIs(t, err, ErrLimitFull)
}

func TestTableToSeatPrefersPartiallyFilled(t *testing.T) {
	l := newTestLobby(t)

	empty, err := l.CreateTable("nl_10_20")
	require.NoError(t, err)
	occupied, err := l.CreateTable("nl_10_20")
	require.NoError(t, err)
	occupied.AddPlayer("p1", "Alice")

	got, err := l.TableToSeat("nl_10_20")
	require.NoError(t, err)
	assert.Same(t, occupied, got, "a table with players wins over an empty one")

	_ = empty
}

func TestTableToSeatFallsBackToEmptyThenCreates(t *testing.T) {
	l := newTestLobby(t)

	empty, err := l.CreateTable("nl_10_20")
	require.NoError(t, err)

	got, err := l.TableToSeat("nl_10_20")
	require.NoError(t, err)
	assert.Same(t, empty, got)

	fresh, err := l.TableToSeat("nl_5_10")
	require.NoError(t, err)
	assert.Equal(t, "nl_5_10#1", fresh.ID(), "no table of the stake yet, one is created")
}

func TestTableToSeatSkipsFullTables(t *testing.T) {
	l := newTestLobby(t)

	full, err := l.CreateTable("nl_10_20")
	require.NoError(t, err)
	for i := 0; i < game.MaxSeats; i++ {
		full.AddPlayer(string(rune('a'+i)), "player")
	}

	got, err := l.TableToSeat("nl_10_20")
	require.NoError(t, err)
	assert.NotSame(t, full, got)
}

func TestCleanupEmptyKeepsOne(t *testing.T) {
	l := newTestLobby(t)

	occupied, _ := l.CreateTable("nl_10_20")
	occupied.AddPlayer("p1", "Alice")
	e1, _ := l.CreateTable("nl_10_20")
	e2, _ := l.CreateTable("nl_10_20")

	l.CleanupEmpty("nl_10_20")

	_, ok := l.TableByID(occupied.ID())
	assert.True(t, ok, "occupied table survives")
	_, ok1 := l.TableByID(e1.ID())
	_, ok2 := l.TableByID(e2.ID())
	assert.True(t, ok1 != ok2, "exactly one empty table survives")
}

func TestCleanupEmptyNoOpWithoutPlayers(t *testing.T) {
	l := newTestLobby(t)

	l.CreateTable("nl_10_20")
	l.CreateTable("nl_10_20")
	l.CleanupEmpty("nl_10_20")

	_, ok1 := l.TableByID("nl_10_20#1")
	_, ok2 := l.TableByID("nl_10_20#2")
	assert.True(t, ok1)
	assert.True(t, ok2, "nothing is removed while nobody plays the stake")
}

func TestTableIDsNeverReused(t *testing.T) {
	l := newTestLobby(t)

	occupied, _ := l.CreateTable("nl_10_20")
	occupied.AddPlayer("p1", "Alice")
	l.CreateTable("nl_10_20")
	l.CreateTable("nl_10_20")
	l.CleanupEmpty("nl_10_20")

	e, err := l.CreateTable("nl_10_20")
	require.NoError(t, err)
	assert.Equal(t, "nl_10_20#4", e.ID())
}

func TestSnapshot(t *testing.T) {
	l := newTestLobby(t)

	occupied, _ := l.CreateTable("nl_10_20")
	occupied.AddPlayer("p1", "Alice")
	l.CreateTable("nl_10_20") // empty, not listed

	snap := l.Snapshot()
	require.Len(t, snap, len(Limits))

	for _, info := range snap {
		if info.LimitID != "nl_10_20" {
			assert.Empty(t, info.Tables)
			assert.True(t, info.HasEmptyPlaceholder)
			continue
		}

		require.Len(t, info.Tables, 1, "only occupied tables are listed")
		assert.Equal(t, occupied.ID(), info.Tables[0].TableID)
		assert.Equal(t, 1, info.Tables[0].Players)
		assert.Equal(t, "waiting_players", info.Tables[0].Status)
		assert.True(t, info.HasEmptyPlaceholder)
	}
}

func TestOnCreateHookRuns(t *testing.T) {
	var created []string
	l := New(Config{
		Timings: game.DefaultTimings(),
		OnCreate: func(e *game.Engine) {
			created = append(created, e.ID())
		},
	})
	t.Cleanup(l.Close)

	l.CreateTable("nl_1_2")
	l.TableToSeat("nl_2_4")

	assert.Equal(t, []string{"nl_1_2#1", "nl_2_4#1"}, created)
}

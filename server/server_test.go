package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazharichir/holdem/game"
	"github.com/lazharichir/holdem/lobby"
)

func testTimings() game.Timings {
	return game.Timings{
		TurnTimeout:     5 * time.Second,
		NextHandDelay:   time.Minute,
		CardDealDelay:   5 * time.Millisecond,
		FlopRevealDelay: 5 * time.Millisecond,
		TurnRiverDelay:  5 * time.Millisecond,
		RoundEndDelay:   5 * time.Millisecond,
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(testTimings(), nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func TestLobbyEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/lobby")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snapshot []lobby.LimitInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	assert.Len(t, snapshot, len(lobby.Limits))
}

func TestLobbyEndpointRejectsPost(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/lobby", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCreateTableEndpoint(t *testing.T) {
	s, ts := newTestServer(t)

	body := strings.NewReader(`{"limitId":"nl_25_50"}`)
	resp, err := http.Post(ts.URL+"/api/create-table", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created CreateTableResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "nl_25_50#1", created.TableID)
	assert.Equal(t, "NL 25 / 50", created.Name)

	_, ok := s.lobby.TableByID(created.TableID)
	assert.True(t, ok)
}

func TestCreateTableEndpointUnknownLimit(t *testing.T) {
	_, ts := newTestServer(t)

	body := strings.NewReader(`{"limitId":"nl_13_37"}`)
	resp, err := http.Post(ts.URL+"/api/create-table", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateTableEndpointCap(t *testing.T) {
	_, ts := newTestServer(t)

	limit, _ := lobby.LimitByID("nl_200_400")
	for i := 0; i < limit.MaxTables; i++ {
		resp, err := http.Post(ts.URL+"/api/create-table", "application/json",
			strings.NewReader(`{"limitId":"nl_200_400"}`))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := http.Post(ts.URL+"/api/create-table", "application/json",
		strings.NewReader(`{"limitId":"nl_200_400"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLogEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/log")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
}

func TestLogRawStateDump(t *testing.T) {
	s, ts := newTestServer(t)

	engine, err := s.lobby.CreateTable(lobby.DefaultLimitID)
	require.NoError(t, err)
	engine.AddPlayer("p1", "Alice")

	resp, err := http.Get(ts.URL + "/log?raw=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), engine.ID())
	assert.Contains(t, string(body), "MainPot")
	assert.Contains(t, string(body), "Alice")
}

func wsURL(ts *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, query), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil pumps server messages until one of the wanted type arrives
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) ServerMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))

	for {
		var msg ServerMessage
		err := conn.ReadJSON(&msg)
		require.NoError(t, err, "waiting for %s", msgType)
		if msg.Type == msgType {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func TestWebSocketInitialState(t *testing.T) {
	_, ts := newTestServer(t)

	conn := dial(t, ts, "?limitId=nl_10_20")

	history := readUntil(t, conn, MsgChatHistory)
	assert.Empty(t, history.Messages)

	state := readUntil(t, conn, MsgGameState)
	require.NotNil(t, state.State)
	assert.Equal(t, "nl_10_20", state.State.LimitID)
	assert.Equal(t, -1, state.State.YourSeatIndex, "spectator until joinTable")
}

func TestWebSocketJoinAndPlay(t *testing.T) {
	_, ts := newTestServer(t)

	alice := dial(t, ts, "?limitId=nl_10_20")
	bob := dial(t, ts, "?limitId=nl_10_20")

	send(t, alice, ClientMessage{Type: MsgJoinTable, PlayerName: "Alice"})
	send(t, bob, ClientMessage{Type: MsgJoinTable, PlayerName: "Bob"})

	// two players auto-start a hand; both eventually see preflop
	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, alice.SetReadDeadline(deadline))
	for {
		var msg ServerMessage
		require.NoError(t, alice.ReadJSON(&msg))
		if msg.Type == MsgGameState && msg.State.Stage == game.StagePreflop {
			assert.Equal(t, 30, msg.State.StreetPot)
			break
		}
	}
}

func TestWebSocketChat(t *testing.T) {
	_, ts := newTestServer(t)

	alice := dial(t, ts, "?limitId=nl_10_20")
	bob := dial(t, ts, "?limitId=nl_10_20")

	send(t, alice, ClientMessage{Type: MsgJoinTable, PlayerName: "Alice"})
	send(t, bob, ClientMessage{Type: MsgJoinTable, PlayerName: "Bob"})
	send(t, alice, ClientMessage{Type: MsgChatMessage, Text: "good luck"})

	msg := readUntil(t, bob, MsgChatMessage)
	require.NotNil(t, msg.Message)
	assert.Equal(t, "Alice", msg.Message.Name)
	assert.Equal(t, "good luck", msg.Message.Text)
}

func TestWebSocketUnknownCommand(t *testing.T) {
	_, ts := newTestServer(t)

	conn := dial(t, ts, "")
	send(t, conn, ClientMessage{Type: "teleport"})

	msg := readUntil(t, conn, MsgError)
	assert.Contains(t, msg.Error, "unknown message type")
}

func TestWebSocketExplicitTableID(t *testing.T) {
	s, ts := newTestServer(t)

	engine, err := s.lobby.CreateTable("nl_50_100")
	require.NoError(t, err)

	conn := dial(t, ts, "?tableId="+engine.ID())
	state := readUntil(t, conn, MsgGameState)
	require.NotNil(t, state.State)
	assert.Equal(t, engine.ID(), state.State.TableID)
}

func TestWebSocketDisconnectFreesSeat(t *testing.T) {
	s, ts := newTestServer(t)

	alice := dial(t, ts, "?limitId=nl_10_20")
	send(t, alice, ClientMessage{Type: MsgJoinTable, PlayerName: "Alice"})

	engine, ok := s.lobby.TableByID("nl_10_20#1")
	require.True(t, ok)
	require.Eventually(t, func() bool {
		return engine.Occupancy() == 1
	}, 2*time.Second, 5*time.Millisecond)

	alice.Close()
	require.Eventually(t, func() bool {
		return engine.Occupancy() == 0
	}, 2*time.Second, 5*time.Millisecond)
}

// Package server exposes the tables over websocket plus a small HTTP
// API for the lobby page.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lazharichir/holdem/game"
	"github.com/lazharichir/holdem/lobby"
	"github.com/lazharichir/holdem/server/connection"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, implement proper origin checks
	},
}

// Server bridges websocket clients to the table engines
type Server struct {
	lobby   *lobby.Lobby
	connMgr *connection.Manager
	log     *zap.Logger
}

// NewServer wires the lobby, the connection manager and the engine
// callbacks together
func NewServer(timings game.Timings, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		connMgr: connection.NewManager(),
		log:     logger,
	}
	s.lobby = lobby.New(lobby.Config{
		Timings:  timings,
		Logger:   logger,
		OnCreate: s.attachEngine,
	})

	go s.connMgr.Start()
	return s
}

// attachEngine hooks a fresh table engine into the transport. Runs
// before any player can reach the table. The callbacks fire inside the
// engine, so they only do non-blocking queueing.
func (s *Server) attachEngine(e *game.Engine) {
	tableID := e.ID()

	e.OnState(func(seatID string, view game.View) {
		s.connMgr.SendToClient(seatID, encodeState(view))
	})
	e.OnSound(func(sound game.Sound) {
		s.connMgr.SendToTable(tableID, encodeSound(sound))
	})
	e.OnChat(func(msg game.ChatMessage) {
		s.connMgr.SendToTable(tableID, encodeChat(msg))
	})
}

// Handler builds the HTTP routing table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/lobby", corsMiddleware(s.handleLobby))
	mux.HandleFunc("/api/create-table", corsMiddleware(s.handleCreateTable))
	mux.HandleFunc("/log", s.handleLog)
	return mux
}

// Start begins the server on the specified port
func (s *Server) Start(port string) error {
	s.log.Info("starting server", zap.String("port", port))
	return http.ListenAndServe("0.0.0.0:"+port, s.Handler())
}

// Close shuts every table down
func (s *Server) Close() {
	s.lobby.Close()
}

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// pickEngine resolves the table a new connection lands at: an explicit
// tableId wins, create=1 opens a fresh table of the stake, otherwise
// the lobby's seat policy decides.
func (s *Server) pickEngine(r *http.Request) (*game.Engine, error) {
	q := r.URL.Query()

	limitID := q.Get("limitId")
	if _, ok := lobby.LimitByID(limitID); !ok {
		limitID = lobby.DefaultLimitID
	}

	if tableID := q.Get("tableId"); tableID != "" {
		if e, ok := s.lobby.TableByID(tableID); ok {
			return e, nil
		}
	}

	if q.Get("create") == "1" {
		return s.lobby.CreateTable(limitID)
	}
	return s.lobby.TableToSeat(limitID)
}

// handleWebSocket handles incoming WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	engine, err := s.pickEngine(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	clientID := uuid.NewString()
	client := connection.NewClient(clientID, conn, engine.ID())
	s.connMgr.Register <- client

	s.log.Info("client connected",
		zap.String("client", clientID),
		zap.String("table", engine.ID()),
		zap.String("remote", r.RemoteAddr),
	)

	go s.writePump(client)
	go s.readPump(client, engine)

	// catch the newcomer up before any command arrives
	s.connMgr.SendToClient(clientID, encodeChatHistory(engine.ChatHistory()))
	s.connMgr.SendToClient(clientID, encodeState(engine.StateFor(clientID)))
}

// readPump reads commands from the WebSocket connection
func (s *Server) readPump(client *connection.Client, engine *game.Engine) {
	defer func() {
		s.connMgr.Unregister <- client
		client.Conn.Close()

		engine.RemovePlayer(client.ID)
		s.lobby.CleanupEmpty(engine.LimitID())
		s.log.Info("client disconnected", zap.String("client", client.ID))
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		if err := s.handleCommand(client, engine, message); err != nil {
			s.log.Debug("rejected command",
				zap.String("client", client.ID),
				zap.Error(err),
			)
			s.connMgr.SendToClient(client.ID, encodeError(err.Error()))
		}
	}
}

// writePump sends queued messages to the WebSocket connection
func (s *Server) writePump(client *connection.Client) {
	defer client.Conn.Close()

	for message := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// handleCommand dispatches one decoded client command to the engine
func (s *Server) handleCommand(client *connection.Client, engine *game.Engine, raw []byte) error {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("malformed message: %w", err)
	}

	switch msg.Type {
	case MsgJoinTable:
		name := msg.PlayerName
		if name == "" {
			name = "Player"
		}
		engine.AddPlayer(client.ID, name)

	case MsgAction:
		if msg.Action == nil {
			return fmt.Errorf("action payload missing")
		}
		engine.HandleAction(client.ID, *msg.Action)

	case MsgSetPlaying:
		playing := msg.Playing != nil && *msg.Playing
		engine.SetPlaying(client.ID, playing)

	case MsgStartHand:
		engine.StartHand()

	case MsgNextStage:
		engine.NextStage()

	case MsgLeaveTable:
		engine.LeaveTable(client.ID)

	case MsgChatMessage:
		engine.AppendChat(client.ID, msg.Text)

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

// CreateTableRequest is the body of POST /api/create-table
type CreateTableRequest struct {
	LimitID string `json:"limitId"`
}

// CreateTableResponse is the created table's identity
type CreateTableResponse struct {
	TableID string `json:"tableId"`
	LimitID string `json:"limitId"`
	Name    string `json:"name"`
}

// handleLobby returns the stake catalogue with every occupied table
func (s *Server) handleLobby(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.lobby.Snapshot())
}

// handleCreateTable opens a new table of the requested stake
func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	limit, ok := lobby.LimitByID(req.LimitID)
	if !ok {
		http.Error(w, "unknown_limit", http.StatusBadRequest)
		return
	}

	engine, err := s.lobby.CreateTable(req.LimitID)
	if err != nil {
		http.Error(w, "no_more_tables_for_limit", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CreateTableResponse{
		TableID: engine.ID(),
		LimitID: engine.LimitID(),
		Name:    limit.Name,
	})
}

// handleLog dumps every table's audit trail as plain text; ?raw=1
// switches to the raw state dump
func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if r.URL.Query().Get("raw") == "1" {
		fmt.Fprint(w, s.lobby.DumpState())
		return
	}
	fmt.Fprint(w, s.lobby.AuditTrail())
}

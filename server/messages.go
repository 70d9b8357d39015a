package server

import (
	"encoding/json"

	"github.com/lazharichir/holdem/game"
)

// ClientMessage is the envelope every websocket message from a client
// uses. Type selects the command; the other fields are type-specific.
type ClientMessage struct {
	Type       string       `json:"type"`
	PlayerName string       `json:"playerName,omitempty"` // joinTable
	Action     *game.Action `json:"action,omitempty"`     // action
	Playing    *bool        `json:"playing,omitempty"`    // setPlaying
	Text       string       `json:"text,omitempty"`       // chatMessage
}

// Client command types
const (
	MsgJoinTable   = "joinTable"
	MsgAction      = "action"
	MsgSetPlaying  = "setPlaying"
	MsgStartHand   = "startHand"
	MsgNextStage   = "nextStage"
	MsgLeaveTable  = "leaveTable"
	MsgChatMessage = "chatMessage"
)

// ServerMessage is the envelope for everything pushed to clients
type ServerMessage struct {
	Type     string             `json:"type"`
	State    *game.View         `json:"state,omitempty"`
	Sound    game.Sound         `json:"sound,omitempty"`
	Message  *game.ChatMessage  `json:"message,omitempty"`
	Messages []game.ChatMessage `json:"messages,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Server push types
const (
	MsgGameState   = "gameState"
	MsgSound       = "sound"
	MsgChatHistory = "chatHistory"
	MsgError       = "error"
)

func encodeState(view game.View) []byte {
	return mustMarshal(ServerMessage{Type: MsgGameState, State: &view})
}

func encodeSound(sound game.Sound) []byte {
	return mustMarshal(ServerMessage{Type: MsgSound, Sound: sound})
}

func encodeChat(msg game.ChatMessage) []byte {
	return mustMarshal(ServerMessage{Type: MsgChatMessage, Message: &msg})
}

func encodeChatHistory(msgs []game.ChatMessage) []byte {
	return mustMarshal(ServerMessage{Type: MsgChatHistory, Messages: msgs})
}

func encodeError(text string) []byte {
	return mustMarshal(ServerMessage{Type: MsgError, Error: text})
}

// mustMarshal never fails for our own message types
func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

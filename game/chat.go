package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxChatMessages = 200
	maxChatLength   = 500
)

// ChatMessage is one table chat entry
type ChatMessage struct {
	ID       string `json:"id"`
	SeatID   string `json:"seatId"`
	Name     string `json:"name"`
	Text     string `json:"text"`
	SentAtMs int64  `json:"sentAt"`
}

// AppendChat validates and stores a chat message, then fans it out.
// Empty messages are dropped, long ones truncated, and the log is
// bounded to the most recent entries. Unseated senders (spectators)
// post as "Guest".
func (e *Engine) AppendChat(seatID, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := "Guest"
	if idx := e.seatIndexByID(seatID); idx >= 0 {
		name = e.table.Seats[idx].Name
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if runes := []rune(text); len(runes) > maxChatLength {
		text = string(runes[:maxChatLength])
	}

	msg := ChatMessage{
		ID:       uuid.NewString(),
		SeatID:   seatID,
		Name:     name,
		Text:     text,
		SentAtMs: time.Now().UnixMilli(),
	}

	e.chatLog = append(e.chatLog, msg)
	if len(e.chatLog) > maxChatMessages {
		e.chatLog = e.chatLog[len(e.chatLog)-maxChatMessages:]
	}

	if e.onChat != nil {
		e.onChat(msg)
	}
}

// ChatHistory returns a copy of the retained chat log
func (e *Engine) ChatHistory() []ChatMessage {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]ChatMessage, len(e.chatLog))
	copy(out, e.chatLog)
	return out
}

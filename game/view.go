package game

import (
	"github.com/lazharichir/holdem/cards"
	"github.com/lazharichir/holdem/hands"
)

// SeatView is what one player may know about another seat. Hole cards
// are only populated for the viewer's own seat, or for contenders once
// the hand reaches showdown.
type SeatView struct {
	Index              int         `json:"index"`
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Stack              int         `json:"stack"`
	BetThisStreet      int         `json:"betThisStreet"`
	InHand             bool        `json:"inHand"`
	HasFolded          bool        `json:"hasFolded"`
	Paused             bool        `json:"paused"`
	PendingLeave       bool        `json:"pendingLeave"`
	HoleCards          cards.Stack `json:"holeCards,omitempty"`
	Message            string      `json:"message,omitempty"`
	IsButton           bool        `json:"isButton"`
	IsTurn             bool        `json:"isTurn"`
	HasActedThisStreet bool        `json:"hasActedThisStreet"`
}

// View is the full table state as seen by one player
type View struct {
	TableID           string      `json:"tableId"`
	LimitID           string      `json:"limitId"`
	SmallBlind        int         `json:"smallBlind"`
	BigBlind          int         `json:"bigBlind"`
	Stage             Stage       `json:"stage"`
	CommunityCards    cards.Stack `json:"communityCards"`
	MainPot           int         `json:"mainPot"`
	StreetPot         int         `json:"streetPot"`
	CurrentBet        int         `json:"currentBet"`
	MinRaise          int         `json:"minRaise"`
	Seats             []*SeatView `json:"seats"`
	YourSeatIndex     int         `json:"yourSeatIndex"`
	YourTurn          bool        `json:"yourTurn"`
	TurnDeadline      int64       `json:"turnDeadline,omitempty"`
	ToCall            int         `json:"toCall"`
	YourBestHandType  string      `json:"yourBestHandType,omitempty"`
	YourBestHandCards cards.Stack `json:"yourBestHandCards,omitempty"`
	LastLogMessage    string      `json:"lastLogMessage,omitempty"`
	PotDetails        []string    `json:"potDetails,omitempty"`
	DealerDetails     string      `json:"dealerDetails,omitempty"`
}

// StateFor returns the viewer-specific projection of the table
func (e *Engine) StateFor(seatID string) View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildView(seatID)
}

// buildView assembles the projection. Caller holds mu.
func (e *Engine) buildView(viewerID string) View {
	t := e.table

	view := View{
		TableID:        t.ID,
		LimitID:        t.LimitID,
		SmallBlind:     t.SmallBlind,
		BigBlind:       t.BigBlind,
		Stage:          t.Stage,
		CommunityCards: append(cards.Stack{}, t.CommunityCards...),
		MainPot:        t.MainPot,
		StreetPot:      t.StreetPot,
		CurrentBet:     t.CurrentBet,
		MinRaise:       t.MinRaise,
		YourSeatIndex:  -1,
		LastLogMessage: t.LastLogMessage,
		PotDetails:     t.PotDetails,
		DealerDetails:  t.DealerDetails,
	}

	for i, s := range t.Seats {
		if s == nil {
			view.Seats = append(view.Seats, nil)
			continue
		}

		sv := &SeatView{
			Index:              i,
			ID:                 s.ID,
			Name:               s.Name,
			Stack:              s.Stack,
			BetThisStreet:      s.BetThisStreet,
			InHand:             s.InHand,
			HasFolded:          s.HasFolded,
			Paused:             s.Paused,
			PendingLeave:       s.PendingLeave,
			Message:            s.Message,
			IsButton:           i == t.ButtonIndex,
			IsTurn:             i == t.CurrentTurnIndex,
			HasActedThisStreet: s.HasActedThisStreet,
		}

		showCards := s.ID == viewerID ||
			(t.Stage == StageShowdown && s.InHand && !s.HasFolded)
		if showCards {
			sv.HoleCards = append(cards.Stack{}, s.HoleCards...)
		}

		if s.ID == viewerID {
			view.YourSeatIndex = i
			view.YourTurn = i == t.CurrentTurnIndex && t.Stage.IsBettingStage()
			if view.YourTurn {
				view.ToCall = max(0, t.CurrentBet-s.BetThisStreet)
				if !t.TurnDeadline.IsZero() {
					view.TurnDeadline = t.TurnDeadline.UnixMilli()
				}
			}

			if s.InHand && !s.HasFolded && len(s.HoleCards) == 2 {
				full := append(cards.Stack{}, s.HoleCards...)
				full = append(full, t.CommunityCards...)
				if score, best5 := hands.BestHand(full); best5 != nil {
					view.YourBestHandType = score.Category().String()
					view.YourBestHandCards = hands.ComboCards(score, best5)
				} else if len(s.HoleCards) == 2 {
					// preflop: show the pocket pair / high card from two cards
					view.YourBestHandType = previewTwoCards(s.HoleCards)
				}
			}
		}

		view.Seats = append(view.Seats, sv)
	}

	return view
}

// previewTwoCards labels a two-card holding before any board exists
func previewTwoCards(hole cards.Stack) string {
	if len(hole) != 2 {
		return ""
	}
	if hole[0].Value == hole[1].Value {
		return hands.OnePair.String()
	}
	return hands.HighCard.String()
}

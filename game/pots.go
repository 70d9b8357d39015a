package game

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lazharichir/holdem/cards"
	"github.com/lazharichir/holdem/hands"
)

// Pot is one layer of the pot: an amount plus the seat IDs allowed to
// win it. The main pot is the first layer, side pots follow.
type Pot struct {
	Amount      int
	EligibleIDs []string
}

// buildSidePots layers the pot from everyone's total contribution,
// including folded seats (their chips stay in but they claim nothing).
// Contributions are cut at each distinct all-in level, ascending; every
// seat pays into a layer up to that layer's cap, and only unfolded seats
// that covered the cap are eligible for it. A layer whose eligible set
// is empty is dropped, so chips contributed above every live seat's
// level are forfeited rather than refunded.
func buildSidePots(seats []*Seat) []Pot {
	type contrib struct {
		seat   *Seat
		amount int
	}

	var all []contrib
	for _, s := range seats {
		if s != nil && s.TotalBet > 0 {
			all = append(all, contrib{seat: s, amount: s.TotalBet})
		}
	}
	if len(all) == 0 {
		return nil
	}

	levelSet := map[int]struct{}{}
	for _, c := range all {
		levelSet[c.amount] = struct{}{}
	}
	levels := make([]int, 0, len(levelSet))
	for lvl := range levelSet {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)

	var pots []Pot
	prev := 0
	for _, lvl := range levels {
		layer := lvl - prev
		amount := 0
		var eligible []string

		for _, c := range all {
			paid := min(c.amount, lvl) - min(c.amount, prev)
			amount += paid
			if c.amount >= lvl && c.seat.InHand && !c.seat.HasFolded {
				eligible = append(eligible, c.seat.ID)
			}
		}
		prev = lvl

		if amount == 0 || layer == 0 {
			continue
		}
		if len(eligible) == 0 {
			// nobody left to claim this layer; the chips are forfeited
			continue
		}
		pots = append(pots, Pot{Amount: amount, EligibleIDs: eligible})
	}

	return pots
}

// resolveShowdown settles the hand: builds the pot layers, evaluates the
// remaining contenders and pays each layer to its best hand(s). Ties
// split the layer evenly; a remainder chip that does not divide goes to
// the first winner in seat order. Fills PotDetails and DealerDetails for
// the table log.
func (e *Engine) resolveShowdown() {
	t := e.table
	contenders := e.contenders()
	totalPot := t.MainPot

	// everyone folded out: whoever is left takes it all without showing
	if len(contenders) <= 1 {
		var details []string
		if len(contenders) == 0 && totalPot > 0 {
			// nobody to pay means an upstream defect; keep the books honest
			details = append(details, fmt.Sprintf("%d forfeited (no contenders)", totalPot))
			e.log.Error("pot with no contenders", zap.Int("pot", totalPot))
		}
		if len(contenders) == 1 && totalPot > 0 {
			winner := contenders[0]
			winner.Stack += totalPot
			winner.Message = fmt.Sprintf("+%d", totalPot)
			t.LastLogMessage = fmt.Sprintf("%s wins %d (everyone folded)", winner.Name, totalPot)
			details = append(details, t.LastLogMessage)
			e.emitSound(SoundPotWin)
			e.log.Info("hand won uncontested",
				zap.String("winner", winner.ID),
				zap.Int("pot", totalPot),
			)
		}
		t.MainPot = 0
		t.PotDetails = details
		e.clearContributions()
		return
	}

	type entry struct {
		seat  *Seat
		score hands.Score
		best5 cards.Stack
	}

	entries := map[string]entry{}
	var dealerLines []string
	for _, s := range contenders {
		full := append(cards.Stack{}, s.HoleCards...)
		full = append(full, t.CommunityCards...)
		score, best5 := hands.BestHand(full)
		entries[s.ID] = entry{seat: s, score: score, best5: best5}

		combo := hands.ComboCards(score, best5)
		dealerLines = append(dealerLines, fmt.Sprintf("%s shows %s: %s (%s)",
			s.Name, s.HoleCards.String(), score.Category().String(), combo.String()))
	}

	pots := buildSidePots(t.Seats)

	distributed := 0
	var details []string
	for i, pot := range pots {
		var best hands.Score = -1
		for _, id := range pot.EligibleIDs {
			if en, ok := entries[id]; ok && en.score > best {
				best = en.score
			}
		}

		var winners []*Seat
		for _, id := range pot.EligibleIDs {
			if en, ok := entries[id]; ok && en.score == best {
				winners = append(winners, en.seat)
			}
		}
		if len(winners) == 0 {
			continue
		}

		share := pot.Amount / len(winners)
		remainder := pot.Amount - share*len(winners)

		var names []string
		for j, w := range winners {
			won := share
			if j == 0 {
				won += remainder
			}
			w.Stack += won
			distributed += won
			if w.Message != "" {
				w.Message += fmt.Sprintf(" +%d", won)
			} else {
				w.Message = fmt.Sprintf("+%d", won)
			}
			names = append(names, w.Name)
		}

		label := "Main pot"
		if i > 0 {
			label = fmt.Sprintf("Side pot %d", i)
		}
		details = append(details, fmt.Sprintf("%s (%d): %s with %s",
			label, pot.Amount, strings.Join(names, ", "), best.Category().String()))
	}

	if forfeited := totalPot - distributed; forfeited > 0 {
		details = append(details, fmt.Sprintf("%d forfeited (no eligible claimant)", forfeited))
		e.log.Warn("chips forfeited at showdown", zap.Int("amount", forfeited))
	}

	t.MainPot = 0
	t.PotDetails = details
	t.DealerDetails = strings.Join(dealerLines, " | ")
	if len(details) > 0 {
		t.LastLogMessage = strings.Join(details, "; ")
	}
	e.clearContributions()
	e.emitSound(SoundPotWin)

	e.log.Info("showdown resolved",
		zap.Int("pot", totalPot),
		zap.Int("distributed", distributed),
		zap.Strings("pots", details),
	)
}

// clearContributions zeroes every seat's hand contribution once the pot
// is settled, so nothing carries into side-pot math of a later hand
func (e *Engine) clearContributions() {
	for _, s := range e.table.Seats {
		if s != nil {
			s.TotalBet = 0
		}
	}
}

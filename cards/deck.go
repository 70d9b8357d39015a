package cards

import (
	"math/rand"
	"strings"
)

// Stack represents an ordered collection of cards
type Stack []Card

func (s Stack) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Contains checks whether the stack holds the given card
func (s Stack) Contains(card Card) bool {
	for _, c := range s {
		if c.Equals(card) {
			return true
		}
	}
	return false
}

// NewDeck52 creates a standard deck of 52 unique cards
func NewDeck52() Stack {
	var deck Stack
	suits := []Suit{Spades, Hearts, Diamonds, Clubs}
	values := []Value{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

	for _, suit := range suits {
		for _, value := range values {
			deck = append(deck, Card{Suit: suit, Value: value})
		}
	}

	return deck
}

// Shuffle randomizes the order of the cards in place
func (s Stack) Shuffle() {
	rand.Shuffle(len(s), func(i, j int) {
		s[i], s[j] = s[j], s[i]
	})
}

// DealCard removes and returns the top card of the stack.
// Returns a zero Card when the stack is empty.
func (s *Stack) DealCard() Card {
	if len(*s) == 0 {
		return Card{}
	}

	card := (*s)[0]
	*s = (*s)[1:]
	return card
}

// Burn discards the top card of the stack without dealing it
func (s *Stack) Burn() {
	if len(*s) == 0 {
		return
	}
	*s = (*s)[1:]
}

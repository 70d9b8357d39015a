package hands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazharichir/holdem/cards"
)

func stack(t *testing.T, shorthand ...string) cards.Stack {
	t.Helper()
	var s cards.Stack
	for _, sh := range shorthand {
		c, err := cards.CardFromString(sh)
		require.NoError(t, err)
		s = append(s, c)
	}
	return s
}

func TestScore5Categories(t *testing.T) {
	tests := []struct {
		name     string
		hand     []string
		category Category
	}{
		{"high card", []string{"AS", "KD", "9H", "5C", "2S"}, HighCard},
		{"pair", []string{"AS", "AD", "9H", "5C", "2S"}, OnePair},
		{"two pair", []string{"AS", "AD", "9H", "9C", "2S"}, TwoPair},
		{"trips", []string{"AS", "AD", "AH", "5C", "2S"}, ThreeOfAKind},
		{"straight", []string{"9S", "8D", "7H", "6C", "5S"}, Straight},
		{"wheel", []string{"AS", "2D", "3H", "4C", "5S"}, Straight},
		{"flush", []string{"AS", "JS", "9S", "5S", "2S"}, Flush},
		{"full house", []string{"AS", "AD", "AH", "2C", "2S"}, FullHouse},
		{"quads", []string{"AS", "AD", "AH", "AC", "2S"}, FourOfAKind},
		{"straight flush", []string{"9S", "8S", "7S", "6S", "5S"}, StraightFlush},
		{"royal flush", []string{"AS", "KS", "QS", "JS", "TS"}, StraightFlush},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score5(stack(t, tt.hand...))
			assert.Equal(t, tt.category, score.Category())
		})
	}
}

func TestScore5Ordering(t *testing.T) {
	royal := Score5(stack(t, "AS", "KS", "QS", "JS", "TS"))
	quads := Score5(stack(t, "AS", "AD", "AH", "AC", "KS"))
	assert.Greater(t, royal, quads)

	// trips decide a full house before the pair
	sevensOverTwos := Score5(stack(t, "7S", "7D", "7H", "2C", "2S"))
	sixesOverAces := Score5(stack(t, "6S", "6D", "6H", "AC", "AS"))
	assert.Greater(t, sevensOverTwos, sixesOverAces)

	// the wheel is the lowest straight
	wheel := Score5(stack(t, "AS", "2D", "3H", "4C", "5S"))
	sixHigh := Score5(stack(t, "2S", "3D", "4H", "5C", "6S"))
	assert.Less(t, wheel, sixHigh)

	// kickers break equal pairs
	pairGoodKicker := Score5(stack(t, "QS", "QD", "AH", "9C", "2S"))
	pairWeakKicker := Score5(stack(t, "QH", "QC", "KH", "9D", "2H"))
	assert.Greater(t, pairGoodKicker, pairWeakKicker)

	// suits never matter
	a := Score5(stack(t, "AS", "KD", "9H", "5C", "2S"))
	b := Score5(stack(t, "AH", "KC", "9S", "5D", "2H"))
	assert.Equal(t, a, b)
}

func TestBestHandSevenCards(t *testing.T) {
	// board gives a flush the pocket pair cannot beat
	seven := stack(t, "AS", "AD", "KS", "QS", "JS", "9S", "2H")
	score, best5 := BestHand(seven)
	require.Len(t, best5, 5)
	assert.Equal(t, Flush, score.Category())

	for _, c := range best5 {
		assert.True(t, seven.Contains(c))
	}
}

func TestBestHandTooFewCards(t *testing.T) {
	score, best5 := BestHand(stack(t, "AS", "AD"))
	assert.Equal(t, Score(0), score)
	assert.Nil(t, best5)
}

func TestBestHandFiveAndSix(t *testing.T) {
	score5, best5 := BestHand(stack(t, "9S", "8D", "7H", "6C", "5S"))
	assert.Equal(t, Straight, score5.Category())
	require.Len(t, best5, 5)

	score6, best6 := BestHand(stack(t, "9S", "8D", "7H", "6C", "5S", "5D"))
	require.Len(t, best6, 5)
	assert.Equal(t, score5, score6)
}

func TestComboCardsCounts(t *testing.T) {
	tests := []struct {
		name  string
		hand  []string
		count int
	}{
		{"high card keeps one", []string{"AS", "KD", "9H", "5C", "2S"}, 1},
		{"pair keeps two", []string{"AS", "AD", "9H", "5C", "2S"}, 2},
		{"two pair keeps four", []string{"AS", "AD", "9H", "9C", "2S"}, 4},
		{"trips keep three", []string{"AS", "AD", "AH", "5C", "2S"}, 3},
		{"straight keeps five", []string{"9S", "8D", "7H", "6C", "5S"}, 5},
		{"flush keeps five", []string{"AS", "JS", "9S", "5S", "2S"}, 5},
		{"full house keeps five", []string{"AS", "AD", "AH", "2C", "2S"}, 5},
		{"quads keep four", []string{"AS", "AD", "AH", "AC", "2S"}, 4},
		{"straight flush keeps five", []string{"9S", "8S", "7S", "6S", "5S"}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			five := stack(t, tt.hand...)
			score := Score5(five)
			combo := ComboCards(score, five)
			assert.Len(t, combo, tt.count)
			for _, c := range combo {
				assert.True(t, five.Contains(c))
			}
		})
	}
}

func TestComboCardsPicksThePair(t *testing.T) {
	five := stack(t, "AS", "AD", "9H", "5C", "2S")
	combo := ComboCards(Score5(five), five)
	require.Len(t, combo, 2)
	for _, c := range combo {
		assert.Equal(t, cards.Ace, c.Value)
	}
}

func TestBestHandTieKeepsFirstCombination(t *testing.T) {
	// two interchangeable fives on the board tie for the same straight;
	// the enumeration order must be stable so the projection is too
	seven := stack(t, "9S", "8D", "7H", "6C", "5S", "5D", "2H")
	_, first := BestHand(seven)
	_, second := BestHand(seven)
	assert.Equal(t, first, second)
}

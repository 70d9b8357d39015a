package hands

import (
	"sort"

	"github.com/lazharichir/holdem/cards"
)

// Category classifies a 5-card poker hand
type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns the human label for the category
func (c Category) String() string {
	switch c {
	case StraightFlush:
		return "Straight Flush"
	case FourOfAKind:
		return "Four of a Kind"
	case FullHouse:
		return "Full House"
	case Flush:
		return "Flush"
	case Straight:
		return "Straight"
	case ThreeOfAKind:
		return "Three of a Kind"
	case TwoPair:
		return "Two Pair"
	case OnePair:
		return "Pair"
	default:
		return "High Card"
	}
}

// Score is a totally ordered hand strength. It encodes
// category * 10_000_000_000 plus a base-15 positional pattern of the
// deciding ranks, so two scores compare correctly with plain <.
// Ties within a category are broken purely by the pattern, never by suit.
type Score int64

const categorySpan = 10_000_000_000

// Category extracts the hand category from a score
func (s Score) Category() Category {
	return Category(int64(s) / categorySpan)
}

// String returns the human label for the score's category
func (s Score) String() string {
	return s.Category().String()
}

// RankValue converts a card value to its numeric rank, ace high (2..14)
func RankValue(v cards.Value) int {
	switch v {
	case cards.Ace:
		return 14
	case cards.King:
		return 13
	case cards.Queen:
		return 12
	case cards.Jack:
		return 11
	case cards.Ten:
		return 10
	case cards.Nine:
		return 9
	case cards.Eight:
		return 8
	case cards.Seven:
		return 7
	case cards.Six:
		return 6
	case cards.Five:
		return 5
	case cards.Four:
		return 4
	case cards.Three:
		return 3
	case cards.Two:
		return 2
	default:
		return 0
	}
}

// StraightHigh returns the high rank of the best run of 5 consecutive
// ranks in uniqueDesc (unique ranks, sorted descending). The wheel
// A-2-3-4-5 counts as a 5-high straight. Returns 0 when there is none.
func StraightHigh(uniqueDesc []int) int {
	if len(uniqueDesc) < 5 {
		return 0
	}

	hasRank := func(r int) bool {
		for _, v := range uniqueDesc {
			if v == r {
				return true
			}
		}
		return false
	}

	if hasRank(14) && hasRank(5) && hasRank(4) && hasRank(3) && hasRank(2) {
		// remember the wheel, but a higher straight still wins below
		for i := 0; i+4 < len(uniqueDesc); i++ {
			if uniqueDesc[i]-4 == uniqueDesc[i+4] {
				return uniqueDesc[i]
			}
		}
		return 5
	}

	for i := 0; i+4 < len(uniqueDesc); i++ {
		if uniqueDesc[i]-4 == uniqueDesc[i+4] {
			return uniqueDesc[i]
		}
	}
	return 0
}

// ranksToPattern folds ranks into a base-15 positional number,
// most significant rank first
func ranksToPattern(list []int) int64 {
	var acc int64
	for _, r := range list {
		acc = acc*15 + int64(r)
	}
	return acc
}

func straightPattern(high int) []int {
	if high == 5 {
		return []int{5, 4, 3, 2, 1} // wheel, ace plays low
	}
	return []int{high, high - 1, high - 2, high - 3, high - 4}
}

// rankGroup is a distinct rank with its multiplicity in the hand
type rankGroup struct {
	rank  int
	count int
}

func groupRanks(ranksDesc []int) []rankGroup {
	counts := map[int]int{}
	for _, r := range ranksDesc {
		counts[r]++
	}

	groups := make([]rankGroup, 0, len(counts))
	for r, c := range counts {
		groups = append(groups, rankGroup{rank: r, count: c})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	return groups
}

// kickersAfter expands every group but the first back into single ranks,
// highest first
func kickersAfter(groups []rankGroup) []int {
	var kickers []int
	for _, g := range groups[1:] {
		for i := 0; i < g.count; i++ {
			kickers = append(kickers, g.rank)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(kickers)))
	return kickers
}

// Score5 scores exactly five cards into a Score
func Score5(five cards.Stack) Score {
	ranks := make([]int, len(five))
	for i, c := range five {
		ranks[i] = RankValue(c.Value)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	isFlush := true
	for _, c := range five[1:] {
		if c.Suit != five[0].Suit {
			isFlush = false
			break
		}
	}

	uniq := ranks[:0:0]
	for i, r := range ranks {
		if i == 0 || r != ranks[i-1] {
			uniq = append(uniq, r)
		}
	}
	straightHigh := StraightHigh(uniq)

	groups := groupRanks(ranks)

	score := func(cat Category, pattern []int) Score {
		return Score(int64(cat)*categorySpan + ranksToPattern(pattern))
	}

	if isFlush && straightHigh > 0 {
		return score(StraightFlush, straightPattern(straightHigh))
	}

	if groups[0].count == 4 {
		return score(FourOfAKind, []int{groups[0].rank, groups[1].rank})
	}

	if groups[0].count == 3 && groups[1].count >= 2 {
		return score(FullHouse, []int{groups[0].rank, groups[1].rank})
	}

	if isFlush {
		return score(Flush, ranks)
	}

	if straightHigh > 0 {
		return score(Straight, straightPattern(straightHigh))
	}

	if groups[0].count == 3 {
		kickers := kickersAfter(groups)
		return score(ThreeOfAKind, append([]int{groups[0].rank}, kickers[:2]...))
	}

	if groups[0].count == 2 && groups[1].count == 2 {
		kicker := groups[0].rank
		for _, g := range groups[2:] {
			if g.count == 1 {
				kicker = g.rank
				break
			}
		}
		return score(TwoPair, []int{groups[0].rank, groups[1].rank, kicker})
	}

	if groups[0].count == 2 {
		kickers := kickersAfter(groups)
		return score(OnePair, append([]int{groups[0].rank}, kickers[:3]...))
	}

	return score(HighCard, ranks)
}

// combinations generates all k-element index combinations of [0, n)
// in lexicographic order
func combinations(n, k int) [][]int {
	if k > n {
		return nil
	}

	var result [][]int
	var combine func(int, []int)

	combine = func(start int, current []int) {
		if len(current) == k {
			combo := make([]int, k)
			copy(combo, current)
			result = append(result, combo)
			return
		}

		for i := start; i < n; i++ {
			current = append(current, i)
			combine(i+1, current)
			current = current[:len(current)-1]
		}
	}

	combine(0, []int{})
	return result
}

// BestHand exhaustively scores every 5-card subset of the given cards and
// returns the best score with the subset that produced it. On an exact
// score tie the first subset in enumeration order is kept; the tie-break
// is positional, not card-based, which is intentional since tied subsets
// differ only by suit. Returns (0, nil) for fewer than five cards.
func BestHand(cardSet cards.Stack) (Score, cards.Stack) {
	if len(cardSet) < 5 {
		return 0, nil
	}

	var bestScore Score = -1
	var best cards.Stack

	for _, combo := range combinations(len(cardSet), 5) {
		five := make(cards.Stack, 5)
		for i, idx := range combo {
			five[i] = cardSet[idx]
		}

		if s := Score5(five); s > bestScore {
			bestScore = s
			best = five
		}
	}

	return bestScore, best
}

// ComboCards returns the minimal subset of best5 that constitutes the
// named combination: 1 card for high card, 2 for a pair, 4 for two pair,
// 3 for trips, 4 for quads, all five cards otherwise.
func ComboCards(score Score, best5 cards.Stack) cards.Stack {
	if len(best5) == 0 {
		return nil
	}

	byRank := map[int]cards.Stack{}
	for _, c := range best5 {
		v := RankValue(c.Value)
		byRank[v] = append(byRank[v], c)
	}

	ranksDesc := make([]int, 0, len(byRank))
	for r := range byRank {
		ranksDesc = append(ranksDesc, r)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranksDesc)))

	pickGroup := func(size, limit int) cards.Stack {
		for _, r := range ranksDesc {
			if len(byRank[r]) >= size {
				return byRank[r][:limit]
			}
		}
		return best5[:limit]
	}

	switch score.Category() {
	case HighCard:
		best := best5[0]
		bestRank := RankValue(best.Value)
		for _, c := range best5[1:] {
			if v := RankValue(c.Value); v > bestRank {
				bestRank = v
				best = c
			}
		}
		return cards.Stack{best}
	case OnePair:
		return pickGroup(2, 2)
	case TwoPair:
		var res cards.Stack
		for _, r := range ranksDesc {
			if len(byRank[r]) >= 2 {
				res = append(res, byRank[r][:2]...)
				if len(res) >= 4 {
					break
				}
			}
		}
		if len(res) == 0 {
			return best5[:4]
		}
		return res[:min(4, len(res))]

	case ThreeOfAKind:
		return pickGroup(3, 3)
	case FourOfAKind:
		return pickGroup(4, 4)
	default:
		// straight, flush, full house, straight flush need all five
		return best5[:5]
	}
}

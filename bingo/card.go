package bingo

import "math/rand"

const (
	CardSize    = 5
	columnRange = MaxNumber / CardSize
	freeIndex   = CardSize / 2
)

// Card is a 5x5 bingo card indexed [column][row]. Column c holds values from
// [15c+1, 15c+15]; the centre cell is FreeCell.
type Card [CardSize][CardSize]int

// NewCard 为每一列从对应区间内无放回地抽取 5 个号码，中心格为 FreeCell。
// 不同列之间允许重复。
func NewCard(rng *rand.Rand) Card {
	var card Card
	for col := 0; col < CardSize; col++ {
		lo := col*columnRange + 1
		available := make([]int, columnRange)
		for i := range available {
			available[i] = lo + i
		}
		for row := 0; row < CardSize; row++ {
			if col == freeIndex && row == freeIndex {
				card[col][row] = FreeCell
				continue
			}
			i := rng.Intn(len(available))
			card[col][row] = available[i]
			available = append(available[:i], available[i+1:]...)
		}
	}
	return card
}

// ColumnRange returns the inclusive value range of column col.
func ColumnRange(col int) (lo, hi int) {
	lo = col*columnRange + 1
	return lo, lo + columnRange - 1
}

func (c Card) Column(col int) []int {
	out := make([]int, CardSize)
	copy(out, c[col][:])
	return out
}

func (c Card) Row(row int) []int {
	out := make([]int, CardSize)
	for col := 0; col < CardSize; col++ {
		out[col] = c[col][row]
	}
	return out
}

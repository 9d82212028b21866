package bingo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCard_Layout(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		card := NewCard(rng)
		assert.Equal(t, FreeCell, card[2][2], "centre must be free")

		for col := 0; col < CardSize; col++ {
			lo, hi := ColumnRange(col)
			seen := make(map[int]bool)
			for row := 0; row < CardSize; row++ {
				if col == 2 && row == 2 {
					continue
				}
				v := card[col][row]
				assert.GreaterOrEqual(t, v, lo)
				assert.LessOrEqual(t, v, hi)
				assert.False(t, seen[v], "duplicate %d in column %d", v, col)
				seen[v] = true
			}
		}
	}
}

func TestColumnRange(t *testing.T) {
	cases := [][3]int{{0, 1, 15}, {1, 16, 30}, {2, 31, 45}, {3, 46, 60}, {4, 61, 75}}
	for _, c := range cases {
		lo, hi := ColumnRange(c[0])
		assert.Equal(t, c[1], lo)
		assert.Equal(t, c[2], hi)
	}
}

func TestCard_RowAndColumn(t *testing.T) {
	card := NewCard(rand.New(rand.NewSource(5)))
	row := card.Row(2)
	assert.Equal(t, FreeCell, row[2])
	col := card.Column(2)
	assert.Equal(t, FreeCell, col[2])
	assert.Equal(t, card[4][1], card.Row(1)[4])
}

func TestRandomName(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	name := RandomName(rng)
	assert.NotEmpty(t, name)
	assert.Regexp(t, `^[A-Z][a-z]+[A-Z][a-z]+\d{1,3}$`, name)
}

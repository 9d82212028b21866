package bingo

import "fmt"

const (
	PatternMainDiagonal = "Diagonal (top-left to bottom-right)"
	PatternAntiDiagonal = "Diagonal (top-right to bottom-left)"
)

type line struct {
	label string
	cells [CardSize][2]int // {col, row}
}

// lines is the evaluation order: rows top to bottom, columns left to right,
// then the two diagonals.
var lines = buildLines()

func buildLines() []line {
	out := make([]line, 0, 2*CardSize+2)
	for row := 0; row < CardSize; row++ {
		l := line{label: fmt.Sprintf("Row %d", row+1)}
		for col := 0; col < CardSize; col++ {
			l.cells[col] = [2]int{col, row}
		}
		out = append(out, l)
	}
	for col := 0; col < CardSize; col++ {
		l := line{label: fmt.Sprintf("Column %d", col+1)}
		for row := 0; row < CardSize; row++ {
			l.cells[row] = [2]int{col, row}
		}
		out = append(out, l)
	}
	diag := line{label: PatternMainDiagonal}
	anti := line{label: PatternAntiDiagonal}
	for i := 0; i < CardSize; i++ {
		diag.cells[i] = [2]int{i, i}
		anti.cells[i] = [2]int{i, CardSize - 1 - i}
	}
	return append(out, diag, anti)
}

// Evaluate 返回 card 上第一条被完全标记的线的名称。
// 只看 called 的集合成员关系，与抽取顺序无关。
func Evaluate(card Card, called []int) (string, bool) {
	var marked [MaxNumber + 1]bool
	marked[FreeCell] = true
	for _, n := range called {
		if n >= 1 && n <= MaxNumber {
			marked[n] = true
		}
	}

	for _, l := range lines {
		complete := true
		for _, cell := range l.cells {
			v := card[cell[0]][cell[1]]
			if v < 0 || v > MaxNumber || !marked[v] {
				complete = false
				break
			}
		}
		if complete {
			return l.label, true
		}
	}
	return "", false
}

// Package bingo holds the 75-ball bingo primitives: the number pool, player
// cards and line detection. Nothing here is safe for concurrent use; callers
// serialize access (see room.Room).
package bingo

import "math/rand"

const (
	// MaxNumber is the highest ball in a 75-ball game.
	MaxNumber = 75
	// FreeCell marks the centre square; it is never drawn.
	FreeCell = 0
)

// AllNumbers returns 1..MaxNumber in order.
func AllNumbers() []int {
	nums := make([]int, MaxNumber)
	for i := range nums {
		nums[i] = i + 1
	}
	return nums
}

// NumberPool 维护一个房间本局未抽出的号码和已抽出的号码序列。
// called 与 undrawn 始终是 1..75 的一个划分。
type NumberPool struct {
	rng     *rand.Rand
	undrawn []int
	called  []int
}

func NewNumberPool(rng *rand.Rand) *NumberPool {
	p := &NumberPool{rng: rng}
	p.Reset()
	return p
}

// Reset 恢复到完整的 75 个号码
func (p *NumberPool) Reset() {
	p.undrawn = AllNumbers()
	p.called = make([]int, 0, MaxNumber)
}

// Draw removes a uniformly random undrawn number and appends it to the called
// sequence. ok is false once the pool is exhausted.
func (p *NumberPool) Draw() (n int, ok bool) {
	if len(p.undrawn) == 0 {
		return 0, false
	}
	i := p.rng.Intn(len(p.undrawn))
	n = p.undrawn[i]
	p.removeAt(i)
	p.called = append(p.called, n)
	return n, true
}

// Take draws the specific number n if it is still undrawn.
func (p *NumberPool) Take(n int) bool {
	for i, v := range p.undrawn {
		if v == n {
			p.removeAt(i)
			p.called = append(p.called, n)
			return true
		}
	}
	return false
}

func (p *NumberPool) removeAt(i int) {
	last := len(p.undrawn) - 1
	p.undrawn[i] = p.undrawn[last]
	p.undrawn = p.undrawn[:last]
}

// Called returns a copy of the called numbers in draw order.
func (p *NumberPool) Called() []int {
	out := make([]int, len(p.called))
	copy(out, p.called)
	return out
}

func (p *NumberPool) CalledCount() int { return len(p.called) }

func (p *NumberPool) Remaining() int { return len(p.undrawn) }

func (p *NumberPool) IsCalled(n int) bool {
	for _, v := range p.called {
		if v == n {
			return true
		}
	}
	return false
}

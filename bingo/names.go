package bingo

import (
	"fmt"
	"math/rand"
)

var (
	nameAdjectives = []string{"Speedy", "Lucky", "Brave", "Smart", "Happy", "Clever", "Swift", "Bold", "Wise", "Cool"}
	nameNouns      = []string{"Player", "Gamer", "Winner", "Star", "Hero", "Champion", "Master", "Ace", "Pro", "Legend"}
)

// RandomName builds a display name such as "LuckyStar42".
func RandomName(rng *rand.Rand) string {
	return fmt.Sprintf("%s%s%d",
		nameAdjectives[rng.Intn(len(nameAdjectives))],
		nameNouns[rng.Intn(len(nameNouns))],
		rng.Intn(1000))
}

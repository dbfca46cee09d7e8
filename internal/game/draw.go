package game

import (
	"crypto/rand"
	"math/big"

	"bets_bot/internal/domain"
)

// Noshenie (draw) economy constants.
const (
	NoshenieCost      int64 = 140
	NoshenieRewardMin int64 = 10
	NoshenieRewardMax int64 = 25

	// LegendaryPityThreshold forces a legendary on the Nth consecutive
	// draw without one.
	LegendaryPityThreshold = 60

	BetLevelStep = 5
)

// betNamesByRarity are the fixed name pools a drawn Bet is named from.
var betNamesByRarity = map[domain.Rarity][]string{
	domain.RarityCommon:    {"Маршал", "Тоша", "Эмма", "Георг", "Тула", "Зоня", "Тути"},
	domain.RarityRare:      {"Эмилия", "Сино", "Том", "Элин"},
	domain.RarityEpic:      {"Аминия", "Тоцерк", "Крона"},
	domain.RarityLegendary: {"Поли", "Сулла"},
}

// RarityForRoll maps a uniform roll in [0,1) onto the rarity distribution:
// 80% common, 10% rare, 8% epic, 2% legendary.
func RarityForRoll(x float64) domain.Rarity {
	switch {
	case x < 0.80:
		return domain.RarityCommon
	case x < 0.90:
		return domain.RarityRare
	case x < 0.98:
		return domain.RarityEpic
	default:
		return domain.RarityLegendary
	}
}

// RollRarity draws a rarity. pityCounter is the player's count of draws
// since the last legendary; at the threshold the roll is skipped.
func RollRarity(pityCounter int) domain.Rarity {
	if pityCounter >= LegendaryPityThreshold-1 {
		return domain.RarityLegendary
	}
	return RarityForRoll(RollWinChance())
}

// RollBetName picks a random name from the rarity's pool.
func RollBetName(r domain.Rarity) string {
	names := betNamesByRarity[r]
	if len(names) == 0 {
		return "Бет"
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(names))))
	if err != nil {
		return names[0]
	}
	return names[n.Int64()]
}

// RollNoshenieReward draws the neuron reward for a completed draw.
func RollNoshenieReward() int64 {
	return rollRange(NoshenieRewardMin, NoshenieRewardMax)
}

// NextBetLevel returns the level of a Bet after a repeat draw of the same
// name, stepping by BetLevelStep up to the cap.
func NextBetLevel(current int) int {
	next := current + BetLevelStep
	if next > domain.MaxBetLevel {
		return domain.MaxBetLevel
	}
	return next
}

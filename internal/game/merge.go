package game

import (
	"crypto/rand"
	"math"
	"math/big"

	"bets_bot/internal/domain"
)

// Merge economy constants.
const (
	MergeCost      int64 = 180
	MergeRewardMin int64 = 40
	MergeRewardMax int64 = 180

	rankWeight  = 0.05
	levelWeight = 0.1
)

// levelGainFactor scales the winner's level gain by the loser's rarity.
var levelGainFactor = map[domain.Rarity]float64{
	domain.RarityCommon:    0.10,
	domain.RarityRare:      0.15,
	domain.RarityEpic:      0.20,
	domain.RarityLegendary: 0.25,
}

// MergeSide is one player's stake in a duel.
type MergeSide struct {
	PlayerRank int
	BetLevel   int
	BetRarity  domain.Rarity
}

// Weight returns the side's relative strength.
func (s MergeSide) Weight() float64 {
	return 1.0 + float64(s.PlayerRank)*rankWeight + float64(s.BetLevel)*levelWeight
}

// MergeOutcome is the fully decided result of a duel between side 1 and
// side 2, before any persistence.
type MergeOutcome struct {
	Player1Wins  bool
	WinnerReward int64
	LoserReward  int64
	LevelGain    int
	NewLevel     int
}

// Player1WinChance returns side 1's win probability, 0.5 when both weights
// come out non-positive.
func Player1WinChance(s1, s2 MergeSide) float64 {
	w1, w2 := s1.Weight(), s2.Weight()
	total := w1 + w2
	if total <= 0 {
		return 0.5
	}
	return w1 / total
}

// LevelGain returns how many levels the winner's Bet advances after
// consuming the loser's Bet: proportional to the loser's level and rarity,
// at least 1, never pushing past MaxBetLevel.
func LevelGain(winnerLevel, loserLevel int, loserRarity domain.Rarity) (gain, newLevel int) {
	factor, ok := levelGainFactor[loserRarity]
	if !ok {
		factor = levelGainFactor[domain.RarityCommon]
	}

	gain = int(math.Round(float64(loserLevel) * factor))
	if gain < 1 {
		gain = 1
	}
	newLevel = winnerLevel + gain
	if newLevel > domain.MaxBetLevel {
		newLevel = domain.MaxBetLevel
		gain = newLevel - winnerLevel
	}
	return gain, newLevel
}

// ResolveMerge decides a duel from the rolled values. winRoll must be
// uniform in [0,1); the winner's reward is rewardRoll and the loser is
// consoled with exactly double it.
func ResolveMerge(s1, s2 MergeSide, winRoll float64, rewardRoll int64) MergeOutcome {
	out := MergeOutcome{
		Player1Wins:  winRoll < Player1WinChance(s1, s2),
		WinnerReward: rewardRoll,
		LoserReward:  rewardRoll * 2,
	}

	winner, loser := s1, s2
	if !out.Player1Wins {
		winner, loser = s2, s1
	}
	out.LevelGain, out.NewLevel = LevelGain(winner.BetLevel, loser.BetLevel, loser.BetRarity)
	return out
}

// RollWinChance draws a uniform value in [0,1).
func RollWinChance() float64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return 0.5
	}
	return float64(n.Int64()) / 1_000_000.0
}

// RollMergeReward draws the winner's neuron reward in [MergeRewardMin, MergeRewardMax].
func RollMergeReward() int64 {
	return rollRange(MergeRewardMin, MergeRewardMax)
}

// rollRange draws a uniform integer in [min, max] using crypto/rand.
func rollRange(min, max int64) int64 {
	if max <= min {
		return min
	}
	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		return min
	}
	return min + n.Int64()
}

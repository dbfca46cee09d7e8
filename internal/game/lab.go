package game

import (
	"time"

	"bets_bot/internal/domain"
)

// Lab farming constants: 140 neurons per 12 hours of base farm.
const labBaseRewardPerMinute = 140.0 / (12 * 60)

const (
	labRankFactor  = 0.03
	labLevelFactor = 0.005
)

var labRarityMultiplier = map[domain.Rarity]float64{
	domain.RarityCommon:    1.0,
	domain.RarityRare:      1.3,
	domain.RarityEpic:      1.7,
	domain.RarityLegendary: 2.2,
}

// LabDurations are the allowed lab stints with their display labels.
var LabDurations = []struct {
	Minutes int
	Label   string
}{
	{10, "10 минут"},
	{60, "1 час"},
	{360, "6 часов"},
	{720, "12 часов"},
	{1440, "24 часа"},
}

// ValidLabDuration reports whether the stint length is one of the offered
// options and returns its label.
func ValidLabDuration(minutes int) (string, bool) {
	for _, d := range LabDurations {
		if d.Minutes == minutes {
			return d.Label, true
		}
	}
	return "", false
}

// LabReward computes the neuron payout for a stint. The rarity, rank and
// level multipliers only ever raise the payout above base.
func LabReward(playerRank, betLevel int, rarity domain.Rarity, durationMinutes int) int64 {
	if durationMinutes <= 0 {
		durationMinutes = 1
	}

	base := labBaseRewardPerMinute * float64(durationMinutes)
	mult, ok := labRarityMultiplier[rarity]
	if !ok {
		mult = 1.0
	}

	value := int64(base * mult * (1.0 + float64(playerRank)*labRankFactor) * (1.0 + float64(betLevel)*labLevelFactor))
	if value < int64(base) {
		value = int64(base)
	}
	if value < 1 {
		value = 1
	}
	return value
}

// LabStintMinutes derives the stint length from the persisted window.
func LabStintMinutes(startedAt, endsAt time.Time) int {
	minutes := int(endsAt.Sub(startedAt).Minutes())
	if minutes <= 0 {
		return 1
	}
	return minutes
}

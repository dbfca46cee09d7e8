package game

import (
	"testing"

	"bets_bot/internal/domain"
)

func TestRarityForRoll(t *testing.T) {
	cases := []struct {
		roll float64
		want domain.Rarity
	}{
		{0.0, domain.RarityCommon},
		{0.79, domain.RarityCommon},
		{0.80, domain.RarityRare},
		{0.89, domain.RarityRare},
		{0.90, domain.RarityEpic},
		{0.97, domain.RarityEpic},
		{0.98, domain.RarityLegendary},
		{0.999, domain.RarityLegendary},
	}

	for _, tc := range cases {
		if got := RarityForRoll(tc.roll); got != tc.want {
			t.Errorf("RarityForRoll(%f) = %s; want %s", tc.roll, got, tc.want)
		}
	}
}

func TestRollRarityPity(t *testing.T) {
	if got := RollRarity(LegendaryPityThreshold - 1); got != domain.RarityLegendary {
		t.Errorf("pity counter at threshold must force legendary, got %s", got)
	}
	if got := RollRarity(LegendaryPityThreshold + 10); got != domain.RarityLegendary {
		t.Errorf("pity counter beyond threshold must force legendary, got %s", got)
	}
}

func TestRollBetNameFromPool(t *testing.T) {
	for _, r := range []domain.Rarity{domain.RarityCommon, domain.RarityRare, domain.RarityEpic, domain.RarityLegendary} {
		name := RollBetName(r)
		found := false
		for _, n := range betNamesByRarity[r] {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("name %q not in pool for %s", name, r)
		}
	}

	if got := RollBetName(domain.Rarity("bogus")); got != "Бет" {
		t.Errorf("unknown rarity name = %q; want fallback", got)
	}
}

func TestNextBetLevel(t *testing.T) {
	cases := []struct{ current, want int }{
		{5, 10},
		{50, 55},
		{58, domain.MaxBetLevel},
		{domain.MaxBetLevel, domain.MaxBetLevel},
	}
	for _, tc := range cases {
		if got := NextBetLevel(tc.current); got != tc.want {
			t.Errorf("NextBetLevel(%d) = %d; want %d", tc.current, got, tc.want)
		}
	}
}

func TestRollNoshenieReward(t *testing.T) {
	for i := 0; i < 200; i++ {
		r := RollNoshenieReward()
		if r < NoshenieRewardMin || r > NoshenieRewardMax {
			t.Fatalf("reward %d outside [%d,%d]", r, NoshenieRewardMin, NoshenieRewardMax)
		}
	}
}

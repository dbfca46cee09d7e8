package game

import (
	"testing"
	"time"

	"bets_bot/internal/domain"
)

func TestValidLabDuration(t *testing.T) {
	for _, d := range LabDurations {
		label, ok := ValidLabDuration(d.Minutes)
		if !ok || label != d.Label {
			t.Errorf("ValidLabDuration(%d) = (%q,%v); want (%q,true)", d.Minutes, label, ok, d.Label)
		}
	}
	if _, ok := ValidLabDuration(15); ok {
		t.Error("15 minutes is not an offered stint")
	}
}

func TestLabRewardScaling(t *testing.T) {
	base := LabReward(0, 0, domain.RarityCommon, 720)
	if base != 140 {
		t.Errorf("base 12h common reward = %d; want 140", base)
	}

	legendary := LabReward(0, 0, domain.RarityLegendary, 720)
	if legendary <= base {
		t.Errorf("legendary reward %d must exceed common %d", legendary, base)
	}

	ranked := LabReward(40, 60, domain.RarityCommon, 720)
	if ranked <= base {
		t.Errorf("rank/level multipliers must raise reward: %d <= %d", ranked, base)
	}

	// Unknown rarity falls back to the base multiplier, never below base.
	odd := LabReward(0, 0, domain.Rarity("bogus"), 720)
	if odd != base {
		t.Errorf("unknown rarity reward = %d; want %d", odd, base)
	}
}

func TestLabRewardMinimum(t *testing.T) {
	if got := LabReward(0, 0, domain.RarityCommon, 0); got < 1 {
		t.Errorf("reward must be at least 1, got %d", got)
	}
}

func TestLabStintMinutes(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if got := LabStintMinutes(start, start.Add(90*time.Minute)); got != 90 {
		t.Errorf("stint = %d; want 90", got)
	}
	if got := LabStintMinutes(start, start); got != 1 {
		t.Errorf("zero window stint = %d; want 1", got)
	}
}

package game

import (
	"math"
	"testing"

	"bets_bot/internal/domain"
)

func TestMergeSideWeight(t *testing.T) {
	cases := []struct {
		rank, level int
		want        float64
	}{
		{0, 0, 1.0},
		{0, 10, 2.0},
		{10, 0, 1.5},
		{4, 20, 3.2},
	}

	for _, tc := range cases {
		s := MergeSide{PlayerRank: tc.rank, BetLevel: tc.level}
		if got := s.Weight(); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Weight(rank=%d,level=%d) = %f; want %f", tc.rank, tc.level, got, tc.want)
		}
	}
}

func TestPlayer1WinChance(t *testing.T) {
	s1 := MergeSide{PlayerRank: 0, BetLevel: 10}
	s2 := MergeSide{PlayerRank: 0, BetLevel: 10}
	if got := Player1WinChance(s1, s2); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("equal sides chance = %f; want 0.5", got)
	}

	strong := MergeSide{PlayerRank: 50, BetLevel: 60}
	weak := MergeSide{PlayerRank: 0, BetLevel: 5}
	if got := Player1WinChance(strong, weak); got <= 0.5 {
		t.Errorf("stronger side chance = %f; want > 0.5", got)
	}
	if got := Player1WinChance(weak, strong); got >= 0.5 {
		t.Errorf("weaker side chance = %f; want < 0.5", got)
	}

	sum := Player1WinChance(strong, weak) + Player1WinChance(weak, strong)
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("chances must sum to 1, got %f", sum)
	}
}

func TestLevelGainBounds(t *testing.T) {
	// A level 10 common loser yields exactly the minimum gain of 1.
	gain, newLevel := LevelGain(10, 10, domain.RarityCommon)
	if gain != 1 || newLevel != 11 {
		t.Errorf("LevelGain(10,10,common) = (%d,%d); want (1,11)", gain, newLevel)
	}

	// A high-level legendary loser gives a big jump.
	gain, newLevel = LevelGain(10, 40, domain.RarityLegendary)
	if gain != 10 || newLevel != 20 {
		t.Errorf("LevelGain(10,40,legendary) = (%d,%d); want (10,20)", gain, newLevel)
	}

	// Cap at MaxBetLevel.
	gain, newLevel = LevelGain(59, 40, domain.RarityLegendary)
	if newLevel != domain.MaxBetLevel || gain != 1 {
		t.Errorf("LevelGain(59,40,legendary) = (%d,%d); want (1,%d)", gain, newLevel, domain.MaxBetLevel)
	}

	// Unknown rarity falls back to the common factor.
	gain, _ = LevelGain(10, 10, domain.Rarity("bogus"))
	if gain != 1 {
		t.Errorf("unknown rarity gain = %d; want 1", gain)
	}
}

func TestResolveMerge(t *testing.T) {
	s1 := MergeSide{PlayerRank: 0, BetLevel: 10, BetRarity: domain.RarityCommon}
	s2 := MergeSide{PlayerRank: 0, BetLevel: 10, BetRarity: domain.RarityCommon}

	// Roll below the 0.5 threshold: player 1 wins.
	out := ResolveMerge(s1, s2, 0.25, 100)
	if !out.Player1Wins {
		t.Fatal("roll 0.25 against chance 0.5 must favor player 1")
	}
	if out.WinnerReward != 100 || out.LoserReward != 200 {
		t.Fatalf("rewards = (%d,%d); want (100,200)", out.WinnerReward, out.LoserReward)
	}
	if out.LevelGain < 1 || out.NewLevel > domain.MaxBetLevel {
		t.Fatalf("level gain out of bounds: gain=%d new=%d", out.LevelGain, out.NewLevel)
	}

	// Roll at the threshold: player 2 wins.
	out = ResolveMerge(s1, s2, 0.5, 40)
	if out.Player1Wins {
		t.Fatal("roll 0.5 against chance 0.5 must favor player 2")
	}
	if out.LoserReward != out.WinnerReward*2 {
		t.Fatalf("loser reward %d must be double winner reward %d", out.LoserReward, out.WinnerReward)
	}
}

func TestRollMergeReward(t *testing.T) {
	for i := 0; i < 200; i++ {
		r := RollMergeReward()
		if r < MergeRewardMin || r > MergeRewardMax {
			t.Fatalf("reward %d outside [%d,%d]", r, MergeRewardMin, MergeRewardMax)
		}
	}
}

func TestRollWinChanceRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		v := RollWinChance()
		if v < 0 || v >= 1 {
			t.Fatalf("roll %f outside [0,1)", v)
		}
	}
}

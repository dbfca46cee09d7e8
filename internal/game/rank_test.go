package game

import "testing"

func TestXPToNextRank(t *testing.T) {
	cases := []struct {
		rank int
		want int
	}{
		{0, 50},
		{1, 100},
		{2, 150},
		{3, 250},
		{4, 400},
		{5, 600},
		{6, 850},
		{MaxRank, 0},
		{MaxRank + 5, 0},
		{-1, 0},
	}

	for _, tc := range cases {
		if got := XPToNextRank(tc.rank); got != tc.want {
			t.Errorf("XPToNextRank(%d) = %d; want %d", tc.rank, got, tc.want)
		}
	}
}

func TestAddXPSingleRankUp(t *testing.T) {
	rank, xp, ups := AddXP(0, 40, 15)
	if rank != 1 || xp != 5 || ups != 1 {
		t.Fatalf("AddXP(0,40,15) = (%d,%d,%d); want (1,5,1)", rank, xp, ups)
	}
}

func TestAddXPMultiRankUp(t *testing.T) {
	// 50 + 100 + 150 = 300 to reach rank 3 from zero.
	rank, xp, ups := AddXP(0, 0, 310)
	if rank != 3 || xp != 10 || ups != 3 {
		t.Fatalf("AddXP(0,0,310) = (%d,%d,%d); want (3,10,3)", rank, xp, ups)
	}
}

func TestAddXPNoRankUp(t *testing.T) {
	rank, xp, ups := AddXP(2, 10, 20)
	if rank != 2 || xp != 30 || ups != 0 {
		t.Fatalf("AddXP(2,10,20) = (%d,%d,%d); want (2,30,0)", rank, xp, ups)
	}
}

func TestAddXPAtCeiling(t *testing.T) {
	rank, xp, ups := AddXP(MaxRank, 17, 1000)
	if rank != MaxRank || xp != 17 || ups != 0 {
		t.Fatalf("award at ceiling must be a no-op, got (%d,%d,%d)", rank, xp, ups)
	}
}

func TestAddXPZeroAndNegativeAmount(t *testing.T) {
	for _, amount := range []int{0, -10} {
		rank, xp, ups := AddXP(4, 9, amount)
		if rank != 4 || xp != 9 || ups != 0 {
			t.Fatalf("AddXP(4,9,%d) = (%d,%d,%d); want unchanged", amount, rank, xp, ups)
		}
	}
}

func TestAddXPMonotonic(t *testing.T) {
	for rank := 0; rank <= MaxRank; rank += 7 {
		for amount := 1; amount < 5000; amount += 777 {
			newRank, _, ups := AddXP(rank, 0, amount)
			if newRank < rank {
				t.Fatalf("rank decreased: %d -> %d", rank, newRank)
			}
			if ups != newRank-rank {
				t.Fatalf("rankUps %d != delta %d", ups, newRank-rank)
			}
		}
	}
}

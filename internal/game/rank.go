package game

// MaxRank is the rank ceiling; experience awarded at it is discarded.
const MaxRank = 80

const (
	firstRankStep  = 50
	secondRankStep = 100
	deltaIncrement = 50
)

// XP rewards granted by the flows that call AddXP.
const (
	NoshenieXPReward = 15
	MergeXPReward    = 5
	LabXPReward      = 10
)

// xpTable[r] is the experience needed to advance from rank r to r+1.
// Rank 0 takes 50, rank 1 takes 100, and the increment between consecutive
// requirements grows by 50 per rank (150, 250, 400, 600, ...).
var xpTable = buildXPTable()

func buildXPTable() []int {
	table := make([]int, MaxRank)
	table[0] = firstRankStep

	current := secondRankStep
	delta := deltaIncrement
	for rank := 1; rank < MaxRank; rank++ {
		table[rank] = current
		current += delta
		delta += deltaIncrement
	}
	return table
}

// XPToNextRank returns the experience required to leave the given rank, or
// 0 when the rank is at or above the ceiling.
func XPToNextRank(rank int) int {
	if rank < 0 || rank >= MaxRank {
		return 0
	}
	return xpTable[rank]
}

// AddXP applies an experience award to a rank/xp pair. Overflow carries
// over and can produce several rank-ups in one call. At MaxRank the award
// is a no-op.
func AddXP(rank, xp, amount int) (newRank, newXP, rankUps int) {
	if amount <= 0 || rank >= MaxRank {
		return rank, xp, 0
	}

	newRank = rank
	newXP = xp + amount
	for newRank < MaxRank {
		needed := XPToNextRank(newRank)
		if needed == 0 || newXP < needed {
			break
		}
		newXP -= needed
		newRank++
		rankUps++
	}
	return newRank, newXP, rankUps
}

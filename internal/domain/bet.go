package domain

import "time"

// Rarity is a fixed quality tier of a Bet. Progression happens through the
// numeric level; rarity only scales weights, rewards and shelter prices.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// rarityOrder defines the listing order (common < rare < epic < legendary).
var rarityOrder = map[Rarity]int{
	RarityCommon:    0,
	RarityRare:      1,
	RarityEpic:      2,
	RarityLegendary: 3,
}

// Order returns the sort index of the rarity, -1 for unknown values.
func (r Rarity) Order() int {
	n, ok := rarityOrder[r]
	if !ok {
		return -1
	}
	return n
}

// Valid reports whether r is one of the known tiers.
func (r Rarity) Valid() bool {
	_, ok := rarityOrder[r]
	return ok
}

// Label returns the Russian display name used in chat messages.
func (r Rarity) Label() string {
	switch r {
	case RarityCommon:
		return "Обычный"
	case RarityRare:
		return "Редкий"
	case RarityEpic:
		return "Эпический"
	case RarityLegendary:
		return "Легендарный"
	default:
		return string(r)
	}
}

const (
	// MinBetLevel is the level every new Bet starts at.
	MinBetLevel = 5
	// MaxBetLevel is the progression ceiling.
	MaxBetLevel = 60
)

// Bet is the collectible creature. A Bet is never hard-deleted: losing a
// merge sets IsActive=false.
type Bet struct {
	ID           int64      `db:"id"`
	OwnerID      int64      `db:"owner_id"`
	Name         string     `db:"name"`
	Rarity       Rarity     `db:"rarity"`
	Level        int        `db:"level"`
	IsActive     bool       `db:"is_active"`
	InLab        bool       `db:"in_lab"`
	InShelter    bool       `db:"in_shelter"`
	LabStartedAt *time.Time `db:"lab_started_at"`
	LabEndsAt    *time.Time `db:"lab_ends_at"`
	CreatedAt    time.Time  `db:"created_at"`
}

// Available reports whether the Bet can be committed to a merge, the lab or
// a shelter listing. A Bet is in at most one of those states at a time.
func (b *Bet) Available() bool {
	return b.IsActive && !b.InLab && !b.InShelter
}

// MergeEligible reports whether the Bet may be risked in a merge.
func (b *Bet) MergeEligible() bool {
	return b.Available() && b.Level < MaxBetLevel
}

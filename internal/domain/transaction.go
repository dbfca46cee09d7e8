package domain

import "time"

// NeuronTransaction is an audit row recorded alongside every committed
// balance mutation.
type NeuronTransaction struct {
	ID        int64                  `db:"id"`
	PlayerID  int64                  `db:"player_id"`
	Type      string                 `db:"type"`
	Amount    int64                  `db:"amount"`
	Meta      map[string]interface{} `db:"meta"`
	CreatedAt time.Time              `db:"created_at"`
}

// Transaction types written by the services.
const (
	TxNoshenieCost   = "noshenie_cost"
	TxNoshenieReward = "noshenie_reward"
	TxMergeCost      = "merge_cost"
	TxMergeReward    = "merge_reward"
	TxLabReward      = "lab_reward"
	TxShelterSale    = "shelter_sale"
	TxShelterPurchase = "shelter_purchase"
	TxPromoReward    = "promo_reward"
	TxAdminAdjust    = "admin_adjust"
)

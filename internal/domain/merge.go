package domain

import "time"

// MergeStatus is the lifecycle state of a MergeSession.
type MergeStatus string

const (
	MergeWaiting   MergeStatus = "waiting"
	MergeConfirm   MergeStatus = "confirm"
	MergeSelectBet MergeStatus = "select_bet"
	MergeCompleted MergeStatus = "completed"
	MergeCancelled MergeStatus = "cancelled"
)

// mergeEdges is the closed transition table. Repository updates always pair
// the new status with the expected current one, so an edge missing here can
// never be committed.
var mergeEdges = map[MergeStatus][]MergeStatus{
	MergeWaiting:   {MergeConfirm, MergeCancelled},
	MergeConfirm:   {MergeSelectBet, MergeCancelled},
	MergeSelectBet: {MergeCompleted, MergeCancelled},
}

// Terminal reports whether no further transition is possible.
func (s MergeStatus) Terminal() bool {
	return s == MergeCompleted || s == MergeCancelled
}

// CanTransition reports whether s → next is a legal edge.
func (s MergeStatus) CanTransition(next MergeStatus) bool {
	for _, t := range mergeEdges[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ActiveMergeStatuses lists the non-terminal states. A player may hold at
// most one session in any of them.
func ActiveMergeStatuses() []MergeStatus {
	return []MergeStatus{MergeWaiting, MergeConfirm, MergeSelectBet}
}

// MergeSession is the persisted record of one two-player merge negotiation.
// It coordinates when ledger and bet mutations happen but never owns the
// balances or the bets themselves.
type MergeSession struct {
	ID               int64       `db:"id"`
	Player1ID        int64       `db:"player1_id"`
	Player2ID        *int64      `db:"player2_id"`
	Player1Confirmed bool        `db:"player1_confirmed"`
	Player2Confirmed bool        `db:"player2_confirmed"`
	Player1BetID     *int64      `db:"player1_bet_id"`
	Player2BetID     *int64      `db:"player2_bet_id"`
	Status           MergeStatus `db:"status"`
	CreatedAt        time.Time   `db:"created_at"`
}

// Participant reports whether the player is one of the two registered sides.
func (m *MergeSession) Participant(playerID int64) bool {
	if m.Player1ID == playerID {
		return true
	}
	return m.Player2ID != nil && *m.Player2ID == playerID
}

// BothConfirmed reports whether both sides voted yes.
func (m *MergeSession) BothConfirmed() bool {
	return m.Player1Confirmed && m.Player2Confirmed
}

// BothPicked reports whether both sides selected a Bet.
func (m *MergeSession) BothPicked() bool {
	return m.Player1BetID != nil && m.Player2BetID != nil
}

package domain

import "testing"

func TestMergeStatusTransitions(t *testing.T) {
	all := []MergeStatus{MergeWaiting, MergeConfirm, MergeSelectBet, MergeCompleted, MergeCancelled}

	allowed := map[[2]MergeStatus]bool{
		{MergeWaiting, MergeConfirm}:     true,
		{MergeWaiting, MergeCancelled}:   true,
		{MergeConfirm, MergeSelectBet}:   true,
		{MergeConfirm, MergeCancelled}:   true,
		{MergeSelectBet, MergeCompleted}: true,
		{MergeSelectBet, MergeCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]MergeStatus{from, to}]
			if got := from.CanTransition(to); got != want {
				t.Errorf("CanTransition(%s -> %s) = %v; want %v", from, to, got, want)
			}
		}
	}
}

func TestMergeStatusTerminal(t *testing.T) {
	for _, s := range ActiveMergeStatuses() {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	if !MergeCompleted.Terminal() || !MergeCancelled.Terminal() {
		t.Error("completed and cancelled must be terminal")
	}
}

func TestMergeSessionParticipant(t *testing.T) {
	p2 := int64(7)
	m := &MergeSession{Player1ID: 3, Player2ID: &p2}

	if !m.Participant(3) || !m.Participant(7) {
		t.Error("both registered players are participants")
	}
	if m.Participant(9) {
		t.Error("unrelated player must not be a participant")
	}

	unpaired := &MergeSession{Player1ID: 3}
	if unpaired.Participant(7) {
		t.Error("nil player2 must not match")
	}
}

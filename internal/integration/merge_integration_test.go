package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bets_bot/internal/domain"
	"bets_bot/internal/game"
	"bets_bot/internal/repository"
	"bets_bot/internal/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	applyMigrations(t, db)
	return db
}

// tgID generates test Telegram ids that do not collide across runs.
func tgID(offset int64) int64 {
	return time.Now().UnixNano()%1_000_000_000 + 5_000_000_000 + offset
}

func createBet(t *testing.T, db *pgxpool.Pool, ownerID int64, name string, rarity domain.Rarity, level int) *domain.Bet {
	t.Helper()
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	bet, err := repository.NewBetRepository(db).CreateTx(ctx, tx, ownerID, name, rarity, level)
	if err != nil {
		t.Fatalf("create bet: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return bet
}

func TestMergeProtocolEndToEnd(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()

	players := service.NewPlayerService(db, 400)
	merges := service.NewMergeService(db, players, service.NopNotifier{})

	tgA, tgB := tgID(1), tgID(2)
	pA, err := players.GetOrCreatePlayer(ctx, tgA, "alice", "Алиса")
	if err != nil {
		t.Fatalf("create player A: %v", err)
	}
	pB, err := players.GetOrCreatePlayer(ctx, tgB, "bob", "Боб")
	if err != nil {
		t.Fatalf("create player B: %v", err)
	}

	betA := createBet(t, db, pA.ID, "Тоша", domain.RarityCommon, 10)
	betB := createBet(t, db, pB.ID, "Эмма", domain.RarityRare, 20)

	// A queues, B pairs.
	resA, err := merges.RequestMerge(ctx, tgA, "alice", "Алиса")
	if err != nil {
		t.Fatalf("request A: %v", err)
	}
	if resA.Outcome != service.MergeQueued {
		t.Fatalf("expected A queued, got %v", resA.Outcome)
	}

	resB, err := merges.RequestMerge(ctx, tgB, "bob", "Боб")
	if err != nil {
		t.Fatalf("request B: %v", err)
	}
	if resB.Outcome != service.MergePaired {
		t.Fatalf("expected B paired, got %v", resB.Outcome)
	}
	sessionID := resB.Session.ID
	if sessionID != resA.Session.ID {
		t.Fatalf("B paired into session %d, expected %d", sessionID, resA.Session.ID)
	}

	// A third request from A reports the active session instead of
	// queueing twice.
	again, err := merges.RequestMerge(ctx, tgA, "alice", "Алиса")
	if err != nil {
		t.Fatalf("repeat request: %v", err)
	}
	if again.Outcome != service.MergeAlreadyActive {
		t.Fatalf("expected already-active, got %v", again.Outcome)
	}

	// Both confirm.
	cA, err := merges.ConfirmMerge(ctx, tgA, sessionID, true)
	if err != nil {
		t.Fatalf("confirm A: %v", err)
	}
	if cA.BothConfirmed {
		t.Fatal("first confirmation should not complete the handshake")
	}
	cB, err := merges.ConfirmMerge(ctx, tgB, sessionID, true)
	if err != nil {
		t.Fatalf("confirm B: %v", err)
	}
	if !cB.BothConfirmed {
		t.Fatal("second confirmation should complete the handshake")
	}
	if len(cB.PickPrompts) != 2 {
		t.Fatalf("expected 2 pick prompts, got %d", len(cB.PickPrompts))
	}

	// Both pick; the second pick resolves.
	pickA, err := merges.PickBet(ctx, tgA, sessionID, betA.ID)
	if err != nil {
		t.Fatalf("pick A: %v", err)
	}
	if pickA.BothPicked {
		t.Fatal("first pick must not resolve")
	}
	pickB, err := merges.PickBet(ctx, tgB, sessionID, betB.ID)
	if err != nil {
		t.Fatalf("pick B: %v", err)
	}
	if !pickB.BothPicked || pickB.Resolution == nil {
		t.Fatal("second pick must resolve the merge")
	}

	mergeRepo := repository.NewMergeRepository(db)
	session, err := mergeRepo.GetByID(ctx, sessionID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if session.Status != domain.MergeCompleted {
		t.Fatalf("expected completed, got %s", session.Status)
	}

	// Exactly one bet survived, leveled up; the other was retired.
	betRepo := repository.NewBetRepository(db)
	a, _ := betRepo.GetByID(ctx, betA.ID)
	b, _ := betRepo.GetByID(ctx, betB.ID)
	if a.IsActive == b.IsActive {
		t.Fatalf("expected exactly one surviving bet, got active=%v/%v", a.IsActive, b.IsActive)
	}
	winner, loser := a, b
	if !a.IsActive {
		winner, loser = b, a
	}
	if winner.Level != pickB.Resolution.NewLevel {
		t.Fatalf("winner level %d, resolution says %d", winner.Level, pickB.Resolution.NewLevel)
	}
	if loser.IsActive {
		t.Fatal("loser bet must be retired")
	}

	// Both paid the cost and got a reward; the loser's is doubled.
	if pickB.Resolution.LoserReward != 2*pickB.Resolution.WinnerReward {
		t.Fatalf("loser reward %d, expected double of %d",
			pickB.Resolution.LoserReward, pickB.Resolution.WinnerReward)
	}

	pA2, _ := players.GetPlayerByTgID(ctx, tgA)
	pB2, _ := players.GetPlayerByTgID(ctx, tgB)
	total := pA2.Neurons + pB2.Neurons
	expected := 800 - 2*game.MergeCost + pickB.Resolution.WinnerReward + pickB.Resolution.LoserReward
	if total != expected {
		t.Fatalf("combined balance %d, expected %d", total, expected)
	}
}

func TestMergePairsOldestWaiting(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()

	players := service.NewPlayerService(db, 400)
	mergeRepo := repository.NewMergeRepository(db)

	tgA, tgB, tgC := tgID(11), tgID(12), tgID(13)
	pA, _ := players.GetOrCreatePlayer(ctx, tgA, "a", "A")
	pB, _ := players.GetOrCreatePlayer(ctx, tgB, "b", "B")
	if _, err := players.GetOrCreatePlayer(ctx, tgC, "c", "C"); err != nil {
		t.Fatalf("create C: %v", err)
	}

	// Two waiting sessions created directly, A first.
	for _, pid := range []int64{pA.ID, pB.ID} {
		tx, err := db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if _, err := mergeRepo.CreateWaitingTx(ctx, tx, pid); err != nil {
			t.Fatalf("create waiting: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	merges := service.NewMergeService(db, players, service.NopNotifier{})
	res, err := merges.RequestMerge(ctx, tgC, "c", "C")
	if err != nil {
		t.Fatalf("request C: %v", err)
	}
	if res.Outcome != service.MergePaired {
		t.Fatalf("expected paired, got %v", res.Outcome)
	}
	if res.Session.Player1ID != pA.ID {
		t.Fatalf("paired with player %d, expected oldest waiting %d", res.Session.Player1ID, pA.ID)
	}
}

func TestMergeDeclineCancels(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()

	players := service.NewPlayerService(db, 400)
	merges := service.NewMergeService(db, players, service.NopNotifier{})

	tgA, tgB := tgID(21), tgID(22)
	players.GetOrCreatePlayer(ctx, tgA, "a", "A")
	players.GetOrCreatePlayer(ctx, tgB, "b", "B")

	merges.RequestMerge(ctx, tgA, "a", "A")
	resB, err := merges.RequestMerge(ctx, tgB, "b", "B")
	if err != nil || resB.Outcome != service.MergePaired {
		t.Fatalf("pairing failed: %v %v", resB, err)
	}

	res, err := merges.ConfirmMerge(ctx, tgB, resB.Session.ID, false)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if !res.Declined {
		t.Fatal("expected decline result")
	}

	session, err := repository.NewMergeRepository(db).GetByID(ctx, resB.Session.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if session.Status != domain.MergeCancelled {
		t.Fatalf("expected cancelled, got %s", session.Status)
	}

	// Voting on a cancelled session fails cleanly.
	if _, err := merges.ConfirmMerge(ctx, tgA, resB.Session.ID, true); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestMergeResolveInsufficientFundsLeavesStateIntact(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()

	players := service.NewPlayerService(db, 400)
	merges := service.NewMergeService(db, players, service.NopNotifier{})

	tgA, tgB := tgID(31), tgID(32)
	pA, _ := players.GetOrCreatePlayer(ctx, tgA, "a", "A")
	pB, _ := players.GetOrCreatePlayer(ctx, tgB, "b", "B")

	betA := createBet(t, db, pA.ID, "Тула", domain.RarityCommon, 10)
	betB := createBet(t, db, pB.ID, "Сино", domain.RarityRare, 15)

	merges.RequestMerge(ctx, tgA, "a", "A")
	resB, _ := merges.RequestMerge(ctx, tgB, "b", "B")
	sessionID := resB.Session.ID
	merges.ConfirmMerge(ctx, tgA, sessionID, true)
	merges.ConfirmMerge(ctx, tgB, sessionID, true)

	// Drain B below the merge cost between confirmation and resolution.
	if _, err := players.AdjustNeurons(ctx, pB.ID, -(400 - game.MergeCost + 1), domain.TxAdminAdjust, nil); err != nil {
		t.Fatalf("drain B: %v", err)
	}

	if _, err := merges.PickBet(ctx, tgA, sessionID, betA.ID); err != nil {
		t.Fatalf("pick A: %v", err)
	}
	_, err := merges.PickBet(ctx, tgB, sessionID, betB.ID)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// Session stays in select_bet, both bets untouched, balances intact.
	session, _ := repository.NewMergeRepository(db).GetByID(ctx, sessionID)
	if session.Status != domain.MergeSelectBet {
		t.Fatalf("expected select_bet, got %s", session.Status)
	}

	betRepo := repository.NewBetRepository(db)
	a, _ := betRepo.GetByID(ctx, betA.ID)
	b, _ := betRepo.GetByID(ctx, betB.ID)
	if !a.IsActive || !b.IsActive || a.Level != 10 || b.Level != 15 {
		t.Fatal("bets must be untouched after aborted resolution")
	}

	pA2, _ := players.GetPlayerByTgID(ctx, tgA)
	if pA2.Neurons != 400 {
		t.Fatalf("player A balance changed to %d", pA2.Neurons)
	}
}

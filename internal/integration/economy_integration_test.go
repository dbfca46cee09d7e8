package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"bets_bot/internal/domain"
	"bets_bot/internal/game"
	"bets_bot/internal/repository"
	"bets_bot/internal/service"
)

func TestNoshenieFreeThenPaid(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()

	players := service.NewPlayerService(db, 400)
	draws := service.NewNoshenieService(db, players)

	tg := tgID(41)

	first, err := draws.Draw(ctx, tg, "u", "U")
	if err != nil {
		t.Fatalf("first draw: %v", err)
	}
	if !first.Free {
		t.Fatal("first draw of the day must be free")
	}
	if first.Bet == nil || !first.Bet.Rarity.Valid() {
		t.Fatalf("draw produced bad bet: %+v", first.Bet)
	}
	if first.Reward < game.NoshenieRewardMin || first.Reward > game.NoshenieRewardMax {
		t.Fatalf("reward %d outside %d..%d", first.Reward, game.NoshenieRewardMin, game.NoshenieRewardMax)
	}

	second, err := draws.Draw(ctx, tg, "u", "U")
	if err != nil {
		t.Fatalf("second draw: %v", err)
	}
	if second.Free {
		t.Fatal("second draw of the day must be paid")
	}

	player, _ := players.GetPlayerByTgID(ctx, tg)
	want := 400 + first.Reward - game.NoshenieCost + second.Reward
	if player.Neurons != want {
		t.Fatalf("balance %d, expected %d", player.Neurons, want)
	}
	if player.Rank < 0 || player.CountBets < 1 {
		t.Fatalf("bookkeeping off: %+v", player)
	}
}

func TestNosheniePityForcesLegendary(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()

	players := service.NewPlayerService(db, 10_000)
	draws := service.NewNoshenieService(db, players)

	tg := tgID(42)
	p, _ := players.GetOrCreatePlayer(ctx, tg, "u", "U")

	if _, err := db.Exec(ctx,
		`UPDATE players SET noshenie_count = $1 WHERE id = $2`,
		game.LegendaryPityThreshold-1, p.ID); err != nil {
		t.Fatalf("set pity counter: %v", err)
	}

	res, err := draws.Draw(ctx, tg, "u", "U")
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if res.Bet.Rarity != domain.RarityLegendary {
		t.Fatalf("pity draw produced %s, expected legendary", res.Bet.Rarity)
	}
	if !res.PityHit {
		t.Fatal("expected pity flag")
	}

	p2, _ := players.GetPlayerByTgID(ctx, tg)
	if p2.NoshenieCount != 0 {
		t.Fatalf("pity counter not reset: %d", p2.NoshenieCount)
	}
}

func TestLabStintLifecycle(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()

	players := service.NewPlayerService(db, 400)
	lab := service.NewLabService(db, players)

	tg := tgID(51)
	p, _ := players.GetOrCreatePlayer(ctx, tg, "u", "U")
	bet := createBet(t, db, p.ID, "Крона", domain.RarityEpic, 30)

	if _, err := lab.StartLab(ctx, tg, bet.ID, 37); !errors.Is(err, domain.ErrPolicyViolation) {
		t.Fatalf("odd duration must be refused, got %v", err)
	}

	started, err := lab.StartLab(ctx, tg, bet.ID, 720)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !started.InLab {
		t.Fatal("bet must be in the lab")
	}

	// Busy bet cannot start a second stint.
	if _, err := lab.StartLab(ctx, tg, bet.ID, 60); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("double start must be refused, got %v", err)
	}

	// Early collection is refused.
	if _, err := lab.CollectLab(ctx, tg, bet.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("early collect must be refused, got %v", err)
	}

	// Backdate the stint and collect.
	if _, err := db.Exec(ctx,
		`UPDATE bets SET lab_started_at = $1, lab_ends_at = $2 WHERE id = $3`,
		time.Now().UTC().Add(-13*time.Hour), time.Now().UTC().Add(-time.Hour), bet.ID); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	res, err := lab.CollectLab(ctx, tg, bet.ID)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if res.Reward < 140 {
		t.Fatalf("12h epic stint paid %d, expected at least the common base 140", res.Reward)
	}
	if res.Bet.InLab {
		t.Fatal("bet must be free after collection")
	}

	p2, _ := players.GetPlayerByTgID(ctx, tg)
	if p2.Neurons != 400+res.Reward {
		t.Fatalf("balance %d, expected %d", p2.Neurons, 400+res.Reward)
	}
}

func TestShelterSellAndBuy(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()

	players := service.NewPlayerService(db, 1000)
	shelter := service.NewShelterService(db, players, service.NopNotifier{})

	tgSeller, tgBuyer := tgID(61), tgID(62)
	seller, _ := players.GetOrCreatePlayer(ctx, tgSeller, "s", "S")
	players.GetOrCreatePlayer(ctx, tgBuyer, "b", "B")

	bet := createBet(t, db, seller.ID, "Элин", domain.RarityRare, 25)

	min, max, err := shelter.BeginSell(ctx, tgSeller, bet.ID)
	if err != nil {
		t.Fatalf("begin sell: %v", err)
	}
	if min != 120 || max != 560 {
		t.Fatalf("rare price range %d..%d, expected 120..560", min, max)
	}

	if _, _, err := shelter.CompleteSell(ctx, tgSeller, max+1); !errors.Is(err, domain.ErrPolicyViolation) {
		t.Fatalf("overpriced listing must be refused, got %v", err)
	}

	// The refused price rolled everything back; retry at a valid one.
	listing, listed, err := shelter.CompleteSell(ctx, tgSeller, 300)
	if err != nil {
		t.Fatalf("complete sell: %v", err)
	}
	if !listed.InShelter {
		t.Fatal("listed bet must be parked in the shelter")
	}

	// The seller cannot buy their own listing.
	if _, err := shelter.Buy(ctx, tgSeller, listing.ID); !errors.Is(err, domain.ErrPolicyViolation) {
		t.Fatalf("self purchase must be refused, got %v", err)
	}

	res, err := shelter.Buy(ctx, tgBuyer, listing.ID)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if res.BuyerBalance != 1000-300 {
		t.Fatalf("buyer balance %d, expected 700", res.BuyerBalance)
	}

	sellerAfter, _ := players.GetPlayerByTgID(ctx, tgSeller)
	if sellerAfter.Neurons != 1000+300 {
		t.Fatalf("seller balance %d, expected 1300", sellerAfter.Neurons)
	}

	got, _ := repository.NewBetRepository(db).GetByID(ctx, bet.ID)
	if got.InShelter || !got.IsActive {
		t.Fatalf("sold bet in bad state: %+v", got)
	}
	buyer, _ := players.GetPlayerByTgID(ctx, tgBuyer)
	if got.OwnerID != buyer.ID {
		t.Fatalf("bet owner %d, expected buyer %d", got.OwnerID, buyer.ID)
	}

	// Sold listing cannot be bought twice.
	if _, err := shelter.Buy(ctx, tgBuyer, listing.ID); !errors.Is(err, domain.ErrStaleReference) {
		t.Fatalf("double purchase must be refused, got %v", err)
	}
}

func TestPromoRedemption(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()

	players := service.NewPlayerService(db, 400)
	promos := service.NewPromoService(db, players)

	tgA, tgB := tgID(71), tgID(72)
	players.GetOrCreatePlayer(ctx, tgA, "a", "A")
	players.GetOrCreatePlayer(ctx, tgB, "b", "B")

	promo, err := promos.CreateCode(ctx, "", 250, 1, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reward, balance, err := promos.Redeem(ctx, tgA, promo.Code)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if reward != 250 || balance != 650 {
		t.Fatalf("got reward=%d balance=%d", reward, balance)
	}

	// Same player again.
	if _, _, err := promos.Redeem(ctx, tgA, promo.Code); !errors.Is(err, domain.ErrPolicyViolation) {
		t.Fatalf("double redemption must be refused, got %v", err)
	}

	// Use cap exhausted for the second player.
	if _, _, err := promos.Redeem(ctx, tgB, promo.Code); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("exhausted code must be refused, got %v", err)
	}

	if _, _, err := promos.Redeem(ctx, tgB, "NO-SUCH-CODE"); !errors.Is(err, domain.ErrPromoNotFound) {
		t.Fatalf("unknown code must be not-found, got %v", err)
	}
}

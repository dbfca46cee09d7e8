package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bets_bot/internal/domain"
	"bets_bot/internal/game"
	"bets_bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, b.helpMessage(msg.From.ID))

	case "profile":
		b.handleProfile(ctx, msg)

	case "noshenie":
		b.handleNoshenie(ctx, msg)

	case "mybets":
		b.handleMyBets(ctx, msg)

	case "merge":
		b.handleMerge(ctx, msg)

	case "merge_cancel":
		b.handleMergeCancel(ctx, msg)

	case "lab":
		b.handleLab(ctx, msg)

	case "shelter":
		b.handleShelter(ctx, msg)

	case "sell":
		b.handleSell(ctx, msg)

	case "promo":
		b.handlePromo(ctx, msg)

	case "top":
		b.handleTop(ctx, msg)

	case "stats":
		b.handleStats(ctx, msg)

	case "grant":
		b.handleGrant(ctx, msg)

	case "broadcast":
		b.handleBroadcastStart(msg)

	case "newpromo":
		b.handleNewPromo(ctx, msg)

	default:
		b.reply(msg.Chat.ID, "❌ Неизвестная команда. Используйте /help для списка команд.")
	}
}

func (b *Bot) helpMessage(tgID int64) string {
	base := `<b>🧬 Бετs — лаборатория слияний</b>

/noshenie - Ношение (получить Бета)
/mybets - Мои Беты
/merge - Слияние с другим игроком
/merge_cancel - Отменить текущее слияние
/lab - Лаборатория (фарм нейронов)
/shelter - Приют (рынок Бетов)
/sell - Продать Бета в приют
/promo - Ввести промокод
/profile - Мой профиль
/top - Топ игроков`

	if b.admin.IsAdmin(tgID) {
		base += `

<b>🔐 Админ:</b>
/stats - Статистика
/grant &lt;tg_id&gt; &lt;сумма&gt; - Начислить нейроны
/broadcast - Рассылка всем
/newpromo &lt;награда&gt; [макс. использований] [часов] [код] - Создать промокод`
	}
	return base
}

func (b *Bot) handleProfile(ctx context.Context, msg *tgbotapi.Message) {
	player, err := b.players.GetOrCreatePlayer(ctx, msg.From.ID, msg.From.UserName, msg.From.FirstName)
	if err != nil {
		b.reply(msg.Chat.ID, errText(err))
		return
	}

	toNext := game.XPToNextRank(player.Rank)
	next := "максимум"
	if toNext > 0 {
		next = fmt.Sprintf("%d/%d", player.XP, toNext)
	}

	b.reply(msg.Chat.ID, fmt.Sprintf(`<b>👤 Профиль</b>

🏅 Ранг: %d
⭐ Опыт: %s
🧠 Нейроны: %d
🧬 Бетов получено: %d
🎲 Ношений с последнего легендарного: %d`,
		player.Rank, next, player.Neurons, player.CountBets, player.NoshenieCount))
}

func (b *Bot) handleNoshenie(ctx context.Context, msg *tgbotapi.Message) {
	res, err := b.draws.Draw(ctx, msg.From.ID, msg.From.UserName, msg.From.FirstName)
	if err != nil {
		b.reply(msg.Chat.ID, errText(err))
		return
	}

	var sb strings.Builder
	if res.Free {
		sb.WriteString("🎁 Бесплатное ношение дня!\n\n")
	}
	if res.LeveledUp {
		fmt.Fprintf(&sb, "Вам снова выпал %s!\nЕго уровень повышен до %d 📈\n",
			res.Bet.Name, res.Bet.Level)
	} else {
		fmt.Fprintf(&sb, "Вы получили Бета: <b>%s</b>\n%s, уровень %d\n",
			res.Bet.Name, res.Bet.Rarity.Label(), res.Bet.Level)
	}
	if res.PityHit {
		sb.WriteString("\n✨ Гарантированный легендарный!\n")
	}
	fmt.Fprintf(&sb, "\n+%d нейронов (баланс: %d)\nОпыт: +%d", res.Reward, res.Balance, game.NoshenieXPReward)
	if res.RankUps > 0 {
		fmt.Fprintf(&sb, "\n\n🐦‍🔥ВАШ РАНГ ПОВЫШЕН: %d -> %d🐦‍🔥", res.RankAfter-res.RankUps, res.RankAfter)
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleMyBets(ctx context.Context, msg *tgbotapi.Message) {
	bets, err := b.players.OwnedBets(ctx, msg.From.ID, false)
	if err != nil {
		b.reply(msg.Chat.ID, errText(err))
		return
	}
	if len(bets) == 0 {
		b.reply(msg.Chat.ID, "У вас пока нет Бетов. Используйте /noshenie!")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>🧬 Ваши Беты</b>\n\n")
	for _, bet := range bets {
		state := ""
		switch {
		case bet.InLab:
			state = " 🔬"
		case bet.InShelter:
			state = " 🏠"
		}
		fmt.Fprintf(&sb, "• %s — %s, уровень %d%s\n", bet.Name, bet.Rarity.Label(), bet.Level, state)
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleMerge(ctx context.Context, msg *tgbotapi.Message) {
	res, err := b.merges.RequestMerge(ctx, msg.From.ID, msg.From.UserName, msg.From.FirstName)
	if err != nil {
		b.reply(msg.Chat.ID, errText(err))
		return
	}

	switch res.Outcome {
	case service.MergeAlreadyActive:
		b.reply(msg.Chat.ID,
			"У вас уже есть активное слияние. Завершите его или используйте /merge_cancel.")

	case service.MergeQueued:
		b.reply(msg.Chat.ID, fmt.Sprintf(
			"⏳ Вы в очереди на слияние. Как только найдётся второй игрок, я сообщу.\n\nСтоимость слияния: %d нейронов.",
			game.MergeCost))

	case service.MergePaired:
		text := fmt.Sprintf(
			"🧬 Найден партнёр для слияния: <b>%s</b>!\n\nПодтверждаете слияние? Стоимость: %d нейронов.",
			res.PartnerUser.DisplayName(), game.MergeCost)
		b.replyWithKeyboard(msg.Chat.ID, text, mergeConfirmKeyboard(res.Session.ID))

		partnerText := fmt.Sprintf(
			"🧬 Игрок <b>%s</b> хочет слияние с вами!\n\nПодтверждаете? Стоимость: %d нейронов.",
			res.SelfUser.DisplayName(), game.MergeCost)
		b.sendKeyboardTo(res.PartnerUser.TgID, partnerText, mergeConfirmKeyboard(res.Session.ID))
	}
}

func (b *Bot) handleMergeCancel(ctx context.Context, msg *tgbotapi.Message) {
	session, err := b.merges.ActiveSession(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			b.reply(msg.Chat.ID, "У вас нет активного слияния.")
			return
		}
		b.reply(msg.Chat.ID, errText(err))
		return
	}
	if err := b.merges.CancelMerge(ctx, msg.From.ID, session.ID); err != nil {
		b.reply(msg.Chat.ID, errText(err))
		return
	}
	b.reply(msg.Chat.ID, "Слияние отменено.")
}

func (b *Bot) handleLab(ctx context.Context, msg *tgbotapi.Message) {
	inLab, err := b.lab.LabStatus(ctx, msg.From.ID)
	if err != nil && !errors.Is(err, domain.ErrPlayerNotFound) {
		b.reply(msg.Chat.ID, errText(err))
		return
	}

	now := time.Now().UTC()
	var ready []*domain.Bet
	var sb strings.Builder
	for _, bet := range inLab {
		if bet.LabEndsAt != nil && !now.Before(*bet.LabEndsAt) {
			ready = append(ready, bet)
			continue
		}
		if bet.LabEndsAt != nil {
			fmt.Fprintf(&sb, "🔬 %s работает ещё %s\n",
				bet.Name, bet.LabEndsAt.Sub(now).Round(time.Minute))
		}
	}
	if sb.Len() > 0 {
		b.reply(msg.Chat.ID, sb.String())
	}
	if len(ready) > 0 {
		b.replyWithKeyboard(msg.Chat.ID, "✅ Готово к выдаче:", labCollectKeyboard(ready))
	}

	free, err := b.players.OwnedBets(ctx, msg.From.ID, true)
	if err != nil {
		b.reply(msg.Chat.ID, errText(err))
		return
	}
	if len(free) == 0 {
		if len(inLab) == 0 {
			b.reply(msg.Chat.ID, "Нет свободных Бетов для лаборатории. Используйте /noshenie!")
		}
		return
	}
	b.replyWithKeyboard(msg.Chat.ID, "Кого отправить в лабораторию?", labBetKeyboard(free))
}

func (b *Bot) handleShelter(ctx context.Context, msg *tgbotapi.Message) {
	listings, err := b.shelter.Market(ctx)
	if err != nil {
		b.reply(msg.Chat.ID, errText(err))
		return
	}
	if len(listings) == 0 {
		b.reply(msg.Chat.ID, "🏠 Приют пуст. Выставьте своего Бета через /sell!")
		return
	}
	b.replyWithKeyboard(msg.Chat.ID, "<b>🏠 Приют</b>\n\nВыберите Бета для покупки:",
		shelterMarketKeyboard(listings))
}

func (b *Bot) handleSell(ctx context.Context, msg *tgbotapi.Message) {
	bets, err := b.players.OwnedBets(ctx, msg.From.ID, true)
	if err != nil {
		b.reply(msg.Chat.ID, errText(err))
		return
	}
	if len(bets) == 0 {
		b.reply(msg.Chat.ID, "Нет свободных Бетов для продажи.")
		return
	}
	b.replyWithKeyboard(msg.Chat.ID, "Кого выставить в приют?", shelterSellKeyboard(bets))
}

func (b *Bot) handlePromo(ctx context.Context, msg *tgbotapi.Message) {
	code := strings.TrimSpace(msg.CommandArguments())
	if code == "" {
		b.setPending(msg.From.ID, pendingPromoCode)
		b.reply(msg.Chat.ID, "Введите промокод:")
		return
	}
	b.redeemPromo(ctx, msg.Chat.ID, msg.From.ID, code)
}

func (b *Bot) redeemPromo(ctx context.Context, chatID, tgID int64, code string) {
	reward, balance, err := b.promos.Redeem(ctx, tgID, code)
	if err != nil {
		b.reply(chatID, errText(err))
		return
	}
	b.reply(chatID, fmt.Sprintf("🎉 Промокод принят! +%d нейронов (баланс: %d)", reward, balance))
}

func (b *Bot) handleTop(ctx context.Context, msg *tgbotapi.Message) {
	limit := 10
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		if n, err := strconv.Atoi(args); err == nil {
			limit = n
		}
	}
	entries, err := b.admin.Leaderboard(ctx, limit)
	if err != nil {
		b.reply(msg.Chat.ID, errText(err))
		return
	}
	if len(entries) == 0 {
		b.reply(msg.Chat.ID, "Пока никто не играл.")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>🏆 Топ игроков</b>\n\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "%d. %s — ранг %d (%d XP)\n", e.Position, e.Name, e.Rank, e.XP)
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admin.IsAdmin(msg.From.ID) {
		return
	}
	stats, err := b.admin.Stats(ctx)
	if err != nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("❌ Ошибка: %v", err))
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf(`<b>📊 Статистика</b>

👥 Игроков: %d
⏳ Слияний в очереди: %d
🧬 Слияний активно: %d
✅ Слияний завершено: %d
🧠 Нейронов потрачено на слияния: %d
🧠 Нейронов выдано слияниями: %d`,
		stats.Players, stats.MergesWaiting, stats.MergesActive,
		stats.MergesCompleted, -stats.NeuronsSpent, stats.NeuronsAwarded))
}

func (b *Bot) handleGrant(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admin.IsAdmin(msg.From.ID) {
		return
	}
	parts := strings.Fields(msg.CommandArguments())
	if len(parts) != 2 {
		b.reply(msg.Chat.ID, "❌ Использование: /grant <tg_id> <сумма>")
		return
	}
	tgID, err1 := strconv.ParseInt(parts[0], 10, 64)
	amount, err2 := strconv.ParseInt(parts[1], 10, 64)
	if err1 != nil || err2 != nil {
		b.reply(msg.Chat.ID, "❌ Использование: /grant <tg_id> <сумма>")
		return
	}
	balance, err := b.admin.GrantNeurons(ctx, tgID, amount)
	if err != nil {
		b.reply(msg.Chat.ID, errText(err))
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Начислено %d нейронов. Баланс игрока: %d", amount, balance))
}

func (b *Bot) handleBroadcastStart(msg *tgbotapi.Message) {
	if !b.admin.IsAdmin(msg.From.ID) {
		return
	}
	b.setPending(msg.From.ID, pendingBroadcast)
	b.reply(msg.Chat.ID, "Введите текст рассылки:")
}

func (b *Bot) handleNewPromo(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admin.IsAdmin(msg.From.ID) {
		return
	}
	parts := strings.Fields(msg.CommandArguments())
	if len(parts) == 0 {
		b.reply(msg.Chat.ID, "❌ Использование: /newpromo <награда> [макс. использований] [часов] [код]")
		return
	}

	reward, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		b.reply(msg.Chat.ID, "❌ Награда должна быть числом.")
		return
	}
	var maxUses int
	var ttl time.Duration
	var code string
	if len(parts) > 1 {
		maxUses, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		if hours, err := strconv.Atoi(parts[2]); err == nil {
			ttl = time.Duration(hours) * time.Hour
		}
	}
	if len(parts) > 3 {
		code = parts[3]
	}

	promo, err := b.promos.CreateCode(ctx, code, reward, maxUses, ttl)
	if err != nil {
		b.reply(msg.Chat.ID, errText(err))
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Промокод создан: <code>%s</code> (+%d нейронов)",
		promo.Code, promo.RewardNeurons))
}

// handlePendingInput consumes a free-text message for a multi-step flow.
// Returns false when the user was not in one.
func (b *Bot) handlePendingInput(ctx context.Context, msg *tgbotapi.Message) bool {
	switch b.takePending(msg.From.ID) {
	case pendingShelterPrice:
		price, err := strconv.ParseInt(strings.TrimSpace(msg.Text), 10, 64)
		if err != nil {
			b.reply(msg.Chat.ID, "❌ Цена должна быть числом. Начните заново через /sell.")
			return true
		}
		listing, bet, err := b.shelter.CompleteSell(ctx, msg.From.ID, price)
		if err != nil {
			b.reply(msg.Chat.ID, errText(err))
			return true
		}
		b.reply(msg.Chat.ID, fmt.Sprintf("🏠 %s выставлен в приют за %d нейронов!", bet.Name, listing.Price))
		return true

	case pendingPromoCode:
		b.redeemPromo(ctx, msg.Chat.ID, msg.From.ID, strings.TrimSpace(msg.Text))
		return true

	case pendingBroadcast:
		if !b.admin.IsAdmin(msg.From.ID) {
			return true
		}
		n, err := b.admin.Broadcast(ctx, msg.Text)
		if err != nil {
			b.reply(msg.Chat.ID, fmt.Sprintf("❌ Ошибка: %v", err))
			return true
		}
		b.reply(msg.Chat.ID, fmt.Sprintf("📢 Рассылка отправлена %d получателям.", n))
		return true
	}
	return false
}

func (b *Bot) sendKeyboardTo(tgID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(tgID, text)
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("error sending message", "tg_id", tgID, "error", err)
	}
}

// errText maps service errors onto player-facing messages.
func errText(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "🧠 Недостаточно нейронов."
	case errors.Is(err, domain.ErrPlayerNotFound):
		return "Сначала начните с /start."
	case errors.Is(err, domain.ErrBetNotFound):
		return "Бет не найден."
	case errors.Is(err, domain.ErrSessionNotFound):
		return "Слияние не найдено."
	case errors.Is(err, domain.ErrListingNotFound):
		return "Объявление не найдено."
	case errors.Is(err, domain.ErrPromoNotFound):
		return "Промокод не найден."
	case errors.Is(err, domain.ErrStaleReference):
		return "Этот Бет больше недоступен."
	case errors.Is(err, domain.ErrInvalidState):
		return "Сейчас это действие недоступно: " + err.Error()
	case errors.Is(err, domain.ErrPolicyViolation):
		return "Так нельзя: " + err.Error()
	default:
		return "❌ Что-то пошло не так, попробуйте позже."
	}
}

package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bets_bot/internal/game"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	parts := strings.Split(cb.Data, ":")
	action := parts[0]

	var ack string
	switch action {
	case "merge_confirm":
		ack = b.cbMergeConfirm(ctx, cb, parts[1:])
	case "merge_pick":
		ack = b.cbMergePick(ctx, cb, parts[1:])
	case "lab_bet":
		ack = b.cbLabBet(ctx, cb, parts[1:])
	case "lab_start":
		ack = b.cbLabStart(ctx, cb, parts[1:])
	case "lab_collect":
		ack = b.cbLabCollect(ctx, cb, parts[1:])
	case "shelter_sell":
		ack = b.cbShelterSell(ctx, cb, parts[1:])
	case "shelter_buy":
		ack = b.cbShelterBuy(ctx, cb, parts[1:])
	default:
		ack = "Неизвестное действие"
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, ack)); err != nil {
		b.log.Warn("callback answer failed", "error", err)
	}
}

func parseIDs(parts []string, n int) ([]int64, bool) {
	if len(parts) < n {
		return nil, false
	}
	ids := make([]int64, n)
	for i := 0; i < n; i++ {
		id, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil {
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}

func (b *Bot) cbMergeConfirm(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) string {
	ids, ok := parseIDs(args, 1)
	if !ok || len(args) < 2 {
		return "Ошибка"
	}
	accept := args[1] == "yes"

	res, err := b.merges.ConfirmMerge(ctx, cb.From.ID, ids[0], accept)
	if err != nil {
		b.reply(cb.Message.Chat.ID, errText(err))
		return "Ошибка"
	}

	switch {
	case res.Declined:
		b.reply(cb.Message.Chat.ID, "Слияние отменено.")
		return "Отменено"
	case !res.BothConfirmed:
		b.reply(cb.Message.Chat.ID, "✅ Подтверждено. Ждём второго игрока...")
		return "Подтверждено"
	}

	for _, prompt := range res.PickPrompts {
		if len(prompt.Bets) == 0 {
			b.sendTo(prompt.TgID,
				"У вас нет Бетов, пригодных для слияния. Используйте /merge_cancel.")
			continue
		}
		b.sendKeyboardTo(prompt.TgID, "🧬 Выберите Бета для слияния:",
			mergePickKeyboard(prompt.SessionID, prompt.Bets))
	}
	return "Подтверждено"
}

func (b *Bot) cbMergePick(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) string {
	ids, ok := parseIDs(args, 2)
	if !ok {
		return "Ошибка"
	}

	res, err := b.merges.PickBet(ctx, cb.From.ID, ids[0], ids[1])
	if err != nil {
		b.reply(cb.Message.Chat.ID, errText(err))
		return "Ошибка"
	}
	if !res.BothPicked {
		b.reply(cb.Message.Chat.ID, "✅ Бет выбран. Ждём выбора второго игрока...")
		return "Выбрано"
	}
	// Both resolution messages went out through the notifier.
	return "Слияние завершено"
}

func (b *Bot) cbLabBet(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) string {
	ids, ok := parseIDs(args, 1)
	if !ok {
		return "Ошибка"
	}
	b.replyWithKeyboard(cb.Message.Chat.ID, "⏱ На сколько отправить в лабораторию?",
		labDurationKeyboard(ids[0]))
	return ""
}

func (b *Bot) cbLabStart(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) string {
	ids, ok := parseIDs(args, 2)
	if !ok {
		return "Ошибка"
	}

	bet, err := b.lab.StartLab(ctx, cb.From.ID, ids[0], int(ids[1]))
	if err != nil {
		b.reply(cb.Message.Chat.ID, errText(err))
		return "Ошибка"
	}
	label, _ := game.ValidLabDuration(int(ids[1]))
	b.reply(cb.Message.Chat.ID, fmt.Sprintf("🔬 %s отправлен в лабораторию на %s!", bet.Name, label))
	return "В лаборатории"
}

func (b *Bot) cbLabCollect(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) string {
	ids, ok := parseIDs(args, 1)
	if !ok {
		return "Ошибка"
	}

	res, err := b.lab.CollectLab(ctx, cb.From.ID, ids[0])
	if err != nil {
		b.reply(cb.Message.Chat.ID, errText(err))
		return "Ошибка"
	}
	text := fmt.Sprintf("🔬 %s вернулся из лаборатории!\n\n+%d нейронов (баланс: %d)\nОпыт: +%d",
		res.Bet.Name, res.Reward, res.Balance, game.LabXPReward)
	if res.RankUps > 0 {
		text += fmt.Sprintf("\n\n🐦‍🔥ВАШ РАНГ ПОВЫШЕН: %d -> %d🐦‍🔥",
			res.RankAfter-res.RankUps, res.RankAfter)
	}
	b.reply(cb.Message.Chat.ID, text)
	return "Получено"
}

func (b *Bot) cbShelterSell(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) string {
	ids, ok := parseIDs(args, 1)
	if !ok {
		return "Ошибка"
	}

	min, max, err := b.shelter.BeginSell(ctx, cb.From.ID, ids[0])
	if err != nil {
		b.reply(cb.Message.Chat.ID, errText(err))
		return "Ошибка"
	}
	b.setPending(cb.From.ID, pendingShelterPrice)
	b.reply(cb.Message.Chat.ID, fmt.Sprintf("💰 Назовите цену (от %d до %d нейронов):", min, max))
	return ""
}

func (b *Bot) cbShelterBuy(ctx context.Context, cb *tgbotapi.CallbackQuery, args []string) string {
	ids, ok := parseIDs(args, 1)
	if !ok {
		return "Ошибка"
	}

	res, err := b.shelter.Buy(ctx, cb.From.ID, ids[0])
	if err != nil {
		b.reply(cb.Message.Chat.ID, errText(err))
		return "Ошибка"
	}
	b.reply(cb.Message.Chat.ID, fmt.Sprintf(
		"🎉 Вы купили Бета <b>%s</b> за %d нейронов!\nБаланс: %d",
		res.Bet.Name, res.Price, res.BuyerBalance))
	return "Куплено"
}

func (b *Bot) sendTo(tgID int64, text string) {
	msg := tgbotapi.NewMessage(tgID, text)
	msg.ParseMode = "HTML"
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("error sending message", "tg_id", tgID, "error", err)
	}
}

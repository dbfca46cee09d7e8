package bot

import (
	"fmt"

	"bets_bot/internal/domain"
	"bets_bot/internal/game"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func betButtonLabel(b *domain.Bet) string {
	return fmt.Sprintf("%s (%s, ур. %d)", b.Name, b.Rarity.Label(), b.Level)
}

func mergeConfirmKeyboard(sessionID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да", fmt.Sprintf("merge_confirm:%d:yes", sessionID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Нет", fmt.Sprintf("merge_confirm:%d:no", sessionID)),
		),
	)
}

func mergePickKeyboard(sessionID int64, bets []*domain.Bet) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(bets))
	for _, b := range bets {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(betButtonLabel(b), fmt.Sprintf("merge_pick:%d:%d", sessionID, b.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func labBetKeyboard(bets []*domain.Bet) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(bets))
	for _, b := range bets {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(betButtonLabel(b), fmt.Sprintf("lab_bet:%d", b.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func labDurationKeyboard(betID int64) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(game.LabDurations))
	for _, d := range game.LabDurations {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(d.Label, fmt.Sprintf("lab_start:%d:%d", betID, d.Minutes)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func labCollectKeyboard(bets []*domain.Bet) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(bets))
	for _, b := range bets {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Забрать: "+betButtonLabel(b), fmt.Sprintf("lab_collect:%d", b.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func shelterSellKeyboard(bets []*domain.Bet) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(bets))
	for _, b := range bets {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(betButtonLabel(b), fmt.Sprintf("shelter_sell:%d", b.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func shelterMarketKeyboard(listings []*domain.MarketListing) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(listings))
	for _, l := range listings {
		label := fmt.Sprintf("%s (%s, ур. %d) — %d 🧠", l.BetName, l.BetRarity.Label(), l.BetLevel, l.Price)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("shelter_buy:%d", l.ListingID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

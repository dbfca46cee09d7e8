package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bets_bot/internal/logger"
	"bets_bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot is the player-facing Telegram interface: commands, inline keyboards
// and push notifications from the game services.
type Bot struct {
	api     *tgbotapi.BotAPI
	players *service.PlayerService
	merges  *service.MergeService
	draws   *service.NoshenieService
	lab     *service.LabService
	shelter *service.ShelterService
	promos  *service.PromoService
	admin   *service.AdminService

	stopCh chan struct{}
	wg     sync.WaitGroup
	log    *slog.Logger

	mu sync.Mutex
	// chat ids waiting for a free-text follow-up (shelter price, promo
	// code, broadcast text) mapped to the pending action.
	pending map[int64]pendingInput
}

type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingShelterPrice
	pendingPromoCode
	pendingBroadcast
)

type pendingInput struct {
	kind pendingKind
}

type Deps struct {
	Players *service.PlayerService
	Merges  *service.MergeService
	Draws   *service.NoshenieService
	Lab     *service.LabService
	Shelter *service.ShelterService
	Promos  *service.PromoService
	Admin   *service.AdminService
}

func New(api *tgbotapi.BotAPI, deps Deps) *Bot {
	log := logger.With("component", "bot")
	log.Info("bot authorized", "username", api.Self.UserName)

	return &Bot{
		api:     api,
		players: deps.Players,
		merges:  deps.Merges,
		draws:   deps.Draws,
		lab:     deps.Lab,
		shelter: deps.Shelter,
		promos:  deps.Promos,
		admin:   deps.Admin,
		stopCh:  make(chan struct{}),
		log:     log,
		pending: make(map[int64]pendingInput),
	}
}

// Start runs the long-poll update loop until Stop is called.
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			switch {
			case update.CallbackQuery != nil:
				b.wg.Add(1)
				go func(cb *tgbotapi.CallbackQuery) {
					defer b.wg.Done()
					b.handleCallback(cb)
				}(update.CallbackQuery)

			case update.Message != nil:
				b.wg.Add(1)
				go func(msg *tgbotapi.Message) {
					defer b.wg.Done()
					b.handleMessage(msg)
				}(update.Message)
			}
		}
	}
}

// Stop gracefully stops the bot.
func (b *Bot) Stop() {
	b.log.Info("stopping bot...")
	close(b.stopCh)
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !msg.IsCommand() {
		b.handlePendingInput(ctx, msg)
		return
	}

	b.setPending(msg.From.ID, pendingNone)
	b.handleCommand(ctx, msg)
}

func (b *Bot) setPending(tgID int64, kind pendingKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if kind == pendingNone {
		delete(b.pending, tgID)
		return
	}
	b.pending[tgID] = pendingInput{kind: kind}
}

func (b *Bot) takePending(tgID int64) pendingKind {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[tgID]
	if !ok {
		return pendingNone
	}
	delete(b.pending, tgID)
	return p.kind
}

// reply sends a plain response to the chat the message came from.
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("error sending message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("error sending message", "chat_id", chatID, "error", err)
	}
}

// Notifier adapts the Telegram API to the services' notification sink.
// Delivery failures are logged and swallowed: game state never depends on
// a chat message arriving.
type Notifier struct {
	api *tgbotapi.BotAPI
	log *slog.Logger
}

func NewNotifier(api *tgbotapi.BotAPI) *Notifier {
	return &Notifier{api: api, log: logger.With("component", "notifier")}
}

func (n *Notifier) Notify(ctx context.Context, tgID int64, text string) {
	msg := tgbotapi.NewMessage(tgID, text)
	if _, err := n.api.Send(msg); err != nil {
		n.log.Warn("notification not delivered", "tg_id", tgID, "error", err)
	}
}

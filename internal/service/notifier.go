package service

import "context"

// Notifier pushes a message to a Telegram identity. Implementations are
// fire-and-forget: delivery failures are logged, never propagated into the
// transaction that triggered them.
type Notifier interface {
	Notify(ctx context.Context, tgID int64, text string)
}

// NopNotifier discards notifications; used in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, int64, string) {}

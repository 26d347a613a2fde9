// Package channel defines the transport-neutral contracts between the
// watcher pipeline and the chat transport.
package channel

import "context"

// Event is one inbound chat message with its identity already resolved
// onto the unified signed identifier space.
type Event struct {
	ChatID    int64
	SenderID  int64
	HasSender bool
	Text      string
}

// Handler consumes one resolved inbound event. Handlers are invoked
// concurrently and must be safe for concurrent use.
type Handler func(context.Context, Event)

// Adapter bridges one external transport (for example Telegram) into
// the watcher.
type Adapter interface {
	Name() string
	Run(context.Context, Handler) error
}

// Messenger sends direct messages to individual users on the transport.
type Messenger interface {
	SendDirectMessage(ctx context.Context, userID int64, text string) error
}

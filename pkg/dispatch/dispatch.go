// Package dispatch orchestrates the per-message pipeline: identity
// filters, extraction, criteria matching, and the de-duplicated send
// of one reservation inquiry per seller.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/DamirAkzhigitov/offer-parser/pkg/channel"
	"github.com/DamirAkzhigitov/offer-parser/pkg/offer"
)

// Outcome is the terminal state of one handled event.
type Outcome string

const (
	// OutcomeDropped covers every non-actionable event: unwatched
	// chat, missing or ignored sender, no offer, failed criteria, and
	// failed sends.
	OutcomeDropped Outcome = "dropped"
	// OutcomeSuppressed means the offer matched but the seller was
	// already contacted in this run.
	OutcomeSuppressed Outcome = "suppressed"
	// OutcomeDispatched means one inquiry send was attempted.
	OutcomeDispatched Outcome = "dispatched"
)

// Extractor finds an offer in message text, nil when none is present.
type Extractor interface {
	Extract(ctx context.Context, text string) (*offer.Offer, error)
}

// Composer produces a non-empty inquiry message for an offer.
type Composer interface {
	Compose(ctx context.Context, o offer.Offer) string
}

// Config carries the static pipeline settings.
type Config struct {
	Criteria     offer.Criteria
	WatchChats   []int64
	IgnoreSender int64
}

// Coordinator runs the pipeline for inbound events. It is safe for
// concurrent use; the only shared mutable state is the dispatch record.
type Coordinator struct {
	extractor    Extractor
	composer     Composer
	messenger    channel.Messenger
	criteria     offer.Criteria
	watch        map[int64]struct{}
	ignoreSender int64
	record       *Record
	log          *slog.Logger
}

// NewCoordinator wires the pipeline components together.
func NewCoordinator(cfg Config, extractor Extractor, composer Composer, messenger channel.Messenger, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}

	watch := make(map[int64]struct{}, len(cfg.WatchChats))
	for _, chatID := range cfg.WatchChats {
		watch[chatID] = struct{}{}
	}

	return &Coordinator{
		extractor:    extractor,
		composer:     composer,
		messenger:    messenger,
		criteria:     cfg.Criteria,
		watch:        watch,
		ignoreSender: cfg.IgnoreSender,
		record:       NewRecord(),
		log:          log.With("component", "dispatch"),
	}
}

// Handle runs one event through the pipeline and returns its terminal
// outcome. No failure inside the pipeline escalates past this method.
func (c *Coordinator) Handle(ctx context.Context, event channel.Event) Outcome {
	log := c.log.With("chat_id", event.ChatID, "sender_id", event.SenderID)

	if !event.HasSender {
		log.Debug("Dropping message without sender")
		return OutcomeDropped
	}
	if _, ok := c.watch[event.ChatID]; !ok {
		return OutcomeDropped
	}
	if c.ignoreSender != 0 && event.SenderID == c.ignoreSender {
		log.Debug("Dropping own message")
		return OutcomeDropped
	}

	found, err := c.extractor.Extract(ctx, event.Text)
	if err != nil {
		// Fail closed: an oracle problem never turns into outreach.
		log.Warn("Extraction failed, treating message as no offer", "error", err)
		return OutcomeDropped
	}
	if found == nil {
		log.Debug("Message carries no offer")
		return OutcomeDropped
	}

	if !c.criteria.Matches(*found) {
		log.Debug("Offer does not meet criteria", "item_name", found.Name)
		return OutcomeDropped
	}

	if !c.record.Reserve(event.SenderID) {
		log.Info("Seller already contacted this run, suppressing duplicate inquiry")
		return OutcomeSuppressed
	}

	message := c.composer.Compose(ctx, *found)
	if err := c.messenger.SendDirectMessage(ctx, event.SenderID, message); err != nil {
		// One attempt per event, no retry loop. Releasing the claim
		// lets a later matching message from this seller try again.
		c.record.Release(event.SenderID)
		log.Error("Failed to send reservation inquiry", "error", err)
		return OutcomeDropped
	}

	log.Info("Sent reservation inquiry", "item_name", found.Name)
	return OutcomeDispatched
}

// Package compose produces the outbound reservation inquiry for a
// matched offer. It always returns some message: the generation oracle
// is preferred, a deterministic template is the fallback.
package compose

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/DamirAkzhigitov/offer-parser/pkg/offer"
	"github.com/DamirAkzhigitov/offer-parser/pkg/oracle"
)

// Composition should vary across calls, so it runs hot.
const composeTemperature = 0.8

const systemPrompt = `You write short, casual first-person messages to private sellers in a local buy-and-sell chat.
The goal is always the same: ask whether the item is still available and say you would like to reserve it.
Write one or two sentences, no greetings longer than one word, no emoji, no sign-off.
Write in the language the listing details are written in.
Examples of the register to hit:
- "Hi! Is the IKEA desk for 30 still available? I'd love to reserve it."
- "Hey, saw your coffee table in Limassol. Still around? I'll take it, can you hold it for me?"
- "Привет! Тумбочка ещё актуальна? Хотел бы забронировать, заберу в любое время."
- "Здравствуйте, увидел ваше объявление про стул за 15. Ещё не отдали? Я бы забрал."`

// Composer builds reservation inquiries for matched offers.
type Composer struct {
	oracle oracle.Client
	model  string
	log    *slog.Logger
}

// New constructs a composer using the given oracle client and model.
func New(client oracle.Client, model string, log *slog.Logger) *Composer {
	if log == nil {
		log = slog.Default()
	}

	return &Composer{
		oracle: client,
		model:  model,
		log:    log.With("component", "compose"),
	}
}

// Compose returns a reservation inquiry for the offer. It never
// returns an empty string: when the oracle fails or answers with
// nothing, the deterministic fallback message is used instead.
func (c *Composer) Compose(ctx context.Context, o offer.Offer) string {
	fragment := DetailFragment(o)

	text, err := c.oracle.Complete(ctx, oracle.Request{
		Model:       c.model,
		System:      systemPrompt,
		User:        userPrompt(fragment),
		Temperature: composeTemperature,
	})
	if err != nil {
		c.log.Warn("Generation oracle failed, using fallback message", "error", err)
		return fallbackMessage(fragment)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.log.Warn("Generation oracle returned empty text, using fallback message")
		return fallbackMessage(fragment)
	}

	return text
}

func userPrompt(fragment string) string {
	if fragment == "" {
		return "Write a reservation inquiry for an item with no listing details."
	}

	return "Write a reservation inquiry for this listing: " + fragment
}

// DetailFragment joins whichever offer fields are present into one
// human-readable phrase. Absent fields are omitted entirely.
func DetailFragment(o offer.Offer) string {
	parts := make([]string, 0, 3)

	if name := strings.TrimSpace(o.Name); name != "" {
		parts = append(parts, name)
	}

	switch {
	case o.Free:
		parts = append(parts, "for free")
	case o.Price != nil && o.Price.Numeric:
		parts = append(parts, "for "+formatAmount(o.Price.Amount))
	case o.Price != nil && strings.TrimSpace(o.Price.Qualifier) != "":
		parts = append(parts, "price "+strings.TrimSpace(o.Price.Qualifier))
	}

	if location := strings.TrimSpace(o.Location); location != "" {
		parts = append(parts, "in "+location)
	}

	return strings.Join(parts, ", ")
}

// fallbackMessage is the availability guarantee: a fixed template over
// the same detail fragment the oracle would have seen.
func fallbackMessage(fragment string) string {
	if fragment == "" {
		return "Hi! Is this still available? I'd love to reserve it."
	}

	return fmt.Sprintf("Hi! Is it still available (%s)? I'd love to reserve it.", fragment)
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

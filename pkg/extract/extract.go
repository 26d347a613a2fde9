// Package extract turns one free-text chat message into a validated
// offer record via a structured-output oracle call.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DamirAkzhigitov/offer-parser/pkg/offer"
	"github.com/DamirAkzhigitov/offer-parser/pkg/oracle"
)

// Extraction is near-deterministic work, not generation.
const extractTemperature = 0.1

const systemPrompt = `You read one chat message from a local marketplace group and extract the item offered for sale.
Extract offers only. When the author is looking to buy something, asking for recommendations, or just chatting, set every field except is_free to null and is_free to false.
A message that names an item for sale but states no price, or asks readers to suggest a price, is still an offer.
When the message says the item is free, given away, or to be collected for nothing, set is_free to true and price to 0.
Use null for anything the message does not state. Never invent values.`

// Extractor converts message text into offers, failing closed on any
// oracle or validation problem.
type Extractor struct {
	oracle oracle.Client
	model  string
	log    *slog.Logger
}

// New constructs an extractor using the given oracle client and model.
func New(client oracle.Client, model string, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}

	return &Extractor{
		oracle: client,
		model:  model,
		log:    log.With("component", "extract"),
	}
}

// Extract returns the offer found in text, or nil when the message
// carries no offer. Empty or whitespace-only text returns nil without
// an oracle call. Oracle and parse failures return an error; callers
// must treat that as no offer found.
func (e *Extractor) Extract(ctx context.Context, text string) (*offer.Offer, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	raw, err := e.oracle.Complete(ctx, oracle.Request{
		Model:       e.model,
		System:      systemPrompt,
		User:        text,
		Temperature: extractTemperature,
		Schema:      responseSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction oracle call: %w", err)
	}

	var parsed payload
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}

	found := e.normalize(parsed)
	if found == nil {
		e.log.Debug("No offer found in message")
		return nil, nil
	}
	e.log.Debug("Extracted offer",
		"item_name", found.Name,
		"category", string(found.Category),
		"location", found.Location,
		"free", found.Free,
	)

	return found, nil
}

// responseSchema is the strict shape requested from the oracle. The
// parsed result is still treated as adversarial input.
var responseSchema = &oracle.Schema{
	Name: "sale_offer",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"item_name", "category", "price", "location", "is_free"},
		"properties": map[string]any{
			"item_name": map[string]any{"type": []string{"string", "null"}},
			"category": map[string]any{
				"anyOf": []any{
					map[string]any{"type": "string", "enum": []string{"furniture", "electronics", "clothing", "other"}},
					map[string]any{"type": "null"},
				},
			},
			"price": map[string]any{
				"anyOf": []any{
					map[string]any{"type": "number"},
					map[string]any{"type": "string"},
					map[string]any{"type": "null"},
				},
			},
			"location": map[string]any{"type": []string{"string", "null"}},
			"is_free":  map[string]any{"type": "boolean"},
		},
	},
}

type payload struct {
	ItemName *string    `json:"item_name"`
	Category *string    `json:"category"`
	Price    priceField `json:"price"`
	Location *string    `json:"location"`
	IsFree   bool       `json:"is_free"`
}

// priceField accepts a number, a textual qualifier, or null.
type priceField struct {
	amount    float64
	qualifier string
	numeric   bool
	set       bool
}

func (p *priceField) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*p = priceField{}
		return nil
	}

	var amount float64
	if err := json.Unmarshal(data, &amount); err == nil {
		*p = priceField{amount: amount, numeric: true, set: true}
		return nil
	}

	var qualifier string
	if err := json.Unmarshal(data, &qualifier); err == nil {
		*p = priceField{qualifier: strings.TrimSpace(qualifier), set: qualifier != ""}
		return nil
	}

	return fmt.Errorf("price is neither number nor string: %s", trimmed)
}

// normalize re-validates the oracle payload into a domain offer, or
// nil when the payload amounts to "no offer present".
func (e *Extractor) normalize(p payload) *offer.Offer {
	var o offer.Offer

	if p.ItemName != nil {
		o.Name = strings.TrimSpace(*p.ItemName)
	}
	if p.Location != nil {
		o.Location = strings.TrimSpace(*p.Location)
	}
	if p.Category != nil {
		category, ok := offer.ParseCategory(*p.Category)
		if ok {
			o.Category = category
		} else if strings.TrimSpace(*p.Category) != "" {
			e.log.Debug("Discarding out-of-vocabulary category", "category", *p.Category)
		}
	}

	switch {
	case p.IsFree:
		// A giveaway costs zero regardless of what the oracle put in price.
		o.Free = true
		o.Price = offer.NumericPrice(0)
	case p.Price.set && p.Price.numeric:
		if p.Price.amount >= 0 {
			o.Price = offer.NumericPrice(p.Price.amount)
		} else {
			e.log.Debug("Discarding negative price", "price", p.Price.amount)
		}
	case p.Price.set:
		o.Price = offer.QualifierPrice(p.Price.qualifier)
	}

	if o.Name == "" && o.Category == "" && o.Price == nil && o.Location == "" && !o.Free {
		return nil
	}

	return &o
}

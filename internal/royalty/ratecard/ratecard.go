// Package ratecard loads the per-model payout configuration.
package ratecard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	dErrors "attribune/pkg/domain-errors"
)

// RateCard maps a generation model to the base payout for one settled claim,
// in cents. Deployment policy owns the numbers; the pipeline only reads them.
type RateCard struct {
	DefaultAmountCents int64            `yaml:"default_amount_cents"`
	Models             map[string]int64 `yaml:"models"`
}

// Load reads a rate card from a YAML file.
func Load(path string) (*RateCard, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate card: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates rate card YAML.
func Parse(raw []byte) (*RateCard, error) {
	var card RateCard
	if err := yaml.Unmarshal(raw, &card); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "rate card is not valid YAML")
	}
	if card.DefaultAmountCents <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "rate card default_amount_cents must be positive")
	}
	for model, cents := range card.Models {
		if cents <= 0 {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "rate card amount for model %q must be positive", model)
		}
	}
	return &card, nil
}

// AmountFor returns the payout in cents for one claim against the model.
func (c *RateCard) AmountFor(modelID string) int64 {
	if cents, ok := c.Models[modelID]; ok {
		return cents
	}
	return c.DefaultAmountCents
}

// Package planner turns a natural-language intent into a structured plan
// document. A language-model provider does the actual plan generation; when
// no provider is configured, or the provider output cannot be used, the
// planner falls back to a canned plan so the rest of the pipeline stays
// exercisable.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/harun/flowmind/pkg/atoms"
	"github.com/harun/flowmind/pkg/plan"
)

// Provider completes a planning prompt into raw model text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Planner generates plan documents from user intent.
type Planner struct {
	provider Provider
	logger   zerolog.Logger
}

// New creates a planner. provider may be nil, in which case every intent
// yields the canned fallback plan.
func New(provider Provider, logger zerolog.Logger) *Planner {
	return &Planner{
		provider: provider,
		logger:   logger.With().Str("component", "planner").Logger(),
	}
}

// Plan produces a structured plan document for the intent, using the atoms
// registry to tell the model which operations exist. The returned document is
// not yet validated; callers hand it to the validator next.
func (p *Planner) Plan(ctx context.Context, intent string, registry *atoms.Registry) (*plan.Document, error) {
	if registry == nil {
		return nil, fmt.Errorf("atoms registry must not be nil")
	}

	if p.provider == nil {
		p.logger.Debug().Msg("No provider configured; using fallback plan")
		return FallbackPlan(intent), nil
	}

	doc, err := p.generate(ctx, intent, registry)
	if err != nil {
		p.logger.Warn().Err(err).Str("provider", p.provider.Name()).
			Msg("Plan generation failed; using fallback plan")
		return FallbackPlan(intent), nil
	}
	return doc, nil
}

// generate asks the provider for a plan and parses its response.
func (p *Planner) generate(ctx context.Context, intent string, registry *atoms.Registry) (*plan.Document, error) {
	raw, err := p.provider.Complete(ctx, systemPrompt, userPrompt(intent, registry))
	if err != nil {
		return nil, fmt.Errorf("provider call failed: %w", err)
	}

	var doc plan.Document
	if err := json.Unmarshal([]byte(stripFences(raw)), &doc); err != nil {
		return nil, fmt.Errorf("provider returned unparsable plan: %w", err)
	}
	if doc.Target == "" {
		doc.Target = strings.TrimSpace(intent)
	}
	if len(doc.Plan.Steps) == 0 {
		return nil, fmt.Errorf("provider returned a plan with no steps")
	}
	return &doc, nil
}

// stripFences removes a Markdown code fence around a JSON payload, a habit
// models keep even when told not to.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

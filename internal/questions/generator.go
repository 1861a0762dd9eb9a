package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/llm"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/prompts"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/utils"
)

// Generator produces the ordered item sequence for a round before it
// starts. The round state machine treats implementations as black boxes
// returning well-formed items.
type Generator interface {
	Generate(ctx context.Context, role, difficulty string, kind models.RoundKind, count int) ([]models.Item, error)
}

var ErrNoItems = errors.New("generator returned no items")

// Chain tries each generator in order, falling through on failure.
type Chain struct {
	sources []Generator
	logger  *zap.Logger
}

func NewChain(logger *zap.Logger, sources ...Generator) *Chain {
	return &Chain{sources: sources, logger: logger}
}

func (c *Chain) Generate(ctx context.Context, role, difficulty string, kind models.RoundKind, count int) ([]models.Item, error) {
	var lastErr error = ErrNoItems
	for _, src := range c.sources {
		items, err := src.Generate(ctx, role, difficulty, kind, count)
		if err == nil && len(items) > 0 {
			return items, nil
		}
		if err != nil {
			c.logger.Warn("item source failed, trying next",
				zap.String("kind", string(kind)), zap.Error(err))
			lastErr = err
		}
	}
	return nil, lastErr
}

// LLMGenerator asks the configured provider for a fresh item sequence.
type LLMGenerator struct {
	provider llm.Provider
	prompts  *prompts.Manager
}

func NewLLMGenerator(provider llm.Provider, promptManager *prompts.Manager) *LLMGenerator {
	return &LLMGenerator{provider: provider, prompts: promptManager}
}

type generatedItem struct {
	Prompt     string            `json:"prompt"`
	Category   string            `json:"category"`
	Difficulty string            `json:"difficulty"`
	TestCases  []models.TestCase `json:"test_cases,omitempty"`
}

func (g *LLMGenerator) Generate(ctx context.Context, role, difficulty string, kind models.RoundKind, count int) ([]models.Item, error) {
	prompt, err := g.prompts.BuildPrompt("generate_items", string(kind), map[string]string{
		"Role":       role,
		"Difficulty": difficulty,
		"Count":      fmt.Sprintf("%d", count),
	})
	if err != nil {
		return nil, err
	}

	result, err := g.provider.GenerateContent(ctx, prompt, "")
	if err != nil {
		return nil, err
	}

	var raw []generatedItem
	if err := json.Unmarshal([]byte(utils.StripFences(result.Text)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse generated items: %w", err)
	}

	items := make([]models.Item, 0, count)
	for _, gi := range raw {
		if gi.Prompt == "" {
			continue
		}
		item, err := toItem(gi.Prompt, gi.Category, difficulty, kind, gi.TestCases)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if len(items) == count {
			break
		}
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	return items, nil
}

func toItem(prompt, category, difficulty string, kind models.RoundKind, cases []models.TestCase) (models.Item, error) {
	item := models.Item{
		Prompt:     prompt,
		Category:   category,
		Difficulty: difficulty,
	}
	if kind == models.RoundCoding {
		if len(cases) == 0 {
			return models.Item{}, fmt.Errorf("coding item %q has no test cases", prompt)
		}
		encoded, err := json.Marshal(cases)
		if err != nil {
			return models.Item{}, err
		}
		item.TestCases = string(encoded)
	}
	return item, nil
}

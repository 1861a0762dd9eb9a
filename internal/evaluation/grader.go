package evaluation

import (
	"context"
	"errors"
	"fmt"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/llm"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/metrics"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/prompts"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/sandbox"
)

// Grader turns one submission payload into a Grade. The dispatcher only
// sees this interface; the production implementation talks to the sandbox
// and the LLM provider.
type Grader interface {
	Grade(ctx context.Context, payload *SubmissionPayload) (*Grade, error)
}

var ErrNoSandbox = errors.New("no sandbox runner configured for coding evaluation")

// LLMGrader grades technical and HR answers with the LLM evaluator, and
// coding answers by executing test cases first and merging the pass rate
// with the AI review score.
type LLMGrader struct {
	provider   llm.Provider
	prompts    *prompts.Manager
	runner     sandbox.Runner
	passWeight float64
}

func NewLLMGrader(provider llm.Provider, promptManager *prompts.Manager, runner sandbox.Runner, passWeight float64) *LLMGrader {
	return &LLMGrader{
		provider:   provider,
		prompts:    promptManager,
		runner:     runner,
		passWeight: passWeight,
	}
}

func (g *LLMGrader) Grade(ctx context.Context, payload *SubmissionPayload) (*Grade, error) {
	if payload.Kind == models.RoundCoding {
		return g.gradeCoding(ctx, payload)
	}

	mode := "grade_technical"
	variant := payload.Difficulty
	if payload.Kind == models.RoundHR {
		mode = "grade_hr"
		variant = "default"
	}

	prompt, err := g.prompts.BuildPrompt(mode, variant, map[string]string{
		"Role":       payload.Role,
		"Difficulty": payload.Difficulty,
		"Question":   payload.Question,
		"Answer":     payload.Answer,
	})
	if err != nil {
		return nil, err
	}

	result, err := g.provider.GenerateContent(ctx, prompt, payload.ItemID)
	if err != nil {
		return nil, err
	}
	return parseGrade(result.Text)
}

// gradeCoding runs the unit tests in the sandbox, then asks the evaluator
// for a qualitative review, and merges both into a single score.
func (g *LLMGrader) gradeCoding(ctx context.Context, payload *SubmissionPayload) (*Grade, error) {
	if g.runner == nil {
		return nil, ErrNoSandbox
	}

	results, err := g.runner.RunTests(ctx, sandbox.Language(payload.Language), payload.Answer, payload.TestCases)
	if err != nil {
		return nil, fmt.Errorf("sandbox execution failed: %w", err)
	}
	metrics.SandboxRuns.WithLabelValues(payload.Language).Inc()
	passRate := sandbox.PassRate(results)

	prompt, err := g.prompts.BuildPrompt("grade_coding", "default", map[string]string{
		"Role":     payload.Role,
		"Language": payload.Language,
		"Question": payload.Question,
		"Answer":   payload.Answer,
		"PassRate": fmt.Sprintf("%.0f%%", passRate*100),
	})
	if err != nil {
		return nil, err
	}

	result, err := g.provider.GenerateContent(ctx, prompt, payload.ItemID)
	if err != nil {
		return nil, err
	}
	grade, err := parseGrade(result.Text)
	if err != nil {
		return nil, err
	}

	review := grade.Score
	grade.Score = clampScore(g.passWeight*passRate*100 + (1-g.passWeight)*review)
	grade.PassRate = &passRate
	if grade.SubScores == nil {
		grade.SubScores = map[string]float64{}
	}
	grade.SubScores["tests"] = passRate * 100
	grade.SubScores["review"] = review
	return grade, nil
}

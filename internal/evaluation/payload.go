package evaluation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/utils"
)

// SubmissionPayload is everything a worker needs to grade one answered
// item, snapshotted at submit time so grading never re-reads mutable rows.
type SubmissionPayload struct {
	SessionID  string            `json:"session_id"`
	RoundID    uint              `json:"round_id"`
	Kind       models.RoundKind  `json:"kind"`
	ItemID     string            `json:"item_id"`
	Question   string            `json:"question"`
	Category   string            `json:"category,omitempty"`
	Difficulty string            `json:"difficulty"`
	Role       string            `json:"role"`
	Answer     string            `json:"answer"`
	Language   string            `json:"language,omitempty"`
	TimeSpentS int               `json:"time_spent_s"`
	TestCases  []models.TestCase `json:"test_cases,omitempty"`
}

// Skipped reports whether the submission was an empty/sentinel answer.
func (p *SubmissionPayload) Skipped() bool {
	return strings.TrimSpace(p.Answer) == ""
}

// Grade is one evaluator verdict on a 0-100 scale.
type Grade struct {
	Score     float64            `json:"score"`
	Feedback  string             `json:"feedback"`
	SubScores map[string]float64 `json:"sub_scores,omitempty"`
	PassRate  *float64           `json:"pass_rate,omitempty"`
}

// parseGrade extracts the JSON verdict from raw LLM output. Providers
// wrap responses in fences or prose often enough that we cut to the
// outermost object before unmarshalling.
func parseGrade(raw string) (*Grade, error) {
	cleaned := utils.StripFences(raw)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in evaluator response")
	}

	var grade Grade
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &grade); err != nil {
		return nil, fmt.Errorf("malformed evaluator response: %w", err)
	}
	grade.Score = clampScore(grade.Score)
	for k, v := range grade.SubScores {
		grade.SubScores[k] = clampScore(v)
	}
	return &grade, nil
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

package questions

import (
	"context"
	"encoding/json"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
)

// Static is the last-resort built-in item bank used when neither the Mongo
// bank nor the LLM generator can serve a round.
type Static struct{}

func NewStatic() *Static { return &Static{} }

func (s *Static) Generate(ctx context.Context, role, difficulty string, kind models.RoundKind, count int) ([]models.Item, error) {
	var pool []models.Item
	switch kind {
	case models.RoundTechnical:
		pool = staticTechnical(difficulty)
	case models.RoundHR:
		pool = staticHR(difficulty)
	case models.RoundCoding:
		pool = staticCoding(difficulty)
	}
	if len(pool) == 0 {
		return nil, ErrNoItems
	}
	if count > len(pool) {
		count = len(pool)
	}
	return pool[:count], nil
}

func staticTechnical(difficulty string) []models.Item {
	prompts := []struct{ prompt, category string }{
		{"Explain the difference between a process and a thread, and when you would choose one over the other.", "operating-systems"},
		{"What happens between typing a URL into a browser and the page rendering? Walk through each layer.", "networking"},
		{"Compare optimistic and pessimistic locking. When does each fail badly?", "databases"},
		{"How does a hash map handle collisions, and what degrades its performance to O(n)?", "data-structures"},
		{"Describe how you would design an idempotent retry mechanism for a payment API.", "system-design"},
		{"What is a race condition? Give an example and two different ways to eliminate it.", "concurrency"},
	}
	items := make([]models.Item, 0, len(prompts))
	for _, p := range prompts {
		items = append(items, models.Item{Prompt: p.prompt, Category: p.category, Difficulty: difficulty})
	}
	return items
}

func staticHR(difficulty string) []models.Item {
	prompts := []string{
		"Tell me about a time you disagreed with a technical decision made by your team. What did you do?",
		"Describe a project that failed or fell short. What was your role and what did you learn?",
		"How do you handle receiving critical feedback on your work?",
		"Tell me about a time you had to deliver under a deadline you considered unrealistic.",
		"Describe a situation where you had to bring a struggling teammate up to speed.",
	}
	items := make([]models.Item, 0, len(prompts))
	for _, p := range prompts {
		items = append(items, models.Item{Prompt: p, Category: "behavioral", Difficulty: difficulty})
	}
	return items
}

func staticCoding(difficulty string) []models.Item {
	mustEncode := func(cases []models.TestCase) string {
		encoded, _ := json.Marshal(cases)
		return string(encoded)
	}
	return []models.Item{
		{
			Prompt:     "Read an integer n from stdin followed by n integers, one per line. Print the sum of the even numbers.",
			Category:   "arrays",
			Difficulty: difficulty,
			TestCases: mustEncode([]models.TestCase{
				{Input: "3\n1\n2\n4\n", Expected: "6"},
				{Input: "1\n7\n", Expected: "0"},
				{Input: "4\n2\n2\n2\n2\n", Expected: "8"},
			}),
		},
		{
			Prompt:     "Read a single line from stdin and print \"yes\" if it is a palindrome (ignoring case), otherwise \"no\".",
			Category:   "strings",
			Difficulty: difficulty,
			TestCases: mustEncode([]models.TestCase{
				{Input: "Level\n", Expected: "yes"},
				{Input: "interview\n", Expected: "no"},
				{Input: "a\n", Expected: "yes"},
			}),
		},
	}
}

package config

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
)

// RoundPlan describes how one round is initialized.
type RoundPlan struct {
	Kind      models.RoundKind
	ItemCount int
	// TimeLimit is the round-level deadline; zero means no deadline.
	TimeLimit time.Duration
}

// DecisionThreshold maps a minimum overall score to a categorical outcome.
type DecisionThreshold struct {
	Min      float64
	Decision string
}

// Config is the full service configuration, loaded from environment
// variables. Invalid weights or thresholds are a fatal configuration
// error, never silently defaulted.
type Config struct {
	Provider string

	Weights    map[models.RoundKind]float64
	Thresholds []DecisionThreshold // sorted by Min descending

	IntegrityPenaltyPerSignal float64
	IntegrityPenaltyCap       float64

	Rounds map[models.RoundKind]RoundPlan

	// Evaluation pipeline.
	EvalWorkers     int
	EvalMaxAttempts int
	EvalBackoffBase time.Duration
	NeutralScore    float64
	// SkipPolicy decides how empty-answer submissions are graded:
	// "zero" resolves them immediately to 0, "grade" sends them to the
	// evaluator like any other answer.
	SkipPolicy string

	// Coding evaluation: weight of the test pass-rate vs the AI review
	// score when merging into one item score.
	CodingPassWeight float64

	DraftTTL time.Duration
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Provider: getEnv("AI_PROVIDER", "gemini"),
		Weights: map[models.RoundKind]float64{
			models.RoundTechnical: getEnvFloat("WEIGHT_TECHNICAL", 0.40),
			models.RoundHR:        getEnvFloat("WEIGHT_HR", 0.25),
			models.RoundCoding:    getEnvFloat("WEIGHT_CODING", 0.35),
		},
		IntegrityPenaltyPerSignal: getEnvFloat("INTEGRITY_PENALTY_PER_SIGNAL", 2.0),
		IntegrityPenaltyCap:       getEnvFloat("INTEGRITY_PENALTY_CAP", 15.0),
		Rounds: map[models.RoundKind]RoundPlan{
			models.RoundTechnical: {
				Kind:      models.RoundTechnical,
				ItemCount: getEnvInt("TECHNICAL_ITEM_COUNT", 5),
			},
			models.RoundHR: {
				Kind:      models.RoundHR,
				ItemCount: getEnvInt("HR_ITEM_COUNT", 4),
			},
			models.RoundCoding: {
				Kind:      models.RoundCoding,
				ItemCount: getEnvInt("CODING_ITEM_COUNT", 2),
				TimeLimit: getEnvDuration("CODING_TIME_LIMIT", 45*time.Minute),
			},
		},
		EvalWorkers:      getEnvInt("EVAL_WORKERS", 4),
		EvalMaxAttempts:  getEnvInt("EVAL_MAX_ATTEMPTS", 3),
		EvalBackoffBase:  getEnvDuration("EVAL_BACKOFF_BASE", 2*time.Second),
		NeutralScore:     getEnvFloat("EVAL_NEUTRAL_SCORE", 50.0),
		SkipPolicy:       getEnv("SKIP_POLICY", "zero"),
		CodingPassWeight: getEnvFloat("CODING_PASS_WEIGHT", 0.6),
		DraftTTL:         getEnvDuration("DRAFT_TTL", 24*time.Hour),
	}

	thresholds, err := parseThresholds(getEnv("DECISION_THRESHOLDS", "85:strong_hire,70:hire,50:consider,0:reject"))
	if err != nil {
		return nil, err
	}
	cfg.Thresholds = thresholds

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var sum float64
	for _, kind := range models.RoundOrder {
		w, ok := cfg.Weights[kind]
		if !ok {
			return fmt.Errorf("configuration error: missing weight for round %q", kind)
		}
		if w < 0 {
			return fmt.Errorf("configuration error: negative weight for round %q", kind)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("configuration error: round weights must sum to 1.0, got %.4f", sum)
	}

	for _, kind := range models.RoundOrder {
		plan, ok := cfg.Rounds[kind]
		if !ok {
			return fmt.Errorf("configuration error: missing round plan for %q", kind)
		}
		if plan.ItemCount <= 0 {
			return fmt.Errorf("configuration error: round %q must have at least one item", kind)
		}
	}

	if len(cfg.Thresholds) == 0 {
		return fmt.Errorf("configuration error: no decision thresholds configured")
	}
	if cfg.Thresholds[len(cfg.Thresholds)-1].Min > 0 {
		return fmt.Errorf("configuration error: decision thresholds must cover score 0")
	}

	if cfg.SkipPolicy != "zero" && cfg.SkipPolicy != "grade" {
		return fmt.Errorf("configuration error: SKIP_POLICY must be zero or grade, got %q", cfg.SkipPolicy)
	}
	if cfg.CodingPassWeight < 0 || cfg.CodingPassWeight > 1 {
		return fmt.Errorf("configuration error: CODING_PASS_WEIGHT must be within [0,1]")
	}
	if cfg.EvalMaxAttempts < 1 {
		return fmt.Errorf("configuration error: EVAL_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.IntegrityPenaltyPerSignal < 0 || cfg.IntegrityPenaltyCap < 0 {
		return fmt.Errorf("configuration error: integrity penalties must not be negative")
	}
	return nil
}

// parseThresholds parses "85:strong_hire,70:hire,...". Brackets are
// returned sorted by Min descending so the first match wins.
func parseThresholds(raw string) ([]DecisionThreshold, error) {
	parts := strings.Split(raw, ",")
	thresholds := make([]DecisionThreshold, 0, len(parts))
	for _, part := range parts {
		pair := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(pair) != 2 || pair[1] == "" {
			return nil, fmt.Errorf("configuration error: malformed decision threshold %q", part)
		}
		min, err := strconv.ParseFloat(pair[0], 64)
		if err != nil {
			return nil, fmt.Errorf("configuration error: malformed decision threshold %q: %w", part, err)
		}
		thresholds = append(thresholds, DecisionThreshold{Min: min, Decision: pair[1]})
	}
	sort.Slice(thresholds, func(i, j int) bool { return thresholds[i].Min > thresholds[j].Min })
	return thresholds, nil
}

// Helper functions for environment variables
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

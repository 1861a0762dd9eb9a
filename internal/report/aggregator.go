package report

import (
	"fmt"
	"sort"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/config"
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
)

// Scores are the final per-round scores on a 0-100 scale.
type Scores struct {
	Technical float64
	HR        float64
	Coding    float64
}

func (s Scores) byKind() map[models.RoundKind]float64 {
	return map[models.RoundKind]float64{
		models.RoundTechnical: s.Technical,
		models.RoundHR:        s.HR,
		models.RoundCoding:    s.Coding,
	}
}

// Result is the aggregated hiring outcome before persistence.
type Result struct {
	Scores           Scores
	Overall          float64
	IntegrityPenalty float64
	Decision         string
	Strengths        []string
	Weaknesses       []string
	ImprovementPlan  string
}

// Aggregate combines round scores, integrity signals and configured
// weights into the final report. It is a pure function: recomputing with
// the same inputs yields the same result.
func Aggregate(scores Scores, signalCount int, cfg *config.Config) Result {
	byKind := scores.byKind()

	var weighted float64
	for kind, weight := range cfg.Weights {
		weighted += byKind[kind] * weight
	}

	penalty := cfg.IntegrityPenaltyPerSignal * float64(signalCount)
	if penalty > cfg.IntegrityPenaltyCap {
		penalty = cfg.IntegrityPenaltyCap
	}

	overall := weighted - penalty
	if overall < 0 {
		overall = 0
	}

	strengths, weaknesses := classifyRounds(byKind)

	return Result{
		Scores:           scores,
		Overall:          overall,
		IntegrityPenalty: penalty,
		Decision:         decide(overall, cfg.Thresholds),
		Strengths:        strengths,
		Weaknesses:       weaknesses,
		ImprovementPlan:  improvementPlan(byKind, signalCount),
	}
}

// decide maps the overall score to the first matching bracket; thresholds
// are sorted by Min descending at config load.
func decide(overall float64, thresholds []config.DecisionThreshold) string {
	for _, t := range thresholds {
		if overall >= t.Min {
			return t.Decision
		}
	}
	return thresholds[len(thresholds)-1].Decision
}

const (
	strengthFloor = 70.0
	weaknessCeil  = 50.0
)

var roundLabels = map[models.RoundKind]string{
	models.RoundTechnical: "technical knowledge",
	models.RoundHR:        "behavioral communication",
	models.RoundCoding:    "hands-on coding",
}

func classifyRounds(byKind map[models.RoundKind]float64) (strengths, weaknesses []string) {
	kinds := make([]models.RoundKind, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return byKind[kinds[i]] > byKind[kinds[j]] })

	for _, kind := range kinds {
		score := byKind[kind]
		label := roundLabels[kind]
		if score >= strengthFloor {
			strengths = append(strengths, fmt.Sprintf("Strong %s (%.0f/100)", label, score))
		} else if score < weaknessCeil {
			weaknesses = append(weaknesses, fmt.Sprintf("Needs work on %s (%.0f/100)", label, score))
		}
	}
	return strengths, weaknesses
}

func improvementPlan(byKind map[models.RoundKind]float64, signalCount int) string {
	plan := ""
	if byKind[models.RoundTechnical] < strengthFloor {
		plan += "Revisit core CS fundamentals and practice explaining trade-offs out loud. "
	}
	if byKind[models.RoundHR] < strengthFloor {
		plan += "Prepare STAR-structured stories for common behavioral themes. "
	}
	if byKind[models.RoundCoding] < strengthFloor {
		plan += "Drill timed coding problems with full test coverage before submitting. "
	}
	if signalCount > 0 {
		plan += fmt.Sprintf("Keep focus during the interview; %d integrity signal(s) were recorded. ", signalCount)
	}
	if plan == "" {
		plan = "Consistent performance across all rounds; keep interviewing at this level."
	}
	return plan
}

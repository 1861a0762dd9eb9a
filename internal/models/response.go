package models

import "time"

// ErrorResponse is the JSON error body returned by every endpoint.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return e.Code + ": " + e.Message
}

// ItemView is the client-visible slice of an Item. The answer and grading
// fields are deliberately absent; only the current item is actionable.
type ItemView struct {
	ID         string   `json:"id"`
	Position   int      `json:"position"`
	Prompt     string   `json:"prompt"`
	Category   string   `json:"category,omitempty"`
	Difficulty string   `json:"difficulty"`
	Language   string   `json:"language,omitempty"`
	DeadlineS  *float64 `json:"deadline_s,omitempty"` // seconds remaining on the round
}

// RoundSnapshot is the round state returned by start/status/submit.
type RoundSnapshot struct {
	Kind         RoundKind   `json:"kind"`
	Status       RoundStatus `json:"status"`
	CurrentIndex int         `json:"current_index"`
	TotalItems   int         `json:"total_items"`
	Score        float64     `json:"score"`
	Deadline     *time.Time  `json:"deadline,omitempty"`
	RemainingS   *float64    `json:"remaining_s,omitempty"`
	CurrentItem  *ItemView   `json:"current_item,omitempty"`
}

// SubmitResult is returned from a successful submission.
type SubmitResult struct {
	NextItem  *ItemView     `json:"next_item,omitempty"`
	Snapshot  RoundSnapshot `json:"progress"`
	Completed bool          `json:"round_completed"`
}

// EvaluationView is the discriminated polling result for an item.
type EvaluationView struct {
	Evaluated  bool              `json:"evaluated"`
	Evaluation *EvaluationResult `json:"evaluation,omitempty"`
}

type EvaluationResult struct {
	Score     float64            `json:"score"`
	Feedback  string             `json:"feedback,omitempty"`
	SubScores map[string]float64 `json:"sub_scores,omitempty"`
	PassRate  *float64           `json:"pass_rate,omitempty"`
	Status    JobStatus          `json:"status"`
}

// CurrentView is everything a reconnecting client needs to render: which
// round is active or next, the current item, and any evaluations still
// pending. Derived entirely from persisted state.
type CurrentView struct {
	SessionID     string         `json:"session_id"`
	Status        SessionStatus  `json:"status"`
	NextRound     *RoundKind     `json:"next_round,omitempty"`
	Round         *RoundSnapshot `json:"round,omitempty"`
	PendingItems  []string       `json:"pending_evaluations,omitempty"`
	ReportReady   bool           `json:"report_ready"`
	TargetRole    string         `json:"target_role"`
	Difficulty    string         `json:"difficulty"`
	RoundStatuses map[RoundKind]RoundStatus `json:"round_statuses"`
}

// ReportView is the serialized hiring report.
type ReportView struct {
	SessionID        string             `json:"session_id"`
	RoundScores      map[RoundKind]float64 `json:"round_scores"`
	Overall          float64            `json:"overall"`
	IntegrityPenalty float64            `json:"integrity_penalty"`
	Decision         string             `json:"decision"`
	Strengths        []string           `json:"strengths"`
	Weaknesses       []string           `json:"weaknesses"`
	ImprovementPlan  string             `json:"improvement_plan"`
	CreatedAt        time.Time          `json:"created_at"`
}

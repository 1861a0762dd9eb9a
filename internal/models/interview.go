package models

import (
	"time"
)

type RoundKind string

const (
	RoundTechnical RoundKind = "technical"
	RoundHR        RoundKind = "hr"
	RoundCoding    RoundKind = "coding"
)

// RoundOrder is the fixed progression of rounds within a session.
var RoundOrder = []RoundKind{RoundTechnical, RoundHR, RoundCoding}

func (k RoundKind) Valid() bool {
	switch k {
	case RoundTechnical, RoundHR, RoundCoding:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionNotStarted         SessionStatus = "not_started"
	SessionTechnicalActive    SessionStatus = "technical_in_progress"
	SessionTechnicalCompleted SessionStatus = "technical_completed"
	SessionHRActive           SessionStatus = "hr_in_progress"
	SessionHRCompleted        SessionStatus = "hr_completed"
	SessionCodingActive       SessionStatus = "coding_in_progress"
	SessionCodingCompleted    SessionStatus = "coding_completed"
	SessionCompleted          SessionStatus = "completed"
	SessionAbandoned          SessionStatus = "abandoned"
)

type RoundStatus string

const (
	RoundNotStarted RoundStatus = "not_started"
	RoundInProgress RoundStatus = "in_progress"
	RoundCompleted  RoundStatus = "completed"
)

// Session is one candidate attempt spanning all rounds. It is never
// deleted, only marked completed or abandoned.
type Session struct {
	ID          string        `gorm:"primaryKey" json:"id"`
	CandidateID string        `gorm:"index;not null" json:"candidate_id"`
	TargetRole  string        `gorm:"not null" json:"target_role"`
	Difficulty  string        `gorm:"not null" json:"difficulty"`
	Status      SessionStatus `gorm:"not null;default:not_started;index" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Rounds []Round `gorm:"foreignKey:SessionID" json:"rounds,omitempty"`
}

// Round is one stage of the interview. CurrentIndex is monotonically
// non-decreasing: items below it are answered and closed, items above it
// are not yet answerable.
type Round struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	SessionID    string      `gorm:"uniqueIndex:idx_session_round;not null" json:"session_id"`
	Kind         RoundKind   `gorm:"uniqueIndex:idx_session_round;not null" json:"kind"`
	Status       RoundStatus `gorm:"not null;default:not_started;index" json:"status"`
	CurrentIndex int         `gorm:"not null;default:0" json:"current_index"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	Deadline     *time.Time  `json:"deadline,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	// Score is the running per-round score (0-100). It is refined when
	// late evaluations resolve, but never reopens a completed round.
	Score float64 `gorm:"not null;default:0" json:"score"`

	Items []Item `gorm:"foreignKey:RoundID" json:"items,omitempty"`
}

// Item is a single question or coding problem. It is mutated exactly once
// by submission (answer, time spent) and exactly once by evaluation
// completion (evaluation reference, score).
type Item struct {
	ID         string `gorm:"primaryKey" json:"id"`
	RoundID    uint   `gorm:"uniqueIndex:idx_round_position;not null" json:"round_id"`
	Position   int    `gorm:"uniqueIndex:idx_round_position;not null" json:"position"`
	Prompt     string `gorm:"type:text;not null" json:"prompt"`
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty"`
	// Coding items only.
	Language  string `json:"language,omitempty"`
	TestCases string `gorm:"type:text" json:"-"` // JSON-encoded []TestCase

	Answer     *string    `gorm:"type:text" json:"answer,omitempty"`
	TimeSpentS int        `json:"time_spent_s"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`

	EvaluationID *string  `gorm:"index" json:"evaluation_id,omitempty"`
	Score        *float64 `json:"score,omitempty"`
}

func (i *Item) Answered() bool {
	return i.Answer != nil
}

// TestCase is one executable check for a coding item.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobEvaluating JobStatus = "evaluating"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobFailed
}

// EvaluationJob is one grading attempt lifecycle for an answered item.
// At most one job per item may be in a non-terminal state.
type EvaluationJob struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	ItemID    string    `gorm:"index;not null" json:"item_id"`
	SessionID string    `gorm:"index;not null" json:"session_id"`
	RoundID   uint      `gorm:"index;not null" json:"round_id"`
	Kind      RoundKind `gorm:"not null" json:"kind"`
	Status    JobStatus `gorm:"not null;default:queued;index" json:"status"`
	Payload   string    `gorm:"type:text;not null" json:"-"` // JSON-encoded SubmissionPayload
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	// ClaimedAt is set each time a worker wins the job; staleness
	// detection keys off it, not enqueue time, so long queues do not
	// look like dead workers.
	ClaimedAt *time.Time `json:"-"`

	Score     *float64 `json:"score,omitempty"`
	Feedback  string   `gorm:"type:text" json:"feedback,omitempty"`
	SubScores string   `gorm:"type:text" json:"-"` // JSON-encoded map[string]float64
	PassRate  *float64 `json:"pass_rate,omitempty"`
	LastError string   `json:"last_error,omitempty"`

	EnqueuedAt  time.Time  `gorm:"not null" json:"enqueued_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type SignalType string

const (
	SignalTabSwitch SignalType = "tab_switch"
	SignalPaste     SignalType = "paste"
	SignalOther     SignalType = "other"
)

func (s SignalType) Valid() bool {
	switch s {
	case SignalTabSwitch, SignalPaste, SignalOther:
		return true
	}
	return false
}

// IntegritySignal is an append-only behavioral anomaly record. It never
// rejects the action that triggered it.
type IntegritySignal struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	SessionID string     `gorm:"index;not null" json:"session_id"`
	ItemID    *string    `json:"item_id,omitempty"`
	Type      SignalType `gorm:"not null" json:"type"`
	CreatedAt time.Time  `json:"created_at"`
}

// HiringReport is the final weighted aggregation, persisted once per
// session so views do not recompute it.
type HiringReport struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	SessionID string `gorm:"uniqueIndex;not null" json:"session_id"`

	TechnicalScore float64 `json:"technical_score"`
	HRScore        float64 `json:"hr_score"`
	CodingScore    float64 `json:"coding_score"`

	Overall          float64 `json:"overall"`
	IntegrityPenalty float64 `json:"integrity_penalty"`
	Decision         string  `json:"decision"`

	Strengths       string `gorm:"type:text" json:"-"` // JSON-encoded []string
	Weaknesses      string `gorm:"type:text" json:"-"`
	ImprovementPlan string `gorm:"type:text" json:"improvement_plan"`

	CreatedAt time.Time `json:"created_at"`
}

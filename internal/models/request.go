package models

import (
	"strings"
)

var supportedDifficulties = map[string]bool{
	"easy":   true,
	"medium": true,
	"hard":   true,
}

var supportedLanguages = map[string]bool{
	"python": true,
	"java":   true,
	"cpp":    true,
}

type CreateSessionRequest struct {
	TargetRole string `json:"target_role"`
	Difficulty string `json:"difficulty"`
}

// implements the Validator interface
func (r *CreateSessionRequest) Validate() error {
	if strings.TrimSpace(r.TargetRole) == "" {
		return &ErrorResponse{
			Code:    "missing_target_role",
			Message: "target_role field is required",
		}
	}

	r.Difficulty = strings.ToLower(strings.TrimSpace(r.Difficulty))
	if r.Difficulty == "" {
		r.Difficulty = "medium"
	}
	if !supportedDifficulties[r.Difficulty] {
		return &ErrorResponse{
			Code:    "invalid_difficulty",
			Message: "Difficulty must be one of: easy, medium, hard",
		}
	}
	return nil
}

type SubmitRequest struct {
	ItemID string `json:"item_id"`
	// Answer is the free-text answer, or the source code for coding items.
	// An empty answer is a skip: it still advances the round.
	Answer     string `json:"answer"`
	Language   string `json:"language,omitempty"`
	TimeSpentS int    `json:"time_spent_s"`
}

func (r *SubmitRequest) Validate() error {
	if strings.TrimSpace(r.ItemID) == "" {
		return &ErrorResponse{Code: "missing_item_id", Message: "item_id field is required"}
	}
	if r.TimeSpentS < 0 {
		return &ErrorResponse{Code: "invalid_time_spent", Message: "time_spent_s must not be negative"}
	}
	if r.Language != "" {
		r.Language = strings.ToLower(strings.TrimSpace(r.Language))
		if !supportedLanguages[r.Language] {
			return &ErrorResponse{Code: "unsupported_language", Message: "Language not supported. Supported languages: python, java, cpp"}
		}
	}
	return nil
}

type IntegrityRequest struct {
	ItemID *string    `json:"item_id,omitempty"`
	Type   SignalType `json:"type"`
}

func (r *IntegrityRequest) Validate() error {
	if !r.Type.Valid() {
		return &ErrorResponse{Code: "invalid_signal_type", Message: "type must be one of: tab_switch, paste, other"}
	}
	return nil
}

type DraftRequest struct {
	Content string `json:"content"`
}

func (r *DraftRequest) Validate() error {
	// An empty draft is a valid overwrite (clearing the draft).
	if len(r.Content) > 256*1024 {
		return &ErrorResponse{Code: "draft_too_large", Message: "Draft content must not exceed 256KiB"}
	}
	return nil
}

// GenerationResult is the raw output of an LLM provider call.
type GenerationResult struct {
	Text             string `json:"text"`
	Model            string `json:"model"`
	ProcessingTimeMs int    `json:"processing_time_ms"`
}

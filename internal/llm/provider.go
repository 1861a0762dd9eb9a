package llm

import (
	"context"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
)

// Provider is one AI backend used for item generation and answer grading.
// requestID threads through for log correlation.
type Provider interface {
	GenerateContent(ctx context.Context, prompt string, requestID string) (*models.GenerationResult, error)
	GetProviderName() string
}

// ProviderError carries the provider name and a stable code so callers
// can classify failures without parsing message text.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Stable error codes shared across provider implementations.
const (
	ErrCodeAPIKey       = "invalid_api_key"
	ErrCodeRateLimit    = "rate_limit_exceeded"
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeTimeout      = "timeout"
)

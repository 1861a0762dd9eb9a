package llm

import (
	"context"
	"testing"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
)

type stubProvider struct{}

func (stubProvider) GenerateContent(ctx context.Context, prompt, requestID string) (*models.GenerationResult, error) {
	return &models.GenerationResult{Text: "{}"}, nil
}

func (stubProvider) GetProviderName() string { return "stub" }

func TestRegistryRoundTrip(t *testing.T) {
	RegisterProvider("stub", func() (Provider, error) { return stubProvider{}, nil })

	p, err := NewProvider("stub")
	if err != nil {
		t.Fatalf("expected registered provider, got %v", err)
	}
	if p.GetProviderName() != "stub" {
		t.Fatalf("unexpected provider %s", p.GetProviderName())
	}
}

func TestNewProviderUnknown(t *testing.T) {
	if _, err := NewProvider("nonexistent"); err == nil {
		t.Fatal("expected error for unregistered provider")
	}
}

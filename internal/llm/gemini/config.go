package gemini

import (
	"errors"
	"os"
)

type Config struct {
	APIKey string
	Model  string
}

// NewConfig reads Gemini settings from the environment.
func NewConfig() (*Config, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required when AI_PROVIDER=gemini")
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &Config{APIKey: apiKey, Model: model}, nil
}

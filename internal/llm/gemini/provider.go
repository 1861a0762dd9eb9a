package gemini

import (
	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/llm"
)

// registers the gemini provider on import
func init() {
	llm.RegisterProvider("gemini", func() (llm.Provider, error) {
		config, err := NewConfig()
		if err != nil {
			return nil, err
		}
		return NewClient(config)
	})
}

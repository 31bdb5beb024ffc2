package narrate

import (
	"context"
	"fmt"
)

// Synthesizer turns page text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	// Format is the audio container, used as the file extension.
	Format() string
}

// NewSynthesizer creates a synthesizer for the named provider
func NewSynthesizer(name string, opts OpenAIOptions) (Synthesizer, error) {
	switch name {
	case "", "openai":
		return NewOpenAISynthesizer(opts)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openai)", name)
	}
}

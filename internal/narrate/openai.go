package narrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// Defaults for OpenAI speech synthesis
const (
	DefaultModel  = string(openai.TTSModel1)
	DefaultVoice  = string(openai.VoiceAlloy)
	DefaultFormat = string(openai.SpeechResponseFormatWav)
)

// OpenAIOptions configures the OpenAI speech endpoint
type OpenAIOptions struct {
	APIKey  string
	BaseURL string // for proxies and compatible servers
	Model   string
	Voice   string
	Format  string
	Speed   float64
}

// OpenAISynthesizer implements Synthesizer with the OpenAI speech API
type OpenAISynthesizer struct {
	client *openai.Client
	opts   OpenAIOptions
}

// NewOpenAISynthesizer creates an OpenAI synthesizer. Without an explicit
// key it falls back to OPENAI_API_KEY.
func NewOpenAISynthesizer(opts OpenAIOptions) (*OpenAISynthesizer, error) {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if opts.APIKey == "" {
		return nil, errors.New("STORYGRAB_NARRATE_API_KEY or OPENAI_API_KEY environment variable required")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Voice == "" {
		opts.Voice = DefaultVoice
	}
	if opts.Format == "" {
		opts.Format = DefaultFormat
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
	}, nil
}

// Synthesize requests speech for text and returns the encoded audio
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.opts.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.opts.Voice),
		ResponseFormat: openai.SpeechResponseFormat(s.opts.Format),
		Speed:          s.opts.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI speech error: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech audio: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty audio from OpenAI")
	}
	return data, nil
}

// Format returns the configured response format
func (s *OpenAISynthesizer) Format() string { return s.opts.Format }

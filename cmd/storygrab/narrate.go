package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/v0xg/storygrab/internal/config"
	"github.com/v0xg/storygrab/internal/narrate"
	"github.com/v0xg/storygrab/internal/story"
)

func newNarrateCmd(a *app) *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "narrate [story.json]",
		Short: "Synthesize one audio file per page",
		Long: `narrate reads story.json (default <out-dir>/story.json) and writes
audio/page_<id>.wav for every page with text, using OpenAI speech synthesis.

The API key is read from STORYGRAB_NARRATE_API_KEY or OPENAI_API_KEY.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(a.cfg.OutDir, "story.json")
			if len(args) == 1 {
				path = args[0]
			}
			s, err := story.ReadFile(path)
			if err != nil {
				return err
			}

			synthOpts, opts := a.cfg.Narration(a.log.Named("narrate"))
			synth, err := narrate.NewSynthesizer(provider, synthOpts)
			if err != nil {
				return fmt.Errorf("synthesizer init failed: %w", err)
			}

			fmt.Printf("→ Narrating %d pages with %s/%s... ", len(s.Pages), synthOpts.Model, synthOpts.Voice)
			tracks, err := narrate.Narrate(cmd.Context(), s, synth, opts)
			if err != nil {
				fmt.Println("failed")
				return err
			}
			fmt.Printf("done\n✓ Saved %d tracks to %s\n", len(tracks), opts.OutDir)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&provider, "provider", "openai", "Speech provider")
	f.String("model", narrate.DefaultModel, "Speech model")
	f.String("voice", narrate.DefaultVoice, "Voice name")
	f.String("format", narrate.DefaultFormat, "Audio format and file extension")
	f.Float64("speed", 1.0, "Speaking speed")
	f.Int("concurrency", 2, "Parallel synthesis requests")
	f.Float64("rate", 1.0, "Requests per second, 0 for unlimited")
	f.String("audio-dir", "audio", "Directory for audio files")
	f.String("base-url", "", "OpenAI-compatible API base URL")

	for flag, key := range map[string]string{
		"model":       "narrate.model",
		"voice":       "narrate.voice",
		"format":      "narrate.format",
		"speed":       "narrate.speed",
		"concurrency": "narrate.concurrency",
		"rate":        "narrate.rate",
		"audio-dir":   "narrate.out_dir",
		"base-url":    "narrate.base_url",
	} {
		_ = f.SetAnnotation(flag, config.KeyAnnotation, []string{key})
	}
	return cmd
}

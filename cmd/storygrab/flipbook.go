package main

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/v0xg/storygrab/internal/gifgen"
	"github.com/v0xg/storygrab/internal/story"
)

func newFlipbookCmd(a *app) *cobra.Command {
	var (
		output    string
		pageDelay time.Duration
		maxWidth  uint
		base      string
		progress  bool
	)

	cmd := &cobra.Command{
		Use:   "flipbook [story.json]",
		Short: "Render captured page images into an animated GIF",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(a.cfg.OutDir, "story.json")
			if len(args) == 1 {
				path = args[0]
			}
			s, err := story.ReadFile(path)
			if err != nil {
				return err
			}
			if output == "" {
				output = filepath.Join(filepath.Dir(path), "story.gif")
			}
			return a.renderFlipbook(s, base, output, gifgen.Options{PageDelay: pageDelay, MaxWidth: maxWidth, Progress: progress})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "Output GIF (default next to story.json)")
	f.DurationVar(&pageDelay, "page-delay", 3*time.Second, "How long each page is shown")
	f.UintVar(&maxWidth, "max-width", 800, "Maximum GIF width")
	f.StringVar(&base, "base", "", "Directory relative image paths are resolved against")
	f.BoolVar(&progress, "progress", true, "Draw a reading-progress strip")
	return cmd
}

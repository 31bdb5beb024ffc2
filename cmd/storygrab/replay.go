package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/v0xg/storygrab/internal/htmldoc"
	"github.com/v0xg/storygrab/internal/story"
)

func newReplayCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "replay <dump-dir>",
		Short: "Walk a directory of dumped HTML steps offline",
		Long: `replay runs the same walk as the default command against the step_*.html
files written by --dump-dir. Clicking the next control moves to the next file,
so a selector profile can be tried without a browser.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.cfg.Story()
			if err != nil {
				return err
			}
			deck, err := htmldoc.LoadDeck(args[0], cfg.Selectors)
			if err != nil {
				return err
			}
			a.log.Debug("loaded deck", zap.String("dir", args[0]), zap.Int("steps", deck.Len()))

			// A deck flips synchronously: a spread that did not change on
			// the first poll never will.
			cfg.SettleTimeout = cfg.PollInterval
			cfg.ClickDelay = 0
			cfg.RewindDelay = 0

			s, err := story.NewWalker(cfg, story.WithLogger(a.log.Named("walker"))).Walk(cmd.Context(), deck)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return story.Encode(os.Stdout, s)
			}
			if err := story.WriteFile(output, s); err != nil {
				return fmt.Errorf("write story: %w", err)
			}
			fmt.Fprintf(os.Stderr, "✓ Replayed %d steps into %d pages: %s\n", deck.Len(), len(s.Pages), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, - for stdout")
	return cmd
}

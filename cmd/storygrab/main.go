package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/v0xg/storygrab/internal/config"
	"github.com/v0xg/storygrab/internal/crawler"
	"github.com/v0xg/storygrab/internal/gifgen"
	"github.com/v0xg/storygrab/internal/observability"
	"github.com/v0xg/storygrab/internal/story"
)

// app holds what PersistentPreRunE resolves for every command.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
}

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{v: viper.New()}
	config.SetDefaults(a.v)

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "storygrab [url]",
		Short: "Extract the pages of a shared storybook into story.json",
		Long: `storygrab opens a shared storybook in headless Chrome, flips through it
spread by spread and writes the text and illustration of every page to
<out-dir>/story.json.

Example:
  storygrab "https://gemini.google.com/share/abc123" --capture --flipbook`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.grab(cmd, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default ./storygrab.yaml)")
	pf.BoolP("verbose", "v", false, "Show detailed progress")
	pf.String("log-file", "", "Also write JSON logs to this file")
	pf.String("out-dir", "data", "Directory for story.json and captures")
	pf.String("selectors", "", "YAML selector profile overriding the built-in one")

	def := story.DefaultConfig()
	f := rootCmd.Flags()
	f.String("url", "", "Storybook share URL (overrides the positional argument)")
	f.Duration("nav-timeout", 90*time.Second, "Page load timeout")
	f.Duration("post-load-wait", 5*time.Second, "Pause after load before reading")
	f.Duration("settle-timeout", def.SettleTimeout, "Max wait for a spread to change after a flip")
	f.Duration("poll-interval", def.PollInterval, "Change detection interval")
	f.Duration("click-delay", def.ClickDelay, "Pause after every flip")
	f.Int("max-pages", def.MaxPages, "Max iterations of the walk")
	f.Int("min-text-length", def.MinTextLength, "Shortest text accepted as a page")
	f.Bool("capture", false, "Screenshot every accepted spread into <out-dir>/images")
	f.Uint("capture-max-width", 0, "Downscale captures wider than this")
	f.String("dump-dir", "", "Write the document HTML of every step here (replayable)")
	f.Bool("flipbook", false, "Render captured pages into <out-dir>/story.gif (implies --capture)")
	f.Bool("headless", true, "Run Chrome headless")
	f.String("profile-dir", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	f.String("remote-url", "", "DevTools URL of an already running Chrome")
	f.Int("width", 1280, "Viewport width")
	f.Int("height", 900, "Viewport height")

	rootCmd.AddCommand(
		newReplayCmd(a),
		newNarrateCmd(a),
		newFlipbookCmd(a),
		newSelectorsCmd(a),
	)
	return rootCmd
}

// init reads config, binds flags and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	if err := config.Init(a.v, a.cfgFile); err != nil {
		return err
	}
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.New(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = observability.StderrLogger(observability.LogOptions{
		Verbose: cfg.Verbose,
		LogFile: cfg.LogFile,
		Name:    "storygrab",
	})
	return nil
}

func (a *app) grab(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := a.cfg
	log := a.log

	if err := cfg.ResolveTarget(cmd.Flags().Changed("url"), args); err != nil {
		return err
	}
	storyCfg, err := cfg.Story()
	if err != nil {
		return err
	}
	if cfg.Flipbook {
		cfg.Capture = true
	}

	log.Debug("starting storygrab",
		zap.String("url", cfg.URL),
		zap.String("out_dir", cfg.OutDir),
		zap.Int("max_pages", storyCfg.MaxPages))

	fmt.Printf("→ Opening %s... ", cfg.URL)
	browser, err := crawler.Open(ctx, cfg.URL, cfg.Browser(log.Named("crawler")))
	if err != nil {
		fmt.Println("failed")
		a.diagnose(browser)
		browser.Close()
		return err
	}
	defer browser.Close()
	fmt.Println("done")

	if cfg.Verbose {
		if info, err := browser.Inspect(ctx, storyCfg.Selectors); err != nil {
			log.Debug("page inspection failed", zap.Error(err))
		} else {
			log.Debug("page structure",
				zap.String("title", info.Title),
				zap.Int("spreads", info.Spreads),
				zap.Int("hidden_spreads", info.HiddenSpreads),
				zap.Int("story_texts", info.StoryTexts),
				zap.Strings("samples", info.Samples),
				zap.Bool("storybook", info.Storybook),
				zap.Bool("shadow_root", info.ShadowRoot))
		}
	}

	opts := []story.Option{
		story.WithLogger(log.Named("walker")),
		story.WithObserver(progress(cfg.DumpDir, log)),
	}
	if cfg.Capture {
		opts = append(opts, story.WithCapturer(browser.Capturer(filepath.Join(cfg.OutDir, "images"), cfg.CaptureMaxWidth)))
	}

	fmt.Println("→ Reading pages...")
	s, err := story.NewWalker(storyCfg, opts...).Walk(ctx, browser.Document(ctx))
	if err != nil {
		a.diagnose(browser)
		return err
	}

	out := filepath.Join(cfg.OutDir, "story.json")
	if err := story.WriteFile(out, s); err != nil {
		return fmt.Errorf("write story: %w", err)
	}
	fmt.Printf("✓ Saved %d pages to %s\n", len(s.Pages), out)

	if cfg.Flipbook {
		return a.renderFlipbook(s, "", filepath.Join(cfg.OutDir, "story.gif"), gifgen.Options{MaxWidth: cfg.CaptureMaxWidth, Progress: true})
	}
	return nil
}

// diagnose saves a full-page screenshot next to story.json. Best effort.
func (a *app) diagnose(b *crawler.Browser) {
	path := filepath.Join(a.cfg.OutDir, "navigation-error.png")
	if err := b.CaptureDiagnostic(path); err != nil {
		a.log.Debug("diagnostic capture failed", zap.Error(err))
		return
	}
	fmt.Fprintf(os.Stderr, "  diagnostic screenshot: %s\n", path)
}

func (a *app) renderFlipbook(s *story.Story, base, out string, opts gifgen.Options) error {
	fmt.Printf("→ Rendering flip-book... ")
	size, err := gifgen.FromStory(s, base, out, opts)
	if errors.Is(err, gifgen.ErrNoFrames) {
		fmt.Println("skipped (no captured pages)")
		return nil
	}
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("flip-book failed: %w", err)
	}
	fmt.Printf("done\n✓ Saved to %s (%.1f KB)\n", out, float64(size)/1024)
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/v0xg/storygrab/internal/crawler"
	"github.com/v0xg/storygrab/internal/narrate"
	"github.com/v0xg/storygrab/internal/story"
)

// ErrNoTarget is returned when no story URL was given on the command line,
// in the environment or in the config file.
var ErrNoTarget = errors.New("no story URL: pass --url, a positional URL, or set STORYGRAB_URL")

// EnvPrefix prefixes every environment override, e.g. STORYGRAB_MAX_PAGES.
const EnvPrefix = "STORYGRAB"

// KeyAnnotation on a flag names the config key it binds to when the key
// cannot be derived from the flag name.
const KeyAnnotation = "storygrab_config_key"

// Config is the resolved storygrab configuration.
type Config struct {
	URL    string `mapstructure:"url"`
	OutDir string `mapstructure:"out_dir"`

	NavTimeout    time.Duration `mapstructure:"nav_timeout"`
	PostLoadWait  time.Duration `mapstructure:"post_load_wait"`
	SettleTimeout time.Duration `mapstructure:"settle_timeout"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	ClickDelay    time.Duration `mapstructure:"click_delay"`
	MaxPages      int           `mapstructure:"max_pages"`
	MinTextLength int           `mapstructure:"min_text_length"`
	Selectors     string        `mapstructure:"selectors"` // YAML profile path

	Verbose bool   `mapstructure:"verbose"`
	LogFile string `mapstructure:"log_file"`
	DumpDir string `mapstructure:"dump_dir"`

	Capture         bool `mapstructure:"capture"`
	CaptureMaxWidth uint `mapstructure:"capture_max_width"`
	Flipbook        bool `mapstructure:"flipbook"`

	Headless   bool   `mapstructure:"headless"`
	ProfileDir string `mapstructure:"profile_dir"`
	RemoteURL  string `mapstructure:"remote_url"`
	Width      int    `mapstructure:"width"`
	Height     int    `mapstructure:"height"`

	Narrate NarrateConfig `mapstructure:"narrate"`
}

// NarrateConfig configures speech synthesis for the narrate command.
type NarrateConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Voice       string  `mapstructure:"voice"`
	Format      string  `mapstructure:"format"`
	Speed       float64 `mapstructure:"speed"`
	Concurrency int     `mapstructure:"concurrency"`
	Rate        float64 `mapstructure:"rate"` // requests per second, 0 for unlimited
	OutDir      string  `mapstructure:"out_dir"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	def := story.DefaultConfig()

	v.SetDefault("url", "")
	v.SetDefault("out_dir", "data")

	v.SetDefault("nav_timeout", "90s")
	v.SetDefault("post_load_wait", "5s")
	v.SetDefault("settle_timeout", def.SettleTimeout.String())
	v.SetDefault("poll_interval", def.PollInterval.String())
	v.SetDefault("click_delay", def.ClickDelay.String())
	v.SetDefault("max_pages", def.MaxPages)
	v.SetDefault("min_text_length", def.MinTextLength)
	v.SetDefault("selectors", "")

	v.SetDefault("verbose", false)
	v.SetDefault("log_file", "")
	v.SetDefault("dump_dir", "")

	v.SetDefault("capture", false)
	v.SetDefault("capture_max_width", 0)
	v.SetDefault("flipbook", false)

	v.SetDefault("headless", true)
	v.SetDefault("profile_dir", "")
	v.SetDefault("remote_url", "")
	v.SetDefault("width", 1280)
	v.SetDefault("height", 900)

	v.SetDefault("narrate.api_key", "")
	v.SetDefault("narrate.base_url", "")
	v.SetDefault("narrate.model", narrate.DefaultModel)
	v.SetDefault("narrate.voice", narrate.DefaultVoice)
	v.SetDefault("narrate.format", narrate.DefaultFormat)
	v.SetDefault("narrate.speed", 1.0)
	v.SetDefault("narrate.concurrency", 2)
	v.SetDefault("narrate.rate", 1.0)
	v.SetDefault("narrate.out_dir", "audio")
}

// Init wires environment overrides and reads the config file into v. An
// empty file means ./storygrab.yaml, which may be absent.
func Init(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("storygrab")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// BindFlags binds every flag in fs to the key of the same name, with dashes
// turned into underscores (--out-dir sets out_dir), unless the flag carries
// a KeyAnnotation.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Name == "config" || f.Name == "help" {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if k := f.Annotations[KeyAnnotation]; len(k) > 0 {
			key = k[0]
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("bind flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

// New unmarshals and validates the configuration held by v.
func New(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges. The URL is checked by ResolveTarget.
func (c *Config) Validate() error {
	switch {
	case c.OutDir == "":
		return errors.New("out_dir must not be empty")
	case c.MaxPages <= 0:
		return fmt.Errorf("max_pages must be positive, got %d", c.MaxPages)
	case c.MinTextLength < 0:
		return fmt.Errorf("min_text_length must not be negative, got %d", c.MinTextLength)
	case c.PollInterval <= 0:
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	case c.NavTimeout <= 0:
		return fmt.Errorf("nav_timeout must be positive, got %s", c.NavTimeout)
	case c.SettleTimeout < 0 || c.ClickDelay < 0 || c.PostLoadWait < 0:
		return errors.New("durations must not be negative")
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Width, c.Height)
	case c.Narrate.Concurrency <= 0:
		return fmt.Errorf("narrate.concurrency must be positive, got %d", c.Narrate.Concurrency)
	case c.Narrate.Rate < 0:
		return fmt.Errorf("narrate.rate must not be negative, got %g", c.Narrate.Rate)
	}
	return nil
}

// ResolveTarget settles the story URL. An explicit --url wins, then the
// first positional argument, then whatever the environment or config file
// supplied.
func (c *Config) ResolveTarget(urlFlagSet bool, args []string) error {
	if !urlFlagSet && len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		c.URL = args[0]
	}
	c.URL = strings.TrimSpace(c.URL)
	if c.URL == "" {
		return ErrNoTarget
	}
	return nil
}

// Story builds the walk policy, loading the selector profile if one is set.
func (c *Config) Story() (story.Config, error) {
	cfg := story.DefaultConfig()
	cfg.MinTextLength = c.MinTextLength
	cfg.MaxPages = c.MaxPages
	cfg.SettleTimeout = c.SettleTimeout
	cfg.PollInterval = c.PollInterval
	cfg.ClickDelay = c.ClickDelay

	if c.Selectors != "" {
		sel, err := story.LoadSelectors(c.Selectors)
		if err != nil {
			return story.Config{}, err
		}
		cfg.Selectors = sel
	}
	if err := cfg.Validate(); err != nil {
		return story.Config{}, err
	}
	return cfg, nil
}

// Browser returns the crawler options for a live session.
func (c *Config) Browser(log *zap.Logger) crawler.Options {
	return crawler.Options{
		Width:        c.Width,
		Height:       c.Height,
		NavTimeout:   c.NavTimeout,
		PostLoadWait: c.PostLoadWait,
		Headless:     c.Headless,
		ProfileDir:   c.ProfileDir,
		RemoteURL:    c.RemoteURL,
		Logger:       log,
	}
}

// Narration returns the synthesis and scheduling options.
func (c *Config) Narration(log *zap.Logger) (narrate.OpenAIOptions, narrate.Options) {
	synth := narrate.OpenAIOptions{
		APIKey:  c.Narrate.APIKey,
		BaseURL: c.Narrate.BaseURL,
		Model:   c.Narrate.Model,
		Voice:   c.Narrate.Voice,
		Format:  c.Narrate.Format,
		Speed:   c.Narrate.Speed,
	}
	opts := narrate.Options{
		OutDir:      c.Narrate.OutDir,
		Concurrency: c.Narrate.Concurrency,
		Rate:        c.Narrate.Rate,
		Logger:      log,
	}
	return synth, opts
}

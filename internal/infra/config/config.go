package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"tusky-uploader/internal/common"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config -
type Config struct {
	API         APIConfig         `mapstructure:"api"`
	Image       ImageConfig       `mapstructure:"image"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Proxy       ProxyConfig       `mapstructure:"proxy"`
	Run         RunConfig         `mapstructure:"run"`
	Delay       DelayConfig       `mapstructure:"delay"`
	Cycle       CycleConfig       `mapstructure:"cycle"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Log         LogConfig         `mapstructure:"log"`
}

// APIConfig - Tusky API
type APIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst       int           `mapstructure:"rate_burst"`
	MaxResponseSize int64         `mapstructure:"max_response_size"`
}

type ImageConfig struct {
	URL           string `mapstructure:"url"`
	FallbackLocal bool   `mapstructure:"fallback_local"` // render locally when the download fails
	Retries       int    `mapstructure:"retries"`        // extra attempts on 429/5xx, 0 = none
}

type CredentialsConfig struct {
	Mode     string `mapstructure:"mode"` // auto, token or seed
	SeedFile string `mapstructure:"seed_file"`
}

type ProxyConfig struct {
	File string `mapstructure:"file"`
}

type RunConfig struct {
	Uploads int    `mapstructure:"uploads"` // 0 = ask on stdin
	Repeat  string `mapstructure:"repeat"`  // auto, always or never
}

type DelayConfig struct {
	MinMs int `mapstructure:"min_ms"`
	MaxMs int `mapstructure:"max_ms"`
}

func (d DelayConfig) Min() time.Duration { return time.Duration(d.MinMs) * time.Millisecond }
func (d DelayConfig) Max() time.Duration { return time.Duration(d.MaxMs) * time.Millisecond }

type CycleConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// TelegramConfig - optional cycle reports; empty token disables them
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

type LogConfig struct {
	Dir string `mapstructure:"dir"`
}

// Options locate the config sources.
type Options struct {
	// Dir holds config.yaml and .env. Defaults to the working directory.
	Dir string
	// Flags are bound on top of every other source. Flag names match config keys
	// or one of the short aliases in flagAliases.
	Flags *pflag.FlagSet
}

var flagAliases = map[string]string{
	"uploads":    "run.uploads",
	"mode":       "credentials.mode",
	"repeat":     "run.repeat",
	"config-dir": "",
}

// Load reads config in order of increasing priority:
// 1. defaults
// 2. config.yaml
// 3. .env file and process env
// 4. flags
func Load(opts Options) (*Config, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	// .env goes into the process env so token_N lookups see it too
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: failed to read config.yaml: %w", common.ErrConfig, err)
		}
	}

	v.SetEnvPrefix("TUSKY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setupEnvAliases(v)

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to decode config: %w", common.ErrConfig, err)
	}
	cfg.Credentials.Mode = strings.ToLower(strings.TrimSpace(cfg.Credentials.Mode))
	cfg.Run.Repeat = strings.ToLower(strings.TrimSpace(cfg.Run.Repeat))

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setupEnvAliases binds the unprefixed names used in .env files.
func setupEnvAliases(v *viper.Viper) {
	v.BindEnv("api.base_url", "TUSKY_API_BASE_URL", "API_URL")
	v.BindEnv("image.url", "TUSKY_IMAGE_URL", "IMAGE_URL")
	v.BindEnv("credentials.mode", "TUSKY_CREDENTIALS_MODE")
	v.BindEnv("credentials.seed_file", "TUSKY_CREDENTIALS_SEED_FILE", "SEED_FILE")
	v.BindEnv("proxy.file", "TUSKY_PROXY_FILE", "PROXY_FILE")
	v.BindEnv("run.uploads", "TUSKY_RUN_UPLOADS")
	v.BindEnv("telegram.bot_token", "TUSKY_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", "TUSKY_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")
}

// setDefaults by default
func setDefaults(v *viper.Viper) {
	// API
	v.SetDefault("api.base_url", "https://dev-api.tusky.io")
	v.SetDefault("api.request_timeout", 30*time.Second)
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.rate_burst", 20)
	v.SetDefault("api.max_response_size", 10*1024*1024) // 10MB

	// Image
	v.SetDefault("image.url", "https://picsum.photos/800/600")
	v.SetDefault("image.fallback_local", false)
	v.SetDefault("image.retries", 0)

	// Credentials
	v.SetDefault("credentials.mode", "auto")
	v.SetDefault("credentials.seed_file", "seed.txt")

	v.SetDefault("proxy.file", "proxies.txt")

	// Run
	v.SetDefault("run.uploads", 0)
	v.SetDefault("run.repeat", "auto")
	v.SetDefault("delay.min_ms", 20000)
	v.SetDefault("delay.max_ms", 35000)
	v.SetDefault("cycle.interval", 24*time.Hour)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)

	v.SetDefault("log.dir", "logs")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key := f.Name
		if alias, ok := flagAliases[f.Name]; ok {
			key = alias
		}
		if key == "" || bindErr != nil {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}

func validateConfig(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", common.ErrConfig)
	}
	if cfg.API.RequestTimeout <= 0 {
		return fmt.Errorf("%w: api.request_timeout must be positive", common.ErrConfig)
	}
	if cfg.API.MaxResponseSize <= 0 {
		return fmt.Errorf("%w: api.max_response_size must be positive", common.ErrConfig)
	}
	if cfg.Image.Retries < 0 {
		return fmt.Errorf("%w: image.retries must not be negative", common.ErrConfig)
	}
	if cfg.Run.Uploads < 0 {
		return fmt.Errorf("%w: run.uploads must not be negative", common.ErrConfig)
	}
	if cfg.Delay.MinMs < 0 || cfg.Delay.MaxMs < cfg.Delay.MinMs {
		return fmt.Errorf("%w: delay window [%d, %d) ms is invalid", common.ErrConfig, cfg.Delay.MinMs, cfg.Delay.MaxMs)
	}
	if cfg.Cycle.Interval <= 0 {
		return fmt.Errorf("%w: cycle.interval must be positive", common.ErrConfig)
	}
	if !slices.Contains([]string{"auto", "token", "seed"}, cfg.Credentials.Mode) {
		return fmt.Errorf("%w: credentials.mode must be auto, token or seed, got %q", common.ErrConfig, cfg.Credentials.Mode)
	}
	if !slices.Contains([]string{"auto", "always", "never"}, cfg.Run.Repeat) {
		return fmt.Errorf("%w: run.repeat must be auto, always or never, got %q", common.ErrConfig, cfg.Run.Repeat)
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID == 0 {
		return fmt.Errorf("%w: telegram.chat_id is required when telegram.bot_token is set", common.ErrConfig)
	}
	return nil
}

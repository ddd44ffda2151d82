// Package config loads and validates the bot configuration from a YAML
// file, a local .env file, and DEEPBOT_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Mboum     MboumConfig     `mapstructure:"mboum"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Market    MarketConfig    `mapstructure:"market"`
	Rules     RulesConfig     `mapstructure:"rules"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// MboumConfig holds Mboum API configuration.
type MboumConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	TopMoversLimit int           `mapstructure:"top_movers_limit"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// MarketConfig holds the market-hours clock configuration.
type MarketConfig struct {
	Timezone  string `mapstructure:"timezone"`
	OpenHour  int    `mapstructure:"open_hour"`
	CloseHour int    `mapstructure:"close_hour"`
}

// RulesConfig holds all alert rule thresholds.
type RulesConfig struct {
	MinPercentMove     float64       `mapstructure:"min_percent_move"`
	ExactBidPrice      float64       `mapstructure:"exact_bid_price"`
	ExactBidSize       int64         `mapstructure:"exact_bid_size"`
	HighValueBidPrice  float64       `mapstructure:"high_value_bid_price"`
	HighValueBidSize   int64         `mapstructure:"high_value_bid_size"`
	InsiderShareFloor  int64         `mapstructure:"insider_share_floor"`
	OptionRatioFloor   float64       `mapstructure:"option_ratio_floor"`
	OptionVolumeFloor  int64         `mapstructure:"option_volume_floor"`
	BaselineWindow     int           `mapstructure:"baseline_window"`
	BaselineMinSamples int           `mapstructure:"baseline_min_samples"`
	Cooldown           time.Duration `mapstructure:"cooldown"`
	SummaryTopK        int           `mapstructure:"summary_top_k"`
}

// SchedulerConfig holds the per-task scan intervals.
type SchedulerConfig struct {
	Tick              time.Duration `mapstructure:"tick"`
	PrimaryInterval   time.Duration `mapstructure:"primary_interval"`
	OptionsInterval   time.Duration `mapstructure:"options_interval"`
	WatchlistInterval time.Duration `mapstructure:"watchlist_interval"`
	SummaryInterval   time.Duration `mapstructure:"summary_interval"`
	ClockInterval     time.Duration `mapstructure:"clock_interval"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	StateTTL          time.Duration `mapstructure:"state_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file, a .env file if present,
// and environment variables. Environment variables take precedence over
// the file; e.g. DEEPBOT_MBOUM_API_KEY overrides mboum.api_key.
func Load(path string) (*Config, error) {
	// Best effort; credentials usually arrive via real env vars in deployment
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("DEEPBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all optional settings.
func setDefaults(v *viper.Viper) {
	// Mboum defaults
	v.SetDefault("mboum.base_url", "https://api.mboum.com")
	v.SetDefault("mboum.timeout", "10s")
	v.SetDefault("mboum.max_retries", 3)
	v.SetDefault("mboum.retry_delay_base", "1s")
	v.SetDefault("mboum.top_movers_limit", 5)

	// Telegram defaults
	v.SetDefault("telegram.enabled", true)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Market clock defaults: 6 AM - 6 PM Eastern, Mon-Fri
	v.SetDefault("market.timezone", "America/New_York")
	v.SetDefault("market.open_hour", 6)
	v.SetDefault("market.close_hour", 18)

	// Rule thresholds
	v.SetDefault("rules.min_percent_move", 5.0)
	v.SetDefault("rules.exact_bid_price", 199999.0)
	v.SetDefault("rules.exact_bid_size", 100)
	v.SetDefault("rules.high_value_bid_price", 2000.0)
	v.SetDefault("rules.high_value_bid_size", 20)
	v.SetDefault("rules.insider_share_floor", 10000)
	v.SetDefault("rules.option_ratio_floor", 5.0)
	v.SetDefault("rules.option_volume_floor", 5000)
	v.SetDefault("rules.baseline_window", 30)
	v.SetDefault("rules.baseline_min_samples", 5)
	v.SetDefault("rules.cooldown", "300s")
	v.SetDefault("rules.summary_top_k", 5)

	// Scheduler intervals
	v.SetDefault("scheduler.tick", "1s")
	v.SetDefault("scheduler.primary_interval", "30s")
	v.SetDefault("scheduler.options_interval", "180s")
	v.SetDefault("scheduler.watchlist_interval", "30s")
	v.SetDefault("scheduler.summary_interval", "300s")
	v.SetDefault("scheduler.clock_interval", "60s")
	v.SetDefault("scheduler.heartbeat_interval", "300s")
	v.SetDefault("scheduler.state_ttl", "24h")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid. A missing
// required credential is a startup failure.
func (c *Config) Validate() error {
	if c.Mboum.APIKey == "" {
		return fmt.Errorf("mboum.api_key is required (set DEEPBOT_MBOUM_API_KEY)")
	}
	if c.Mboum.BaseURL == "" {
		return fmt.Errorf("mboum.base_url is required")
	}
	if c.Mboum.Timeout < time.Second {
		return fmt.Errorf("mboum.timeout must be at least 1 second")
	}
	if c.Mboum.TopMoversLimit < 1 || c.Mboum.TopMoversLimit > 100 {
		return fmt.Errorf("mboum.top_movers_limit must be between 1 and 100")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled (set DEEPBOT_TELEGRAM_BOT_TOKEN)")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled (set DEEPBOT_TELEGRAM_CHAT_ID)")
		}
	}

	if c.Market.Timezone == "" {
		return fmt.Errorf("market.timezone is required")
	}
	if c.Market.OpenHour < 0 || c.Market.OpenHour > 23 {
		return fmt.Errorf("market.open_hour must be between 0 and 23")
	}
	if c.Market.CloseHour < 1 || c.Market.CloseHour > 24 {
		return fmt.Errorf("market.close_hour must be between 1 and 24")
	}
	if c.Market.OpenHour >= c.Market.CloseHour {
		return fmt.Errorf("market.open_hour must be before market.close_hour")
	}

	if c.Rules.MinPercentMove < 0 {
		return fmt.Errorf("rules.min_percent_move must not be negative")
	}
	if c.Rules.ExactBidPrice <= 0 || c.Rules.ExactBidSize <= 0 {
		return fmt.Errorf("rules.exact_bid_price and rules.exact_bid_size must be positive")
	}
	if c.Rules.HighValueBidPrice <= 0 || c.Rules.HighValueBidSize <= 0 {
		return fmt.Errorf("rules.high_value_bid_price and rules.high_value_bid_size must be positive")
	}
	if c.Rules.InsiderShareFloor < 1 {
		return fmt.Errorf("rules.insider_share_floor must be at least 1")
	}
	if c.Rules.OptionRatioFloor <= 0 {
		return fmt.Errorf("rules.option_ratio_floor must be positive")
	}
	if c.Rules.OptionVolumeFloor < 1 {
		return fmt.Errorf("rules.option_volume_floor must be at least 1")
	}
	if c.Rules.BaselineWindow < 2 {
		return fmt.Errorf("rules.baseline_window must be at least 2")
	}
	if c.Rules.BaselineMinSamples < 1 || c.Rules.BaselineMinSamples > c.Rules.BaselineWindow {
		return fmt.Errorf("rules.baseline_min_samples must be between 1 and rules.baseline_window")
	}
	if c.Rules.Cooldown < time.Second {
		return fmt.Errorf("rules.cooldown must be at least 1 second")
	}
	if c.Rules.SummaryTopK < 1 {
		return fmt.Errorf("rules.summary_top_k must be at least 1")
	}

	if c.Scheduler.Tick < time.Second {
		return fmt.Errorf("scheduler.tick must be at least 1 second")
	}
	for name, d := range map[string]time.Duration{
		"scheduler.primary_interval":   c.Scheduler.PrimaryInterval,
		"scheduler.options_interval":   c.Scheduler.OptionsInterval,
		"scheduler.watchlist_interval": c.Scheduler.WatchlistInterval,
		"scheduler.summary_interval":   c.Scheduler.SummaryInterval,
		"scheduler.clock_interval":     c.Scheduler.ClockInterval,
		"scheduler.heartbeat_interval": c.Scheduler.HeartbeatInterval,
	} {
		if d < time.Second {
			return fmt.Errorf("%s must be at least 1 second", name)
		}
	}
	if c.Scheduler.StateTTL < time.Minute {
		return fmt.Errorf("scheduler.state_ttl must be at least 1 minute")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// MaskedAPIKey returns the Mboum API key with most characters hidden for
// logging.
func (c *Config) MaskedAPIKey() string {
	return maskSecret(c.Mboum.APIKey)
}

func maskSecret(s string) string {
	if len(s) == 0 {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

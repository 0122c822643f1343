// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Humanoid() HumanoidConfig
	Classifier() ClassifierConfig
	Fill() FillConfig
	Lifecycle() LifecycleConfig
	SubmitWatch() SubmitWatchConfig
	Backend() BackendConfig
	History() HistoryConfig
	Profile() ProfileConfig

	// Pipeline Setters
	SetFillAutoSubmit(bool)
	SetFillSmartFill(bool)
	SetBrowserHeadless(bool)
	SetProfilePath(string)
}

// Config holds the entire application configuration. Access goes through
// the Interface getters so components can be handed a narrow view.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	BrowserCfg     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	HumanoidCfg    HumanoidConfig    `mapstructure:"humanoid" yaml:"humanoid"`
	ClassifierCfg  ClassifierConfig  `mapstructure:"classifier" yaml:"classifier"`
	FillCfg        FillConfig        `mapstructure:"fill" yaml:"fill"`
	LifecycleCfg   LifecycleConfig   `mapstructure:"lifecycle" yaml:"lifecycle"`
	SubmitWatchCfg SubmitWatchConfig `mapstructure:"submitwatch" yaml:"submitwatch"`
	BackendCfg     BackendConfig     `mapstructure:"backend" yaml:"backend"`
	HistoryCfg     HistoryConfig     `mapstructure:"history" yaml:"history"`
	ProfileCfg     ProfileConfig     `mapstructure:"profile" yaml:"profile"`
}

// -- Interface Method Implementations (Getters) --

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig         { return c.BrowserCfg }
func (c *Config) Humanoid() HumanoidConfig       { return c.HumanoidCfg }
func (c *Config) Classifier() ClassifierConfig   { return c.ClassifierCfg }
func (c *Config) Fill() FillConfig               { return c.FillCfg }
func (c *Config) Lifecycle() LifecycleConfig     { return c.LifecycleCfg }
func (c *Config) SubmitWatch() SubmitWatchConfig { return c.SubmitWatchCfg }
func (c *Config) Backend() BackendConfig         { return c.BackendCfg }
func (c *Config) History() HistoryConfig         { return c.HistoryCfg }
func (c *Config) Profile() ProfileConfig         { return c.ProfileCfg }

// -- Interface Method Implementations (Setters) --

func (c *Config) SetFillAutoSubmit(b bool)  { c.FillCfg.AutoSubmit = b }
func (c *Config) SetFillSmartFill(b bool)   { c.FillCfg.SmartFill = b }
func (c *Config) SetBrowserHeadless(b bool) { c.BrowserCfg.Headless = b }
func (c *Config) SetProfilePath(p string)   { c.ProfileCfg.Path = p }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the driven browser instance.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	AttachURL         string        `mapstructure:"attach_url" yaml:"attach_url"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// HumanoidConfig tunes the human-cadence typing simulation.
type HumanoidConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Inter-key delay (IKD) model, milliseconds.
	KeyPauseMeanMs   float64 `mapstructure:"key_pause_mean_ms" yaml:"key_pause_mean_ms"`
	KeyPauseStdDevMs float64 `mapstructure:"key_pause_stddev_ms" yaml:"key_pause_stddev_ms"`
	KeyPauseMinMs    float64 `mapstructure:"key_pause_min_ms" yaml:"key_pause_min_ms"`

	// Key dwell time, milliseconds.
	KeyHoldMeanMs   float64 `mapstructure:"key_hold_mean_ms" yaml:"key_hold_mean_ms"`
	KeyHoldStdDevMs float64 `mapstructure:"key_hold_stddev_ms" yaml:"key_hold_stddev_ms"`

	// Cognitive pause before the first keystroke of a field.
	FocusPauseMeanMs   float64 `mapstructure:"focus_pause_mean_ms" yaml:"focus_pause_mean_ms"`
	FocusPauseStdDevMs float64 `mapstructure:"focus_pause_stddev_ms" yaml:"focus_pause_stddev_ms"`

	// Fatigue drift over a long session.
	FatigueIncreaseRate float64 `mapstructure:"fatigue_increase_rate" yaml:"fatigue_increase_rate"`
	FatigueRecoveryRate float64 `mapstructure:"fatigue_recovery_rate" yaml:"fatigue_recovery_rate"`
}

// ClassifierConfig exposes the confidence model as tunables rather than
// hard-coded constants.
type ClassifierConfig struct {
	MinConfidence     int `mapstructure:"min_confidence" yaml:"min_confidence"`
	OverrideBonus     int `mapstructure:"override_bonus" yaml:"override_bonus"`
	PatternBonus      int `mapstructure:"pattern_bonus" yaml:"pattern_bonus"`
	TypeBonus         int `mapstructure:"type_bonus" yaml:"type_bonus"`
	RequiredBonus     int `mapstructure:"required_bonus" yaml:"required_bonus"`
}

// FillConfig governs pacing and re-invocation bounds of the orchestrator.
type FillConfig struct {
	SmartFill  bool `mapstructure:"smart_fill" yaml:"smart_fill"`
	AutoSubmit bool `mapstructure:"auto_submit" yaml:"auto_submit"`

	InterFieldDelayMinMs int           `mapstructure:"inter_field_delay_min_ms" yaml:"inter_field_delay_min_ms"`
	InterFieldDelayMaxMs int           `mapstructure:"inter_field_delay_max_ms" yaml:"inter_field_delay_max_ms"`
	InterFormDelayMs     int           `mapstructure:"inter_form_delay_ms" yaml:"inter_form_delay_ms"`
	MaxAttemptsPerPage   int           `mapstructure:"max_attempts_per_page" yaml:"max_attempts_per_page"`
	AttemptCooldown      time.Duration `mapstructure:"attempt_cooldown" yaml:"attempt_cooldown"`
	FuzzyMatchThreshold  float64       `mapstructure:"fuzzy_match_threshold" yaml:"fuzzy_match_threshold"`
}

// LifecycleConfig bounds the page monitor's reactivity.
type LifecycleConfig struct {
	MutationDebounce  time.Duration `mapstructure:"mutation_debounce" yaml:"mutation_debounce"`
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval" yaml:"reconcile_interval"`
}

// SubmitWatchConfig tunes the submission detector.
type SubmitWatchConfig struct {
	// ConfirmationWindow is how long after arming both confirmation
	// signals may arrive. Empirically ~30s on major ATS platforms; a
	// tunable, not a contract.
	ConfirmationWindow time.Duration `mapstructure:"confirmation_window" yaml:"confirmation_window"`
}

// BackendConfig points at the platform API used for the messaging
// contract (profile fetch, tracking, job analysis, cover letters).
type BackendConfig struct {
	APIURL  string        `mapstructure:"api_url" yaml:"api_url"`
	Token   string        `mapstructure:"token" yaml:"-"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// HistoryConfig configures the optional local application ledger.
type HistoryConfig struct {
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url"`
}

// ProfileConfig locates a local profile file used when the backend is
// unreachable or unconfigured.
type ProfileConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with our own defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "applypilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.attach_url", "")
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.post_load_wait", "2s")

	// -- Humanoid --
	v.SetDefault("humanoid.enabled", true)
	v.SetDefault("humanoid.key_pause_mean_ms", 70.0)
	v.SetDefault("humanoid.key_pause_stddev_ms", 28.0)
	v.SetDefault("humanoid.key_pause_min_ms", 25.0)
	v.SetDefault("humanoid.key_hold_mean_ms", 55.0)
	v.SetDefault("humanoid.key_hold_stddev_ms", 15.0)
	v.SetDefault("humanoid.focus_pause_mean_ms", 200.0)
	v.SetDefault("humanoid.focus_pause_stddev_ms", 80.0)
	v.SetDefault("humanoid.fatigue_increase_rate", 0.005)
	v.SetDefault("humanoid.fatigue_recovery_rate", 0.01)

	// -- Classifier --
	v.SetDefault("classifier.min_confidence", 30)
	v.SetDefault("classifier.override_bonus", 60)
	v.SetDefault("classifier.pattern_bonus", 30)
	v.SetDefault("classifier.type_bonus", 10)
	v.SetDefault("classifier.required_bonus", 5)

	// -- Fill --
	v.SetDefault("fill.smart_fill", true)
	v.SetDefault("fill.auto_submit", false)
	v.SetDefault("fill.inter_field_delay_min_ms", 150)
	v.SetDefault("fill.inter_field_delay_max_ms", 450)
	v.SetDefault("fill.inter_form_delay_ms", 1200)
	v.SetDefault("fill.max_attempts_per_page", 2)
	v.SetDefault("fill.attempt_cooldown", "30s")
	v.SetDefault("fill.fuzzy_match_threshold", 0.7)

	// -- Lifecycle --
	v.SetDefault("lifecycle.mutation_debounce", "500ms")
	v.SetDefault("lifecycle.reconcile_interval", "5s")

	// -- SubmitWatch --
	v.SetDefault("submitwatch.confirmation_window", "30s")

	// -- Backend --
	v.SetDefault("backend.api_url", "")
	v.SetDefault("backend.timeout", "30s")

	// -- History --
	v.SetDefault("history.database_url", "")

	// -- Profile --
	v.SetDefault("profile.path", "")
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.BindEnv("backend.token", "APPLYPILOT_API_TOKEN")
	v.BindEnv("history.database_url", "APPLYPILOT_DATABASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.ClassifierCfg.MinConfidence < 0 || c.ClassifierCfg.MinConfidence > 100 {
		return fmt.Errorf("classifier.min_confidence must be between 0 and 100")
	}
	if c.FillCfg.MaxAttemptsPerPage <= 0 {
		return fmt.Errorf("fill.max_attempts_per_page must be a positive integer")
	}
	if c.FillCfg.InterFieldDelayMaxMs < c.FillCfg.InterFieldDelayMinMs {
		return fmt.Errorf("fill.inter_field_delay_max_ms must be >= inter_field_delay_min_ms")
	}
	if c.FillCfg.FuzzyMatchThreshold <= 0 || c.FillCfg.FuzzyMatchThreshold > 1 {
		return fmt.Errorf("fill.fuzzy_match_threshold must be in (0, 1]")
	}
	if c.SubmitWatchCfg.ConfirmationWindow <= 0 {
		return fmt.Errorf("submitwatch.confirmation_window must be a positive duration")
	}
	if c.BackendCfg.APIURL != "" && !strings.HasPrefix(c.BackendCfg.APIURL, "http") {
		return fmt.Errorf("backend.api_url must be an http(s) URL")
	}
	return nil
}

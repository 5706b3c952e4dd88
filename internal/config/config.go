// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Survey    SurveyConfig    `mapstructure:"survey" yaml:"survey"`
	LLM       LLMConfig       `mapstructure:"llm" yaml:"llm"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
}

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

// BrowserConfig holds settings for the automated browser instance.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	FindTimeout       time.Duration `mapstructure:"find_timeout" yaml:"find_timeout"`
}

// SurveyConfig describes the target page: where it lives and how to find the
// question, its options and the forward control in the markup.
type SurveyConfig struct {
	URL              string        `mapstructure:"url" yaml:"url"`
	QuestionSelector string        `mapstructure:"question_selector" yaml:"question_selector"`
	OptionSelector   string        `mapstructure:"option_selector" yaml:"option_selector"`
	NextButtonText   string        `mapstructure:"next_button_text" yaml:"next_button_text"`
	ScrollPixels     int           `mapstructure:"scroll_pixels" yaml:"scroll_pixels"`
	SettleWait       time.Duration `mapstructure:"settle_wait" yaml:"settle_wait"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderGemini LLMProvider = "gemini"
)

// LLMConfig defines the configuration for the decision model.
type LLMConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// ArtifactsConfig controls where run artifacts (screenshots, logs) are written.
type ArtifactsConfig struct {
	ScreenshotDir string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	LogDir        string `mapstructure:"log_dir" yaml:"log_dir"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "debug")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "survey-solver")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", false)

	// -- Browser --
	// The browser stays visible so a human can watch the run.
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.navigation_timeout", "45s")
	v.SetDefault("browser.find_timeout", "10s")

	// -- Survey --
	v.SetDefault("survey.url", "https://www.ihdresearch.com/?cid=ddaf9592-e094-48e5-921e-3832003ba9ca&language=en")
	v.SetDefault("survey.question_selector", "p.survey-question")
	v.SetDefault("survey.option_selector", "input[type='radio']")
	v.SetDefault("survey.next_button_text", "Next")
	v.SetDefault("survey.scroll_pixels", 300)
	v.SetDefault("survey.settle_wait", "2s")

	// -- LLM --
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.api_timeout", "90s")
	v.SetDefault("llm.temperature", 1.0)
	v.SetDefault("llm.max_tokens", 0)

	// -- Artifacts --
	v.SetDefault("artifacts.screenshot_dir", "screenshots")
	v.SetDefault("artifacts.log_dir", "logs")
}

// NewDefaultConfig creates a configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// The key env var is chosen by provider, so a stray OPENAI_API_KEY never
	// reaches the Gemini client when both are set.
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case ProviderGemini:
			cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		default:
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Survey.URL == "" {
		return fmt.Errorf("survey.url is a required configuration field")
	}
	if c.Survey.QuestionSelector == "" || c.Survey.OptionSelector == "" {
		return fmt.Errorf("survey.question_selector and survey.option_selector must not be empty")
	}
	if c.Browser.NavigationTimeout <= 0 || c.Browser.FindTimeout <= 0 {
		return fmt.Errorf("browser timeouts must be positive durations")
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the LLM settings. The API key is deliberately not checked
// here; its absence is a pre-flight failure handled before any browser work.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported llm provider %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("llm.api_timeout must be a positive duration")
	}
	return nil
}

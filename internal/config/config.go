// Load envs from .env
// Load YAML config
// Override with env vars, provide default values
// Validate config

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath   = "configs/config.yaml"
	DefaultRole         = "Software Engineer"
	DefaultMicrosoftURL = "https://apply.careers.microsoft.com/careers?query=Software+engineer&start=0&location=United+States&pid=1970393556752185&sort_by=timestamp&filter_include_remote=1"
	DefaultAmazonSort   = "recent"
	DefaultAmazonLimit  = 50
	DefaultStateBackend = "json"
	DefaultStatePath    = "data/known_jobs.json"
	DefaultSMTPHost     = "smtp.gmail.com"
	DefaultSMTPPort     = 587
	DefaultFetchTimeout = 90 * time.Second
	DefaultRunTimeout   = 10 * time.Minute
)

// Duration wraps time.Duration for YAML values like "90s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	//Role name filter, also the Amazon search query
	Role     string         `yaml:"role" env:"ROLE_FILTER"`
	Sources  SourcesConfig  `yaml:"sources"`
	State    StateConfig    `yaml:"state"`
	Email    EmailConfig    `yaml:"email"`
	Telegram TelegramConfig `yaml:"telegram"`
	//Limits
	FetchTimeout Duration `yaml:"fetch_timeout"`
	RunTimeout   Duration `yaml:"run_timeout"`
	//Optional directory for the per-day new postings log
	RunLogDir string `yaml:"run_log_dir"`
	//Optional directory for failure screenshots
	ScreenshotDir string `yaml:"screenshot_dir"`
	Headless      *bool  `yaml:"headless"`
}

type SourcesConfig struct {
	Microsoft MicrosoftConfig `yaml:"microsoft"`
	Amazon    AmazonConfig    `yaml:"amazon"`
}

type MicrosoftConfig struct {
	Enabled *bool  `yaml:"enabled"`
	URL     string `yaml:"url"`
}

type AmazonConfig struct {
	Enabled     *bool  `yaml:"enabled"`
	BaseQuery   string `yaml:"base_query" env:"AMAZON_BASE_QUERY"`
	Sort        string `yaml:"sort" env:"AMAZON_SORT"`
	Offset      int    `yaml:"offset" env:"AMAZON_OFFSET"`
	ResultLimit int    `yaml:"result_limit" env:"AMAZON_RESULT_LIMIT"`
}

type StateConfig struct {
	//json, sqlite or postgres
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path" env:"STATE_PATH"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
}

type EmailConfig struct {
	SMTPHost string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort int    `yaml:"smtp_port" env:"SMTP_PORT"`

	// Resolved from env vars only, never from the YAML file.
	Sender    string `yaml:"-" env:"EMAIL_ADDRESS"`
	Password  string `yaml:"-" env:"EMAIL_PASSWORD"`
	Recipient string `yaml:"-" env:"NOTIFY_EMAIL"`
}

type TelegramConfig struct {
	Token  string `yaml:"-" env:"TELEGRAM_BOT_TOKEN"`
	ChatID int64  `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

// Error is a configuration problem detected before any work starts.
type Error struct {
	Missing []string
	Invalid []string
}

func (e *Error) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required environment variables: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid values: "+strings.Join(e.Invalid, "; "))
	}
	return "config: " + strings.Join(parts, "; ")
}

// Enabled reports whether a source toggle is on; unset means on.
func Enabled(b *bool) bool {
	return b == nil || *b
}

// Load reads .env, the YAML file at path (a missing file only warns), env overrides,
// applies defaults and validates. A non-nil error is always a *Error or a YAML parse error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultConfigPath
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("⚠️ Could not read %s: %v. Using defaults.", path, err)
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfgErr := &Error{}
	applyEnv(cfg, cfgErr)
	applyDefaults(cfg)
	validate(cfg, cfgErr)

	if len(cfgErr.Missing) > 0 || len(cfgErr.Invalid) > 0 {
		return nil, cfgErr
	}
	return cfg, nil
}

func applyEnv(cfg *Config, cfgErr *Error) {
	setString := func(dst *string, name string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, name string) {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			cfgErr.Invalid = append(cfgErr.Invalid, fmt.Sprintf("%s=%q is not a number", name, v))
			return
		}
		*dst = n
	}

	setString(&cfg.Role, "ROLE_FILTER")
	setString(&cfg.Sources.Amazon.BaseQuery, "AMAZON_BASE_QUERY")
	setString(&cfg.Sources.Amazon.Sort, "AMAZON_SORT")
	setInt(&cfg.Sources.Amazon.Offset, "AMAZON_OFFSET")
	setInt(&cfg.Sources.Amazon.ResultLimit, "AMAZON_RESULT_LIMIT")
	setString(&cfg.State.Path, "STATE_PATH")
	setString(&cfg.State.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Email.SMTPHost, "SMTP_HOST")
	setInt(&cfg.Email.SMTPPort, "SMTP_PORT")
	setString(&cfg.Email.Sender, "EMAIL_ADDRESS")
	setString(&cfg.Email.Password, "EMAIL_PASSWORD")
	setString(&cfg.Email.Recipient, "NOTIFY_EMAIL")
	setString(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")

	if chatID := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			cfgErr.Invalid = append(cfgErr.Invalid, fmt.Sprintf("TELEGRAM_CHAT_ID=%q is not a number", chatID))
		} else {
			cfg.Telegram.ChatID = id
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Role == "" {
		cfg.Role = DefaultRole
	}
	if cfg.Sources.Microsoft.URL == "" {
		cfg.Sources.Microsoft.URL = DefaultMicrosoftURL
	}
	if cfg.Sources.Amazon.BaseQuery == "" {
		cfg.Sources.Amazon.BaseQuery = cfg.Role
	}
	if cfg.Sources.Amazon.Sort == "" {
		cfg.Sources.Amazon.Sort = DefaultAmazonSort
	}
	if cfg.Sources.Amazon.ResultLimit == 0 {
		cfg.Sources.Amazon.ResultLimit = DefaultAmazonLimit
	}
	if cfg.State.Backend == "" {
		cfg.State.Backend = DefaultStateBackend
	}
	if cfg.State.Path == "" {
		cfg.State.Path = DefaultStatePath
	}
	if cfg.Email.SMTPHost == "" {
		cfg.Email.SMTPHost = DefaultSMTPHost
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = DefaultSMTPPort
	}
	if cfg.FetchTimeout.Duration == 0 {
		cfg.FetchTimeout.Duration = DefaultFetchTimeout
	}
	if cfg.RunTimeout.Duration == 0 {
		cfg.RunTimeout.Duration = DefaultRunTimeout
	}
}

func validate(cfg *Config, cfgErr *Error) {
	//Validate required fields
	if cfg.Email.Sender == "" {
		cfgErr.Missing = append(cfgErr.Missing, "EMAIL_ADDRESS")
	}
	if cfg.Email.Password == "" {
		cfgErr.Missing = append(cfgErr.Missing, "EMAIL_PASSWORD")
	}
	if cfg.Email.Recipient == "" {
		cfgErr.Missing = append(cfgErr.Missing, "NOTIFY_EMAIL")
	}

	switch cfg.State.Backend {
	case "json", "sqlite":
	case "postgres":
		if cfg.State.DatabaseURL == "" {
			cfgErr.Missing = append(cfgErr.Missing, "DATABASE_URL")
		}
	default:
		cfgErr.Invalid = append(cfgErr.Invalid, fmt.Sprintf("state.backend: unknown backend %q (want json, sqlite or postgres)", cfg.State.Backend))
	}

	if !Enabled(cfg.Sources.Microsoft.Enabled) && !Enabled(cfg.Sources.Amazon.Enabled) {
		cfgErr.Invalid = append(cfgErr.Invalid, "sources: at least one source must be enabled")
	}
	if cfg.Sources.Amazon.Offset < 0 || cfg.Sources.Amazon.ResultLimit < 0 {
		cfgErr.Invalid = append(cfgErr.Invalid, "sources.amazon: offset and result_limit must be non-negative")
	}
	if cfg.Email.SMTPPort < 0 || cfg.Email.SMTPPort > 65535 {
		cfgErr.Invalid = append(cfgErr.Invalid, fmt.Sprintf("email.smtp_port: %d is out of range", cfg.Email.SMTPPort))
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID == 0 {
		cfgErr.Missing = append(cfgErr.Missing, "TELEGRAM_CHAT_ID")
	}
}

// IsHeadless defaults to true.
func (c *Config) IsHeadless() bool {
	return c.Headless == nil || *c.Headless
}

// TelegramEnabled is true when both bot token and chat are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.ChatID != 0
}

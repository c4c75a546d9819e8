package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

type Config struct {
	Environment    string   `mapstructure:"ENVIRONMENT"`
	Port           string   `mapstructure:"PORT"`
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`

	APIPasswordHash string `mapstructure:"API_PASSWORD_HASH"`
	JWTSecret       string `mapstructure:"JWT_SECRET"`

	BotToken              string   `mapstructure:"DISCORD_BOT_TOKEN"`
	GuildID               string   `mapstructure:"GUILD_ID"`
	NotificationChannelID string   `mapstructure:"NOTIFICATION_CHANNEL_ID"`
	DeveloperUserIDs      []string `mapstructure:"DEVELOPER_USER_IDS"`
	RemoveCommandsOnExit  bool     `mapstructure:"REMOVE_COMMANDS_ON_EXIT"`

	AternosUsername string        `mapstructure:"ATERNOS_USERNAME"`
	AternosPassword string        `mapstructure:"ATERNOS_PASSWORD"`
	PanelStaleAfter time.Duration `mapstructure:"PANEL_STALE_AFTER"`

	CheckIntervalMinutes int           `mapstructure:"CHECK_INTERVAL_MINUTES"`
	DailyReportSchedule  string        `mapstructure:"DAILY_REPORT_SCHEDULE"`
	InitialCheckDelay    time.Duration `mapstructure:"INITIAL_CHECK_DELAY"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogDir   string `mapstructure:"LOG_DIR"`
	Timezone string `mapstructure:"TIMEZONE"`

	ResearchURL        string `mapstructure:"RESEARCH_URL"`
	ResearchHeadless   bool   `mapstructure:"RESEARCH_HEADLESS"`
	ResearchScreenshot string `mapstructure:"RESEARCH_SCREENSHOT"`

	PostgresDSN       string        `mapstructure:"POSTGRES_DSN"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	DBLogMode         bool          `mapstructure:"DB_LOG_MODE"`
}

// defaults doubles as the list of keys viper resolves from the environment.
var defaults = map[string]any{
	"ENVIRONMENT":     "development",
	"PORT":            "4000",
	"ALLOWED_ORIGINS": []string{},

	"API_PASSWORD_HASH": "",
	"JWT_SECRET":        "",

	"DISCORD_BOT_TOKEN":       "",
	"GUILD_ID":                "",
	"NOTIFICATION_CHANNEL_ID": "",
	"DEVELOPER_USER_IDS":      []string{},
	"REMOVE_COMMANDS_ON_EXIT": false,

	"ATERNOS_USERNAME":  "",
	"ATERNOS_PASSWORD":  "",
	"PANEL_STALE_AFTER": "5m",

	"CHECK_INTERVAL_MINUTES": 5,
	"DAILY_REPORT_SCHEDULE":  "0 9 * * *",
	"INITIAL_CHECK_DELAY":    "5s",

	"LOG_LEVEL": "info",
	"LOG_DIR":   "logs",
	"TIMEZONE":  "",

	"RESEARCH_URL":        "https://aternos.org",
	"RESEARCH_HEADLESS":   true,
	"RESEARCH_SCREENSHOT": "aternos-homepage.png",

	"POSTGRES_DSN":         "",
	"DB_MAX_IDLE_CONNS":    10,
	"DB_MAX_OPEN_CONNS":    100,
	"DB_CONN_MAX_LIFETIME": "1h",
	"DB_LOG_MODE":          false,
}

var (
	ErrMissingBotToken = errors.New("missing bot token (DISCORD_BOT_TOKEN env variable)")
	ErrInvalidInterval = errors.New("CHECK_INTERVAL_MINUTES must be greater than zero")
)

// Load reads the optional .env file into the process environment and
// resolves every known key from the environment, falling back to defaults.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("[WARNING]: .env config file not found, relying on defaults and system ENV variables.")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DeveloperUserIDs = cleanList(cfg.DeveloperUserIDs)
	cfg.AllowedOrigins = cleanList(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// cleanList trims entries of a comma-separated value and drops empty ones.
func cleanList(values []string) []string {
	return lo.Compact(lo.Map(values, func(v string, _ int) string {
		return strings.TrimSpace(v)
	}))
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return ErrMissingBotToken
	}
	if c.CheckIntervalMinutes <= 0 {
		return ErrInvalidInterval
	}
	if c.DailyReportSchedule == "" {
		return errors.New("DAILY_REPORT_SCHEDULE must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured timezone, the host's local zone when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalMinutes) * time.Minute
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

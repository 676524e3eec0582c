package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the configuration to start the bot.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the HTTP server
	Addr string
	// Port is the binding port for the HTTP server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where remindbot stores its data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of the bot
	Version string

	// Chat transport
	BotToken      string  // BOT_TOKEN
	BotAPIURL     string  // BOT_API_URL (default: https://api.telegram.org)
	BotMode       string  // BOT_MODE: polling or webhook (default: polling)
	WebhookURL    string  // WEBHOOK_URL, public URL of POST /telegram/webhook
	WebhookSecret string  // WEBHOOK_SECRET, checked against X-Telegram-Bot-Api-Secret-Token
	Admins        []int64 // ADMINS, comma-separated chat ids

	// Delivery
	RedisURL         string        // REDIS_URL; empty selects the in-process queue
	DeliveryInterval time.Duration // DELIVERY_INTERVAL (default: 1s)
	RecoverySchedule string        // RECOVERY_SCHEDULE cron spec (default: @every 1m)

	// Throttling
	RateLimit float64 // RATE_LIMIT, messages per second per chat (default: 1)
	RateBurst int     // RATE_BURST (default: 5)

	// Logging
	LogLevel  string // LOG_LEVEL (default: info)
	LogFormat string // LOG_FORMAT: text or json (default: text)

	rawAdmins string
}

const (
	BotModePolling = "polling"
	BotModeWebhook = "webhook"

	defaultBotAPIURL = "https://api.telegram.org"
)

// Keys read from the environment and flags. Each key is also accepted
// with a REMINDBOT_ prefix.
const (
	KeyMode             = "mode"
	KeyAddr             = "addr"
	KeyPort             = "port"
	KeyData             = "data"
	KeyDriver           = "driver"
	KeyDSN              = "dsn"
	KeyDatabaseURL      = "database_url"
	KeyBotToken         = "bot_token"
	KeyBotAPIURL        = "bot_api_url"
	KeyBotMode          = "bot_mode"
	KeyWebhookURL       = "webhook_url"
	KeyWebhookSecret    = "webhook_secret"
	KeyAdmins           = "admins"
	KeyRedisURL         = "redis_url"
	KeyDeliveryInterval = "delivery_interval"
	KeyRecoverySchedule = "recovery_schedule"
	KeyRateLimit        = "rate_limit"
	KeyRateBurst        = "rate_burst"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
)

var allKeys = []string{
	KeyMode, KeyAddr, KeyPort, KeyData, KeyDriver, KeyDSN, KeyDatabaseURL,
	KeyBotToken, KeyBotAPIURL, KeyBotMode, KeyWebhookURL, KeyWebhookSecret, KeyAdmins,
	KeyRedisURL, KeyDeliveryInterval, KeyRecoverySchedule, KeyRateLimit, KeyRateBurst,
	KeyLogLevel, KeyLogFormat,
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyMode, "dev")
	v.SetDefault(KeyAddr, "")
	v.SetDefault(KeyPort, 8081)
	v.SetDefault(KeyData, ".")
	v.SetDefault(KeyDriver, "sqlite")
	v.SetDefault(KeyBotAPIURL, defaultBotAPIURL)
	v.SetDefault(KeyBotMode, BotModePolling)
	v.SetDefault(KeyDeliveryInterval, time.Second)
	v.SetDefault(KeyRecoverySchedule, "@every 1m")
	v.SetDefault(KeyRateLimit, 1.0)
	v.SetDefault(KeyRateBurst, 5)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

// BindEnv binds every key to its plain upper-case variable and to the
// REMINDBOT_ prefixed one. The prefixed variable wins when both are set.
func BindEnv(v *viper.Viper) {
	for _, key := range allKeys {
		upper := strings.ToUpper(key)
		_ = v.BindEnv(key, "REMINDBOT_"+upper, upper)
	}
}

// FromViper builds a profile from v.
func FromViper(v *viper.Viper) *Profile {
	p := &Profile{
		Mode:             v.GetString(KeyMode),
		Addr:             v.GetString(KeyAddr),
		Port:             v.GetInt(KeyPort),
		Data:             v.GetString(KeyData),
		Driver:           v.GetString(KeyDriver),
		DSN:              v.GetString(KeyDSN),
		BotToken:         v.GetString(KeyBotToken),
		BotAPIURL:        v.GetString(KeyBotAPIURL),
		BotMode:          v.GetString(KeyBotMode),
		WebhookURL:       v.GetString(KeyWebhookURL),
		WebhookSecret:    v.GetString(KeyWebhookSecret),
		RedisURL:         v.GetString(KeyRedisURL),
		DeliveryInterval: v.GetDuration(KeyDeliveryInterval),
		RecoverySchedule: v.GetString(KeyRecoverySchedule),
		RateLimit:        v.GetFloat64(KeyRateLimit),
		RateBurst:        v.GetInt(KeyRateBurst),
		LogLevel:         v.GetString(KeyLogLevel),
		LogFormat:        v.GetString(KeyLogFormat),
	}
	if p.DSN == "" {
		p.DSN = v.GetString(KeyDatabaseURL)
	}
	p.rawAdmins = v.GetString(KeyAdmins)
	return p
}

// FromEnv loads configuration from environment variables only.
func FromEnv() *Profile {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return FromViper(v)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAdmin reports whether chatID is listed in ADMINS.
func (p *Profile) IsAdmin(chatID int64) bool {
	for _, id := range p.Admins {
		if id == chatID {
			return true
		}
	}
	return false
}

// ListenAddr returns the HTTP listen address.
func (p *Profile) ListenAddr() string {
	return fmt.Sprintf("%s:%d", p.Addr, p.Port)
}

// ParseAdmins parses a comma-separated list of chat ids, skipping blanks.
func ParseAdmins(raw string) ([]int64, error) {
	var admins []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid admin id %q", part)
		}
		admins = append(admins, id)
	}
	return admins, nil
}

// normalizeDatabaseURL maps DATABASE_URL forms onto a driver and DSN.
// "sqlite:///path" selects sqlite with a file path, postgres URLs select
// postgres and are passed through.
func normalizeDatabaseURL(driver, dsn string) (string, string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn
	case strings.HasPrefix(dsn, "sqlite+aiosqlite:///"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite+aiosqlite:///")
	case strings.HasPrefix(dsn, "sqlite:///"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite:///")
	}
	return driver, dsn
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	p.Driver, p.DSN = normalizeDatabaseURL(p.Driver, p.DSN)
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", p.Driver)
	}

	if p.Driver == "sqlite" {
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
		p.Data = dataDir
		if p.DSN == "" {
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("remindbot_%s.db", p.Mode))
		}
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires DATABASE_URL or DSN")
	}

	if p.rawAdmins != "" {
		admins, err := ParseAdmins(p.rawAdmins)
		if err != nil {
			return err
		}
		p.Admins = admins
	}

	if p.BotMode != BotModePolling && p.BotMode != BotModeWebhook {
		return errors.Errorf("unknown bot mode %q: use 'polling' or 'webhook'", p.BotMode)
	}
	if p.BotMode == BotModeWebhook && p.WebhookURL == "" {
		return errors.New("webhook mode requires WEBHOOK_URL")
	}
	// The webhook endpoint accepts nothing without a secret.
	if p.BotMode == BotModeWebhook && p.WebhookSecret == "" {
		return errors.New("webhook mode requires WEBHOOK_SECRET")
	}
	if p.BotAPIURL == "" {
		p.BotAPIURL = defaultBotAPIURL
	}
	if p.DeliveryInterval <= 0 {
		p.DeliveryInterval = time.Second
	}
	if p.RecoverySchedule == "" {
		p.RecoverySchedule = "@every 1m"
	}
	if p.RateLimit <= 0 {
		p.RateLimit = 1
	}
	if p.RateBurst <= 0 {
		p.RateBurst = 5
	}

	return nil
}

// ValidateBot checks the settings only the serve command needs.
func (p *Profile) ValidateBot() error {
	if p.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}
	return nil
}

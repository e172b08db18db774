package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // schedules and "today" depend on the configured zone

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ankittk/hardcheck/internal/bot"
	"github.com/ankittk/hardcheck/internal/classify"
	"github.com/ankittk/hardcheck/internal/llm"
	"github.com/ankittk/hardcheck/internal/schedule"
	"github.com/ankittk/hardcheck/internal/store"
	"github.com/ankittk/hardcheck/internal/store/s3store"
	"github.com/ankittk/hardcheck/pkg/models"
)

const (
	FileName        = "config.yaml"
	DefaultTimezone = "America/New_York"
	DefaultPort     = 3650
)

// Config is <home>/config.yaml plus secrets from the environment.
type Config struct {
	Timezone      string        `yaml:"timezone"`
	Classifier    string        `yaml:"classifier"`
	RetentionDays int           `yaml:"retentionDays"`
	TickInterval  time.Duration `yaml:"tickInterval"`
	Schedule      Schedule      `yaml:"schedule"`
	Store         Store         `yaml:"store"`
	LLM           LLM           `yaml:"llm"`
	Notify        Notify        `yaml:"notify"`
	Users         []User        `yaml:"users"`

	Secrets Secrets `yaml:"-"`
}

// Schedule holds cron expressions evaluated in Timezone.
type Schedule struct {
	Broadcast string `yaml:"broadcast"`
	Reminders string `yaml:"reminders"`
	Cleanup   string `yaml:"cleanup"`
}

type Store struct {
	Backend string `yaml:"backend"` // file, memory, sqlite, postgres, s3
	Path    string `yaml:"path,omitempty"`
	DSN     string `yaml:"dsn,omitempty"`
	S3      S3     `yaml:"s3,omitempty"`
}

// S3 credentials come from HARDCHECK_S3_ACCESS_KEY and HARDCHECK_S3_SECRET_KEY.
type S3 struct {
	Region   string `yaml:"region,omitempty"`
	Bucket   string `yaml:"bucket,omitempty"`
	Key      string `yaml:"key,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

type LLM struct {
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

// Notify configures the ops webhook; its URL is the SLACK_WEBHOOK_URL secret.
type Notify struct {
	Channel  string `yaml:"channel,omitempty"`
	Username string `yaml:"username,omitempty"`
}

type User struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Role        string   `yaml:"role"`
	Active      bool     `yaml:"active"`
	CheckInDays []string `yaml:"checkInDays,omitempty"`
	Goals       []string `yaml:"goals,omitempty"`
}

// Secrets never leave the process environment.
type Secrets struct {
	SlackBotToken      string
	SlackSigningSecret string
	SlackWebhookURL    string
	OpenAIAPIKey       string
	APIKey             string
	SentryDSN          string
	S3AccessKey        string
	S3SecretKey        string
}

// Defaults returns the configuration used when config.yaml is missing.
func Defaults() Config {
	return Config{
		Timezone:      DefaultTimezone,
		Classifier:    classify.VariantLightweight,
		RetentionDays: models.DefaultRetentionDays,
		TickInterval:  30 * time.Second,
		Schedule: Schedule{
			Broadcast: schedule.DefaultBroadcast,
			Reminders: schedule.DefaultReminders,
			Cleanup:   schedule.DefaultCleanup,
		},
		Store: Store{Backend: store.BackendFile},
		LLM:   LLM{BaseURL: llm.DefaultBaseURL, Model: llm.DefaultModel},
	}
}

// Path returns <home>/config.yaml.
func Path(home string) string {
	return filepath.Join(home, FileName)
}

// LoadEnv loads KEY=VALUE files into the environment without overriding variables already set.
// With no explicit file, <home>/.env and ./.env are tried when present.
func LoadEnv(home, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, p := range []string{filepath.Join(home, ".env"), ".env"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

// Load reads <home>/config.yaml over Defaults, applies environment overrides and validates.
// A missing file is not an error.
func Load(home string) (Config, error) {
	cfg := Defaults()
	b, err := os.ReadFile(Path(home))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", Path(home), err)
		}
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("no config file, using defaults", "path", Path(home))
	default:
		return Config{}, err
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to <home>/config.yaml. Secrets are not written.
func Save(home string, cfg Config) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(Path(home), b, 0o644)
}

func (c *Config) applyEnv() {
	c.Timezone = envString("HARDCHECK_TIMEZONE", c.Timezone)
	c.Classifier = envString("HARDCHECK_CLASSIFIER", c.Classifier)
	c.RetentionDays = envInt("HARDCHECK_RETENTION_DAYS", c.RetentionDays)
	c.TickInterval = envDuration("HARDCHECK_TICK_INTERVAL", c.TickInterval)
	c.Store.Backend = envString("HARDCHECK_STORE", c.Store.Backend)
	c.Store.DSN = envString("DATABASE_URL", c.Store.DSN)
	c.Store.S3.Region = envString("HARDCHECK_S3_REGION", c.Store.S3.Region)
	c.Store.S3.Bucket = envString("HARDCHECK_S3_BUCKET", c.Store.S3.Bucket)
	c.Store.S3.Key = envString("HARDCHECK_S3_KEY", c.Store.S3.Key)
	c.Store.S3.Endpoint = envString("HARDCHECK_S3_ENDPOINT", c.Store.S3.Endpoint)
	c.LLM.BaseURL = envString("HARDCHECK_LLM_URL", c.LLM.BaseURL)
	c.LLM.Model = envString("HARDCHECK_LLM_MODEL", c.LLM.Model)

	c.Secrets = Secrets{
		SlackBotToken:      os.Getenv("SLACK_BOT_TOKEN"),
		SlackSigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
		SlackWebhookURL:    os.Getenv("SLACK_WEBHOOK_URL"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		APIKey:             os.Getenv("HARDCHECK_API_KEY"),
		SentryDSN:          os.Getenv("SENTRY_DSN"),
		S3AccessKey:        os.Getenv("HARDCHECK_S3_ACCESS_KEY"),
		S3SecretKey:        os.Getenv("HARDCHECK_S3_SECRET_KEY"),
	}
}

// Validate checks zone, classifier, schedule, retention and users.
func (c Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if _, err := classify.Named(c.Classifier); err != nil {
		errs = append(errs, err)
	}
	for name, spec := range map[string]string{"broadcast": c.Schedule.Broadcast, "reminders": c.Schedule.Reminders, "cleanup": c.Schedule.Cleanup} {
		if spec == "" {
			continue
		}
		if err := schedule.Validate(spec); err != nil {
			errs = append(errs, fmt.Errorf("schedule.%s: %w", name, err))
		}
	}
	if c.RetentionDays < 0 {
		errs = append(errs, errors.New("retentionDays must not be negative"))
	}
	seen := make(map[string]bool)
	for i, u := range c.Users {
		if strings.TrimSpace(u.ID) == "" {
			errs = append(errs, fmt.Errorf("users[%d]: id is required", i))
			continue
		}
		if seen[u.ID] {
			errs = append(errs, fmt.Errorf("users[%d]: duplicate id %s", i, u.ID))
		}
		seen[u.ID] = true
		if _, err := bot.ParseWeekdays(u.CheckInDays); err != nil {
			errs = append(errs, fmt.Errorf("users[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Location returns the configured zone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Members converts configured users to the bot roster form.
func (c Config) Members() []bot.Member {
	out := make([]bot.Member, 0, len(c.Users))
	for _, u := range c.Users {
		days, _ := bot.ParseWeekdays(u.CheckInDays)
		out = append(out, bot.Member{
			ID:          u.ID,
			Name:        u.Name,
			Role:        u.Role,
			Active:      u.Active,
			CheckInDays: days,
			Goals:       u.Goals,
		})
	}
	return out
}

// StoreOptions returns the snapshot store settings for home.
func (c Config) StoreOptions(home string) store.OpenOptions {
	return store.OpenOptions{
		Backend: c.Store.Backend,
		Home:    home,
		Path:    c.Store.Path,
		DSN:     c.Store.DSN,
		S3: s3store.Config{
			Region:    c.Store.S3.Region,
			Bucket:    c.Store.S3.Bucket,
			Key:       c.Store.S3.Key,
			AccessKey: c.Secrets.S3AccessKey,
			SecretKey: c.Secrets.S3SecretKey,
			Endpoint:  c.Store.S3.Endpoint,
		},
	}
}

// Example returns Defaults with a sample roster, written by `hardcheck init`.
func Example() Config {
	cfg := Defaults()
	cfg.Users = []User{
		{ID: "U00000001", Name: "John", Role: "Founder/CEO", Active: true, CheckInDays: []string{"monday", "tuesday", "wednesday", "thursday", "friday"}, Goals: []string{"Lead company vision", "Drive strategic growth"}},
		{ID: "U00000002", Name: "Marnie", Role: "Executive Assistant", Active: true, CheckInDays: []string{"monday", "tuesday", "wednesday", "thursday", "friday"}, Goals: []string{"Complete daily tasks efficiently"}},
	}
	return cfg
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// DevMode reports HARDCHECK_DEV.
func DevMode() bool {
	return envBool("HARDCHECK_DEV", false)
}

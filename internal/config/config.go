package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	Storage  StorageConfig  `json:"storage"`
	Worker   WorkerConfig   `json:"worker"`
	Athlete  AthleteConfig  `json:"athlete"`
	Display  DisplayConfig  `json:"display"`
}

// DatabaseConfig locates the SQLite database
type DatabaseConfig struct {
	Path string `json:"path"`
}

// RedisConfig holds the job queue connection
type RedisConfig struct {
	URL   string `json:"url"`
	Queue string `json:"queue"`
}

// StorageConfig holds where activity files are read from and exports written to
type StorageConfig struct {
	UploadDir   string   `json:"upload_dir"`
	ExportDir   string   `json:"export_dir,omitempty"`
	MaxFileSize int64    `json:"max_file_size"`
	S3          S3Config `json:"s3"`
}

// S3Config selects a bucket instead of the upload directory when Endpoint is set
type S3Config struct {
	Endpoint  string `json:"endpoint,omitempty"`
	Bucket    string `json:"bucket,omitempty"`
	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
	Secure    bool   `json:"secure"`
}

// WorkerConfig holds worker pool and trend refresh settings
type WorkerConfig struct {
	Concurrency        int    `json:"concurrency"`
	PollTimeoutSeconds int    `json:"poll_timeout_seconds"`
	WindowMinutes      int    `json:"window_minutes"`
	TrendSchedule      string `json:"trend_schedule"`
}

// AthleteConfig holds the default user seeded by init
type AthleteConfig struct {
	Email string  `json:"email"`
	MaxHR float64 `json:"max_hr"`
	FTP   float64 `json:"ftp"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit"`
}

// Enabled reports whether a bucket is configured
func (s S3Config) Enabled() bool {
	return s.Endpoint != ""
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// EnvPath overrides the config file location
const EnvPath = "TRAININGLOAD_CONFIG"

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	dir, err := GetConfigDir()
	if err != nil {
		dir = ".trainingload"
	}
	return Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dir, "trainingload.db"),
		},
		Redis: RedisConfig{
			URL:   "redis://localhost:6379/0",
			Queue: "workouts",
		},
		Storage: StorageConfig{
			UploadDir:   filepath.Join(dir, "uploads"),
			MaxFileSize: 64 << 20,
		},
		Worker: WorkerConfig{
			Concurrency:        2,
			PollTimeoutSeconds: 5,
			WindowMinutes:      20,
			TrendSchedule:      "@hourly",
		},
		Athlete: AthleteConfig{
			Email: "athlete@example.com",
			MaxHR: 185,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
		},
	}
}

// Load reads the configuration file, fills missing values with defaults and
// applies .env and environment overrides
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv returns the defaults with .env and environment overrides applied,
// for running without a config file
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaults.Database.Path
	}
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = defaults.Redis.URL
	}
	if cfg.Redis.Queue == "" {
		cfg.Redis.Queue = defaults.Redis.Queue
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = defaults.Storage.UploadDir
	}
	if cfg.Storage.MaxFileSize == 0 {
		cfg.Storage.MaxFileSize = defaults.Storage.MaxFileSize
	}
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = defaults.Worker.Concurrency
	}
	if cfg.Worker.PollTimeoutSeconds == 0 {
		cfg.Worker.PollTimeoutSeconds = defaults.Worker.PollTimeoutSeconds
	}
	if cfg.Worker.WindowMinutes == 0 {
		cfg.Worker.WindowMinutes = defaults.Worker.WindowMinutes
	}
	if cfg.Worker.TrendSchedule == "" {
		cfg.Worker.TrendSchedule = defaults.Worker.TrendSchedule
	}
	if cfg.Athlete.Email == "" {
		cfg.Athlete.Email = defaults.Athlete.Email
	}
	if cfg.Display.DistanceUnit == "" {
		cfg.Display.DistanceUnit = defaults.Display.DistanceUnit
	}
}

// applyEnv loads .env from the working directory, if any, then lets the
// environment override file values
func applyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}

	strs := map[string]*string{
		"DB_PATH":        &cfg.Database.Path,
		"REDIS_URL":      &cfg.Redis.URL,
		"QUEUE_NAME":     &cfg.Redis.Queue,
		"UPLOAD_DIR":     &cfg.Storage.UploadDir,
		"EXPORT_DIR":     &cfg.Storage.ExportDir,
		"S3_ENDPOINT":    &cfg.Storage.S3.Endpoint,
		"S3_BUCKET":      &cfg.Storage.S3.Bucket,
		"S3_ACCESS_KEY":  &cfg.Storage.S3.AccessKey,
		"S3_SECRET_KEY":  &cfg.Storage.S3.SecretKey,
		"TREND_SCHEDULE": &cfg.Worker.TrendSchedule,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WORKER_CONCURRENCY": &cfg.Worker.Concurrency,
		"WINDOW_MINUTES":     &cfg.Worker.WindowMinutes,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", key, v)
		}
		*dst = n
	}

	if v := os.Getenv("S3_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("S3_SECURE must be a boolean, got %q", v)
		}
		cfg.Storage.S3.Secure = secure
	}
	return nil
}

// Save writes the configuration to the config file
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample writes the default config if none exists. It reports
// whether a file was written.
func CreateExample() (bool, error) {
	path, err := ConfigPath()
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err == nil {
		return false, nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	return true, Save(&example)
}

// Validate checks if the config is usable
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("redis.url must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	if c.Storage.S3.Enabled() {
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required when storage.s3.endpoint is set")
		}
		if c.Storage.S3.AccessKey == "" || c.Storage.S3.SecretKey == "" {
			return errors.New("storage.s3.access_key and storage.s3.secret_key are required when storage.s3.endpoint is set")
		}
	} else if c.Storage.UploadDir == "" {
		return errors.New("storage.upload_dir is required without storage.s3")
	}
	if c.Storage.MaxFileSize < 0 {
		return fmt.Errorf("storage.max_file_size must not be negative, got %d", c.Storage.MaxFileSize)
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("worker.concurrency must be at least 1, got %d", c.Worker.Concurrency)
	}
	if c.Worker.WindowMinutes < 1 {
		return fmt.Errorf("worker.window_minutes must be at least 1, got %d", c.Worker.WindowMinutes)
	}
	if _, err := cron.ParseStandard(c.Worker.TrendSchedule); err != nil {
		return fmt.Errorf("worker.trend_schedule %q: %w", c.Worker.TrendSchedule, err)
	}

	if c.Athlete.MaxHR < 0 || c.Athlete.FTP < 0 {
		return errors.New("athlete.max_hr and athlete.ftp must not be negative")
	}

	// Validate display units
	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}

	return nil
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".trainingload"), nil
}

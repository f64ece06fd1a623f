package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
		LockTTL  string `yaml:"lock_ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Generator struct {
		APIKey     string  `yaml:"api_key"`
		Endpoint   string  `yaml:"endpoint"`
		Model      string  `yaml:"model"`
		Timeout    string  `yaml:"timeout"`
		Attempts   int     `yaml:"attempts"`
		BaseDelay  string  `yaml:"base_delay"`
		Multiplier float64 `yaml:"multiplier"`
	} `yaml:"generator"`
	Pool struct {
		MinQuestions int    `yaml:"min_questions"`
		MaxAttempts  int    `yaml:"max_attempts"`
		Topic        string `yaml:"topic"`
		Async        bool   `yaml:"async"`
	} `yaml:"pool"`
	Scoring struct {
		Policy string `yaml:"policy"`
	} `yaml:"scoring"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	cfg.Log.Format = "color"
	cfg.Generator.Model = "gemini-2.5-flash"
	cfg.Generator.Timeout = "60s"
	cfg.Generator.Attempts = 3
	cfg.Generator.BaseDelay = "1s"
	cfg.Generator.Multiplier = 1.5
	cfg.Pool.MinQuestions = 10
	cfg.Pool.MaxAttempts = 30
	cfg.Pool.Async = true
	cfg.Scoring.Policy = "flat"
	return cfg
}

// Load reads YAML config from path on top of Default, loads .env if present and
// applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Generator.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SCORING_POLICY"); v != "" {
		cfg.Scoring.Policy = v
	}
	if v := os.Getenv("MIN_QUESTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Pool.MinQuestions = n
		}
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"roombook/api"
	"roombook/listing"
	"roombook/storage"
)

const fileName = "config.json"

// Config holds the CLI settings. File values are overridden by the
// environment, which may itself be populated from a .env file.
type Config struct {
	BaseURL       string
	PageSize      int
	Timeout       time.Duration
	SyncTimeout   time.Duration
	RedisAddr     string
	WatchInterval time.Duration
	LogLevel      string
	LogFormat     string
}

type fileConfig struct {
	BaseURL       string `json:"base_url"`
	PageSize      int    `json:"page_size"`
	Timeout       string `json:"timeout"`
	SyncTimeout   string `json:"sync_timeout"`
	RedisAddr     string `json:"redis_addr"`
	WatchInterval string `json:"watch_interval"`
	LogLevel      string `json:"log_level"`
	LogFormat     string `json:"log_format"`
}

func Default() Config {
	return Config{
		BaseURL:       api.DefaultBaseURL,
		PageSize:      listing.DefaultPageSize,
		Timeout:       api.DefaultTimeout,
		SyncTimeout:   5 * time.Minute,
		WatchInterval: time.Minute,
		LogLevel:      "warn",
		LogFormat:     "text",
	}
}

// Load reads .env (if present), the config file and the environment.
// Invalid values are reported together.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	invalid := []string{}

	file, err := readFile()
	if err != nil {
		return Config{}, err
	}
	apply(&cfg, file, &invalid, func(key string) string { return "config.json:" + key })

	env := fileConfig{
		BaseURL:       os.Getenv("ROOMBOOK_BASE_URL"),
		Timeout:       os.Getenv("ROOMBOOK_TIMEOUT"),
		SyncTimeout:   os.Getenv("ROOMBOOK_SYNC_TIMEOUT"),
		RedisAddr:     os.Getenv("ROOMBOOK_REDIS_ADDR"),
		WatchInterval: os.Getenv("ROOMBOOK_WATCH_INTERVAL"),
		LogLevel:      os.Getenv("ROOMBOOK_LOG_LEVEL"),
		LogFormat:     os.Getenv("ROOMBOOK_LOG_FORMAT"),
	}
	if raw := strings.TrimSpace(os.Getenv("ROOMBOOK_PAGE_SIZE")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			size = -1
		}
		env.PageSize = size
	}
	apply(&cfg, env, &invalid, func(key string) string { return "ROOMBOOK_" + strings.ToUpper(key) })

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func Path() (string, error) {
	dir, err := storage.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

func readFile() (fileConfig, error) {
	path, err := Path()
	if err != nil {
		return fileConfig{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileConfig{}, nil
		}
		return fileConfig{}, err
	}
	if info.IsDir() {
		return fileConfig{}, fmt.Errorf("config path is a directory: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fileConfig{}, err
	}
	defer f.Close()

	var conf fileConfig
	if err := json.NewDecoder(f).Decode(&conf); err != nil {
		return fileConfig{}, fmt.Errorf("read %s: %w", path, err)
	}
	return conf, nil
}

func apply(cfg *Config, src fileConfig, invalid *[]string, label func(string) string) {
	if v := strings.TrimSpace(src.BaseURL); v != "" {
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			*invalid = append(*invalid, label("base_url"))
		} else {
			cfg.BaseURL = strings.TrimSuffix(v, "/")
		}
	}
	if src.PageSize != 0 {
		if src.PageSize < 0 {
			*invalid = append(*invalid, label("page_size"))
		} else {
			cfg.PageSize = src.PageSize
		}
	}
	applyDuration(&cfg.Timeout, src.Timeout, label("timeout"), invalid)
	applyDuration(&cfg.SyncTimeout, src.SyncTimeout, label("sync_timeout"), invalid)
	applyDuration(&cfg.WatchInterval, src.WatchInterval, label("watch_interval"), invalid)
	if v := strings.TrimSpace(src.RedisAddr); v != "" {
		cfg.RedisAddr = v
	}
	if v := strings.TrimSpace(src.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(src.LogFormat); v != "" {
		cfg.LogFormat = v
	}
}

func applyDuration(dst *time.Duration, raw, name string, invalid *[]string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		*invalid = append(*invalid, name)
		return
	}
	*dst = d
}

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything tally reads from config.toml.
type Config struct {
	DataDir      string
	LogLevel     string
	UserMetaPath string
	LocalPath    string

	Badger BadgerConfig
	SQLite SQLiteConfig
	S3     S3Config
	Locate LocateConfig
}

// BadgerConfig configures the local backend.
type BadgerConfig struct {
	Dir string
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	Path string
}

// S3Config configures the s3 backend.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	CreateBucket    bool
	Username        string
}

// LocateConfig configures the location lookup.
type LocateConfig struct {
	URL     string
	Timeout time.Duration
}

const (
	defaultConfigPath    = "~/.config/tally/config.toml"
	defaultDataDir       = "~/.local/share/tally"
	defaultLogLevel      = "info"
	defaultUserMetaPath  = "user/meta.json"
	defaultS3Region      = "us-east-1"
	defaultLocateURL     = "https://ipapi.co/json/"
	defaultLocateTimeout = 5 * time.Second
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

type rawConfig struct {
	DataDir      string `toml:"data_dir"`
	LogLevel     string `toml:"log_level"`
	UserMetaPath string `toml:"user_meta_path"`
	LocalPath    string `toml:"local_path"`
	Badger       struct {
		Dir string `toml:"dir"`
	} `toml:"badger"`
	SQLite struct {
		Path string `toml:"path"`
	} `toml:"sqlite"`
	S3 struct {
		Bucket          string `toml:"bucket"`
		Region          string `toml:"region"`
		Endpoint        string `toml:"endpoint"`
		Prefix          string `toml:"prefix"`
		AccessKeyID     string `toml:"access_key_id"`
		SecretAccessKey string `toml:"secret_access_key"`
		CreateBucket    bool   `toml:"create_bucket"`
		Username        string `toml:"username"`
	} `toml:"s3"`
	Locate struct {
		URL            string `toml:"url"`
		TimeoutSeconds int    `toml:"timeout_seconds"`
	} `toml:"locate"`
}

// Load locates and parses the tally config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	return fromRaw(raw), nil
}

func fromRaw(raw rawConfig) Config {
	cfg := Config{
		DataDir:      mustExpand(orDefault(raw.DataDir, defaultDataDir)),
		LogLevel:     strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel)),
		UserMetaPath: strings.Trim(orDefault(raw.UserMetaPath, defaultUserMetaPath), "/"),
	}

	cfg.LocalPath = orDefault(raw.LocalPath, filepath.Join(cfg.DataDir, "local.toml"))
	cfg.LocalPath = mustExpand(cfg.LocalPath)

	cfg.Badger.Dir = mustExpand(orDefault(raw.Badger.Dir, filepath.Join(cfg.DataDir, "badger")))
	cfg.SQLite.Path = mustExpand(orDefault(raw.SQLite.Path, filepath.Join(cfg.DataDir, "tally.db")))

	cfg.S3 = S3Config{
		Bucket:          strings.TrimSpace(raw.S3.Bucket),
		Region:          orDefault(raw.S3.Region, defaultS3Region),
		Endpoint:        strings.TrimSpace(raw.S3.Endpoint),
		Prefix:          strings.TrimSpace(raw.S3.Prefix),
		AccessKeyID:     strings.TrimSpace(raw.S3.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(raw.S3.SecretAccessKey),
		CreateBucket:    raw.S3.CreateBucket,
		Username:        strings.TrimSpace(raw.S3.Username),
	}

	cfg.Locate.URL = orDefault(raw.Locate.URL, defaultLocateURL)
	cfg.Locate.Timeout = defaultLocateTimeout
	if raw.Locate.TimeoutSeconds > 0 {
		cfg.Locate.Timeout = time.Duration(raw.Locate.TimeoutSeconds) * time.Second
	}
	return cfg
}

// LogPath returns the path of the tally log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir + "/tally.log")
	}
	return filepath.Join(c.DataDir, "tally.log")
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

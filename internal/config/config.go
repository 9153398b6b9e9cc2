// Package config reads settings from the environment (optionally seeded by
// a .env file) and layout tuning from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"karolbroda.com/lyrhaze/internal/atmosphere"
)

const (
	DefaultMprisService = "org.mpris.MediaPlayer2.spotify"
	DefaultLrclibGetURL = "https://lrclib.net/api/get"
	DefaultNeteaseURL   = "https://ncm-api.yuzutea.org"
	DefaultLogLevel     = "info"
	HTTPTimeout         = 10 * time.Second
	PollInterval        = 100 * time.Millisecond
	envPrefix           = "LYRHAZE_"
)

type Config struct {
	MprisService   string
	LrclibURL      string
	NeteaseURL     string
	SyncOffset     float64
	HideHeader     bool
	BaseColor      string
	HighlightColor string
	LayoutFile     string
	LogFile        string
	LogLevel       string
}

// Load reads LYRHAZE_* variables. Values already in the environment win
// over the .env file, which is optional.
func Load() *Config {
	_ = LoadDotEnv(".env")

	return &Config{
		MprisService:   getEnvOrDefault("MPRIS_SERVICE", DefaultMprisService),
		LrclibURL:      getEnvOrDefault("LRCLIB_URL", DefaultLrclibGetURL),
		NeteaseURL:     getEnvOrDefault("NETEASE_URL", DefaultNeteaseURL),
		SyncOffset:     parseFloat(getEnvOrDefault("SYNC_OFFSET", "0")),
		HideHeader:     parseBool(getEnvOrDefault("HIDE_HEADER", "false")),
		BaseColor:      getEnvOrDefault("BASE_COLOR", ""),
		HighlightColor: getEnvOrDefault("HIGHLIGHT_COLOR", ""),
		LayoutFile:     getEnvOrDefault("LAYOUT_FILE", ""),
		LogFile:        getEnvOrDefault("LOG_FILE", ""),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", DefaultLogLevel),
	}
}

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func getEnvOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(envPrefix + key))
	if value == "" {
		return fallback
	}
	return value
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// LoadTuning overlays the YAML file at path onto base. Keys missing from
// the file keep their base values; unknown keys are rejected.
func LoadTuning(path string, base atmosphere.Tuning) (atmosphere.Tuning, error) {
	if path == "" {
		return base, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read layout file: %w", err)
	}

	tuning, err := ParseTuning(raw, base)
	if err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}
	return tuning, nil
}

func ParseTuning(raw []byte, base atmosphere.Tuning) (atmosphere.Tuning, error) {
	tuning := base
	tuning.Anchors = append([]atmosphere.Anchor(nil), base.Anchors...)

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&tuning); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("invalid layout tuning: %w", err)
	}

	if err := tuning.Validate(); err != nil {
		return base, err
	}
	return tuning, nil
}

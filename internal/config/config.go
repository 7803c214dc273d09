package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"Popmap_discord_bot/internal/regions"
)

type Config struct {
	Token   string
	GuildID string // 開発用: 設定するとスラッシュコマンドをこのサーバーだけに登録

	DatasetURL   string
	DatasetCache string
	Keys         regions.PropertyKeys
	Locale       string
	SettingsPath string

	Width  int
	Height int

	ViewerAddr string
	ViewerURL  string // /info に載せる公開URL。空ならViewerAddrから組み立てる
	FetchRPS   int
	SessionTTL time.Duration
	SessionMax int
}

// Load .env があれば読み込んでから環境変数を解釈する
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to read .env: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv getenvから設定を組み立てる。不正な数値は既定値のまま
func FromEnv(getenv func(string) string) *Config {
	cfg := &Config{
		Token:        getenv("DISCORD_TOKEN"),
		GuildID:      getenv("DISCORD_GUILD_ID"),
		DatasetURL:   getenv("POPMAP_DATASET_URL"),
		DatasetCache: getenv("POPMAP_DATASET_CACHE"),
		Keys: regions.PropertyKeys{
			ID:         splitList(getenv("POPMAP_ID_KEYS")),
			Name:       splitList(getenv("POPMAP_NAME_KEYS")),
			Population: splitList(getenv("POPMAP_POPULATION_KEYS")),
		},
		Locale:       getenv("POPMAP_LOCALE"),
		SettingsPath: getenv("POPMAP_SETTINGS_PATH"),
		Width:        intOr(getenv, "POPMAP_WIDTH", 0),
		Height:       intOr(getenv, "POPMAP_HEIGHT", 0),
		ViewerAddr:   getenv("VIEWER_ADDR"),
		ViewerURL:    getenv("VIEWER_PUBLIC_URL"),
		FetchRPS:     intOr(getenv, "POPMAP_FETCH_RPS", 2),
		SessionTTL:   durationOr(getenv, "POPMAP_SESSION_TTL", 15*time.Minute),
		SessionMax:   intOr(getenv, "POPMAP_SESSION_MAX", 64),
	}
	if cfg.DatasetURL == "" {
		cfg.DatasetURL = regions.DefaultDatasetURL
	}
	if cfg.DatasetCache == "" {
		cfg.DatasetCache = "data/regions.geojson"
	}
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = "data/guild_settings.json"
	}
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}
	if cfg.ViewerURL == "" && cfg.ViewerAddr != "" {
		host := cfg.ViewerAddr
		if strings.HasPrefix(host, ":") {
			host = "localhost" + host
		}
		cfg.ViewerURL = "http://" + host
	}
	return cfg
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intOr(getenv func(string) string, key string, def int) int {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		log.Printf("Ignoring invalid %s=%q", key, raw)
		return def
	}
	return v
}

// durationOr "10m" 形式か秒数
func durationOr(getenv func(string) string, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Ignoring invalid %s=%q", key, raw)
	return def
}

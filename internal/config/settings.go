package config

import (
	"encoding/json"
	"os"
	"sync"

	"Popmap_discord_bot/internal/utils"
)

// GuildSettings サーバーごとの地図設定
type GuildSettings struct {
	Locale        string `json:"locale,omitempty"`         // 人口の桁区切りに使うロケール（空ならBot全体の既定）
	DefaultRegion string `json:"default_region,omitempty"` // /popmap で国を省略したときに強調する地域
}

// SettingsManager 設定管理
type SettingsManager struct {
	mu       sync.RWMutex
	Guilds   map[string]GuildSettings `json:"guilds"`
	filePath string
}

type settingsFile struct {
	Guilds map[string]GuildSettings `json:"guilds"`
}

// NewSettingsManager 設定マネージャーを作成。ファイルがなければ空で始める
func NewSettingsManager(configPath string) *SettingsManager {
	sm := &SettingsManager{
		Guilds:   make(map[string]GuildSettings),
		filePath: configPath,
	}
	_ = sm.Load()
	return sm
}

// Load 設定をファイルから読み込む
func (sm *SettingsManager) Load() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.filePath == "" {
		return nil
	}
	data, err := os.ReadFile(sm.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var format settingsFile
	if err := json.Unmarshal(data, &format); err != nil {
		return err
	}
	sm.Guilds = format.Guilds
	if sm.Guilds == nil {
		sm.Guilds = make(map[string]GuildSettings)
	}
	return nil
}

func (sm *SettingsManager) saveLocked() error {
	if sm.filePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(settingsFile{Guilds: sm.Guilds}, "", "  ")
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(sm.filePath, data)
}

// GetGuildSettings サーバー設定を取得（存在しない場合はゼロ値）
func (sm *SettingsManager) GetGuildSettings(guildID string) GuildSettings {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.Guilds[guildID]
}

// UpdateGuildSetting 特定の設定項目を更新して保存
func (sm *SettingsManager) UpdateGuildSetting(guildID string, update func(*GuildSettings)) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	settings := sm.Guilds[guildID]
	update(&settings)
	if settings == (GuildSettings{}) {
		delete(sm.Guilds, guildID)
	} else {
		sm.Guilds[guildID] = settings
	}
	return sm.saveLocked()
}

// LocaleFor サーバー設定のロケール、なければfallback
func (sm *SettingsManager) LocaleFor(guildID, fallback string) string {
	if sm == nil || guildID == "" {
		return fallback
	}
	if l := sm.GetGuildSettings(guildID).Locale; l != "" {
		return l
	}
	return fallback
}

package models

import (
	"sync"
	"time"
)

// BotInfo Botの情報を保持
type BotInfo struct {
	Version   string
	StartTime time.Time

	mu       sync.RWMutex
	username string
	guilds   int
	readyAt  time.Time
}

// NewBotInfo 新しいBotInfo構造体を作成
func NewBotInfo(version string) *BotInfo {
	return &BotInfo{
		Version:   version,
		StartTime: time.Now(),
	}
}

// Uptime Bot起動からの経過時間を返す
func (b *BotInfo) Uptime() time.Duration {
	return time.Since(b.StartTime)
}

// MarkReady Gateway接続完了時に呼ぶ（再接続のたびに更新）
func (b *BotInfo) MarkReady(username string, guilds int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.username = username
	b.guilds = guilds
	b.readyAt = time.Now()
}

// Ready 最後のReady時点の情報。まだ接続していなければok=false
func (b *BotInfo) Ready() (username string, guilds int, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.username, b.guilds, !b.readyAt.IsZero()
}

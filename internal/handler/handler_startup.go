package handler

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
)

const datasetWarmupTimeout = 60 * time.Second

func (h *Handler) OnReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Println("Bot is ready!")
	log.Printf("Logged in as: %s#%s", s.State.User.Username, s.State.User.Discriminator)
	if h.botInfo != nil {
		h.botInfo.MarkReady(s.State.User.Username, len(event.Guilds))
	}

	// スラッシュコマンドを同期
	if err := h.SyncSlashCommands(s); err != nil {
		log.Printf("Error syncing slash commands: %v", err)
	}

	go h.WarmDataset()
}

// WarmDataset 最初の /popmap を待たせないよう地域データを先に読み込む。
// 失敗しても /popmap 実行時に再取得する
func (h *Handler) WarmDataset() {
	if h.popmap == nil || h.popmap.Loader == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), datasetWarmupTimeout)
	defer cancel()
	if _, err := h.popmap.Loader.Load(ctx); err != nil {
		log.Printf("Region dataset warmup failed: %v", err)
	}
}

package handler

import (
	"Popmap_discord_bot/internal/commands"
	"Popmap_discord_bot/internal/models"
)

type Handler struct {
	registry *commands.Registry
	prefix   string
	botInfo  *models.BotInfo
	popmap   *commands.Popmap
	guildID  string // 空ならスラッシュコマンドをグローバルに登録
}

// NewHandler コマンドを登録したハンドラーを作成
func NewHandler(prefix string, botInfo *models.BotInfo, popmap *commands.Popmap, viewerURL, guildID string) *Handler {
	registry := commands.NewRegistry()

	// すべてのコマンドを配列で一元管理
	commandsList := []commands.Command{
		commands.NewPopmapCommand(popmap),
		&commands.LegendCommand{},
		commands.NewSettingsCommand(popmap.Settings, popmap.Loader),
		commands.NewInfoCommand(botInfo, popmap, viewerURL),
		&commands.PingCommand{},
	}
	// HelpCommandは最後に追加し、registryを渡す
	commandsList = append(commandsList, commands.NewHelpCommand(registry))

	for _, cmd := range commandsList {
		registry.Register(cmd)
	}

	return &Handler{
		registry: registry,
		prefix:   prefix,
		botInfo:  botInfo,
		popmap:   popmap,
		guildID:  guildID,
	}
}

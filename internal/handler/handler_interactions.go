package handler

import (
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"Popmap_discord_bot/internal/commands"
)

const commandErrorMessage = "❌ コマンドの実行中にエラーが発生しました。"

// componentRoutes custom_id の ":" より前で振り分ける
var componentRoutes = map[string]func(*discordgo.Session, *discordgo.InteractionCreate, *commands.Popmap){
	"popmap_select": commands.HandlePopmapSelect,
	"popmap_clear":  commands.HandlePopmapClear,
	"popmap_page":   commands.HandlePopmapPagination,
}

// OnInteractionCreate スラッシュコマンドとメッセージコンポーネントのハンドラー
func (h *Handler) OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.handleSlashCommand(s, i)
	case discordgo.InteractionMessageComponent:
		h.handleMessageComponent(s, i)
	default:
		log.Printf("Unknown interaction type: %d", i.Type)
	}
}

func (h *Handler) handleSlashCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	cmd, ok := h.registry.Get(name)
	if !ok {
		log.Printf("Unknown slash command: %s", name)
		return
	}
	log.Printf("Slash command /%s (guild=%s)", name, i.GuildID)

	if err := cmd.ExecuteSlash(s, i); err != nil {
		log.Printf("Error executing slash command %s: %v", name, err)
		reportInteractionError(s, i)
	}
}

// reportInteractionError 未応答なら応答、応答済み(defer含む)ならフォローアップで伝える
func reportInteractionError(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: commandErrorMessage,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err == nil {
		return
	}
	if _, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: commandErrorMessage,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		log.Printf("Failed to report interaction error: %v", err)
	}
}

func (h *Handler) handleMessageComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	handle, ok := componentRoutes[componentRoute(customID)]
	if !ok || h.popmap == nil {
		log.Printf("Unknown message component: %s", customID)
		return
	}
	handle(s, i, h.popmap)
}

func componentRoute(customID string) string {
	if idx := strings.IndexByte(customID, ':'); idx >= 0 {
		return customID[:idx]
	}
	return customID
}

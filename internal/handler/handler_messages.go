package handler

import (
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

func (h *Handler) OnMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Botメッセージを無視
	if m.Author == nil || m.Author.Bot {
		return
	}

	cmdName, args, ok := parseTextCommand(m.Content, h.prefix)
	if !ok {
		return
	}
	log.Printf("Parsed command: '%s', args: %v", cmdName, args)

	cmd, exists := h.registry.Get(cmdName)
	if !exists {
		log.Printf("Command '%s' not found in registry", cmdName)
		return
	}

	if err := cmd.ExecuteText(s, m, args); err != nil {
		log.Printf("Error executing command %s: %v", cmdName, err)
		s.ChannelMessageSend(m.ChannelID, "❌ コマンドの実行中にエラーが発生しました。")
	} else {
		log.Printf("Command %s completed successfully", cmdName)
	}
}

// parseTextCommand "!popmap Japan" を ("popmap", ["Japan"]) に分ける
func parseTextCommand(content, prefix string) (string, []string, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	parts := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(parts) == 0 {
		return "", nil, false
	}
	return parts[0], parts[1:], true
}

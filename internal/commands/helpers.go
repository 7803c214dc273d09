package commands

import (
	"bytes"

	"github.com/bwmarrin/discordgo"
)

func respondText(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
		},
	})
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondDeferred(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func respondDeferredUpdate(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

func followupMessage(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) error {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: msg,
	})
	return err
}

// imageFile 添付ファイルを作成。data が空なら nil
func imageFile(data []byte, filename, contentType string) *discordgo.File {
	if len(data) == 0 {
		return nil
	}
	return &discordgo.File{
		Name:        filename,
		ContentType: contentType,
		Reader:      bytes.NewReader(data),
	}
}

func buildOptionalFiles(file *discordgo.File) []*discordgo.File {
	if file == nil {
		return nil
	}
	return []*discordgo.File{file}
}

func sendMessageFollowup(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, file *discordgo.File, components []discordgo.MessageComponent) error {
	params := &discordgo.WebhookParams{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Files:      buildOptionalFiles(file),
		Components: components,
	}
	_, err := s.FollowupMessageCreate(i.Interaction, false, params)
	return err
}

// editMessageResponse 元のメッセージを差し替える。buildErr があればテキストのみ
func editMessageResponse(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, file *discordgo.File, components []discordgo.MessageComponent, buildErr error) error {
	if buildErr != nil {
		msg := "❌ エラー: " + buildErr.Error()
		empty := []*discordgo.MessageEmbed{}
		noComponents := []discordgo.MessageComponent{}
		_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content:    &msg,
			Embeds:     &empty,
			Components: &noComponents,
		})
		return err
	}
	embeds := []*discordgo.MessageEmbed{embed}
	comps := components
	edit := &discordgo.WebhookEdit{
		Embeds:     &embeds,
		Components: &comps,
	}
	attachments := []*discordgo.MessageAttachment{}
	if file != nil {
		edit.Files = []*discordgo.File{file}
		attachments = append(attachments, &discordgo.MessageAttachment{ID: "0", Filename: file.Name})
	}
	edit.Attachments = &attachments
	_, err := s.InteractionResponseEdit(i.Interaction, edit)
	return err
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func truncateLabel(value string, max int) string {
	r := []rune(value)
	if len(r) <= max {
		return value
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func totalPages(total, pageSize int) int {
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

func clampPage(page, total, pageSize int) int {
	maxPage := 0
	if total > 0 {
		maxPage = (total - 1) / pageSize
	}
	if page < 0 {
		return 0
	}
	if page > maxPage {
		return maxPage
	}
	return page
}

package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/bwmarrin/discordgo"
)

// syncPlan ローカル定義に合わせるためにDiscord側へ行う変更
type syncPlan struct {
	create []*discordgo.ApplicationCommand
	update map[string]*discordgo.ApplicationCommand // remote ID -> 新しい定義
	remove []*discordgo.ApplicationCommand
}

func (p syncPlan) empty() bool {
	return len(p.create) == 0 && len(p.update) == 0 && len(p.remove) == 0
}

func planSync(local, remote []*discordgo.ApplicationCommand) syncPlan {
	plan := syncPlan{update: make(map[string]*discordgo.ApplicationCommand)}
	byName := make(map[string]*discordgo.ApplicationCommand, len(remote))
	for _, cmd := range remote {
		byName[cmd.Name] = cmd
	}
	for _, cmd := range local {
		existing, ok := byName[cmd.Name]
		delete(byName, cmd.Name)
		switch {
		case !ok:
			plan.create = append(plan.create, cmd)
		case !commandsAreEqual(cmd, existing):
			plan.update[existing.ID] = cmd
		}
	}
	for _, cmd := range remote {
		if _, stale := byName[cmd.Name]; stale {
			plan.remove = append(plan.remove, cmd)
		}
	}
	return plan
}

// SyncSlashCommands ローカル定義とDiscord側を突き合わせて作成・更新・削除する。
// guildIDが設定されていればそのサーバーだけに登録する（即時反映）
func (h *Handler) SyncSlashCommands(s *discordgo.Session) error {
	appID := s.State.User.ID
	remote, err := s.ApplicationCommands(appID, h.guildID)
	if err != nil {
		return fmt.Errorf("could not fetch remote commands: %w", err)
	}
	plan := planSync(h.registry.GetSlashDefinitions(), remote)
	if plan.empty() {
		log.Println("Slash commands are up to date.")
		return nil
	}

	for _, cmd := range plan.create {
		log.Printf("Creating slash command: /%s", cmd.Name)
		if _, err := s.ApplicationCommandCreate(appID, h.guildID, cmd); err != nil {
			log.Printf("Failed to create command /%s: %v", cmd.Name, err)
		}
	}
	for id, cmd := range plan.update {
		log.Printf("Updating slash command: /%s", cmd.Name)
		if _, err := s.ApplicationCommandEdit(appID, h.guildID, id, cmd); err != nil {
			log.Printf("Failed to update command /%s: %v", cmd.Name, err)
		}
	}
	for _, cmd := range plan.remove {
		log.Printf("Deleting outdated slash command: /%s", cmd.Name)
		if err := s.ApplicationCommandDelete(appID, h.guildID, cmd.ID); err != nil {
			log.Printf("Failed to delete command /%s: %v", cmd.Name, err)
		}
	}
	log.Printf("Slash command sync complete (guild=%q): %d created, %d updated, %d deleted",
		h.guildID, len(plan.create), len(plan.update), len(plan.remove))
	return nil
}

// Cleanup 終了時の後始末。スラッシュコマンドは次回起動時の同期に任せて残す
func (h *Handler) Cleanup(s *discordgo.Session) {
	if h.popmap != nil && h.popmap.Sessions != nil {
		log.Printf("Shutting down with %d open popmap sessions", h.popmap.Sessions.Len())
	}
}

// 比較に使う項目だけを持つ正規形
type commandShape struct {
	Name        string        `json:"n"`
	Description string        `json:"d"`
	Permissions *int64        `json:"p"`
	Options     []optionShape `json:"o"`
}

type optionShape struct {
	Type        discordgo.ApplicationCommandOptionType `json:"t"`
	Name        string                                 `json:"n"`
	Description string                                 `json:"d"`
	Required    bool                                   `json:"r"`
	Choices     []choiceShape                          `json:"c"`
	Options     []optionShape                          `json:"o"`
}

type choiceShape struct {
	Name  string `json:"n"`
	Value string `json:"v"`
}

func shapeOptions(opts []*discordgo.ApplicationCommandOption) []optionShape {
	out := make([]optionShape, 0, len(opts))
	for _, o := range opts {
		choices := make([]choiceShape, 0, len(o.Choices))
		for _, c := range o.Choices {
			choices = append(choices, choiceShape{Name: c.Name, Value: fmt.Sprint(c.Value)})
		}
		sort.Slice(choices, func(i, j int) bool { return choices[i].Name < choices[j].Name })
		out = append(out, optionShape{
			Type:        o.Type,
			Name:        o.Name,
			Description: o.Description,
			Required:    o.Required,
			Choices:     choices,
			Options:     shapeOptions(o.Options),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func fingerprint(c *discordgo.ApplicationCommand) string {
	data, err := json.Marshal(commandShape{
		Name:        c.Name,
		Description: c.Description,
		Permissions: c.DefaultMemberPermissions,
		Options:     shapeOptions(c.Options),
	})
	if err != nil {
		return ""
	}
	return string(data)
}

// commandsAreEqual オプションやchoiceの並び順は無視して比較する
func commandsAreEqual(c1, c2 *discordgo.ApplicationCommand) bool {
	f1 := fingerprint(c1)
	return f1 != "" && f1 == fingerprint(c2)
}

package commands

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"Popmap_discord_bot/internal/choropleth"
	"Popmap_discord_bot/internal/config"
	"Popmap_discord_bot/internal/embeds"
	"Popmap_discord_bot/internal/metrics"
	"Popmap_discord_bot/internal/regions"
	"Popmap_discord_bot/internal/render"
	"Popmap_discord_bot/internal/session"
)

const (
	popmapPageSize     = 25
	popmapSelectPrefix = "popmap_select:"
	popmapClearPrefix  = "popmap_clear:"
	popmapPagePrefix   = "popmap_page:"
	popmapLoadTimeout  = 45 * time.Second

	surfaceDiscord = "discord"

	overlayFailureNotice = "⚠️ 地域データを読み込めませんでした。背景地図のみ表示しています。"
	sessionExpiredNotice = "⌛ このマップの有効期限が切れました。/popmap で新しく表示してください。"
)

// Popmap /popmap とそのボタン・セレクトメニューが共有する依存
type Popmap struct {
	Loader   *regions.Loader
	Sessions *session.Store
	Settings *config.SettingsManager
	Metrics  *metrics.Collector
	Render   render.Options
	Locale   string
}

type PopmapCommand struct {
	popmap *Popmap
}

func NewPopmapCommand(p *Popmap) *PopmapCommand {
	return &PopmapCommand{popmap: p}
}

func (c *PopmapCommand) Name() string { return "popmap" }

func (c *PopmapCommand) Description() string {
	return "国別人口のコロプレスマップを表示します"
}

func (c *PopmapCommand) ExecuteText(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), popmapLoadTimeout)
	defer cancel()

	sess, notice, err := c.popmap.open(ctx, m.GuildID, strings.Join(args, " "))
	if err != nil {
		log.Printf("Failed to create popmap surface: %v", err)
		_, err = s.ChannelMessageSend(m.ChannelID, render.FailureMessage)
		return err
	}
	embed, file, components, err := c.popmap.buildMessage(sess, notice)
	if err != nil {
		_, err = s.ChannelMessageSend(m.ChannelID, "❌ 地図の描画に失敗しました: "+err.Error())
		return err
	}
	_, err = s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Files:      buildOptionalFiles(file),
		Components: components,
	})
	return err
}

func (c *PopmapCommand) ExecuteSlash(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	query := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "country" {
			query = strings.TrimSpace(opt.StringValue())
		}
	}
	if err := respondDeferred(s, i); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), popmapLoadTimeout)
	defer cancel()

	sess, notice, err := c.popmap.open(ctx, i.GuildID, query)
	if err != nil {
		log.Printf("Failed to create popmap surface: %v", err)
		return followupMessage(s, i, render.FailureMessage)
	}
	sess.OwnerID = interactionUserID(i)

	embed, file, components, err := c.popmap.buildMessage(sess, notice)
	if err != nil {
		return followupMessage(s, i, "❌ 地図の描画に失敗しました: "+err.Error())
	}
	return sendMessageFollowup(s, i, embed, file, components)
}

func (c *PopmapCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "country",
				Description: "最初に強調表示する国 (名前または ISO コード。例: Japan, JPN)",
				Required:    false,
			},
		},
	}
}

// HandlePopmapSelect セレクトメニューでの地域選択（地域クリック相当）
func HandlePopmapSelect(s *discordgo.Session, i *discordgo.InteractionCreate, p *Popmap) {
	sid, page, ok := parsePopmapCustomID(i.MessageComponentData().CustomID, popmapSelectPrefix)
	if !ok {
		return
	}
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}
	sess, ok := p.Sessions.Get(sid)
	if !ok {
		_ = respondEphemeral(s, i, sessionExpiredNotice)
		return
	}
	_ = respondDeferredUpdate(s, i)
	go func() {
		sess.SetPage(page)
		if _, err := sess.Focus(values[0]); err != nil {
			log.Printf("Popmap focus %s failed: %v", values[0], err)
		}
		p.Metrics.Interaction(surfaceDiscord, "focus")
		embed, file, components, err := p.buildMessage(sess, "")
		if err := editMessageResponse(s, i, embed, file, components, err); err != nil {
			log.Printf("Failed to edit popmap message: %v", err)
		}
	}()
}

// HandlePopmapClear 選択解除ボタン（背景クリック相当）
func HandlePopmapClear(s *discordgo.Session, i *discordgo.InteractionCreate, p *Popmap) {
	sid, ok := parsePopmapClearID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}
	sess, ok := p.Sessions.Get(sid)
	if !ok {
		_ = respondEphemeral(s, i, sessionExpiredNotice)
		return
	}
	_ = respondDeferredUpdate(s, i)
	go func() {
		sess.Clear()
		p.Metrics.Interaction(surfaceDiscord, "clear")
		embed, file, components, err := p.buildMessage(sess, "")
		if err := editMessageResponse(s, i, embed, file, components, err); err != nil {
			log.Printf("Failed to edit popmap message: %v", err)
		}
	}()
}

// HandlePopmapPagination セレクトメニューのページ送り
func HandlePopmapPagination(s *discordgo.Session, i *discordgo.InteractionCreate, p *Popmap) {
	sid, page, ok := parsePopmapCustomID(i.MessageComponentData().CustomID, popmapPagePrefix)
	if !ok {
		return
	}
	sess, ok := p.Sessions.Get(sid)
	if !ok {
		_ = respondEphemeral(s, i, sessionExpiredNotice)
		return
	}
	_ = respondDeferredUpdate(s, i)
	go func() {
		sess.SetPage(page)
		p.Metrics.Interaction(surfaceDiscord, "page")
		embed, file, components, err := p.buildMessage(sess, "")
		if err := editMessageResponse(s, i, embed, file, components, err); err != nil {
			log.Printf("Failed to edit popmap message: %v", err)
		}
	}()
}

// open 新しいセッションを作る。地域データが取れなければ背景地図のみで続行する。
// エラーは描画面を作れなかった場合だけ
func (p *Popmap) open(ctx context.Context, guildID, query string) (*session.Session, string, error) {
	var notices []string
	ds, err := p.Loader.Load(ctx)
	if err != nil {
		log.Printf("Failed to load region dataset: %v", err)
		notices = append(notices, overlayFailureNotice)
		ds = nil
	}

	formatter := choropleth.NewFormatter(p.Settings.LocaleFor(guildID, p.Locale))
	sess, err := session.New(ds, p.Render, formatter)
	if err != nil {
		return nil, "", err
	}

	if query == "" && p.Settings != nil && guildID != "" {
		query = p.Settings.GetGuildSettings(guildID).DefaultRegion
	}
	if query != "" && sess.HasOverlay() {
		if r, ok := ds.Find(query); ok {
			if _, err := sess.Focus(r.ID); err != nil {
				log.Printf("Popmap initial focus %s failed: %v", r.ID, err)
			}
			sess.SetPage(pageOf(ds.SortedByName(), r.ID))
			p.Metrics.Interaction(surfaceDiscord, "focus")
		} else {
			notices = append(notices, fmt.Sprintf("❌ 地域が見つかりません: %s", query))
		}
	}

	p.Sessions.Put(sess)
	log.Printf("Popmap session %s opened (regions=%d)", sess.ID, ds.Len())
	return sess, strings.Join(notices, "\n"), nil
}

func (p *Popmap) buildMessage(sess *session.Session, notice string) (*discordgo.MessageEmbed, *discordgo.File, []discordgo.MessageComponent, error) {
	start := time.Now()
	img, st, err := sess.Render()
	p.Metrics.ObserveRender(surfaceDiscord, start, err)
	if err != nil {
		return nil, nil, nil, err
	}
	if !st.Overlay && notice == "" {
		notice = overlayFailureNotice
	}

	list := sess.Dataset().SortedByName()
	page := clampPage(sess.Page(), len(list), popmapPageSize)
	sess.SetPage(page)

	embed := embeds.BuildPopmapEmbed(embeds.PopmapView{
		Label:    st.Label,
		Notice:   notice,
		Page:     page,
		Pages:    totalPages(len(list), popmapPageSize),
		Filename: img.Filename,
	})
	file := imageFile(img.Data, img.Filename, img.MIME)
	return embed, file, buildPopmapComponents(sess.ID, list, page, st.Highlighted), nil
}

func buildPopmapComponents(sid string, list []*regions.Region, page int, highlighted string) []discordgo.MessageComponent {
	if len(list) == 0 {
		return nil
	}
	total := totalPages(len(list), popmapPageSize)
	start := page * popmapPageSize
	end := start + popmapPageSize
	if end > len(list) {
		end = len(list)
	}

	seen := make(map[string]bool, end-start)
	options := make([]discordgo.SelectMenuOption, 0, end-start)
	for _, r := range list[start:end] {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		label := r.Name
		if label == "" {
			label = r.ID
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       truncateLabel(label, 100),
			Value:       r.ID,
			Description: bucketLabel(r.Population),
			Default:     r.ID == highlighted,
		})
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    fmt.Sprintf("%s%s:%d", popmapSelectPrefix, sid, page),
					Placeholder: "地域を選択",
					Options:     options,
				},
			},
		},
	}

	buttons := []discordgo.MessageComponent{}
	if total > 1 {
		buttons = append(buttons,
			discordgo.Button{
				Label:    "前へ",
				Style:    discordgo.PrimaryButton,
				CustomID: fmt.Sprintf("%s%s:%d", popmapPagePrefix, sid, page-1),
				Disabled: page <= 0,
			},
			discordgo.Button{
				Label:    "次へ",
				Style:    discordgo.PrimaryButton,
				CustomID: fmt.Sprintf("%s%s:%d", popmapPagePrefix, sid, page+1),
				Disabled: page >= total-1,
			},
		)
	}
	buttons = append(buttons, discordgo.Button{
		Label:    "選択解除",
		Style:    discordgo.SecondaryButton,
		CustomID: popmapClearPrefix + sid,
		Disabled: highlighted == "",
	})
	components = append(components, discordgo.ActionsRow{Components: buttons})
	return components
}

func pageOf(list []*regions.Region, id string) int {
	for idx, r := range list {
		if r.ID == id {
			return idx / popmapPageSize
		}
	}
	return 0
}

func parsePopmapCustomID(customID, prefix string) (string, int, bool) {
	if !strings.HasPrefix(customID, prefix) {
		return "", 0, false
	}
	payload := strings.TrimPrefix(customID, prefix)
	idx := strings.LastIndex(payload, ":")
	if idx <= 0 {
		return "", 0, false
	}
	page, err := strconv.Atoi(payload[idx+1:])
	if err != nil {
		return "", 0, false
	}
	return payload[:idx], page, true
}

func parsePopmapClearID(customID string) (string, bool) {
	if !strings.HasPrefix(customID, popmapClearPrefix) {
		return "", false
	}
	sid := strings.TrimPrefix(customID, popmapClearPrefix)
	if sid == "" || strings.Contains(sid, ":") {
		return "", false
	}
	return sid, true
}

// bucketLabel 凡例と同じ表記の人口区分
func bucketLabel(population float64) string {
	legend := choropleth.Legend()
	b := choropleth.BucketFor(population)
	for idx, candidate := range choropleth.Buckets() {
		if candidate == b {
			return "Population: " + legend[idx].Label
		}
	}
	return "Population: " + choropleth.NotAvailable
}

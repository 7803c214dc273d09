package embeds

import (
	"strings"
	"testing"
	"time"

	"Popmap_discord_bot/internal/models"
)

func TestBuildPopmapEmbed(t *testing.T) {
	tests := []struct {
		name     string
		view     PopmapView
		wantDesc []string
		footer   string
	}{
		{
			name:     "nothing selected",
			view:     PopmapView{Pages: 1, Filename: "popmap.png"},
			wantDesc: []string{"地域を選択すると強調表示します。"},
			footer:   DataAttribution,
		},
		{
			name:     "label with break",
			view:     PopmapView{Label: "Testland<br>Population: 1,234,567", Page: 1, Pages: 3, Filename: "popmap.png"},
			wantDesc: []string{"Testland\nPopulation: 1,234,567"},
			footer:   "ページ 2 / 3 | " + DataAttribution,
		},
		{
			name:     "notice first",
			view:     PopmapView{Notice: "⚠️ base map only"},
			wantDesc: []string{"⚠️ base map only\n\n"},
			footer:   DataAttribution,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := BuildPopmapEmbed(tt.view)
			for _, want := range tt.wantDesc {
				if !strings.Contains(e.Description, want) {
					t.Errorf("description %q does not contain %q", e.Description, want)
				}
			}
			if e.Footer.Text != tt.footer {
				t.Errorf("footer = %q, want %q", e.Footer.Text, tt.footer)
			}
			if (tt.view.Filename != "") != (e.Image != nil) {
				t.Errorf("image = %v for filename %q", e.Image, tt.view.Filename)
			}
		})
	}
}

func TestBuildLegendEmbed(t *testing.T) {
	e := BuildLegendEmbed()
	lines := strings.Split(e.Description, "\n")
	if len(lines) != 7 {
		t.Fatalf("legend lines = %d, want 7", len(lines))
	}
	if lines[0] != "`#fff7ec` 0M–1M" || lines[6] != "`#555555` N/A" {
		t.Errorf("unexpected legend lines %q", lines)
	}
}

func TestBuildInfoEmbed(t *testing.T) {
	info := &models.BotInfo{Version: "test", StartTime: time.Now().Add(-90 * time.Second)}
	e := BuildInfoEmbed(info, InfoStats{Regions: 177, Sessions: 2})
	var dataset string
	for _, f := range e.Fields {
		if f.Name == "地域データ" {
			dataset = f.Value
		}
	}
	if dataset != "177 地域" {
		t.Errorf("dataset field = %q", dataset)
	}
	if len(e.Fields) != 5 {
		t.Errorf("fields before ready = %d, want 5", len(e.Fields))
	}

	info.MarkReady("popmap", 3)
	e = BuildInfoEmbed(info, InfoStats{})
	if e.Fields[3].Name != "導入サーバー数" || e.Fields[3].Value != "3" {
		t.Errorf("guild field = %+v", e.Fields[3])
	}
}

func TestFormatUptime(t *testing.T) {
	tests := map[time.Duration]string{
		5 * time.Second:               "5秒",
		2*time.Minute + 3*time.Second: "2分 3秒",
		26*time.Hour + 61*time.Second: "1日 2時間 1分 1秒",
	}
	for d, want := range tests {
		if got := formatUptime(d); got != want {
			t.Errorf("formatUptime(%v) = %q, want %q", d, got, want)
		}
	}
}

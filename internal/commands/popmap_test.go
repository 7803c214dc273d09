package commands

import (
	"fmt"
	"math"
	"testing"

	"github.com/bwmarrin/discordgo"

	"Popmap_discord_bot/internal/regions"
)

func TestParsePopmapCustomID(t *testing.T) {
	sid := "0b6a2f1e-5d3c-4a8e-9f00-1234567890ab"
	tests := []struct {
		name     string
		customID string
		prefix   string
		wantSID  string
		wantPage int
		wantOK   bool
	}{
		{"select", popmapSelectPrefix + sid + ":2", popmapSelectPrefix, sid, 2, true},
		{"page back", popmapPagePrefix + sid + ":-1", popmapPagePrefix, sid, -1, true},
		{"wrong prefix", popmapClearPrefix + sid, popmapSelectPrefix, "", 0, false},
		{"missing page", popmapSelectPrefix + sid, popmapSelectPrefix, "", 0, false},
		{"bad page", popmapSelectPrefix + sid + ":x", popmapSelectPrefix, "", 0, false},
		{"empty session", popmapSelectPrefix + ":1", popmapSelectPrefix, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSID, gotPage, ok := parsePopmapCustomID(tt.customID, tt.prefix)
			if ok != tt.wantOK || gotSID != tt.wantSID || gotPage != tt.wantPage {
				t.Errorf("parse(%q) = %q %d %v, want %q %d %v", tt.customID, gotSID, gotPage, ok, tt.wantSID, tt.wantPage, tt.wantOK)
			}
		})
	}
}

func TestParsePopmapClearID(t *testing.T) {
	if sid, ok := parsePopmapClearID(popmapClearPrefix + "abc"); !ok || sid != "abc" {
		t.Errorf("clear id = %q %v", sid, ok)
	}
	for _, bad := range []string{popmapClearPrefix, popmapClearPrefix + "a:1", "popmap_page:abc:1"} {
		if _, ok := parsePopmapClearID(bad); ok {
			t.Errorf("parsePopmapClearID(%q) should fail", bad)
		}
	}
}

func sampleRegions(n int) []*regions.Region {
	list := make([]*regions.Region, n)
	for i := range list {
		list[i] = &regions.Region{ID: fmt.Sprintf("R%02d", i), Name: fmt.Sprintf("Region %02d", i), Population: float64(i) * 1_000_000}
	}
	return list
}

func TestBuildPopmapComponents(t *testing.T) {
	list := sampleRegions(30)

	comps := buildPopmapComponents("sid", list, 1, "R27")
	if len(comps) != 2 {
		t.Fatalf("rows = %d, want 2", len(comps))
	}
	menu := comps[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	if menu.CustomID != "popmap_select:sid:1" {
		t.Errorf("select custom id = %q", menu.CustomID)
	}
	if len(menu.Options) != 5 {
		t.Fatalf("options on page 2 = %d, want 5", len(menu.Options))
	}
	var defaults int
	for _, opt := range menu.Options {
		if opt.Default {
			defaults++
			if opt.Value != "R27" {
				t.Errorf("default option = %q", opt.Value)
			}
		}
	}
	if defaults != 1 {
		t.Errorf("default options = %d, want 1", defaults)
	}

	buttons := comps[1].(discordgo.ActionsRow).Components
	if len(buttons) != 3 {
		t.Fatalf("buttons = %d, want 3", len(buttons))
	}
	prev := buttons[0].(discordgo.Button)
	next := buttons[1].(discordgo.Button)
	clearBtn := buttons[2].(discordgo.Button)
	if prev.Disabled || !next.Disabled {
		t.Errorf("prev disabled=%v next disabled=%v on last page", prev.Disabled, next.Disabled)
	}
	if clearBtn.Label != "選択解除" || clearBtn.CustomID != "popmap_clear:sid" || clearBtn.Disabled {
		t.Errorf("clear button = %+v", clearBtn)
	}

	single := buildPopmapComponents("sid", list[:3], 0, "")
	row := single[1].(discordgo.ActionsRow).Components
	if len(row) != 1 || !row[0].(discordgo.Button).Disabled {
		t.Errorf("single page should only carry a disabled clear button: %+v", row)
	}

	if comps := buildPopmapComponents("sid", nil, 0, ""); comps != nil {
		t.Errorf("no regions should produce no components, got %d rows", len(comps))
	}
}

func TestBucketLabel(t *testing.T) {
	tests := map[float64]string{
		500_000:     "Population: 0M–1M",
		10_000_000:  "Population: 1M–10M",
		100_000_001: "Population: 100M+",
		math.NaN():  "Population: N/A",
		-99:         "Population: N/A",
	}
	for pop, want := range tests {
		if got := bucketLabel(pop); got != want {
			t.Errorf("bucketLabel(%v) = %q, want %q", pop, got, want)
		}
	}
}

func TestPagination(t *testing.T) {
	list := sampleRegions(60)
	if got := pageOf(list, "R51"); got != 2 {
		t.Errorf("pageOf(R51) = %d, want 2", got)
	}
	if got := pageOf(list, "missing"); got != 0 {
		t.Errorf("pageOf(missing) = %d, want 0", got)
	}
	if got := totalPages(60, popmapPageSize); got != 3 {
		t.Errorf("totalPages = %d, want 3", got)
	}
	if got := clampPage(9, 60, popmapPageSize); got != 2 {
		t.Errorf("clampPage high = %d", got)
	}
	if got := clampPage(-1, 60, popmapPageSize); got != 0 {
		t.Errorf("clampPage low = %d", got)
	}
}

func TestTruncateLabel(t *testing.T) {
	if got := truncateLabel("日本語の長い地域名", 5); got != "日本..." {
		t.Errorf("truncateLabel = %q", got)
	}
	if got := truncateLabel("short", 100); got != "short" {
		t.Errorf("truncateLabel = %q", got)
	}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&PingCommand{})
	r.Register(&LegendCommand{})
	r.Register(NewHelpCommand(r))
	r.Register(&PingCommand{})

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("All = %d, want 3", len(all))
	}
	if all[0].Name() != "ping" || all[1].Name() != "legend" || all[2].Name() != "help" {
		t.Errorf("unexpected order: %s %s %s", all[0].Name(), all[1].Name(), all[2].Name())
	}
	if _, ok := r.Get("LEGEND"); !ok {
		t.Error("Get should be case-insensitive")
	}
	if defs := r.GetSlashDefinitions(); len(defs) != 3 {
		t.Errorf("slash definitions = %d", len(defs))
	}
}

func TestHelpEmbed(t *testing.T) {
	r := NewRegistry()
	r.Register(&LegendCommand{})
	help := NewHelpCommand(r)
	r.Register(help)

	e := help.buildHelpEmbed()
	if e.Fields[0].Name != "🔹 /legend" || e.Fields[1].Name != "🔹 /help" {
		t.Errorf("command fields = %q, %q", e.Fields[0].Name, e.Fields[1].Name)
	}
	last := e.Fields[len(e.Fields)-1]
	if last.Name != "サポートサーバー" || last.Value == "" {
		t.Errorf("support field = %+v", last)
	}
}

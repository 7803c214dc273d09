package choropleth

import (
	"image"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"Popmap_discord_bot/internal/regions"
)

const (
	// LabelBreak ラベルの改行マーカー。描画側で分割する
	LabelBreak = "<br>"
	// NotAvailable 人口不明時の表示
	NotAvailable = "N/A"
)

// TooltipOffset 重心からのずらし量（上方向）
var TooltipOffset = image.Pt(0, -10)

// Tooltip 地域にバインドされるラベル
type Tooltip struct {
	Text      string
	Direction string // "top"
	Offset    image.Point
	Sticky    bool
}

// Formatter ロケールに応じた人口表記でラベルを作る
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatter 言語タグ（例: "en", "ja", "de"）を指定して作成。不正なら英語
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

var defaultFormatter = NewFormatter("en")

// FormatLabel 英語ロケールでのラベル
func FormatLabel(r *regions.Region) string {
	return defaultFormatter.Label(r)
}

// Label "名前<br>Population: 1,234,567"
func (f *Formatter) Label(r *regions.Region) string {
	return r.Name + LabelBreak + "Population: " + f.Population(r.Population)
}

// Population 桁区切りした人口。NaN・負数は "N/A"
func (f *Formatter) Population(p float64) string {
	if math.IsNaN(p) || p < 0 {
		return NotAvailable
	}
	return f.printer.Sprint(number.Decimal(p, number.MaxFractionDigits(3)))
}

// Tooltip Labelを既定の配置でTooltipにする
func (f *Formatter) Tooltip(r *regions.Region) Tooltip {
	return Tooltip{
		Text:      f.Label(r),
		Direction: "top",
		Offset:    TooltipOffset,
		Sticky:    true,
	}
}

func (f *Formatter) Locale() string {
	return f.tag.String()
}

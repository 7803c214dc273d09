package choropleth

import (
	"image/color"

	"Popmap_discord_bot/internal/regions"
)

// Style 地域1件の描画スタイル
type Style struct {
	Weight      float64     // 境界線の太さ(px)
	Opacity     float64     // 境界線の不透明度 0..1
	Color       color.NRGBA // 境界線の色
	FillColor   color.NRGBA
	FillOpacity float64 // 0..1
}

var (
	borderColor         = color.NRGBA{0xFF, 0xFF, 0xFF, 0x80}
	emphasisBorderColor = color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}
)

const (
	defaultWeight       = 1
	defaultOpacity      = 1
	defaultFillOpacity  = 0.7
	emphasisWeight      = 2
	emphasisFillOpacity = 0.9
)

// StyleOf 人口から導出される既定スタイル
func StyleOf(r *regions.Region) Style {
	return StyleForPopulation(r.Population)
}

// StyleForPopulation StyleOfの人口値版
func StyleForPopulation(population float64) Style {
	return Style{
		Weight:      defaultWeight,
		Opacity:     defaultOpacity,
		Color:       borderColor,
		FillColor:   ColorFor(population),
		FillOpacity: defaultFillOpacity,
	}
}

// EmphasisOf 強調表示スタイル。塗り色は既定スタイルのまま
func EmphasisOf(r *regions.Region) Style {
	s := StyleOf(r)
	s.Weight = emphasisWeight
	s.Color = emphasisBorderColor
	s.FillOpacity = emphasisFillOpacity
	return s
}

package choropleth

import (
	"fmt"
	"image/color"
	"strconv"
)

// LegendEntry 凡例1行
type LegendEntry struct {
	Color color.NRGBA
	Label string
}

// Panel 地図上に固定表示するパネル
type Panel struct {
	Title    string
	Entries  []LegendEntry
	Position string
}

const (
	LegendTitle    = "Population"
	LegendPosition = "bottomright"
)

var legendGrades = []float64{0, threshold1M, threshold10M, threshold20M, threshold50M, threshold100M}

// Legend 6区分（昇順）とN/Aの凡例を返す。
// 最上位は上限なしで "100M+"
func Legend() []LegendEntry {
	buckets := Buckets()
	entries := make([]LegendEntry, 0, len(legendGrades)+1)
	for i, from := range legendGrades {
		label := millions(from) + "M"
		if i+1 < len(legendGrades) {
			label += "–" + millions(legendGrades[i+1]) + "M"
		} else {
			label += "+"
		}
		entries = append(entries, LegendEntry{Color: buckets[i].Color(), Label: label})
	}
	entries = append(entries, LegendEntry{Color: BucketNoData.Color(), Label: NotAvailable})
	return entries
}

// LegendPanel 右下に置く凡例パネル
func LegendPanel() Panel {
	return Panel{
		Title:    LegendTitle,
		Entries:  Legend(),
		Position: LegendPosition,
	}
}

func millions(v float64) string {
	return strconv.FormatFloat(v/1_000_000, 'f', -1, 64)
}

func (e LegendEntry) String() string {
	return fmt.Sprintf("%s %s", HexColor(e.Color), e.Label)
}

package choropleth

import (
	"Popmap_discord_bot/internal/regions"
)

// Overlay 人口コロプレスレイヤー。強調状態を所有し、
// イベントハンドラーへは閉包ではなくこのオブジェクト経由で渡す
type Overlay struct {
	surface   Surface
	highlight *Highlighter
	formatter *Formatter

	layers   map[LayerID]*regions.Region
	byRegion map[string]LayerID
	legend   Panel
}

// Attach データセットの全地域を描画面に追加する。
// 全件を追加し終えてから凡例を載せる（部分的なオーバーレイは残さない）
func Attach(surface Surface, ds *regions.Dataset, f *Formatter) *Overlay {
	if f == nil {
		f = defaultFormatter
	}
	o := &Overlay{
		surface:   surface,
		highlight: NewHighlighter(surface),
		formatter: f,
		layers:    make(map[LayerID]*regions.Region, ds.Len()),
		byRegion:  make(map[string]LayerID, ds.Len()),
		legend:    LegendPanel(),
	}
	for _, r := range ds.Regions {
		id := surface.AddRegion(r.Geometry, StyleOf(r))
		o.layers[id] = r
		if _, dup := o.byRegion[r.ID]; !dup {
			o.byRegion[r.ID] = id
		}
		o.highlight.Track(id, r)
		surface.BindTooltip(id, f.Tooltip(r))
		surface.OnRegionClick(id, o.onRegionClick)
	}
	surface.OnBackgroundClick(o.onBackgroundClick)
	surface.AddPanel(o.legend)
	return o
}

func (o *Overlay) onRegionClick(ev *Event) {
	ev.StopPropagation()
	o.highlight.Focus(ev.Layer)
}

func (o *Overlay) onBackgroundClick(*Event) {
	o.highlight.Clear()
}

// Focus 地域IDで直接強調する
func (o *Overlay) Focus(regionID string) bool {
	id, ok := o.byRegion[regionID]
	if !ok {
		return false
	}
	return o.highlight.Focus(id)
}

// Clear 強調を解除する
func (o *Overlay) Clear() {
	o.highlight.Clear()
}

// Highlighted 強調中の地域
func (o *Overlay) Highlighted() (*regions.Region, bool) {
	id, ok := o.highlight.Current()
	if !ok {
		return nil, false
	}
	r, ok := o.layers[id]
	return r, ok
}

// LayerFor 地域IDに対応するレイヤー
func (o *Overlay) LayerFor(regionID string) (LayerID, bool) {
	id, ok := o.byRegion[regionID]
	return id, ok
}

// Region レイヤーに対応する地域
func (o *Overlay) Region(id LayerID) (*regions.Region, bool) {
	r, ok := o.layers[id]
	return r, ok
}

// Label 地域のツールチップ文字列
func (o *Overlay) Label(r *regions.Region) string {
	return o.formatter.Label(r)
}


package choropleth

import (
	"Popmap_discord_bot/internal/regions"
)

// Highlighter 強調表示中の地域を高々1つ保持する状態機械。
// 強調されていない地域は常に StyleOf(region) と一致する
type Highlighter struct {
	surface Surface
	regions map[LayerID]*regions.Region

	current LayerID
}

// NewHighlighter 強調なしの状態で作成
func NewHighlighter(surface Surface) *Highlighter {
	return &Highlighter{
		surface: surface,
		regions: make(map[LayerID]*regions.Region),
		current: NoLayer,
	}
}

// Track レイヤーと地域を対応付ける
func (h *Highlighter) Track(id LayerID, r *regions.Region) {
	h.regions[id] = r
}

// Focus 現在の強調を既定スタイルに戻し、idを強調して最前面へ移す。
// 未知のレイヤーは無視する
func (h *Highlighter) Focus(id LayerID) bool {
	r, ok := h.regions[id]
	if !ok {
		return false
	}
	h.restore()
	h.surface.SetStyle(id, EmphasisOf(r))
	h.surface.BringToFront(id)
	h.current = id
	return true
}

// Clear 強調を解除する。何も強調されていなければ何もしない
func (h *Highlighter) Clear() {
	h.restore()
	h.current = NoLayer
}

// Current 強調中のレイヤー
func (h *Highlighter) Current() (LayerID, bool) {
	return h.current, h.current != NoLayer
}

func (h *Highlighter) restore() {
	if h.current == NoLayer {
		return
	}
	// キャッシュではなく人口から再計算したスタイルに戻す
	if r, ok := h.regions[h.current]; ok {
		h.surface.SetStyle(h.current, StyleOf(r))
	}
}

package choropleth

import (
	"image"

	geojson "github.com/paulmach/go.geojson"
)

// LayerID 描画面上の地域レイヤー
type LayerID int

// NoLayer 背景（どの地域にも当たらない位置）
const NoLayer LayerID = -1

// Event クリック・ホバーイベント
type Event struct {
	Layer LayerID
	Point image.Point
	// Direct 座標ではなくレイヤー指定で発火した（セレクトメニュー等）
	Direct bool

	stopped bool
}

// StopPropagation 以降の背景ハンドラーへの伝播を止める
func (e *Event) StopPropagation() {
	e.stopped = true
}

func (e *Event) PropagationStopped() bool {
	return e.stopped
}

// Handler イベントハンドラー
type Handler func(*Event)

// Surface 地図描画面が提供する機能。
//
// 地域クリックの配送規約: 該当レイヤーのハンドラーを先に呼び、
// StopPropagation されていなければ背景ハンドラーを続けて呼ぶ。
// どの地域にも当たらないクリックは背景ハンドラーのみ。
type Surface interface {
	AddRegion(geometry *geojson.Geometry, style Style) LayerID
	SetStyle(id LayerID, style Style)
	BringToFront(id LayerID)
	BindTooltip(id LayerID, tooltip Tooltip)
	OnRegionClick(id LayerID, h Handler)
	OnBackgroundClick(h Handler)
	AddPanel(p Panel)
}

// Dispatch 規約どおりに地域クリックを配送する。Surface実装から使う
func Dispatch(ev *Event, regionHandlers, backgroundHandlers []Handler) {
	for _, h := range regionHandlers {
		h(ev)
	}
	if ev.Layer != NoLayer && ev.PropagationStopped() {
		return
	}
	for _, h := range backgroundHandlers {
		h(ev)
	}
}

package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"os"

	geojson "github.com/paulmach/go.geojson"

	"Popmap_discord_bot/internal/choropleth"
)

const (
	DefaultWidth  = 1200
	DefaultHeight = 720
	MaxDimension  = 4096

	titleHeight   = 40
	titleFontSize = 18
	defaultMinLat = -58
	defaultMaxLat = 84
)

var (
	backgroundColor = color.NRGBA{0x1B, 0x1D, 0x22, 0xFF}
	graticuleColor  = color.NRGBA{0x2A, 0x2E, 0x36, 0xFF}
	titleBarColor   = color.NRGBA{0x2C, 0x3E, 0x50, 0xFF}
)

// ErrInvalidSurface 描画面を初期化できない
var ErrInvalidSurface = errors.New("invalid render surface")

var renderDebugLogging = os.Getenv("RENDER_DEBUG_LOG") == "1"

func renderDebugf(format string, args ...interface{}) {
	if !renderDebugLogging {
		return
	}
	log.Printf(format, args...)
}

// Options Canvasの設定
type Options struct {
	Width  int
	Height int
	Title  string
	MinLat float64
	MaxLat float64
}

type layer struct {
	id       choropleth.LayerID
	style    choropleth.Style
	rings    []ring
	bounds   image.Rectangle
	centroid point
	tooltip  *choropleth.Tooltip
	handlers []choropleth.Handler
}

// Canvas choropleth.Surface のラスター実装。
// 1つのCanvasは1つのイベントループから使う（内部で排他しない）
type Canvas struct {
	opts Options
	proj projection

	layers     []*layer
	order      []choropleth.LayerID
	background []choropleth.Handler
	panels     []choropleth.Panel
	open       choropleth.LayerID
}

var _ choropleth.Surface = (*Canvas)(nil)

// NewCanvas 描画面を作成する。寸法が不正ならErrInvalidSurface
func NewCanvas(opts Options) (*Canvas, error) {
	if opts.Width == 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height == 0 {
		opts.Height = DefaultHeight
	}
	if opts.Width < 0 || opts.Height <= titleHeight || opts.Width > MaxDimension || opts.Height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSurface, opts.Width, opts.Height)
	}
	if opts.MinLat == 0 && opts.MaxLat == 0 {
		opts.MinLat, opts.MaxLat = defaultMinLat, defaultMaxLat
	}
	if opts.MinLat >= opts.MaxLat {
		return nil, fmt.Errorf("%w: latitude range %v..%v", ErrInvalidSurface, opts.MinLat, opts.MaxLat)
	}
	area := image.Rect(0, titleHeight, opts.Width, opts.Height)
	return &Canvas{
		opts: opts,
		proj: newProjection(area, opts.MinLat, opts.MaxLat),
		open: choropleth.NoLayer,
	}, nil
}

func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.opts.Width, c.opts.Height)
}

func (c *Canvas) AddRegion(g *geojson.Geometry, style choropleth.Style) choropleth.LayerID {
	rings, outers := c.proj.projectGeometry(g)
	id := choropleth.LayerID(len(c.layers))
	c.layers = append(c.layers, &layer{
		id:       id,
		style:    style,
		rings:    rings,
		bounds:   ringsBounds(rings),
		centroid: visualCentroid(outers),
	})
	c.order = append(c.order, id)
	return id
}

func (c *Canvas) layer(id choropleth.LayerID) *layer {
	if id < 0 || int(id) >= len(c.layers) {
		return nil
	}
	return c.layers[id]
}

func (c *Canvas) SetStyle(id choropleth.LayerID, style choropleth.Style) {
	if l := c.layer(id); l != nil {
		l.style = style
	}
}

// Style 現在のスタイル
func (c *Canvas) Style(id choropleth.LayerID) (choropleth.Style, bool) {
	l := c.layer(id)
	if l == nil {
		return choropleth.Style{}, false
	}
	return l.style, true
}

func (c *Canvas) BringToFront(id choropleth.LayerID) {
	for i, l := range c.order {
		if l == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, id)
			return
		}
	}
}

// Order 描画順（最後が最前面）
func (c *Canvas) Order() []choropleth.LayerID {
	out := make([]choropleth.LayerID, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Canvas) BindTooltip(id choropleth.LayerID, t choropleth.Tooltip) {
	if l := c.layer(id); l != nil {
		tip := t
		l.tooltip = &tip
	}
}

func (c *Canvas) OnRegionClick(id choropleth.LayerID, h choropleth.Handler) {
	if l := c.layer(id); l != nil {
		l.handlers = append(l.handlers, h)
	}
}

func (c *Canvas) OnBackgroundClick(h choropleth.Handler) {
	c.background = append(c.background, h)
}

func (c *Canvas) AddPanel(p choropleth.Panel) {
	c.panels = append(c.panels, p)
}

// HitTest 最前面から順に、点を含むレイヤーを探す
func (c *Canvas) HitTest(pt image.Point) choropleth.LayerID {
	x, y := float64(pt.X)+0.5, float64(pt.Y)+0.5
	for i := len(c.order) - 1; i >= 0; i-- {
		l := c.layers[c.order[i]]
		if !pt.In(l.bounds) {
			continue
		}
		if contains(l.rings, x, y) {
			return l.id
		}
	}
	return choropleth.NoLayer
}

// Click 座標クリック。地域に当たればその地域のハンドラーへ、
// 伝播が止められなければ背景ハンドラーへ配送する
func (c *Canvas) Click(pt image.Point) *choropleth.Event {
	id := c.HitTest(pt)
	if renderDebugLogging {
		ll := c.proj.unproject(point{x: float64(pt.X), y: float64(pt.Y)})
		renderDebugf("Canvas click at %v (%.2f, %.2f) -> layer %d", pt, ll.Lng, ll.Lat, id)
	}
	return c.dispatch(&choropleth.Event{Layer: id, Point: pt})
}

// ClickLayer レイヤーを直接クリックしたものとして配送する
func (c *Canvas) ClickLayer(id choropleth.LayerID) (*choropleth.Event, error) {
	l := c.layer(id)
	if l == nil {
		return nil, fmt.Errorf("unknown layer %d", id)
	}
	pt := image.Pt(int(l.centroid.x), int(l.centroid.y))
	return c.dispatch(&choropleth.Event{Layer: id, Point: pt, Direct: true}), nil
}

// ClickBackground 地域外のクリック
func (c *Canvas) ClickBackground() *choropleth.Event {
	return c.dispatch(&choropleth.Event{Layer: choropleth.NoLayer})
}

func (c *Canvas) dispatch(ev *choropleth.Event) *choropleth.Event {
	var handlers []choropleth.Handler
	if l := c.layer(ev.Layer); l != nil {
		handlers = l.handlers
		if l.tooltip != nil {
			c.open = l.id
		}
	} else {
		c.open = choropleth.NoLayer
	}
	choropleth.Dispatch(ev, handlers, c.background)
	return ev
}

// Hover ホバー位置のツールチップを開く（stickyなので地域外では閉じる）
func (c *Canvas) Hover(pt image.Point) (choropleth.LayerID, string) {
	id := c.HitTest(pt)
	l := c.layer(id)
	if l == nil || l.tooltip == nil {
		c.open = choropleth.NoLayer
		return id, ""
	}
	c.open = id
	return id, l.tooltip.Text
}

// OpenTooltip 表示中のツールチップ
func (c *Canvas) OpenTooltip() (choropleth.LayerID, string, bool) {
	l := c.layer(c.open)
	if l == nil || l.tooltip == nil {
		return choropleth.NoLayer, "", false
	}
	return l.id, l.tooltip.Text, true
}

// Render 現在の状態を画像にする
func (c *Canvas) Render() *image.NRGBA {
	img := image.NewNRGBA(c.Bounds())
	draw.Draw(img, img.Bounds(), &image.Uniform{C: backgroundColor}, image.Point{}, draw.Src)
	c.drawGraticule(img)

	for _, id := range c.order {
		c.drawLayer(img, c.layers[id])
	}
	if l := c.layer(c.open); l != nil && l.tooltip != nil {
		drawTooltip(img, l.tooltip, l.centroid)
	}
	for _, p := range c.panels {
		drawPanel(img, p, c.proj.area)
	}

	draw.Draw(img, image.Rect(0, 0, c.opts.Width, titleHeight), &image.Uniform{C: titleBarColor}, image.Point{}, draw.Src)
	if c.opts.Title != "" {
		drawTitle(img, c.opts.Title, c.opts.Width, titleHeight, titleFontSize)
	}
	renderDebugf("Canvas rendered: %dx%d layers=%d panels=%d", c.opts.Width, c.opts.Height, len(c.layers), len(c.panels))
	return img
}

func (c *Canvas) drawLayer(img *image.NRGBA, l *layer) {
	area := c.proj.area
	fillBounds := l.bounds.Intersect(area)
	if fillBounds.Empty() {
		return
	}
	s := l.style
	if s.FillOpacity > 0 {
		mask := fillMask(l.rings, fillBounds)
		draw.DrawMask(img, fillBounds, &image.Uniform{C: withAlpha(s.FillColor, s.FillOpacity)}, image.Point{}, mask, fillBounds.Min, draw.Over)
	}
	if s.Weight > 0 && s.Opacity > 0 {
		mask := strokeMask(l.rings, fillBounds, s.Weight)
		strokeBounds := mask.Bounds().Intersect(area)
		draw.DrawMask(img, strokeBounds, &image.Uniform{C: withAlpha(s.Color, s.Opacity)}, image.Point{}, mask, strokeBounds.Min, draw.Over)
	}
}

func (c *Canvas) drawGraticule(img *image.NRGBA) {
	area := c.proj.area
	mask := image.NewAlpha(area)
	for lng := -180.0; lng <= 180.0; lng += 30 {
		a := c.proj.project(lng, c.opts.MaxLat)
		b := c.proj.project(lng, c.opts.MinLat)
		drawLine(mask, int(a.x), int(a.y), int(b.x), int(b.y), 1)
	}
	for lat := -60.0; lat <= 90.0; lat += 30 {
		if lat < c.opts.MinLat || lat > c.opts.MaxLat {
			continue
		}
		a := c.proj.project(-180, lat)
		b := c.proj.project(180, lat)
		drawLine(mask, int(a.x), int(a.y), int(b.x), int(b.y), 1)
	}
	draw.DrawMask(img, area, &image.Uniform{C: graticuleColor}, image.Point{}, mask, area.Min, draw.Over)
}

// withAlpha 色の不透明度にopacityを掛ける
func withAlpha(c color.NRGBA, opacity float64) color.NRGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	c.A = uint8(math.Round(float64(c.A) * opacity))
	return c
}

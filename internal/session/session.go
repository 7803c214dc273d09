package session

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"Popmap_discord_bot/internal/choropleth"
	"Popmap_discord_bot/internal/regions"
	"Popmap_discord_bot/internal/render"
)

var (
	// ErrUnknownRegion データセットにない地域ID
	ErrUnknownRegion = errors.New("unknown region")
	// ErrNoOverlay 地域データなしで起動したセッション
	ErrNoOverlay = errors.New("region overlay not available")
)

// State クライアントへ返す現在の表示状態
type State struct {
	Highlighted string `json:"highlighted"`
	Label       string `json:"label"`
	Tooltip     string `json:"tooltip"`
	Overlay     bool   `json:"overlay"`
}

// Image エンコード済みの描画結果
type Image struct {
	Data     []byte
	MIME     string
	Filename string
}

// Session 1枚の対話的な地図。
// イベントはDoで直列化され、1つずつ最後まで処理される
type Session struct {
	ID      string
	OwnerID string
	Created time.Time

	mu      sync.Mutex
	page    int
	canvas  *render.Canvas
	overlay *choropleth.Overlay
	dataset *regions.Dataset
}

// New 描画面を作り、データがあれば地域オーバーレイを載せる。
// 描画面の初期化に失敗した場合はrender.ErrInvalidSurface
func New(ds *regions.Dataset, opts render.Options, f *choropleth.Formatter) (*Session, error) {
	canvas, err := render.NewCanvas(opts)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:      uuid.NewString(),
		Created: time.Now(),
		canvas:  canvas,
		dataset: ds,
	}
	if ds.Len() > 0 {
		s.overlay = choropleth.Attach(canvas, ds, f)
	}
	return s, nil
}

// Do セッションを排他してfnを実行する
func (s *Session) Do(fn func(c *render.Canvas, o *choropleth.Overlay) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.canvas, s.overlay)
}

func (s *Session) Dataset() *regions.Dataset {
	return s.dataset
}

func (s *Session) HasOverlay() bool {
	return s.overlay != nil
}

func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *Session) SetPage(page int) {
	s.mu.Lock()
	s.page = page
	s.mu.Unlock()
}

// Focus 地域をクリックしたものとして扱う
func (s *Session) Focus(regionID string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overlay == nil {
		return s.stateLocked(), ErrNoOverlay
	}
	id, ok := s.overlay.LayerFor(regionID)
	if !ok {
		return s.stateLocked(), fmt.Errorf("%w: %s", ErrUnknownRegion, regionID)
	}
	if _, err := s.canvas.ClickLayer(id); err != nil {
		return s.stateLocked(), err
	}
	return s.stateLocked(), nil
}

// ClickAt 画像座標でのクリック
func (s *Session) ClickAt(pt image.Point) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas.Click(pt)
	return s.stateLocked()
}

// Clear 背景クリック
func (s *Session) Clear() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas.ClickBackground()
	return s.stateLocked()
}

// Hover ツールチップだけを更新する（強調表示は変えない）
func (s *Session) Hover(pt image.Point) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas.Hover(pt)
	return s.stateLocked()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Render 現在の状態を描画してエンコードする
func (s *Session) Render() (Image, State, error) {
	s.mu.Lock()
	img := s.canvas.Render()
	st := s.stateLocked()
	s.mu.Unlock()

	data, mime, filename, err := render.Encode(img)
	if err != nil {
		return Image{}, st, err
	}
	return Image{Data: data, MIME: mime, Filename: filename}, st, nil
}

func (s *Session) stateLocked() State {
	st := State{Overlay: s.overlay != nil}
	if s.overlay != nil {
		if r, ok := s.overlay.Highlighted(); ok {
			st.Highlighted = r.ID
			st.Label = s.overlay.Label(r)
		}
	}
	if _, text, ok := s.canvas.OpenTooltip(); ok {
		st.Tooltip = text
	}
	return st
}

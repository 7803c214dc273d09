package choropleth

import (
	"math/rand"
	"testing"

	geojson "github.com/paulmach/go.geojson"

	"Popmap_discord_bot/internal/regions"
)

// fakeSurface 描画しないSurface。スタイルとz順だけ記録する
type fakeSurface struct {
	styles     []Style
	order      []LayerID
	tooltips   map[LayerID]Tooltip
	handlers   map[LayerID][]Handler
	background []Handler
	panels     []Panel
	setCalls   int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		tooltips: make(map[LayerID]Tooltip),
		handlers: make(map[LayerID][]Handler),
	}
}

func (f *fakeSurface) AddRegion(_ *geojson.Geometry, style Style) LayerID {
	id := LayerID(len(f.styles))
	f.styles = append(f.styles, style)
	f.order = append(f.order, id)
	return id
}

func (f *fakeSurface) SetStyle(id LayerID, style Style) {
	f.setCalls++
	f.styles[id] = style
}

func (f *fakeSurface) BringToFront(id LayerID) {
	for i, l := range f.order {
		if l == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	f.order = append(f.order, id)
}

func (f *fakeSurface) BindTooltip(id LayerID, t Tooltip)   { f.tooltips[id] = t }
func (f *fakeSurface) OnRegionClick(id LayerID, h Handler) { f.handlers[id] = append(f.handlers[id], h) }
func (f *fakeSurface) OnBackgroundClick(h Handler)         { f.background = append(f.background, h) }
func (f *fakeSurface) AddPanel(p Panel)                    { f.panels = append(f.panels, p) }

func (f *fakeSurface) click(id LayerID) *Event {
	ev := &Event{Layer: id}
	Dispatch(ev, f.handlers[id], f.background)
	return ev
}

func (f *fakeSurface) clickBackground() {
	Dispatch(&Event{Layer: NoLayer}, nil, f.background)
}

func square(x float64) *geojson.Geometry {
	return geojson.NewPolygonGeometry([][][]float64{{{x, 0}, {x + 1, 0}, {x + 1, 1}, {x, 1}, {x, 0}}})
}

func testDataset() *regions.Dataset {
	return regions.NewDataset([]*regions.Region{
		{ID: "A", Name: "Aland", Population: 5_000_000, Geometry: square(0)},
		{ID: "B", Name: "Bland", Population: 200_000_000, Geometry: square(2)},
		{ID: "C", Name: "Cland", Population: -99, Geometry: square(4)},
	})
}

// assertInvariant 強調は高々1つ、それ以外は既定スタイルと一致
func assertInvariant(t *testing.T, s *fakeSurface, o *Overlay) {
	t.Helper()
	emphasized := 0
	for id, r := range o.layers {
		switch s.styles[id] {
		case StyleOf(r):
		case EmphasisOf(r):
			emphasized++
			if cur, ok := o.highlight.Current(); !ok || cur != id {
				t.Fatalf("layer %d emphasized but highlight state is %v", id, cur)
			}
		default:
			t.Fatalf("layer %d has unexpected style %+v", id, s.styles[id])
		}
	}
	if emphasized > 1 {
		t.Fatalf("%d regions emphasized, want at most 1", emphasized)
	}
	if _, ok := o.Highlighted(); ok != (emphasized == 1) {
		t.Fatalf("Highlighted()=%v but %d regions emphasized", ok, emphasized)
	}
}

func TestOverlayScenario(t *testing.T) {
	s := newFakeSurface()
	o := Attach(s, testDataset(), nil)

	a, _ := o.LayerFor("A")
	b, _ := o.LayerFor("B")

	if HexColor(s.styles[a].FillColor) != "#fee8c8" {
		t.Fatalf("A fill = %s, want pale orange", HexColor(s.styles[a].FillColor))
	}
	if HexColor(s.styles[b].FillColor) != "#b30000" {
		t.Fatalf("B fill = %s, want darkest red", HexColor(s.styles[b].FillColor))
	}
	if len(s.panels) != 1 || s.panels[0].Title != "Population" {
		t.Fatalf("legend panel not added: %+v", s.panels)
	}
	if s.tooltips[a].Text != "Aland<br>Population: 5,000,000" {
		t.Errorf("A tooltip = %q", s.tooltips[a].Text)
	}

	ev := s.click(a)
	if !ev.PropagationStopped() {
		t.Fatal("region click must stop propagation")
	}
	if r, ok := o.Highlighted(); !ok || r.ID != "A" {
		t.Fatalf("after click(A) highlighted = %v", r)
	}
	if s.styles[a] != EmphasisOf(o.layers[a]) {
		t.Fatalf("A not emphasized: %+v", s.styles[a])
	}
	if s.order[len(s.order)-1] != a {
		t.Errorf("A not brought to front: %v", s.order)
	}
	assertInvariant(t, s, o)

	s.click(b)
	if HexColor(s.styles[a].FillColor) != "#fee8c8" || s.styles[a] != StyleOf(o.layers[a]) {
		t.Fatalf("A not restored: %+v", s.styles[a])
	}
	if r, _ := o.Highlighted(); r.ID != "B" {
		t.Fatalf("highlighted = %s, want B", r.ID)
	}
	assertInvariant(t, s, o)

	s.clickBackground()
	if _, ok := o.Highlighted(); ok {
		t.Fatal("background click must clear the highlight")
	}
	if s.styles[b] != StyleOf(o.layers[b]) || HexColor(s.styles[b].FillColor) != "#b30000" {
		t.Fatalf("B not restored: %+v", s.styles[b])
	}
	assertInvariant(t, s, o)
}

func TestRegionClickDoesNotReachBackground(t *testing.T) {
	s := newFakeSurface()
	o := Attach(s, testDataset(), nil)
	backgroundCalls := 0
	s.OnBackgroundClick(func(*Event) { backgroundCalls++ })

	a, _ := o.LayerFor("A")
	s.click(a)
	if backgroundCalls != 0 {
		t.Fatalf("background handler ran %d times for a region click", backgroundCalls)
	}
	if _, ok := o.Highlighted(); !ok {
		t.Fatal("region click was cleared by the background handler")
	}
	s.clickBackground()
	if backgroundCalls != 1 {
		t.Fatalf("background handler ran %d times, want 1", backgroundCalls)
	}
}

func TestClearIdempotent(t *testing.T) {
	s := newFakeSurface()
	o := Attach(s, testDataset(), nil)
	o.Clear()
	if s.setCalls != 0 {
		t.Fatalf("clear with nothing focused changed %d styles", s.setCalls)
	}

	o.Focus("C")
	o.Clear()
	once := append([]Style(nil), s.styles...)
	o.Clear()
	for i := range once {
		if once[i] != s.styles[i] {
			t.Fatalf("second Clear changed layer %d", i)
		}
	}
	assertInvariant(t, s, o)
}

func TestFocusSameRegionTwice(t *testing.T) {
	s := newFakeSurface()
	o := Attach(s, testDataset(), nil)
	o.Focus("B")
	o.Focus("B")
	assertInvariant(t, s, o)
	if r, _ := o.Highlighted(); r.ID != "B" {
		t.Fatalf("highlighted = %v, want B", r)
	}
	if o.Focus("nope") {
		t.Fatal("Focus on unknown region must report false")
	}
	if r, _ := o.Highlighted(); r.ID != "B" {
		t.Fatal("unknown focus must not change the highlight")
	}
}

func TestHighlightInvariantRandomSequence(t *testing.T) {
	s := newFakeSurface()
	o := Attach(s, testDataset(), nil)
	rng := rand.New(rand.NewSource(42))
	ids := []string{"A", "B", "C"}
	for i := 0; i < 500; i++ {
		switch rng.Intn(4) {
		case 0:
			s.clickBackground()
		case 1:
			o.Clear()
		case 2:
			o.Focus(ids[rng.Intn(len(ids))])
		default:
			id, _ := o.LayerFor(ids[rng.Intn(len(ids))])
			s.click(id)
		}
		assertInvariant(t, s, o)
	}
}

func TestOverlayDuplicateIDKeepsFirst(t *testing.T) {
	s := newFakeSurface()
	ds := regions.NewDataset([]*regions.Region{
		{ID: "DUP", Name: "First", Population: 5_000_000, Geometry: square(0)},
		{ID: "DUP", Name: "Second", Population: 200_000_000, Geometry: square(2)},
	})
	o := Attach(s, ds, nil)

	want, ok := ds.Find("First")
	if !ok {
		t.Fatal("Find(First) not found")
	}
	if !o.Focus(want.ID) {
		t.Fatalf("Focus(%q) = false", want.ID)
	}
	r, ok := o.Highlighted()
	if !ok || r.Name != "First" {
		t.Fatalf("highlighted = %+v, want First", r)
	}
	id, _ := o.LayerFor(want.ID)
	if s.tooltips[id].Text != "First<br>Population: 5,000,000" {
		t.Errorf("focused tooltip = %q", s.tooltips[id].Text)
	}
	assertInvariant(t, s, o)
}

package session

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"Popmap_discord_bot/internal/choropleth"
	"Popmap_discord_bot/internal/regions"
	"Popmap_discord_bot/internal/render"
)

func box(minLng, minLat, maxLng, maxLat float64) *geojson.Geometry {
	return geojson.NewPolygonGeometry([][][]float64{{
		{minLng, minLat}, {maxLng, minLat}, {maxLng, maxLat}, {minLng, maxLat}, {minLng, minLat},
	}})
}

func testDataset() *regions.Dataset {
	return regions.NewDataset([]*regions.Region{
		{ID: "A", Name: "Aland", Population: 5_000_000, Geometry: box(-100, -20, -60, 20)},
		{ID: "B", Name: "Bland", Population: 200_000_000, Geometry: box(20, -20, 60, 20)},
	})
}

func newTestSession(t *testing.T, ds *regions.Dataset) *Session {
	t.Helper()
	s, err := New(ds, render.Options{Width: 640, Height: 400}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSessionFocusAndClear(t *testing.T) {
	s := newTestSession(t, testDataset())
	if s.ID == "" {
		t.Fatal("session id is empty")
	}

	st, err := s.Focus("B")
	if err != nil {
		t.Fatalf("Focus: %v", err)
	}
	if st.Highlighted != "B" || st.Label != "Bland<br>Population: 200,000,000" || st.Tooltip != st.Label {
		t.Errorf("state after focus = %+v", st)
	}

	if _, err := s.Focus("ZZZ"); !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("Focus(ZZZ) err = %v, want ErrUnknownRegion", err)
	}
	if got := s.State(); got.Highlighted != "B" {
		t.Errorf("unknown region must not change state, got %+v", got)
	}

	st = s.Clear()
	if st.Highlighted != "" || st.Tooltip != "" {
		t.Errorf("state after clear = %+v", st)
	}
}

func TestSessionWithoutOverlay(t *testing.T) {
	s := newTestSession(t, nil)
	if s.HasOverlay() {
		t.Fatal("nil dataset should produce a base map only")
	}
	if _, err := s.Focus("A"); !errors.Is(err, ErrNoOverlay) {
		t.Errorf("err = %v, want ErrNoOverlay", err)
	}
	img, st, err := s.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if st.Overlay {
		t.Error("state should report missing overlay")
	}
	if _, err := png.Decode(bytes.NewReader(img.Data)); err != nil {
		t.Errorf("decode: %v", err)
	}
}

func TestSessionInvalidSurface(t *testing.T) {
	if _, err := New(testDataset(), render.Options{Width: -5, Height: 400}, nil); !errors.Is(err, render.ErrInvalidSurface) {
		t.Errorf("err = %v, want ErrInvalidSurface", err)
	}
}

func TestSessionDoSerializes(t *testing.T) {
	s := newTestSession(t, testDataset())
	var wg sync.WaitGroup
	ids := []string{"A", "B"}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%3 == 0 {
				s.Clear()
				return
			}
			s.Focus(ids[i%2])
		}(i)
	}
	wg.Wait()

	err := s.Do(func(c *render.Canvas, o *choropleth.Overlay) error {
		emphasized := 0
		for _, id := range c.Order() {
			style, _ := c.Style(id)
			r, _ := o.Region(id)
			if style == choropleth.EmphasisOf(r) {
				emphasized++
			} else if style != choropleth.StyleOf(r) {
				t.Errorf("layer %d has unexpected style %+v", id, style)
			}
		}
		_, highlighted := o.Highlighted()
		if highlighted && emphasized != 1 || !highlighted && emphasized != 0 {
			t.Errorf("highlighted=%v but %d layers emphasized", highlighted, emphasized)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSessionHoverKeepsHighlight(t *testing.T) {
	s := newTestSession(t, testDataset())
	s.Focus("A")
	st := s.Hover(image.Pt(1, 399))
	if st.Highlighted != "A" {
		t.Errorf("hover changed highlight: %+v", st)
	}
}

func TestSessionFocusDuplicateIDs(t *testing.T) {
	payload := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{"adm0_a3":"DUP","admin":"First","pop_est":5000000},
	   "geometry":{"type":"Polygon","coordinates":[[[-100,-20],[-60,-20],[-60,20],[-100,20],[-100,-20]]]}},
	  {"type":"Feature","properties":{"adm0_a3":"DUP","admin":"Second","pop_est":200000000},
	   "geometry":{"type":"Polygon","coordinates":[[[20,-20],[60,-20],[60,20],[20,20],[20,-20]]]}}]}`
	ds, err := regions.Parse([]byte(payload), regions.PropertyKeys{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := newTestSession(t, ds)

	tests := []struct {
		name      string
		wantLabel string
	}{
		{"First", "First<br>Population: 5,000,000"},
		{"Second", "Second<br>Population: 200,000,000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := ds.Find(tt.name)
			if !ok {
				t.Fatalf("Find(%q) not found", tt.name)
			}
			st, err := s.Focus(r.ID)
			if err != nil {
				t.Fatalf("Focus(%q): %v", r.ID, err)
			}
			if st.Highlighted != r.ID || st.Label != tt.wantLabel {
				t.Errorf("state = %+v, want %q highlighted with label %q", st, r.ID, tt.wantLabel)
			}
		})
	}
}

func TestStoreLRU(t *testing.T) {
	store := NewStore(2, time.Minute)
	var counts []int
	store.OnChange = func(n int) { counts = append(counts, n) }

	a, b, c := &Session{ID: "a"}, &Session{ID: "b"}, &Session{ID: "c"}
	store.Put(a)
	store.Put(b)
	if _, ok := store.Get("a"); !ok {
		t.Fatal("a should be present")
	}
	store.Put(c)

	if _, ok := store.Get("b"); ok {
		t.Error("b should have been evicted as least recently used")
	}
	if _, ok := store.Get("a"); !ok {
		t.Error("a should survive")
	}
	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2", store.Len())
	}
	if len(counts) == 0 || counts[len(counts)-1] != 2 {
		t.Errorf("OnChange counts = %v", counts)
	}

	store.Delete("a")
	if _, ok := store.Get("a"); ok {
		t.Error("a should be deleted")
	}
}

func TestStoreTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewStore(10, time.Minute)
	store.now = func() time.Time { return now }

	store.Put(&Session{ID: "x"})
	store.Put(&Session{ID: "y"})

	now = now.Add(50 * time.Second)
	if _, ok := store.Get("x"); !ok {
		t.Fatal("x should still be valid")
	}

	now = now.Add(30 * time.Second)
	if _, ok := store.Get("y"); ok {
		t.Error("y should have expired")
	}
	if _, ok := store.Get("x"); !ok {
		t.Error("x was refreshed by Get and should still be valid")
	}

	now = now.Add(2 * time.Minute)
	if n := store.Sweep(); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
}

func TestStoreOnChangeOrdered(t *testing.T) {
	store := NewStore(1000, time.Minute)
	var counts []int
	store.OnChange = func(n int) { counts = append(counts, n) }

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := fmt.Sprintf("%d-%d", w, i)
				store.Put(&Session{ID: id})
				if i%2 == 1 {
					store.Delete(id)
				}
			}
		}(w)
	}
	wg.Wait()

	if len(counts) == 0 {
		t.Fatal("OnChange never called")
	}
	if last := counts[len(counts)-1]; last != store.Len() {
		t.Errorf("last OnChange = %d, want Len %d", last, store.Len())
	}
	prev := 0
	for i, n := range counts {
		if d := n - prev; d != 1 && d != -1 {
			t.Fatalf("OnChange[%d] = %d after %d, counts out of order", i, n, prev)
		}
		prev = n
	}
}

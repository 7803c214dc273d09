package viewer

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"Popmap_discord_bot/internal/metrics"
	"Popmap_discord_bot/internal/regions"
	"Popmap_discord_bot/internal/render"
	"Popmap_discord_bot/internal/session"
)

const testCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"adm0_a3": "AAA", "admin": "Aland", "pop_est": 5000000},
     "geometry": {"type": "Polygon", "coordinates": [[[-100,-20],[-60,-20],[-60,20],[-100,20],[-100,-20]]]}},
    {"type": "Feature", "properties": {"adm0_a3": "BBB", "admin": "Bland", "pop_est": 200000000},
     "geometry": {"type": "Polygon", "coordinates": [[[20,-20],[60,-20],[60,20],[20,20],[20,-20]]]}}
  ]
}`

func newTestServer(t *testing.T, datasetStatus int) *httptest.Server {
	t.Helper()
	data := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if datasetStatus != http.StatusOK {
			http.Error(w, "unavailable", datasetStatus)
			return
		}
		w.Write([]byte(testCollection))
	}))
	t.Cleanup(data.Close)

	m, err := metrics.NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	srv := New(Options{
		Loader:  regions.NewLoader(regions.LoaderOptions{URL: data.URL}),
		Metrics: m,
		Render:  render.Options{Width: 480, Height: 300},
		Locale:  "en",
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthAndLegend(t *testing.T) {
	ts := newTestServer(t, http.StatusOK)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	var health healthResponse
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health.Status != "ok" {
		t.Errorf("health = %+v", health)
	}

	resp, err = http.Get(ts.URL + "/api/legend")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var legend legendJSON
	if err := json.NewDecoder(resp.Body).Decode(&legend); err != nil {
		t.Fatalf("decode legend: %v", err)
	}
	if len(legend.Entries) != 7 || legend.Entries[0].Label != "0M–1M" || legend.Entries[5].Label != "100M+" || legend.Entries[6].Label != "N/A" {
		t.Errorf("legend = %+v", legend)
	}
}

func TestRegions(t *testing.T) {
	ts := newTestServer(t, http.StatusOK)

	resp, err := http.Get(ts.URL + "/api/regions?locale=de")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var list []regionJSON
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode regions: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("regions = %d, want 2", len(list))
	}
	if list[0].ID != "AAA" || list[0].Population == nil || *list[0].Population != 5_000_000 {
		t.Errorf("first region = %+v", list[0])
	}
	if list[1].Label != "Bland<br>Population: 200.000.000" {
		t.Errorf("label with de locale = %q", list[1].Label)
	}
}

func TestRegionsUnavailable(t *testing.T) {
	ts := newTestServer(t, http.StatusInternalServerError)

	resp, err := http.Get(ts.URL + "/api/regions")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestMap(t *testing.T) {
	ts := newTestServer(t, http.StatusOK)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantFocus  string
	}{
		{"plain", "", http.StatusOK, ""},
		{"focus by id", "?focus=BBB", http.StatusOK, "BBB"},
		{"focus by name", "?focus=aland", http.StatusOK, "AAA"},
		{"unknown focus", "?focus=nowhere", http.StatusNotFound, ""},
		{"invalid surface", "?width=-5", http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/map.png" + tt.query)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body, _ := io.ReadAll(resp.Body)
			if tt.wantStatus == http.StatusInternalServerError {
				if !strings.Contains(string(body), render.FailureMessage) {
					t.Errorf("body = %q, want failure message", body)
				}
				return
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if got := resp.Header.Get("X-Popmap-Highlighted"); got != tt.wantFocus {
				t.Errorf("highlighted header = %q, want %q", got, tt.wantFocus)
			}
			img, err := png.Decode(bytes.NewReader(body))
			if err != nil {
				t.Fatalf("decode png: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 480 || b.Dy() != 300 {
				t.Errorf("image size = %v", b)
			}
		})
	}
}

func TestMapWithoutOverlay(t *testing.T) {
	ts := newTestServer(t, http.StatusInternalServerError)

	resp, err := http.Get(ts.URL + "/map.png?focus=AAA")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want base map", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Popmap-Overlay"); got != "unavailable" {
		t.Errorf("overlay header = %q", got)
	}
	if got := resp.Header.Get("X-Popmap-Highlighted"); got != "" {
		t.Errorf("highlighted header = %q, want empty", got)
	}
}

// readState 状態JSONと続くバイナリ画像を1組読む
func readState(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var msg serverMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read state: %v", err)
	}
	if msg.Type != typeState {
		return msg
	}
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("frame type = %d, want binary", kind)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return msg
}

func TestWebSocketSession(t *testing.T) {
	ts := newTestServer(t, http.StatusOK)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readState(t, conn)
	if first.Type != typeState || !first.Overlay || first.Highlighted != "" {
		t.Fatalf("initial state = %+v", first)
	}

	steps := []struct {
		msg       clientMessage
		wantType  string
		wantFocus string
	}{
		{clientMessage{Type: typeClickRegion, ID: "BBB"}, typeState, "BBB"},
		{clientMessage{Type: typeClickRegion, ID: "nowhere"}, typeError, ""},
		{clientMessage{Type: typeHover, X: 1, Y: 1}, typeState, "BBB"},
		{clientMessage{Type: typeClickRegion, ID: "AAA"}, typeState, "AAA"},
		{clientMessage{Type: typeBackground}, typeState, ""},
		{clientMessage{Type: "zoom"}, typeError, ""},
	}
	for _, step := range steps {
		if err := conn.WriteJSON(step.msg); err != nil {
			t.Fatalf("write %s: %v", step.msg.Type, err)
		}
		got := readState(t, conn)
		if got.Type != step.wantType {
			t.Fatalf("%s %s: type = %q (%s), want %q", step.msg.Type, step.msg.ID, got.Type, got.Error, step.wantType)
		}
		if got.Type == typeState && got.Highlighted != step.wantFocus {
			t.Errorf("%s %s: highlighted = %q, want %q", step.msg.Type, step.msg.ID, got.Highlighted, step.wantFocus)
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatal(err)
	}
	if got := readState(t, conn); got.Type != typeError || got.Error != "invalid message" {
		t.Errorf("invalid json reply = %+v", got)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `popmap_interactions_total{kind="click_region",surface="viewer"} 2`) {
		t.Errorf("metrics missing click_region count:\n%s", body)
	}
}

func TestWebSocketWithoutOverlay(t *testing.T) {
	ts := newTestServer(t, http.StatusInternalServerError)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if first := readState(t, conn); first.Type != typeState || first.Overlay {
		t.Fatalf("initial state = %+v, want base map", first)
	}

	tests := []struct {
		msg       clientMessage
		wantError string
	}{
		{clientMessage{Type: typeClick, X: 100, Y: 150}, session.ErrNoOverlay.Error()},
		{clientMessage{Type: typeClickRegion, ID: "AAA"}, session.ErrNoOverlay.Error()},
		{clientMessage{Type: typeBackground}, session.ErrNoOverlay.Error()},
		{clientMessage{Type: typeHover, X: 1, Y: 1}, session.ErrNoOverlay.Error()},
		{clientMessage{Type: "zoom"}, errUnknownType.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.msg.Type, func(t *testing.T) {
			if err := conn.WriteJSON(tt.msg); err != nil {
				t.Fatalf("write: %v", err)
			}
			got := readState(t, conn)
			if got.Type != typeError || got.Error != tt.wantError {
				t.Errorf("reply = %+v, want error %q", got, tt.wantError)
			}
		})
	}
}

func TestFocusRegion(t *testing.T) {
	ds, err := regions.Parse([]byte(testCollection), regions.PropertyKeys{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := []struct {
		name      string
		ds        *regions.Dataset
		query     string
		wantErr   error
		wantFocus string
	}{
		{"by id", ds, "BBB", nil, "BBB"},
		{"by name", ds, "aland", nil, "AAA"},
		{"unknown", ds, "nowhere", session.ErrUnknownRegion, ""},
		{"no overlay", nil, "AAA", session.ErrUnknownRegion, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := session.New(tt.ds, render.Options{Width: 480, Height: 300}, nil)
			if err != nil {
				t.Fatalf("session.New: %v", err)
			}
			err = focusRegion(sess, tt.query)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("focusRegion(%q): %v", tt.query, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("focusRegion(%q) err = %v, want %v", tt.query, err, tt.wantErr)
			}
			if got := sess.State().Highlighted; got != tt.wantFocus {
				t.Errorf("highlighted = %q, want %q", got, tt.wantFocus)
			}
		})
	}
}

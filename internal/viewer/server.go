package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"Popmap_discord_bot/internal/choropleth"
	"Popmap_discord_bot/internal/metrics"
	"Popmap_discord_bot/internal/regions"
	"Popmap_discord_bot/internal/render"
	"Popmap_discord_bot/internal/session"
)

const (
	surfaceViewer = "viewer"

	datasetTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

var viewerDebugLogging = os.Getenv("VIEWER_DEBUG_LOG") == "1"

func viewerDebugf(format string, args ...interface{}) {
	if !viewerDebugLogging {
		return
	}
	log.Printf(format, args...)
}

// Options Serverの設定
type Options struct {
	Loader  *regions.Loader
	Metrics *metrics.Collector
	Render  render.Options
	Locale  string
}

// Server ブラウザ向けの地図ビューア。
// WebSocket接続ごとに1つのセッションを持ち、その接続の読み取りループだけが操作する
type Server struct {
	opts     Options
	router   *mux.Router
	upgrader websocket.Upgrader
	clients  int64
}

func New(opts Options) *Server {
	s := &Server{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
		},
	}
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/legend", s.handleLegend).Methods(http.MethodGet)
	r.HandleFunc("/api/regions", s.handleRegions).Methods(http.MethodGet)
	r.HandleFunc("/map.png", s.handleMap).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe ctxがキャンセルされるまで待ち受ける
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Viewer listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Regions int    `json:"regions"`
	Clients int64  `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Clients: atomic.LoadInt64(&s.clients)}
	if ds, ok := s.opts.Loader.Cached(); ok {
		resp.Regions = ds.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

type legendEntryJSON struct {
	Color string `json:"color"`
	Label string `json:"label"`
}

type legendJSON struct {
	Title    string            `json:"title"`
	Position string            `json:"position"`
	Entries  []legendEntryJSON `json:"entries"`
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	panel := choropleth.LegendPanel()
	out := legendJSON{Title: panel.Title, Position: panel.Position}
	for _, e := range panel.Entries {
		out.Entries = append(out.Entries, legendEntryJSON{Color: choropleth.HexColor(e.Color), Label: e.Label})
	}
	writeJSON(w, http.StatusOK, out)
}

type regionJSON struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Population *float64 `json:"population"`
	Bucket     string   `json:"bucket"`
	Color      string   `json:"color"`
	Label      string   `json:"label"`
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), datasetTimeout)
	defer cancel()
	ds, err := s.opts.Loader.Load(ctx)
	if err != nil {
		log.Printf("Viewer region list unavailable: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "region data unavailable"})
		return
	}
	f := choropleth.NewFormatter(s.locale(r))
	out := make([]regionJSON, 0, ds.Len())
	for _, reg := range ds.SortedByName() {
		item := regionJSON{
			ID:     reg.ID,
			Name:   reg.Name,
			Bucket: choropleth.BucketFor(reg.Population).String(),
			Color:  choropleth.BucketFor(reg.Population).Hex(),
			Label:  f.Label(reg),
		}
		if !math.IsNaN(reg.Population) {
			p := reg.Population
			item.Population = &p
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

// focusRegion IDまたは名前で地域を探して強調する
func focusRegion(sess *session.Session, query string) error {
	reg, ok := sess.Dataset().Find(query)
	if !ok {
		return fmt.Errorf("%w: %s", session.ErrUnknownRegion, query)
	}
	_, err := sess.Focus(reg.ID)
	return err
}

// handleMap 1枚だけ描画して返す。?focus=ID で強調表示
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := s.opts.Render
	if v, err := strconv.Atoi(q.Get("width")); err == nil {
		opts.Width = v
	}
	if v, err := strconv.Atoi(q.Get("height")); err == nil {
		opts.Height = v
	}

	sess, err := s.newSession(r.Context(), opts, s.locale(r))
	if err != nil {
		viewerDebugf("Viewer map surface failed: %v", err)
		http.Error(w, render.FailureMessage, http.StatusInternalServerError)
		return
	}
	if !sess.HasOverlay() {
		w.Header().Set("X-Popmap-Overlay", "unavailable")
	}
	if focus := q.Get("focus"); focus != "" && sess.HasOverlay() {
		if err := focusRegion(sess, focus); err != nil {
			if errors.Is(err, session.ErrUnknownRegion) {
				http.Error(w, "unknown region: "+focus, http.StatusNotFound)
				return
			}
			log.Printf("Viewer focus %s failed: %v", focus, err)
			http.Error(w, render.FailureMessage, http.StatusInternalServerError)
			return
		}
	}

	start := time.Now()
	img, st, err := sess.Render()
	s.opts.Metrics.ObserveRender(surfaceViewer, start, err)
	if err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	if st.Highlighted != "" {
		w.Header().Set("X-Popmap-Highlighted", st.Highlighted)
	}
	w.Header().Set("Content-Type", img.MIME)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(img.Data)
}

// newSession 地域データの取得に失敗しても背景地図のセッションを返す。
// errは描画面を作れなかった場合だけ
func (s *Server) newSession(ctx context.Context, opts render.Options, locale string) (*session.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, datasetTimeout)
	defer cancel()
	ds, err := s.opts.Loader.Load(ctx)
	if err != nil {
		log.Printf("Viewer overlay unavailable, serving base map: %v", err)
		ds = nil
	}
	return session.New(ds, opts, choropleth.NewFormatter(locale))
}

func (s *Server) locale(r *http.Request) string {
	if l := r.URL.Query().Get("locale"); l != "" {
		return l
	}
	return s.opts.Locale
}

// handleWS 接続ごとのイベントループ
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		viewerDebugf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sess, err := s.newSession(r.Context(), s.opts.Render, s.locale(r))
	if err != nil {
		log.Printf("Viewer surface failed: %v", err)
		writeWSJSON(conn, serverMessage{Type: typeError, Error: render.FailureMessage})
		return
	}
	n := atomic.AddInt64(&s.clients, 1)
	s.opts.Metrics.SetSessions(surfaceViewer, int(n))
	defer func() {
		n := atomic.AddInt64(&s.clients, -1)
		s.opts.Metrics.SetSessions(surfaceViewer, int(n))
	}()
	viewerDebugf("Viewer session %s opened from %s", sess.ID, r.RemoteAddr)

	newClient(conn, sess, s.opts.Metrics).run()
	viewerDebugf("Viewer session %s closed", sess.ID)
}

// parsePoint JSONの座標を画像座標に
func parsePoint(x, y float64) image.Point {
	return image.Pt(int(math.Floor(x)), int(math.Floor(y)))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		viewerDebugf("Failed to encode response: %v", err)
	}
}

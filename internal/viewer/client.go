package viewer

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"Popmap_discord_bot/internal/metrics"
	"Popmap_discord_bot/internal/session"
)

const (
	typeClick       = "click"
	typeClickRegion = "click_region"
	typeBackground  = "background"
	typeHover       = "hover"
	typeState       = "state"
	typeError       = "error"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// clientMessage ブラウザから届く操作
type clientMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	ID   string  `json:"id"`
}

// serverMessage 状態通知。typeがstateのときは直後にバイナリで画像を送る
type serverMessage struct {
	Type        string `json:"type"`
	Highlighted string `json:"highlighted"`
	Label       string `json:"label"`
	Tooltip     string `json:"tooltip"`
	Overlay     bool   `json:"overlay"`
	Error       string `json:"error,omitempty"`
}

var errUnknownType = errors.New("unknown message type")

type client struct {
	conn    *websocket.Conn
	sess    *session.Session
	metrics *metrics.Collector
}

func newClient(conn *websocket.Conn, sess *session.Session, m *metrics.Collector) *client {
	return &client{conn: conn, sess: sess, metrics: m}
}

// run 接続が閉じるまで1件ずつ操作を処理する
func (c *client) run() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go c.pingLoop(done)

	if err := c.sendState(); err != nil {
		return
	}
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Viewer websocket closed unexpectedly: %v", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := writeWSJSON(c.conn, serverMessage{Type: typeError, Error: "invalid message"}); err != nil {
				return
			}
			continue
		}
		viewerDebugf("Viewer session %s: %s", c.sess.ID, msg.Type)

		if err := c.apply(msg); err != nil {
			if err := writeWSJSON(c.conn, serverMessage{Type: typeError, Error: err.Error()}); err != nil {
				return
			}
			continue
		}
		c.metrics.Interaction(surfaceViewer, msg.Type)
		if err := c.sendState(); err != nil {
			return
		}
	}
}

func (c *client) apply(msg clientMessage) error {
	switch msg.Type {
	case typeClick, typeClickRegion, typeBackground, typeHover:
	default:
		return errUnknownType
	}
	if !c.sess.HasOverlay() {
		return session.ErrNoOverlay
	}
	switch msg.Type {
	case typeClick:
		c.sess.ClickAt(parsePoint(msg.X, msg.Y))
	case typeClickRegion:
		if _, err := c.sess.Focus(msg.ID); err != nil {
			return err
		}
	case typeBackground:
		c.sess.Clear()
	case typeHover:
		c.sess.Hover(parsePoint(msg.X, msg.Y))
	}
	return nil
}

// sendState 状態JSONと画像を続けて送る
func (c *client) sendState() error {
	start := time.Now()
	img, st, err := c.sess.Render()
	c.metrics.ObserveRender(surfaceViewer, start, err)
	if err != nil {
		return writeWSJSON(c.conn, serverMessage{Type: typeError, Error: "render failed"})
	}
	if err := writeWSJSON(c.conn, stateMessage(st)); err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.BinaryMessage, img.Data)
}

func (c *client) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				viewerDebugf("Viewer ping failed: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

func stateMessage(st session.State) serverMessage {
	return serverMessage{
		Type:        typeState,
		Highlighted: st.Highlighted,
		Label:       st.Label,
		Tooltip:     st.Tooltip,
		Overlay:     st.Overlay,
	}
}

func writeWSJSON(conn *websocket.Conn, msg serverMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

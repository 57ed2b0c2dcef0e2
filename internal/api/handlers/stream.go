package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/auditready/internal/brain"
	"github.com/wonny/auditready/pkg/logger"
)

const (
	// PingInterval between keepalive pings
	PingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	streamBuffer = 256
)

// StreamHandler pushes progress entries to WebSocket clients as JSON
type StreamHandler struct {
	session  *brain.Session
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(session *brain.Session, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		session: session,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: log,
	}
}

// Stream sends the current run's backlog, then every new entry
// GET /api/audits/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// Subscribe before reading the backlog so nothing falls in between
	entries := make(chan brain.Entry, streamBuffer)
	unsubscribe := h.session.Subscribe(func(e brain.Entry) {
		select {
		case entries <- e:
		default: // slow client, drop
		}
	})
	defer unsubscribe()

	var last brain.Entry
	send := func(e brain.Entry) error {
		if !after(e, last) {
			return nil
		}
		last = e
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(e)
	}

	for _, e := range h.session.Entries() {
		if err := send(e); err != nil {
			return
		}
	}

	// readLoop only detects the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case e := <-entries:
			if err := send(e); err != nil {
				h.logger.WithError(err).Debug("WebSocket write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// after reports whether e comes after last in (generation, seq) order
func after(e, last brain.Entry) bool {
	if e.Generation != last.Generation {
		return e.Generation > last.Generation
	}
	return e.Seq > last.Seq
}

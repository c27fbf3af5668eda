package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/cnquant/internal/realtime/feed"
	"github.com/wonny/cnquant/pkg/logger"
)

const (
	defaultStreamInterval = 5 * time.Second
	minStreamInterval     = 1 * time.Second
	maxStreamInterval     = 60 * time.Second

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamHandler pushes quote snapshots over websocket
// ⭐ SSOT: 실시간 시세 스트림은 이 핸들러에서만
type StreamHandler struct {
	poller   *feed.Poller
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(poller *feed.Poller, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		poller: poller,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// parseInterval reads the interval query parameter in seconds
func parseInterval(raw string) (time.Duration, error) {
	if raw == "" {
		return defaultStreamInterval, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("interval must be an integer number of seconds")
	}
	d := time.Duration(secs) * time.Second
	if d < minStreamInterval || d > maxStreamInterval {
		return 0, fmt.Errorf("interval must be between %d and %d seconds",
			int(minStreamInterval.Seconds()), int(maxStreamInterval.Seconds()))
	}
	return d, nil
}

// Stream upgrades the connection and sends a snapshot of the requested
// codes immediately and then every interval seconds
// GET /ws/quotes?codes=600519,000858&interval=5
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	codes := parseCodes(r.URL.Query().Get("codes"))
	if len(codes) == 0 {
		respondError(w, http.StatusBadRequest, "codes is required")
		return
	}
	if len(codes) > maxCodes {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("at most %d codes per stream", maxCodes))
		return
	}
	interval, err := parseInterval(r.URL.Query().Get("interval"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.poller.Track(codes)
	defer h.poller.Untrack(codes)

	log := h.logger.WithFields(map[string]interface{}{
		"remote":   r.RemoteAddr,
		"codes":    len(codes),
		"interval": interval,
	})
	log.Info("Quote stream opened")
	defer log.Info("Quote stream closed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.readLoop(conn, cancel)

	// 첫 스냅샷은 캐시를 채운 뒤 즉시 전송
	if _, err := h.poller.Refresh(ctx, codes); err != nil {
		log.WithError(err).Debug("Initial refresh failed")
	}
	if err := h.send(conn, codes); err != nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.send(conn, codes); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) send(conn *websocket.Conn, codes []string) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(h.poller.Snapshot(codes)); err != nil {
		h.logger.WithError(err).Debug("Failed to write quote snapshot")
		return err
	}
	return nil
}

// readLoop drains client frames so pongs and close frames are processed
func (h *StreamHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

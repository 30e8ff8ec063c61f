package service

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"signal_portal/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// handleWS upgrades the connection and streams matching signals until the
// client goes away. Each connection owns one hub subscription; a slow
// client only loses its own queued signals.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r.URL.Query())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("ws upgrade: %v", err)
		return
	}

	sub := s.hub.Subscribe(filter)
	logger.Info("ws subscriber %s connected from %s", sub.ID, r.RemoteAddr)

	closed := make(chan struct{})

	// reader: only there to notice the peer closing and to answer pings
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		dropped := s.hub.Dropped(sub.ID)
		s.hub.Unsubscribe(sub.ID)
		_ = conn.Close()
		logger.Info("ws subscriber %s disconnected, dropped=%d", sub.ID, dropped)
	}()

	for {
		select {
		case <-closed:
			return
		case sig, ok := <-sub.C():
			if !ok {
				return
			}
			data, err := sonic.Marshal(sig)
			if err != nil {
				logger.Error("ws marshal: %v", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

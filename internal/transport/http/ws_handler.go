package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quizhub-server/internal/app"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 9 / 10
	maxMessageSize  = 64 << 10
	dispatchTimeout = 15 * time.Second
)

// GameService is the part of app.GameService the socket layer drives.
type GameService interface {
	Connect(p *app.Peer)
	Disconnect(connID string)
	Dispatch(ctx context.Context, connID, msgType string, raw json.RawMessage) error
	RejectMalformed(connID string, err error)
}

type WSHandler struct {
	service    GameService
	sendBuffer int
	upgrader   websocket.Upgrader
}

func NewWSHandler(service GameService, sendBuffer int) *WSHandler {
	return &WSHandler{
		service:    service,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServeWS upgrades the request and gives the connection a fresh id. Every frame the
// client sends is handed to the dispatcher in order; outbound events are written by
// a single writer goroutine.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	peer := app.NewPeer(uuid.NewString(), h.sendBuffer)
	h.service.Connect(peer)
	log.Printf("connection %s opened from %s", peer.ID(), r.RemoteAddr)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writePump(conn, peer)
	}()

	h.readPump(r.Context(), conn, peer)

	h.service.Disconnect(peer.ID())
	<-writerDone
	log.Printf("connection %s closed", peer.ID())
}

func (h *WSHandler) readPump(ctx context.Context, conn *websocket.Conn, peer *app.Peer) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error on %s: %v", peer.ID(), err)
			}
			return
		}

		var inbound inboundMessage
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.service.RejectMalformed(peer.ID(), err)
			continue
		}
		dctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
		_ = h.service.Dispatch(dctx, peer.ID(), inbound.Type, inbound.Payload)
		cancel()
	}
}

// writePump is the only writer on conn. It stops when the peer is closed, which
// also happens when the peer falls too far behind.
func writePump(conn *websocket.Conn, peer *app.Peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case ev := <-peer.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("ws write error on %s: %v", peer.ID(), err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-peer.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

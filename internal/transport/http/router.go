package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/pprof"
	"net/url"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"quizhub-server/internal/app"
)

const qrSize = 320

// RoomDirectory reports room metadata for the HTTP surface.
type RoomDirectory interface {
	Summary(roomID string) (app.RoomSummary, bool)
}

// RoomClaims reports room codes held by any instance sharing the deployment.
type RoomClaims interface {
	Taken(ctx context.Context, roomID string) (bool, error)
}

type RouterConfig struct {
	// PublicURL is the base clients open to join; falls back to the request host.
	PublicURL string
	Profile   bool
	// Claims, when set, turns a miss for a room hosted elsewhere into 409.
	Claims RoomClaims
}

type roomResponse struct {
	app.RoomSummary
	JoinURL string `json:"joinUrl"`
}

// NewRouter mounts the websocket endpoint and the read-only room routes.
func NewRouter(ws *WSHandler, rooms RoomDirectory, cfg RouterConfig) *httprouter.Router {
	mux := httprouter.New()
	mux.HandlerFunc(http.MethodGet, "/ws", ws.ServeWS)
	mux.GET("/healthz", serveHealthCheck)
	mux.GET("/rooms/:roomId", serveRoom(rooms, cfg))
	mux.GET("/rooms/:roomId/qr", serveRoomQR(rooms, cfg))
	if cfg.Profile {
		registerProfileHandlers(mux)
	}
	return mux
}

func serveHealthCheck(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Ok\n"))
}

func serveRoom(rooms RoomDirectory, cfg RouterConfig) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		summary, ok := rooms.Summary(ps.ByName("roomId"))
		if !ok {
			roomMissing(w, r, cfg, ps.ByName("roomId"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(roomResponse{RoomSummary: summary, JoinURL: joinURL(cfg, r, summary.RoomID)}); err != nil {
			log.Printf("room %s: encode summary: %v", summary.RoomID, err)
		}
	}
}

func roomMissing(w http.ResponseWriter, r *http.Request, cfg RouterConfig, roomID string) {
	if cfg.Claims != nil {
		taken, err := cfg.Claims.Taken(r.Context(), roomID)
		if err != nil {
			log.Printf("room %s: claim lookup: %v", roomID, err)
		} else if taken {
			http.Error(w, "room is hosted by another instance", http.StatusConflict)
			return
		}
	}
	http.Error(w, "room not found", http.StatusNotFound)
}

// serveRoomQR renders the room's join link as a PNG.
func serveRoomQR(rooms RoomDirectory, cfg RouterConfig) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		summary, ok := rooms.Summary(ps.ByName("roomId"))
		if !ok {
			roomMissing(w, r, cfg, ps.ByName("roomId"))
			return
		}
		png, err := qrcode.Encode(joinURL(cfg, r, summary.RoomID), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(png)
	}
}

func joinURL(cfg RouterConfig, r *http.Request, roomID string) string {
	base := strings.TrimSuffix(cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?room=" + url.QueryEscape(roomID)
}

func registerProfileHandlers(mux *httprouter.Router) {
	mux.Handler(http.MethodGet, "/debug/pprof/allocs", pprof.Handler("allocs"))
	mux.Handler(http.MethodGet, "/debug/pprof/block", pprof.Handler("block"))
	mux.Handler(http.MethodGet, "/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handler(http.MethodGet, "/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handler(http.MethodGet, "/debug/pprof/mutex", pprof.Handler("mutex"))
	mux.Handler(http.MethodGet, "/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	mux.HandlerFunc(http.MethodGet, "/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandlerFunc(http.MethodGet, "/debug/pprof/profile", pprof.Profile)
	mux.HandlerFunc(http.MethodGet, "/debug/pprof/symbol", pprof.Symbol)
	mux.HandlerFunc(http.MethodGet, "/debug/pprof/trace", pprof.Trace)
}

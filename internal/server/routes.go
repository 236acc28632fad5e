package server

import (
	"log/slog"
	"net/http"

	"github.com/BioHazard786/eggcombat/internal/signaling"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Configure the websocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 16 * 1024,

	// Game clients connect from terminals and from any web origin.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewMux wires the signaling, health and metrics routes.
func NewMux(hub *signaling.Hub, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", HealthCheck)
	mux.HandleFunc("/ws", ServeWs(hub))
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// HealthCheck reports that the process is serving.
func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}

// ServeWs returns an http.HandlerFunc that handles websocket requests.
// It takes the hub as a dependency.
func ServeWs(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}

		c := signaling.NewServerConn(hub, conn)
		if !hub.Attach(c) {
			conn.Close()
			return
		}

		// These methods will handle the connection's lifecycle
		go c.WritePump()
		go c.ReadPump()
	}
}

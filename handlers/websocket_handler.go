package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/x1-arena/brackets"
	"github.com/Dosada05/x1-arena/models"
	"github.com/Dosada05/x1-arena/services"
)

type WebSocketHandler struct {
	hub               *brackets.Hub
	tournamentService services.TournamentService
	upgrader          websocket.Upgrader
	logger            *slog.Logger
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" allows any.
func NewWebSocketHandler(hub *brackets.Hub, tournamentService services.TournamentService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:               hub,
		tournamentService: tournamentService,
		logger:            logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// ServeWs joins the spectator room and sends the current state right away so
// clients do not wait for the next change. The client joins before the state
// is read so no change slips in between.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client.
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := brackets.NewClient(h.hub, conn, brackets.TournamentRoom)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()

	err = h.tournamentService.Watch(r.Context(), func(state models.TournamentState) {
		client.Send(services.EventStateUpdated, state)
	})
	if err != nil {
		h.logger.Error("failed to load state for websocket client", slog.Any("error", err))
		conn.Close()
	}
}

package handler

import (
	"net/http"
	"slices"

	"github.com/finora/finora-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// JWTValidator validates JWT tokens and returns the local user ID
type JWTValidator interface {
	ValidateToken(token string) (userID int32, err error)
}

// WebSocketHandler opens ledger change feeds at GET /ws
type WebSocketHandler struct {
	hub       *websocket.Hub
	validator JWTValidator
	origins   []string
	upgrader  ws.Upgrader
}

// NewWebSocketHandler creates a WebSocketHandler that accepts browsers from
// the configured CORS origins
func NewWebSocketHandler(hub *websocket.Hub, validator JWTValidator, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:       hub,
		validator: validator,
		origins:   slices.Clone(allowedOrigins),
	}
	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin admits non-browser clients, which send no Origin header, and
// browsers from an allowed origin
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.origins, origin) {
		return true
	}
	log.Warn().Str("origin", origin).Msg("Ledger feed rejected: origin not allowed")
	return false
}

// HandleWS authenticates the token query parameter, then upgrades the
// connection. The optional entities and aggregates parameters are comma
// separated lists that narrow which events the client receives; clients can
// change them later by sending {"entities": [...], "aggregates": [...]}.
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	userID, err := h.validator.ValidateToken(token)
	if err != nil {
		log.Debug().Err(err).Msg("Ledger feed rejected: invalid token")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	sub, err := websocket.ParseSubscription(c.QueryParam("entities"), c.QueryParam("aggregates"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Int32("user_id", userID).Msg("Ledger feed upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, userID, h.hub, sub)
	h.hub.Register(client)
	if err := client.Announce(); err != nil {
		log.Warn().Err(err).Str("client_id", client.ID()).Msg("Failed to announce subscription")
	}

	log.Info().
		Int32("user_id", userID).
		Str("client_id", client.ID()).
		Int("entities", len(sub.Entities)).
		Int("aggregates", len(sub.Aggregates)).
		Msg("Ledger feed connected")

	go client.Run()
	return nil
}

package handlers

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/harsh17045/IssueTracker-sub000/internal/events"
	"github.com/harsh17045/IssueTracker-sub000/internal/service"
)

const (
	liveScopeLocal   = "live_scope"
	principalIDLocal = "live_principal_id"
	pingInterval     = 30 * time.Second
	writeWait        = 10 * time.Second
	maxPollBatch     = 100
)

// EventsHandler serves live ticket events over WebSocket and long-poll.
type EventsHandler struct {
	router      *service.Router
	fanout      events.Fanout
	pollTimeout time.Duration
	logger      *zap.Logger
}

// NewEventsHandler constructs handler.
func NewEventsHandler(router *service.Router, fanout events.Fanout, pollTimeout time.Duration, logger *zap.Logger) *EventsHandler {
	if pollTimeout <= 0 {
		pollTimeout = 25 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{router: router, fanout: fanout, pollTimeout: pollTimeout, logger: logger}
}

// Upgrade resolves the caller's channels and admits WebSocket handshakes on /ws.
func (h *EventsHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	scope, err := h.router.LiveScopeFor(c.UserContext(), principal)
	if err != nil {
		return err
	}
	c.Locals(liveScopeLocal, scope)
	c.Locals(principalIDLocal, principal.ID)
	return c.Next()
}

// Stream handles GET /ws. Every delivery is written as one JSON frame.
func (h *EventsHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		scope, ok := conn.Locals(liveScopeLocal).(*service.LiveScope)
		if !ok {
			return
		}
		principalID, _ := conn.Locals(principalIDLocal).(string)
		sub := h.fanout.Subscribe(scope.Channels...)
		defer sub.Close()

		logger := h.logger.With(zap.String("principal_id", principalID))
		logger.Debug("live session opened", zap.Strings("channels", scope.Channels))
		defer logger.Debug("live session closed")

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-closed:
				return
			case delivery, ok := <-sub.Events():
				if !ok {
					return
				}
				if !scope.Accepts(delivery.Message) {
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(delivery); err != nil {
					logger.Warn("live write failed", zap.Error(err))
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	})
}

// Poll handles GET /api/events/poll. It waits until at least one event
// arrives on the caller's channels or the poll window closes, then
// returns what was received. Nothing is replayed from before the call.
func (h *EventsHandler) Poll(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	scope, err := h.router.LiveScopeFor(c.UserContext(), principal)
	if err != nil {
		return err
	}

	timeout := h.pollTimeout
	if requested := parseInt(c.Query("timeout"), 0); requested > 0 {
		if d := time.Duration(requested) * time.Second; d < timeout {
			timeout = d
		}
	}

	sub := h.fanout.Subscribe(scope.Channels...)
	defer sub.Close()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	received := make([]events.Delivery, 0)
wait:
	for len(received) == 0 {
		select {
		case delivery := <-sub.Events():
			if scope.Accepts(delivery.Message) {
				received = append(received, delivery)
			}
		case <-timer.C:
			break wait
		case <-c.UserContext().Done():
			break wait
		}
	}
drain:
	for len(received) > 0 && len(received) < maxPollBatch {
		select {
		case delivery := <-sub.Events():
			if scope.Accepts(delivery.Message) {
				received = append(received, delivery)
			}
		default:
			break drain
		}
	}
	return c.JSON(fiber.Map{"data": received, "channels": scope.Channels})
}

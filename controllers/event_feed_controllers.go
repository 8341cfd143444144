package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-reservation/hub"
)

type EventFeedController struct {
	Hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewEventFeedController accepts upgrades from the given origins; "*" or an
// empty list accepts any origin.
func NewEventFeedController(h *hub.Hub, allowOrigins []string) *EventFeedController {
	allowed := make(map[string]bool, len(allowOrigins))
	allowAll := len(allowOrigins) == 0
	for _, o := range allowOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &EventFeedController{
		Hub: h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
	}
}

// Subscribe -> GET /ws/reservations, streams reservation lifecycle events.
func (ec *EventFeedController) Subscribe(c *gin.Context) {
	ws, err := ec.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	ec.Hub.Register(ws, c.ClientIP())

	// The feed is one-way; reading only detects disconnects.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	ec.Hub.Unregister(ws)
}

package echoapi

import (
	"context"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"

	"github.com/specedu/caseboard/core"
	notifysvc "github.com/specedu/caseboard/services/notify"
)

const (
	eventReady        = "ready"
	eventBufferSize   = 64
	eventWriteTimeout = 5 * time.Second
)

type eventApi struct {
	hub            *notifysvc.Hub
	originPatterns []string
}

func registerEventAPI(g *echo.Group, hub *notifysvc.Hub, corsOrigins []string) {
	api := eventApi{hub: hub, originPatterns: originPatterns(corsOrigins)}
	g.GET("/events", api.stream, authorize(opEvents))
}

// stream pushes every change event to the client until either side goes away.
func (api *eventApi) stream(ctx echo.Context) error {
	conn, err := websocket.Accept(ctx.Response(), ctx.Request(), &websocket.AcceptOptions{
		OriginPatterns: api.originPatterns,
	})
	if err != nil {
		// Accept already wrote the error response
		return nil
	}
	reqCtx, cancel := context.WithCancel(ctx.Request().Context())
	defer cancel()

	sub := api.hub.Subscribe(eventBufferSize)
	defer api.hub.Unsubscribe(sub)

	if err := wsjson.Write(reqCtx, conn, core.Event{Name: eventReady}); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "write_failed")
		return nil
	}

	// clients never send anything; reading only detects a close
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.Read(reqCtx); err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-reqCtx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return nil
		case <-readErr:
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return nil
		case evt, ok := <-sub:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "shutting down")
				return nil
			}
			writeCtx, cancelWrite := context.WithTimeout(reqCtx, eventWriteTimeout)
			err := wsjson.Write(writeCtx, conn, evt)
			cancelWrite()
			if err != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
				return nil
			}
		}
	}
}

// originPatterns turns CORS origins into the host patterns websocket.Accept matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			patterns = append(patterns, "*")
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		} else {
			patterns = append(patterns, o)
		}
	}
	return patterns
}

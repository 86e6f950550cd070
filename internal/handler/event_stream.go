package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"qp-hub-backend/internal/pkg/logger"
	"qp-hub-backend/internal/service"
	"qp-hub-backend/internal/tracker"
)

const (
	eventBuffer  = 64
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// EventStream pushes batch change events to websocket clients.
type EventStream struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

func NewEventStream(allowOrigins []string, logger *logger.Logger) *EventStream {
	allowAll := len(allowOrigins) == 0 || lo.Contains(allowOrigins, "*")
	return &EventStream{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || lo.Contains(allowOrigins, origin)
			},
		},
		logger: logger,
	}
}

// Serve streams events until the client goes away. Slow clients miss events
// rather than stall the upload.
func (s *EventStream) Serve(c *gin.Context, b service.Batch) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.String("batch", b.ID()), zap.Error(err))
		return
	}
	defer conn.Close()

	ch := make(chan tracker.Event, eventBuffer)
	cancel := b.Subscribe(func(ev tracker.Event) {
		ev.BatchID = b.ID()
		select {
		case ch <- ev:
		default:
		}
	})
	defer cancel()

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
		case ev := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Debug("websocket write failed", zap.String("batch", b.ID()), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

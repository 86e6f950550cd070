package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"qp-hub-backend/internal/pkg/logger"
)

// Publisher fans batch events out to external listeners.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
	Close()
}

type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSPublisher connects to url; subjects are published under prefix.
func NewNATSPublisher(url, prefix string, log *logger.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("qp-hub-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "connect nats %s", url)
	}
	return &NATSPublisher{nc: nc, prefix: prefix}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, v any) error {
	if p.nc == nil || p.nc.IsClosed() {
		return errors.New("nats not connected")
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if p.prefix != "" {
		subject = p.prefix + "." + subject
	}
	return p.nc.Publish(subject, payload)
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

// Nop drops every event; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close()                                     {}

package splitter

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/nats-io/nats.go"
)

// NotifyMetrics is optionally updated by NATSNotifier.
type NotifyMetrics interface {
	NotifyPublished()
	NotifyFailed()
	NATSSetConnected(connected bool)
}

// NATSNotifier publishes a JSON PartEvent per written part on
// <prefix>.<source file>.
type NATSNotifier struct {
	nc      *nats.Conn
	prefix  string
	metrics NotifyMetrics
}

func NewNATSNotifier(url, prefix string, m NotifyMetrics) (*NATSNotifier, error) {
	nc, err := nats.Connect(url,
		nats.Name("split-gtfs"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("[splitter] nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("[splitter] nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSNotifier{nc: nc, prefix: prefix, metrics: m}, nil
}

// Subject returns the subject an event for source is published on.
func Subject(prefix, source string) string {
	return fmt.Sprintf("%s.%s", prefix, subjectToken(source))
}

func (n *NATSNotifier) PartCreated(ctx context.Context, ev PartEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = n.nc.Publish(Subject(n.prefix, ev.Part.Source), b)
	if n.metrics != nil {
		if err != nil {
			n.metrics.NotifyFailed()
		} else {
			n.metrics.NotifyPublished()
		}
	}
	return err
}

// Close flushes pending events and closes the connection.
func (n *NATSNotifier) Close() {
	if n.nc != nil {
		_ = n.nc.Drain()
		n.nc.Close()
	}
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS tokens cannot contain spaces, '>', '*' or '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}

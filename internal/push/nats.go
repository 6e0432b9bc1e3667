package push

import (
	"context"
	"fmt"
	"strings"
	"time"

	"auction-bidsync/internal/biddingerrors"
	"auction-bidsync/utils"

	"github.com/nats-io/nats.go"
)

// NATSSubscriber bridges the same auction events over NATS subjects of the
// form {prefix}.{channel}.{event}.
type NATSSubscriber struct {
	url    string
	prefix string
	opts   []nats.Option
}

// NewNATSSubscriber creates a subscriber; extra options are appended to the defaults
func NewNATSSubscriber(url, prefix string, opts ...nats.Option) *NATSSubscriber {
	return &NATSSubscriber{url: url, prefix: prefix, opts: opts}
}

// Subject returns the subject an event is published on
func (n *NATSSubscriber) Subject(channel, event string) string {
	return n.prefix + "." + channel + "." + event
}

// Run subscribes to every event of each channel until ctx is cancelled
func (n *NATSSubscriber) Run(ctx context.Context, channels []string, dispatch Dispatcher) error {
	msgs := make(chan *nats.Msg, 256)
	reconnected := make(chan struct{}, 1)

	opts := append([]nats.Option{
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			utils.Warn("NATS disconnected", map[string]any{"error": errString(err)})
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			utils.Info("NATS reconnected", map[string]any{"url": nc.ConnectedUrl()})
			select {
			case reconnected <- struct{}{}:
			default:
			}
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			utils.Error("NATS error", map[string]any{"error": errString(err)})
		}),
	}, n.opts...)

	nc, err := nats.Connect(n.url, opts...)
	if err != nil {
		return fmt.Errorf("push: connect to NATS: %w: %w", biddingerrors.ErrTransport, err)
	}
	defer nc.Close()

	for _, ch := range channels {
		if _, err := nc.ChanSubscribe(n.prefix+"."+ch+".*", msgs); err != nil {
			return fmt.Errorf("push: subscribe %s: %w", ch, err)
		}
	}
	utils.Info("NATS subscribed", map[string]any{"url": n.url, "channels": channels})

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-reconnected:
			dispatch(Event{Name: EventReconnected, ReceivedAt: time.Now()})
		case msg := <-msgs:
			channel, event, ok := n.parseSubject(msg.Subject)
			if !ok {
				utils.Warn("NATS message on unexpected subject", map[string]any{"subject": msg.Subject})
				continue
			}
			dispatch(Event{Channel: channel, Name: event, Data: msg.Data, ReceivedAt: time.Now()})
		}
	}
}

// parseSubject splits {prefix}.{channel}.{event}
func (n *NATSSubscriber) parseSubject(subject string) (channel, event string, ok bool) {
	rest, found := strings.CutPrefix(subject, n.prefix+".")
	if !found {
		return "", "", false
	}
	channel, event, found = strings.Cut(rest, ".")
	if !found || channel == "" || event == "" || strings.Contains(event, ".") {
		return "", "", false
	}
	return channel, event, true
}

package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"auction-bidsync/utils"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	pusherProtocol = "7"
	clientName     = "auction-bidsync"
	clientVersion  = "1.0"
)

// Pusher protocol events handled by the client itself
const (
	pusherConnectionEstablished = "pusher:connection_established"
	pusherError                 = "pusher:error"
	pusherPing                  = "pusher:ping"
	pusherPong                  = "pusher:pong"
	pusherSubscribe             = "pusher:subscribe"
	pusherSubscriptionSucceeded = "pusher_internal:subscription_succeeded"
	pusherSubscriptionError     = "pusher:subscription_error"
)

// PusherOptions selects the Pusher Channels application
type PusherOptions struct {
	Key     string
	Cluster string
	Host    string
	Secure  bool
}

// URL builds the websocket endpoint for the application
func (o PusherOptions) URL() string {
	scheme := "ws"
	if o.Secure {
		scheme = "wss"
	}
	host := o.Host
	if host == "" {
		host = "ws-" + o.Cluster + ".pusher.com"
	}
	q := url.Values{}
	q.Set("protocol", pusherProtocol)
	q.Set("client", clientName)
	q.Set("version", clientVersion)
	u := url.URL{Scheme: scheme, Host: host, Path: "/app/" + o.Key, RawQuery: q.Encode()}
	return u.String()
}

// frame is the envelope of every Pusher message in both directions
type frame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type outgoing struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type connectionEstablished struct {
	SocketID        string `json:"socket_id"`
	ActivityTimeout int    `json:"activity_timeout"`
}

// PusherError is an error frame sent by the server
type PusherError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *PusherError) Error() string {
	return fmt.Sprintf("pusher error %d: %s", e.Code, e.Message)
}

// Fatal reports codes the protocol says must not be retried
func (e *PusherError) Fatal() bool {
	return e.Code >= 4000 && e.Code < 4100
}

// PusherClient subscribes to Pusher Channels over a websocket. It reconnects
// with capped exponential backoff and emits EventReconnected after every
// successful reconnect.
type PusherClient struct {
	url             string
	dialer          *websocket.Dialer
	clock           clockwork.Clock
	activityTimeout time.Duration
	pongTimeout     time.Duration
	minBackoff      time.Duration
	maxBackoff      time.Duration
}

// PusherOption customises a PusherClient
type PusherOption func(*PusherClient)

// WithClock replaces the clock driving keepalive and backoff
func WithClock(clock clockwork.Clock) PusherOption {
	return func(p *PusherClient) { p.clock = clock }
}

// WithBackoff bounds the reconnect delay
func WithBackoff(min, max time.Duration) PusherOption {
	return func(p *PusherClient) { p.minBackoff, p.maxBackoff = min, max }
}

// WithURL overrides the endpoint derived from PusherOptions
func WithURL(raw string) PusherOption {
	return func(p *PusherClient) { p.url = raw }
}

// NewPusherClient creates a client for the given application
func NewPusherClient(opts PusherOptions, options ...PusherOption) *PusherClient {
	p := &PusherClient{
		url:             opts.URL(),
		dialer:          websocket.DefaultDialer,
		clock:           clockwork.NewRealClock(),
		activityTimeout: 120 * time.Second,
		pongTimeout:     30 * time.Second,
		minBackoff:      time.Second,
		maxBackoff:      30 * time.Second,
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Run connects and delivers events until ctx is cancelled or the server
// sends a fatal error.
func (p *PusherClient) Run(ctx context.Context, channels []string, dispatch Dispatcher) error {
	attempt := 0
	connectedBefore := false
	for {
		established, err := p.session(ctx, channels, dispatch, connectedBefore)
		if ctx.Err() != nil {
			return nil
		}
		if established {
			connectedBefore = true
			attempt = 0
		}

		var perr *PusherError
		if errors.As(err, &perr) && perr.Fatal() {
			return fmt.Errorf("push: %w", err)
		}

		delay := p.backoff(attempt)
		attempt++
		utils.Warn("push connection lost, reconnecting", map[string]any{
			"error":   errString(err),
			"attempt": attempt,
			"delay":   delay.String(),
		})

		select {
		case <-ctx.Done():
			return nil
		case <-p.clock.After(delay):
		}
	}
}

func (p *PusherClient) backoff(attempt int) time.Duration {
	d := p.minBackoff
	for i := 0; i < attempt && d < p.maxBackoff; i++ {
		d *= 2
	}
	if d > p.maxBackoff {
		d = p.maxBackoff
	}
	return d
}

// session runs one websocket connection. established reports whether the
// server accepted the connection before it ended.
func (p *PusherClient) session(ctx context.Context, channels []string, dispatch Dispatcher, reconnect bool) (established bool, err error) {
	conn, _, err := p.dialer.DialContext(ctx, p.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(event string, data any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(outgoing{Event: event, Data: data})
	}

	frames := make(chan frame)
	readErr := make(chan error, 1)
	go func() {
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- f:
			case <-stop:
				return
			}
		}
	}()

	activity := p.activityTimeout
	idle := p.clock.NewTimer(activity)
	defer idle.Stop()
	awaitingPong := false

	for {
		select {
		case <-ctx.Done():
			writeMu.Lock()
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			writeMu.Unlock()
			return established, nil

		case err := <-readErr:
			return established, fmt.Errorf("read: %w", err)

		case <-idle.Chan():
			if awaitingPong {
				return established, errors.New("pong timeout")
			}
			if err := send(pusherPing, struct{}{}); err != nil {
				return established, fmt.Errorf("ping: %w", err)
			}
			awaitingPong = true
			idle.Reset(p.pongTimeout)

		case f := <-frames:
			stopAndDrain(idle)
			awaitingPong = false

			switch f.Event {
			case pusherConnectionEstablished:
				var ce connectionEstablished
				if err := json.Unmarshal(decodeData(f.Data), &ce); err != nil {
					return established, fmt.Errorf("connection_established: %w", err)
				}
				if server := time.Duration(ce.ActivityTimeout) * time.Second; server > 0 && server < activity {
					activity = server
				}
				for _, ch := range channels {
					if err := send(pusherSubscribe, map[string]string{"channel": ch}); err != nil {
						return established, fmt.Errorf("subscribe %s: %w", ch, err)
					}
				}
				established = true
				utils.Info("push connected", map[string]any{"socket_id": ce.SocketID, "channels": channels})
				if reconnect {
					dispatch(Event{Name: EventReconnected, ReceivedAt: p.clock.Now()})
				}

			case pusherPing:
				if err := send(pusherPong, struct{}{}); err != nil {
					return established, fmt.Errorf("pong: %w", err)
				}

			case pusherPong:

			case pusherError:
				perr := &PusherError{}
				if err := json.Unmarshal(decodeData(f.Data), perr); err != nil {
					return established, fmt.Errorf("error frame: %w", err)
				}
				if perr.Code >= 4000 {
					return established, perr
				}
				utils.Warn("push server error", map[string]any{"code": perr.Code, "message": perr.Message})

			case pusherSubscriptionSucceeded:
				utils.Debug("push subscribed", map[string]any{"channel": f.Channel})

			case pusherSubscriptionError:
				utils.Warn("push subscription failed", map[string]any{"channel": f.Channel, "data": string(f.Data)})

			default:
				if f.Channel != "" {
					dispatch(Event{Channel: f.Channel, Name: f.Event, Data: decodeData(f.Data), ReceivedAt: p.clock.Now()})
				}
			}
			idle.Reset(activity)
		}
	}
}

// decodeData unwraps payloads that Pusher delivers as JSON-encoded strings
func decodeData(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || raw[0] != '"' {
		return raw
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return raw
	}
	return json.RawMessage(s)
}

// stopAndDrain stops a timer and empties its channel so Reset starts clean
func stopAndDrain(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

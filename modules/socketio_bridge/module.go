// Package socketio_bridge forwards messages to a socket.io server and turns
// events from the server back into messages.
package socketio_bridge

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/registry"
	"github.com/vk/reactgrid/internal/sm"
)

const (
	defaultEvent   = "message"
	defaultTimeout = 10 * time.Second
)

var (
	ErrNotConnected = errors.New("socket.io client is not connected")
	ErrMissingURL   = errors.New("setting 'url' is required")
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Settings configures a bridge.
type Settings struct {
	URL                string
	Namespace          string
	Event              string
	ReceiveEvent       string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// ParseSettings reads bridge settings from a deployment descriptor.
func ParseSettings(raw map[string]string) (Settings, error) {
	s := Settings{
		URL:          raw["url"],
		Namespace:    raw["namespace"],
		Event:        raw["event"],
		ReceiveEvent: raw["receive_event"],
		Timeout:      defaultTimeout,
	}
	if s.URL == "" {
		return s, ErrMissingURL
	}
	if _, err := url.Parse(s.URL); err != nil {
		return s, fmt.Errorf("failed to parse URL: %w", err)
	}
	if s.Event == "" {
		s.Event = defaultEvent
	}
	if v, ok := raw["insecure_skip_verify"]; ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return s, fmt.Errorf("invalid insecure_skip_verify '%s': %w", v, err)
		}
		s.InsecureSkipVerify = b
	}
	if v, ok := raw["timeout"]; ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return s, fmt.Errorf("invalid timeout '%s': %w", v, err)
		}
		if d <= 0 {
			return s, fmt.Errorf("timeout must be positive, got %s", d)
		}
		s.Timeout = d
	}
	return s, nil
}

// conn is the part of a socket.io client the bridge uses.
type conn interface {
	Connected() bool
	Emit(event string, args ...any) error
	Disconnect() error
}

// dialFunc opens a connection. onReceive, when non-nil, is called for every
// server event named by Settings.ReceiveEvent.
type dialFunc func(ctx context.Context, s Settings, onReceive func(sm.Message)) (conn, error)

// Bridge owns one socket.io client connection.
type Bridge struct {
	settings Settings
	dial     dialFunc

	// dialMu serializes connect and Close so at most one socket is live.
	dialMu sync.Mutex

	mu     sync.Mutex
	client conn
}

// New returns a bridge that is not connected yet.
func New(settings Settings) *Bridge {
	return &Bridge{settings: settings, dial: dialSocketIO}
}

// Declare declares the connect and disconnect entry points, the forward
// input and the received output.
func (b *Bridge) Declare(mb *module.Builder) {
	received := mb.Output("received")

	mb.Entry("connect", func(ctx context.Context, _ sm.Message) sm.Result {
		if err := b.connect(ctx, received); err != nil {
			ctxlog.FromContext(ctx).Error("Failed to connect", "url", b.settings.URL, "error", err)
			return sm.Failure(err.Error())
		}
		return sm.Success()
	})

	mb.Entry("disconnect", func(ctx context.Context, _ sm.Message) sm.Result {
		if err := b.Close(); err != nil {
			ctxlog.FromContext(ctx).Error("Failed to disconnect", "url", b.settings.URL, "error", err)
			return sm.Failuref("disconnect: %v", err)
		}
		return sm.Success()
	})

	mb.Input("forward", func(ctx context.Context, msg sm.Message) sm.Result {
		logger := ctxlog.FromContext(ctx)
		client := b.connected()
		if client == nil {
			logger.Error("Cannot forward message", "error", ErrNotConnected)
			return sm.Failure(ErrNotConnected.Error())
		}
		logger.Debug("Forwarding message", "event", b.settings.Event, "len", msg.Len())
		if err := client.Emit(b.settings.Event, msg.Bytes()); err != nil {
			logger.Error("Failed to forward message", "error", err)
			return sm.Failuref("forward message: %v", err)
		}
		return sm.Success()
	})
}

func (b *Bridge) connected() conn {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil || !b.client.Connected() {
		return nil
	}
	return b.client
}

func (b *Bridge) connect(ctx context.Context, received *module.Output) error {
	b.dialMu.Lock()
	defer b.dialMu.Unlock()
	if b.connected() != nil {
		return nil
	}

	var onReceive func(sm.Message)
	if b.settings.ReceiveEvent != "" {
		// Server events arrive outside any invocation, so they are emitted
		// with the routing of the connect call.
		emitCtx := context.WithoutCancel(ctx)
		onReceive = func(msg sm.Message) { received.Emit(emitCtx, msg) }
	}
	c, err := b.dial(ctx, b.settings, onReceive)
	if err != nil {
		return err
	}

	b.mu.Lock()
	stale := b.client
	b.client = c
	b.mu.Unlock()
	if stale != nil {
		// A dropped socket would otherwise keep reconnecting and emitting.
		if err := stale.Disconnect(); err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to release stale connection", "error", err)
		}
	}
	return nil
}

// socketConn adapts a socket.io client socket to conn.
type socketConn struct {
	*socket.Socket
}

func (c socketConn) Disconnect() error {
	c.Socket.Disconnect()
	return nil
}

func dialSocketIO(ctx context.Context, s Settings, onReceive func(sm.Message)) (conn, error) {
	logger := ctxlog.FromContext(ctx).With("url", s.URL)
	logger.Info("Creating new client instance...")

	parsedURL, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if s.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(s.Namespace, opts)

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	if onReceive != nil {
		io.On(types.EventName(s.ReceiveEvent), func(data ...any) {
			msg, err := toMessage(data)
			if err != nil {
				logger.Warn("Dropping undecodable server event", "event", s.ReceiveEvent, "error", err)
				return
			}
			onReceive(msg)
		})
	}

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(s.Timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", s.Timeout)
	}
	return socketConn{Socket: io}, nil
}

// toMessage converts the first argument of a socket.io event to a Message.
func toMessage(data []any) (sm.Message, error) {
	if len(data) == 0 || data[0] == nil {
		return sm.Empty, nil
	}
	switch v := data[0].(type) {
	case []byte:
		return sm.NewMessage(v), nil
	case string:
		return sm.MessageFromString(v), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return sm.Empty, err
		}
		return sm.NewMessage(raw), nil
	}
}

// Close disconnects the client, if connected.
func (b *Bridge) Close() error {
	b.dialMu.Lock()
	defer b.dialMu.Unlock()

	b.mu.Lock()
	client := b.client
	b.client = nil
	b.mu.Unlock()
	if client == nil {
		return nil
	}
	if err := client.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}
	return nil
}

// Register registers the module type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNative("socketio_bridge", &registry.RegisteredNative{
		Description: "Forwards messages to a socket.io server and emits server events on received.",
		New: func(settings map[string]string) (module.Definition, error) {
			s, err := ParseSettings(settings)
			if err != nil {
				return nil, err
			}
			return New(s), nil
		},
	})
}

// internal/ui/feed.go
package ui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

// FeedURL builds the websocket address of the live feed from the HTTP base
// address of the service.
func FeedURL(base string, replay int, filter url.Values) (string, error) {
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid feed address: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/mints/ws"

	q := url.Values{}
	for k, v := range filter {
		q[k] = v
	}
	if replay > 0 {
		q.Set("replay", strconv.Itoa(replay))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FeedClient reads mint events from the websocket feed and forwards them
// to the UI. It reconnects with exponential backoff until ctx is done.
type FeedClient struct {
	url          string
	relay        *Relay
	dialer       *websocket.Dialer
	reconnectMin time.Duration
	reconnectMax time.Duration
	logger       *zap.Logger
}

// NewFeedClient creates a client for the given websocket url.
func NewFeedClient(feedURL string, relay *Relay, logger *zap.Logger) *FeedClient {
	return &FeedClient{
		url:    feedURL,
		relay:  relay,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			Proxy:            http.ProxyFromEnvironment,
		},
		reconnectMin: 500 * time.Millisecond,
		reconnectMax: 15 * time.Second,
		logger:       logger.Named("feed"),
	}
}

// Run blocks until ctx is done.
func (c *FeedClient) Run(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.reconnectMin
	policy.MaxInterval = c.reconnectMax

	for {
		received, err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if received > 0 {
			policy.Reset()
		}
		c.relay.Send(FeedStatusMsg{Connected: false, Err: err})

		wait := policy.NextBackOff()
		c.logger.Warn("Feed connection lost",
			zap.String("url", c.url),
			zap.Int("received", received),
			zap.Duration("retry_in", wait),
			zap.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// session runs one connection and returns the number of events received.
func (c *FeedClient) session(ctx context.Context) (int, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return 0, fmt.Errorf("dial %s: %w", c.url, err)
	}
	defer conn.Close()

	c.logger.Info("Feed connected", zap.String("url", c.url))
	c.relay.Send(FeedStatusMsg{Connected: true})

	// ReadJSON не смотрит на ctx, закрываем соединение сами.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	received := 0
	for {
		var e domain.MintEvent
		if err := conn.ReadJSON(&e); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return received, errors.New("feed closed by server")
			}
			return received, err
		}
		received++
		c.relay.Send(MintMsg{Event: e})
	}
}

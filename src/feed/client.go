package feed

import (
	"context"
	"math"
	"sync"
	"time"

	"market-dashboard/src/dashboard"
	"market-dashboard/src/helpers"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 20
	backoffFactor  = 1.8
)

// -----------------------------------------------------------------------------

// Client keeps one websocket connection to the market feed, reconnecting with
// backoff, and posts every decoded frame to the engine.
type Client struct {
	cfg   models.MFeedConfig
	codec *Codec
	post  func(dashboard.Event) bool
	log   *logger.Logger

	dialer websocket.Dialer

	mu   sync.Mutex // guards conn and data writes
	conn *websocket.Conn
}

// -----------------------------------------------------------------------------

func NewClient(cfg models.MFeedConfig, codec *Codec, post func(dashboard.Event) bool, log *logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		codec:  codec,
		post:   post,
		log:    log,
		dialer: websocket.Dialer{HandshakeTimeout: seconds(cfg.HandshakeTimeoutSeconds, 10)},
	}
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

// -----------------------------------------------------------------------------

// Connected reports whether a connection is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// -----------------------------------------------------------------------------

// ChangeSymbol writes a change_symbol frame on the open connection.
func (c *Client) ChangeSymbol(ctx context.Context, symbol, requestID string) error {
	frame, err := EncodeChangeSymbol(symbol, requestID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return helpers.NewFeedError("feed is not connected", nil)
	}
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return helpers.NewFeedError("change_symbol write failed", err)
	}
	c.log.Debug("Sent change_symbol %s (%s)", symbol, requestID)
	return nil
}

// -----------------------------------------------------------------------------

// Run connects and reads until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	minBackoff := seconds(c.cfg.ReconnectMinSeconds, 1)
	maxBackoff := seconds(c.cfg.ReconnectMaxSeconds, 30)
	backoff := minBackoff

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		connected, err := c.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = minBackoff
		}
		c.log.Warning("Feed %s unavailable (%v), retrying in %v", c.cfg.URL, err, backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*backoffFactor))
	}
}

// -----------------------------------------------------------------------------

// consume runs one connection. connected reports whether the dial succeeded.
func (c *Client) consume(ctx context.Context) (connected bool, err error) {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.log.Info("Connected to feed %s", c.cfg.URL)
	c.post(dashboard.ConnectedEvent{})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go c.keepAlive(pingCtx, ctx, conn)

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		reason := "closed"
		if err != nil {
			reason = err.Error()
		}
		c.post(dashboard.DisconnectedEvent{Reason: reason})
	}()

	for {
		_, message, rerr := conn.ReadMessage()
		if rerr != nil {
			return true, rerr
		}
		ev, derr := c.codec.Decode(message)
		if derr != nil {
			c.log.Warning("Dropping feed frame: %v", derr)
			continue
		}
		if ev == nil {
			continue
		}
		if !c.post(ev) {
			return true, context.Canceled
		}
	}
}

// -----------------------------------------------------------------------------

// keepAlive pings until pingCtx ends, and closes conn when the parent ctx is
// cancelled so the blocked read returns.
func (c *Client) keepAlive(pingCtx, parent context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.log.Warning("Feed ping failed: %v", err)
				return
			}
		case <-pingCtx.Done():
			if parent.Err() != nil {
				conn.Close()
			}
			return
		}
	}
}

package server

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	clientWriteWait  = 2 * time.Second
	clientPongWait   = 60 * time.Second
	clientPingPeriod = (clientPongWait * 9) / 10
	maxCommandSize   = 64 * 1024
	clientQueueSize  = 256
)

// -----------------------------------------------------------------------------

// Client is one connected dashboard page. The hub owns send and closes it when
// the client is dropped.
type Client struct {
	id   string
	hub  *DashboardServer
	conn *websocket.Conn
	send chan Message
}

func newClient(id string, hub *DashboardServer, conn *websocket.Conn) *Client {
	return &Client{id: id, hub: hub, conn: conn, send: make(chan Message, clientQueueSize)}
}

// -----------------------------------------------------------------------------

// readPump forwards page commands to the hub until the page goes away or stops
// answering pings.
func (c *Client) readPump() {
	defer c.leave()

	c.conn.SetReadLimit(maxCommandSize)
	c.extendDeadline()
	c.conn.SetPongHandler(func(string) error { return c.extendDeadline() })

	for {
		_, command, err := c.conn.ReadMessage()
		switch {
		case err == nil:
			c.hub.HandleClientMessage(c, command)
			continue
		case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
			c.hub.Logger.Debug("Dashboard client %s closed the page", c.id)
		default:
			c.hub.Logger.Info("Dashboard client %s read failed: %v", c.id, err)
		}
		return
	}
}

func (c *Client) extendDeadline() error {
	return c.conn.SetReadDeadline(time.Now().Add(clientPongWait))
}

func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.quit:
	}
	c.conn.Close()
	c.hub.Logger.Info("Dashboard client %s disconnected", c.id)
}

// -----------------------------------------------------------------------------

// writePump drains the send queue and keeps the page alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(clientPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			deadline := time.Now().Add(clientWriteWait)
			if !ok {
				// dropped by the hub: slow client or shutdown
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "dashboard closed"), deadline)
				return
			}
			c.conn.SetWriteDeadline(deadline)
			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.Logger.Info("Dashboard client %s write failed on %s: %v", c.id, message.Type, err)
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(clientWriteWait)); err != nil {
				return
			}
		}
	}
}

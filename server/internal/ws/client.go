package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	idleTimeout = 60 * time.Second
	// pingEvery stays under idleTimeout so a healthy peer always answers in time.
	pingEvery = idleTimeout * 9 / 10

	sendBufSize  = 16
	maxReadBytes = 512
)

// client is one dashboard connection. The hub owns send and closes it on
// unregister, which tells writeLoop to say goodbye.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendBufSize)}
}

func (c *client) write(messageType int, payload []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
	return c.conn.WriteMessage(messageType, payload)
}

// writeLoop is the single writer for the connection.
func (c *client) writeLoop() {
	ping := time.NewTicker(pingEvery)
	defer ping.Stop()
	defer c.conn.Close()

	for {
		var err error
		select {
		case msg, open := <-c.send:
			if !open {
				bye := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
				c.write(websocket.CloseMessage, bye) //nolint:errcheck
				return
			}
			err = c.write(websocket.TextMessage, msg)
		case <-ping.C:
			err = c.write(websocket.PingMessage, nil)
		}
		if err != nil {
			return
		}
	}
}

// readLoop drains inbound frames so pong and close control messages are
// processed. It returns once the peer is gone or stays silent past idleTimeout.
func (c *client) readLoop() {
	defer c.conn.Close()

	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	}
	c.conn.SetReadLimit(maxReadBytes)
	extend("") //nolint:errcheck
	c.conn.SetPongHandler(extend)

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

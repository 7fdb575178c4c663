package admin

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/iburimskiy/gridscan/internal/relay"
)

// Client is a moderation connection to the relay. Incoming frames are
// decoded onto Events; the channel closes when the connection drops.
type Client struct {
	conn   *websocket.Conn
	events chan relay.Envelope

	wmu sync.Mutex
	err error
}

func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("admin: dial %s: %w", url, err)
	}
	c := &Client{conn: conn, events: make(chan relay.Envelope, 16)}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.wmu.Lock()
			c.err = err
			c.wmu.Unlock()
			return
		}
		env, err := relay.Decode(msg)
		if err != nil {
			continue
		}
		c.events <- env
	}
}

func (c *Client) Events() <-chan relay.Envelope { return c.events }

// Err reports why the event channel closed.
func (c *Client) Err() error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.err
}

// Send issues one moderation command for question id.
func (c *Client) Send(event string, id int) error {
	msg, err := relay.Encode(event, id)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *Client) Close() error {
	c.wmu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.wmu.Unlock()
	return c.conn.Close()
}

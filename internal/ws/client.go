package ws

import (
	"encoding/json"

	"github.com/gorilla/websocket"
)

const egressBuffer = 8

type Client struct {
	connection *websocket.Conn
	hub        *Hub
	egress     chan Event
	ip         string
}

func NewClient(conn *websocket.Conn, h *Hub, ip string) *Client {
	return &Client{
		connection: conn,
		hub:        h,
		egress:     make(chan Event, egressBuffer),
		ip:         ip,
	}
}

func (c *Client) ReadMessages() {
	defer c.hub.RemoveClient(c)

	for {
		_, payload, err := c.connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Error("Client read error", "ip", c.ip, "error", err)
			}
			return
		}

		var request Event
		if err := json.Unmarshal(payload, &request); err != nil {
			c.hub.log.Error("Error unmarshalling message", "ip", c.ip, "error", err)
			return
		}

		if err := c.hub.routeEvent(request, c); err != nil {
			c.hub.log.Error("Error handling message", "ip", c.ip, "error", err)
		}
	}
}

func (c *Client) WriteMessages() {
	defer c.hub.RemoveClient(c)

	for message := range c.egress {
		data, err := json.Marshal(message)
		if err != nil {
			c.hub.log.Error("Error marshalling message", "error", err)
			return
		}

		if err := c.connection.WriteMessage(websocket.TextMessage, data); err != nil {
			c.hub.log.Error("Error sending message", "ip", c.ip, "error", err)
			return
		}
		c.hub.log.Debug("Sent message", "type", message.Type, "ip", c.ip)
	}

	// egress closed by RemoveClient
	_ = c.connection.WriteMessage(websocket.CloseMessage, nil)
}

// Copyright (C) 2026 The Reel Authors.
//
// This file is part of Reel.
//
// Reel is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Reel is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Reel.  If not, see <https://www.gnu.org/licenses/>.

// Package hub fans out live messages to websocket clients grouped by
// topic.
package hub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/defsub/reel/lib/log"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

const (
	sendQueue    = 8
	pingInterval = 45 * time.Second
)

type Message struct {
	topic string
	body  []byte
}

type Hub struct {
	nextID     int64
	topics     map[string]map[*Client]bool
	publish    chan Message
	register   chan *Client
	unregister chan *Client
	count      chan chan int
	quit       chan struct{}
}

type Conn net.Conn

type Client struct {
	id    int64
	topic string
	hub   *Hub
	conn  Conn
	send  chan Message
	wmu   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		nextID:     1,
		topics:     make(map[string]map[*Client]bool),
		publish:    make(chan Message),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan chan int),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) done(client *Client) {
	clients := h.topics[client.topic]
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.topics, client.topic)
	}
	close(client.send)
}

// Run serves the hub until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.quit)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.topics {
				for client := range clients {
					h.done(client)
				}
			}
			return
		case client := <-h.register:
			clients, ok := h.topics[client.topic]
			if !ok {
				clients = make(map[*Client]bool)
				h.topics[client.topic] = clients
			}
			client.id = h.nextID
			h.nextID++
			clients[client] = true
			log.Debugf("hub: client %d joined %s (%d)", client.id, client.topic, len(clients))
		case client := <-h.unregister:
			h.done(client)
		case message := <-h.publish:
			for client := range h.topics[message.topic] {
				select {
				case client.send <- message:
				default:
					// slow client
					h.done(client)
				}
			}
		case reply := <-h.count:
			n := 0
			for _, clients := range h.topics {
				n += len(clients)
			}
			reply <- n
		}
	}
}

// Publish sends body to every client of topic.
func (h *Hub) Publish(topic string, body []byte) {
	select {
	case h.publish <- Message{topic: topic, body: body}:
	case <-h.quit:
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.quit:
		return 0
	}
}

// Handle upgrades the request and subscribes the connection to topic.
func (h *Hub) Handle(topic string, w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Println(err)
		return
	}

	c := &Client{
		hub:   h,
		topic: topic,
		conn:  conn,
		send:  make(chan Message, sendQueue),
	}
	select {
	case h.register <- c:
	case <-h.quit:
		conn.Close()
		return
	}

	go c.reader()
	go c.writer()
}

func (c *Client) write(op ws.OpCode, body []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return wsutil.WriteServerMessage(c.conn, op, body)
}

func (c *Client) ping() error {
	return c.write(ws.OpPing, []byte{})
}

// reader only answers pings; clients publish through the http api.
func (c *Client) reader() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	for {
		c.conn.SetReadDeadline(time.Now().Add(pingInterval))
		msg, err := wsutil.ReadClientText(c.conn)
		if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
			// keep alive with pings
			if err = c.ping(); err != nil {
				log.Debugf("hub: %s", err)
				return
			}
			continue
		} else if err != nil {
			log.Debugf("hub: %s", err)
			return
		}
		if len(msg) > 0 && msg[0] == byte('/') {
			cmd := strings.Split(string(msg[1:]), " ")
			switch cmd[0] {
			case "ping":
				if len(cmd) == 2 {
					// "/ping time"
					pong := fmt.Sprintf("/pong %s", cmd[1])
					if err := c.write(ws.OpText, []byte(pong)); err != nil {
						return
					}
				}
			default:
				log.Debugf("hub: ignore '%s'", cmd[0])
			}
		}
	}
}

func (c *Client) writer() {
	defer func() {
		c.conn.Close()
	}()

	for message := range c.send {
		err := c.write(ws.OpText, message.body)
		if err != nil {
			log.Debugf("hub: %s", err)
			return
		}
	}
}

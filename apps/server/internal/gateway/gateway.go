// Package gateway is the websocket session layer: it owns client
// connections, binds them to display names and relays their requests to
// the lobby and the table actors.
//
// A player_action payload carries the action kind as "action" or, in the
// shape browser clients send, as "type": {"type": "raise", "amount": 40}.
package gateway

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"holdem-live/apps/server/internal/auth"
	"holdem-live/apps/server/internal/codec"
	"holdem-live/apps/server/internal/lobby"
	"holdem-live/apps/server/internal/table"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connection represents a WebSocket client connection
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Gateway *Gateway

	send  chan []byte
	done  chan struct{}
	once  sync.Once
	codec codec.Codec

	mu       sync.Mutex
	username string
	tableID  string
	lastPing time.Time
}

// Gateway manages WebSocket connections
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	userConns   map[string]*Connection // display name -> connection
	nextConnID  uint64

	lobby    *lobby.Lobby
	accounts auth.Service
	names    *auth.Names
	log      logrus.FieldLogger
}

// New creates a gateway. accounts may be nil, in which case login is
// refused and only guest names are available.
func New(lby *lobby.Lobby, accounts auth.Service, names *auth.Names, log logrus.FieldLogger) *Gateway {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if names == nil {
		names = auth.NewNames(accounts)
	}
	g := &Gateway{
		connections: make(map[string]*Connection),
		userConns:   make(map[string]*Connection),
		lobby:       lby,
		accounts:    accounts,
		names:       names,
		log:         log,
	}
	// a finished hand changes the table status shown in the lobby
	lby.AddHandEndHook(func(table.HandEndInfo) { g.broadcastTableList() })
	return g
}

// HandleWebSocket upgrades the request and starts the connection pumps.
// ?format=proto selects binary protobuf frames; JSON text is the default.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.WithError(err).Warn("[Gateway] Upgrade error")
		return
	}

	g.mu.Lock()
	g.nextConnID++
	c := &Connection{
		ID:       fmt.Sprintf("conn_%d", g.nextConnID),
		Conn:     conn,
		Gateway:  g,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		codec:    codec.ForFormat(r.URL.Query().Get("format")),
		lastPing: time.Now(),
	}
	g.connections[c.ID] = c
	total := len(g.connections)
	g.mu.Unlock()

	g.log.Infof("[Gateway] Client connected: %s (%s), total: %d", c.ID, c.codec.Name(), total)

	go c.writePump()
	c.sendTableList(g.lobby.List())
	go c.readPump()
}

// ConnectionCount returns the number of open connections.
func (g *Gateway) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.mu.Lock()
		c.lastPing = time.Now()
		c.mu.Unlock()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Gateway.log.WithError(err).Warnf("[Gateway] Read error on %s", c.ID)
			}
			break
		}
		c.handleMessage(message)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(c.codec.MessageType(), message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// enqueue never blocks: table actors call it while holding their lock.
func (c *Connection) enqueue(env codec.Envelope) {
	data, err := c.codec.Encode(codec.Stamp(env))
	if err != nil {
		c.Gateway.log.WithError(err).Errorf("[Gateway] Encode %s for %s", env.Type, c.ID)
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.Gateway.log.Warnf("[Gateway] Send buffer full on %s, dropping %s", c.ID, env.Type)
	}
}

func (c *Connection) identity() (username, tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username, c.tableID
}

func (c *Connection) setTable(tableID string) {
	c.mu.Lock()
	c.tableID = tableID
	c.mu.Unlock()
}

func (g *Gateway) removeConnection(c *Connection) {
	c.once.Do(func() { close(c.done) })

	username, tableID := c.identity()
	if tableID != "" {
		if t, err := g.lobby.Get(tableID); err == nil {
			if err := t.Leave(username); err != nil {
				g.log.WithError(err).Debugf("[Gateway] %s leaving %s on disconnect", username, tableID)
			}
			g.lobby.RemoveIfEmpty(tableID)
		}
	}
	g.names.Release(c.ID)

	g.mu.Lock()
	delete(g.connections, c.ID)
	if username != "" && g.userConns[username] == c {
		delete(g.userConns, username)
	}
	total := len(g.connections)
	g.mu.Unlock()

	g.log.Infof("[Gateway] Client disconnected: %s, total: %d", c.ID, total)
	if tableID != "" {
		g.broadcastTableList()
	}
}

// deliverUpdate is the table.Broadcaster handed to every table.
func (g *Gateway) deliverUpdate(username string, u table.Update) {
	g.mu.RLock()
	c := g.userConns[username]
	g.mu.RUnlock()
	if c == nil {
		return
	}
	if _, tableID := c.identity(); tableID != u.TableID {
		return
	}
	c.enqueue(codec.Envelope{
		Type:    MsgUpdateActiveTable,
		TableID: u.TableID,
		Seq:     u.Seq,
		Payload: u.View,
	})
}

// broadcastTableList refreshes the table list of everyone in the lobby.
func (g *Gateway) broadcastTableList() {
	tables := g.lobby.List()
	for _, c := range g.snapshot() {
		if _, tableID := c.identity(); tableID == "" {
			c.sendTableList(tables)
		}
	}
}

// broadcastChat relays a chat line to the lobby (tableID == "") or to
// the connections seated at one table.
func (g *Gateway) broadcastChat(tableID string, msg chatMessage, skip *Connection) {
	for _, c := range g.snapshot() {
		if c == skip {
			continue
		}
		if _, cur := c.identity(); cur == tableID {
			c.enqueue(codec.Envelope{Type: MsgChatMessage, TableID: tableID, Payload: msg})
		}
	}
}

// Broadcast sends an envelope to all connections
func (g *Gateway) Broadcast(env codec.Envelope) {
	for _, c := range g.snapshot() {
		c.enqueue(env)
	}
}

func (g *Gateway) snapshot() []*Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Connection, 0, len(g.connections))
	for _, c := range g.connections {
		out = append(out, c)
	}
	return out
}

func (g *Gateway) bindUsername(c *Connection, prev, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if prev != "" && g.userConns[prev] == c {
		delete(g.userConns, prev)
	}
	g.userConns[name] = c
}

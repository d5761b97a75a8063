package services

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tambolahq/tambola-backend/game"
	"github.com/tambolahq/tambola-backend/utils/logger"
)

// Client is one websocket session. A session holds at most one room seat;
// the player id lives and dies with the connection (no accounts).
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once

	mu      sync.Mutex
	room    *Room
	created []*Room // rooms whose host seat this session reserved but has not claimed by joining
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 32),
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// enqueue hands a frame to the write pump; a full buffer drops the frame so
// one slow reader never blocks a room broadcast.
func (c *Client) enqueue(b []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debugf("[Client %s] enqueue on closed client: %v", c.id, r)
		}
	}()
	select {
	case c.send <- b:
	default:
		logger.Warnf("[Client %s] send buffer full, dropping frame", c.id)
	}
}

func (c *Client) sendJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("[Client %s] marshal: %v", c.id, err)
		return
	}
	c.enqueue(b)
}

func (c *Client) setRoom(r *Room) {
	c.mu.Lock()
	c.room = r
	c.mu.Unlock()
}

func (c *Client) currentRoom() *Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// rememberCreated records a host-seat reservation so it can be walked back
// if this session never joins the room.
func (c *Client) rememberCreated(r *Room) {
	c.mu.Lock()
	c.created = append(c.created, r)
	c.mu.Unlock()
}

// releaseCreated drops every pending host reservation except the room the
// session just joined; a seated host is managed by Leave from here on.
func (c *Client) releaseCreated(joined *Room) {
	c.mu.Lock()
	pending := c.created
	c.created = nil
	c.mu.Unlock()

	for _, r := range pending {
		if r != joined {
			r.releaseHost(c.id)
		}
	}
}

// clientMessage is the inbound frame shape. Fields are action-dependent.
type clientMessage struct {
	Action  string       `json:"action"`
	RoomID  string       `json:"room_id"`
	Name    string       `json:"name"`
	Pattern string       `json:"pattern"`
	Ticket  *game.Ticket `json:"ticket"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type roomCreatedEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type joinedEvent struct {
	Type string `json:"type"`
	*JoinSnapshot
}

type claimResultEvent struct {
	Type string `json:"type"`
	ClaimResult
}

// --------------------
// Client read/write pumps
// --------------------

func (c *Client) readPump() {
	defer c.teardown()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("[Client %s] read error: %v", c.id, err)
			}
			return
		}
		c.handleMessage(message)
	}
}

// teardown runs once the read pump exits: vacate the seat, walk back any
// host reservation on rooms this session created but never joined, and
// shut the connection down.
func (c *Client) teardown() {
	if room := c.currentRoom(); room != nil {
		room.Leave(c.id)
	}
	c.releaseCreated(nil)
	c.Close()
	logger.Infof("[Client %s] disconnected", c.id)
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Debugf("[Client %s] write error: %v", c.id, err)
			return
		}
	}
}

// handleMessage dispatches one inbound action. A malformed request degrades
// to a rejected operation, never a crashed room.
func (c *Client) handleMessage(raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Client %s] recovered from panic: %v", c.id, r)
		}
	}()

	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Debugf("[Client %s] invalid message: %v", c.id, err)
		c.sendJSON(errorEvent{Type: "error", Message: "invalid message"})
		return
	}

	switch msg.Action {
	case "create_room":
		room := Rooms.Create(c.id)
		c.rememberCreated(room)
		c.sendJSON(roomCreatedEvent{Type: "room_created", RoomID: room.ID})

	case "join_room":
		room, err := Rooms.Get(msg.RoomID)
		if err != nil {
			c.sendJSON(errorEvent{Type: "error", Message: "room not found"})
			return
		}
		if prev := c.currentRoom(); prev != nil && prev != room {
			prev.Leave(c.id)
		}
		snap, err := room.Join(c, msg.Name)
		if err != nil {
			c.sendJSON(errorEvent{Type: "error", Message: "could not join room"})
			return
		}
		c.setRoom(room)
		c.releaseCreated(room)
		c.sendJSON(joinedEvent{Type: "joined", JoinSnapshot: snap})

	case "start_game":
		if room, err := Rooms.Get(msg.RoomID); err == nil {
			room.Start(c.id)
		}

	case "reset_game":
		if room, err := Rooms.Get(msg.RoomID); err == nil {
			room.Reset(c.id)
		}

	case "claim_pattern":
		room, err := Rooms.Get(msg.RoomID)
		if err != nil {
			c.sendJSON(claimResultEvent{Type: "claim_result", ClaimResult: ClaimResult{Pattern: msg.Pattern, Message: "room not found"}})
			return
		}
		result := room.Claim(c.id, msg.Pattern, msg.Ticket)
		c.sendJSON(claimResultEvent{Type: "claim_result", ClaimResult: result})

	case "leave_room":
		if room, err := Rooms.Get(msg.RoomID); err == nil {
			room.Leave(c.id)
			c.setRoom(nil)
		}

	default:
		logger.Debugf("[Client %s] unknown action: %q", c.id, msg.Action)
	}
}

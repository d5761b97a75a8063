package services

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tambolahq/tambola-backend/utils/logger"
)

var ErrRoomNotFound = errors.New("room not found")

const (
	roomIDLength   = 6
	roomIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Registry is the only globally shared mutable structure: room id -> room.
// Registry-level locking is separate from per-room locking; rooms run
// independently once looked up.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	interval time.Duration
	archive  *Archive
}

func NewRegistry(interval time.Duration, archive *Archive) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		interval: interval,
		archive:  archive,
	}
}

// Create allocates a room under a fresh short code. Codes are random, not
// unique by construction, so collisions are checked under the lock and
// retried. hostID may be empty; the first joiner then becomes host.
func (reg *Registry) Create(hostID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for {
		id := newRoomID()
		if _, exists := reg.rooms[id]; exists {
			continue
		}
		room := newRoom(id, hostID, reg.interval, reg.archive)
		reg.rooms[id] = room
		logger.Infof("[Registry] room %s created (total=%d)", id, len(reg.rooms))
		return room
	}
}

func (reg *Registry) Get(id string) (*Room, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Remove tears a room down, cancelling its cadence first.
func (reg *Registry) Remove(id string) {
	reg.mu.Lock()
	room, ok := reg.rooms[id]
	if ok {
		delete(reg.rooms, id)
	}
	reg.mu.Unlock()
	if ok {
		room.shutdown()
		logger.Infof("[Registry] room %s removed", id)
	}
}

func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// StartReaper garbage-collects rooms that have sat empty past the grace
// period. Leaving never destroys a room directly; this is the cleanup path.
func (reg *Registry) StartReaper(grace, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for range ticker.C {
			reg.reap(grace)
		}
	}()
}

func (reg *Registry) reap(grace time.Duration) {
	reg.mu.RLock()
	stale := make([]string, 0)
	for id, room := range reg.rooms {
		if room.emptyFor(grace) {
			stale = append(stale, id)
		}
	}
	reg.mu.RUnlock()

	for _, id := range stale {
		logger.Infof("[Registry] reaping empty room %s", id)
		reg.Remove(id)
	}
}

func newRoomID() string {
	b := make([]byte, roomIDLength)
	for i := range b {
		b[i] = roomIDAlphabet[rand.Intn(len(roomIDAlphabet))]
	}
	return string(b)
}

// -------------------- Service bootstrap --------------------

// Rooms is the process-wide registry, set by InitRoomService.
var Rooms *Registry

// InitRoomService wires the registry and its reaper. db may be nil; the
// archive is then disabled and the server runs purely in-memory.
func InitRoomService(interval, reaperGrace time.Duration, db *gorm.DB) {
	Rooms = NewRegistry(interval, NewArchive(db))
	Rooms.StartReaper(reaperGrace, 30*time.Second)
	logger.Infof("[Init] room service ready (call interval %s, reaper grace %s)", interval, reaperGrace)
}

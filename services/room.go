package services

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/tambolahq/tambola-backend/game"
	"github.com/tambolahq/tambola-backend/utils/logger"
)

// Member is one player's seat in a room.
type Member struct {
	ID     string
	Name   string
	Ticket *game.Ticket
	client *Client
	joined time.Time
}

// Room is one multiplayer game session. All state behind mu; broadcasts
// happen after the mutation is committed and the lock released, so a slow
// client can never stall adjudication.
type Room struct {
	ID string

	mu         sync.Mutex
	hostID     string
	members    map[string]*Member
	order      []string // join order; first entry inherits host on host leave
	called     []int
	claims     game.Claims
	state      game.State
	seq        *game.CallSequence
	drawCancel chan struct{}
	interval   time.Duration
	round      int
	startedAt  time.Time
	emptySince time.Time
	archive    *Archive
}

func newRoom(id, hostID string, interval time.Duration, archive *Archive) *Room {
	return &Room{
		ID:         id,
		hostID:     hostID,
		members:    make(map[string]*Member),
		claims:     game.NewClaims(),
		state:      game.StateIdle,
		interval:   interval,
		emptySince: time.Now(),
		archive:    archive,
	}
}

// JoinSnapshot is the full catch-up state handed to a joining player.
type JoinSnapshot struct {
	RoomID        string       `json:"room_id"`
	Ticket        *game.Ticket `json:"ticket"`
	CalledNumbers []int        `json:"called_numbers"`
	Claims        game.Claims  `json:"claims"`
	Host          bool         `json:"host"`
}

// ClaimResult is the per-requester outcome of a claim attempt.
type ClaimResult struct {
	Pattern string `json:"pattern"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RoomStatus is the REST-facing view of a room.
type RoomStatus struct {
	RoomID  string      `json:"room_id"`
	State   game.State  `json:"state"`
	Players []string    `json:"players"`
	Called  []int       `json:"called_numbers"`
	Claims  game.Claims `json:"claims"`
}

// -------------------- Membership --------------------

// Join deals the player a fresh ticket, registers them, and returns the
// authoritative call history and claim board so a late joiner catches up.
// The first player into a room with no designated host becomes host.
func (r *Room) Join(c *Client, name string) (*JoinSnapshot, error) {
	ticket, err := game.NewGenerator().Generate()
	if err != nil {
		// bounded-retry ceiling; should never happen with a sane generator
		logger.Errorf("[Room %s] ticket generation exhausted for %q: %v", r.ID, name, err)
		return nil, err
	}

	r.mu.Lock()
	if r.hostID == "" {
		r.hostID = c.id
	}
	if _, rejoin := r.members[c.id]; !rejoin {
		// a rejoin replaces the seat; the join order keeps one entry per player
		r.order = append(r.order, c.id)
	}
	r.members[c.id] = &Member{
		ID:     c.id,
		Name:   name,
		Ticket: ticket,
		client: c,
		joined: time.Now(),
	}
	r.emptySince = time.Time{}
	snap := &JoinSnapshot{
		RoomID:        r.ID,
		Ticket:        ticket,
		CalledNumbers: append([]int(nil), r.called...),
		Claims:        r.claims.Copy(),
		Host:          r.hostID == c.id,
	}
	r.mu.Unlock()

	logger.Infof("[Room %s] %s joined (player=%s)", r.ID, name, c.id)
	r.broadcastPlayerList()
	return snap, nil
}

// Leave drops a member and re-broadcasts the list. The room itself survives
// even when empty; the registry's reaper deletes it after a grace period.
// A leaving host stops the cadence and hands the role to the longest-joined
// remaining member.
func (r *Room) Leave(playerID string) {
	r.mu.Lock()
	m, ok := r.members[playerID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.members, playerID)
	for i, id := range r.order {
		if id == playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if playerID == r.hostID {
		r.stopDrawLocked()
		if r.state == game.StateRunning {
			r.state = game.StateIdle
		}
		r.hostID = ""
		if len(r.order) > 0 {
			r.hostID = r.order[0]
		}
	}
	if len(r.members) == 0 {
		r.emptySince = time.Now()
	}
	r.mu.Unlock()

	logger.Infof("[Room %s] %s left", r.ID, m.Name)
	r.broadcastPlayerList()
}

// releaseHost abandons a host claim held by a session that never joined.
// Creating a room reserves the host seat for the creator; if that session
// joins elsewhere or disconnects without ever joining, the reservation is
// dropped so the room does not stay wedged behind a dead host id. A host
// who actually sits in the room is untouched; Leave handles that path.
func (r *Room) releaseHost(playerID string) {
	r.mu.Lock()
	if r.hostID != playerID {
		r.mu.Unlock()
		return
	}
	if _, seated := r.members[playerID]; seated {
		r.mu.Unlock()
		return
	}
	r.stopDrawLocked()
	if r.state == game.StateRunning {
		r.state = game.StateIdle
	}
	r.hostID = ""
	if len(r.order) > 0 {
		r.hostID = r.order[0]
	}
	r.mu.Unlock()

	logger.Infof("[Room %s] pending host %s released", r.ID, playerID)
}

// -------------------- Game control --------------------

// Start begins the call cadence. Only the host may start; anyone else is
// silently ignored (the server re-checks regardless of what the UI offers).
// A Finished room stays finished until an explicit Reset. Restarting from
// Idle atomically replaces any prior cadence.
func (r *Room) Start(requesterID string) {
	r.mu.Lock()
	if requesterID != r.hostID {
		r.mu.Unlock()
		logger.Debugf("[Room %s] start ignored: %s is not host", r.ID, requesterID)
		return
	}
	if r.state == game.StateFinished {
		r.mu.Unlock()
		logger.Debugf("[Room %s] start ignored: game finished, reset required", r.ID)
		return
	}
	r.stopDrawLocked()
	r.called = nil
	r.seq = game.NewCallSequence()
	r.state = game.StateRunning
	r.round++
	r.startedAt = time.Now()
	cancel := make(chan struct{})
	r.drawCancel = cancel
	round := r.round
	r.mu.Unlock()

	logger.Infof("[Room %s] game started by host %s (round %d)", r.ID, requesterID, round)
	r.broadcast(gameEvent{Type: "game_started"})
	r.broadcast(notificationEvent{Type: "notification", Message: "Game Started!"})

	go r.runCadence(cancel, round)
}

// Reset returns a Finished room to Idle with fresh history and claims.
// Host only; silently ignored otherwise.
func (r *Room) Reset(requesterID string) {
	r.mu.Lock()
	if requesterID != r.hostID || r.state == game.StateRunning {
		r.mu.Unlock()
		return
	}
	r.stopDrawLocked()
	r.called = nil
	r.claims = game.NewClaims()
	r.state = game.StateIdle
	claims := r.claims.Copy()
	r.mu.Unlock()

	logger.Infof("[Room %s] game reset by host", r.ID)
	r.broadcast(gameResetEvent{Type: "game_reset", Claims: claims})
}

// runCadence draws one number per tick until cancelled or exhausted.
func (r *Room) runCadence(cancel <-chan struct{}, round int) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			if !r.drawOne(round) {
				return
			}
		}
	}
}

// drawOne appends the next number to the history, or finishes the game on
// exhaustion. Returns false when the cadence should stop. The round check
// makes a cadence that lost a restart race a no-op: only the cadence of the
// current round may touch the sequence.
func (r *Room) drawOne(round int) bool {
	r.mu.Lock()
	if r.state != game.StateRunning || r.seq == nil || r.round != round {
		r.mu.Unlock()
		return false
	}
	n, err := r.seq.Next()
	if err != nil {
		r.finishLocked()
		r.mu.Unlock()
		r.broadcast(gameEvent{Type: "game_over"})
		r.broadcast(notificationEvent{Type: "notification", Message: "All numbers called. Game over!"})
		return false
	}
	r.called = append(r.called, n)
	r.mu.Unlock()

	r.broadcast(numberCalledEvent{Type: "number_called", Number: n})
	return true
}

// finishLocked ends the current game and hands it to the archive. Caller
// holds r.mu.
func (r *Room) finishLocked() {
	r.state = game.StateFinished
	r.stopDrawLocked()
	if r.archive != nil {
		called := append([]int(nil), r.called...)
		claims := r.claims.Copy()
		go r.archive.SaveGame(r.ID, r.round, called, claims, r.startedAt, time.Now())
	}
}

// stopDrawLocked cancels the running cadence, if any. Caller holds r.mu.
// Closing the channel is what stops the goroutine; replacing the field is
// what lets Start install a new cadence without two ever running at once.
func (r *Room) stopDrawLocked() {
	if r.drawCancel != nil {
		close(r.drawCancel)
		r.drawCancel = nil
	}
}

// -------------------- Claims --------------------

// Claim adjudicates a pattern claim against the submitted ticket snapshot.
// The marks are client-reported (the reference trust boundary); what the
// server guarantees is pattern validity over those marks and strict
// first-claim-wins exclusivity, serialized by the room lock. Adjudication
// order, not submission order, is authoritative.
func (r *Room) Claim(playerID, pattern string, snapshot *game.Ticket) ClaimResult {
	r.mu.Lock()
	m, ok := r.members[playerID]
	if !ok {
		r.mu.Unlock()
		return ClaimResult{Pattern: pattern, Message: "not in this room"}
	}
	claim, err := r.claims.Adjudicate(snapshot, pattern, m.Name)
	if err != nil {
		r.mu.Unlock()
		switch {
		case errors.Is(err, game.ErrAlreadyClaimed):
			return ClaimResult{Pattern: pattern, Message: "Already claimed"}
		default:
			return ClaimResult{Pattern: pattern, Message: "Invalid claim"}
		}
	}
	finished := false
	if pattern == game.PatternFullHousie {
		r.finishLocked()
		finished = true
	}
	r.mu.Unlock()

	logger.Infof("[Room %s] %s claimed %q", r.ID, claim.By, pattern)
	r.broadcast(patternClaimedEvent{Type: "pattern_claimed", Pattern: pattern, By: claim.By})
	if finished {
		r.broadcast(gameEvent{Type: "game_over"})
	}
	return ClaimResult{Pattern: pattern, Success: true}
}

// -------------------- Views --------------------

func (r *Room) Status() RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomStatus{
		RoomID:  r.ID,
		State:   r.state,
		Players: r.playerNamesLocked(),
		Called:  append([]int(nil), r.called...),
		Claims:  r.claims.Copy(),
	}
}

func (r *Room) playerNamesLocked() []string {
	names := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if m, ok := r.members[id]; ok {
			names = append(names, m.Name)
		}
	}
	return names
}

// emptyFor reports whether the room has had zero members since before the
// given grace period. Used by the registry reaper.
func (r *Room) emptyFor(grace time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members) == 0 && !r.emptySince.IsZero() && time.Since(r.emptySince) > grace
}

// shutdown cancels the cadence on teardown so a reaped room can never keep
// drawing.
func (r *Room) shutdown() {
	r.mu.Lock()
	r.stopDrawLocked()
	r.state = game.StateFinished
	r.mu.Unlock()
}

// -------------------- Broadcast --------------------

type gameEvent struct {
	Type string `json:"type"`
}

type notificationEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type numberCalledEvent struct {
	Type   string `json:"type"`
	Number int    `json:"number"`
}

type playerListEvent struct {
	Type    string   `json:"type"`
	Players []string `json:"players"`
}

type patternClaimedEvent struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern"`
	By      string `json:"by"`
}

type gameResetEvent struct {
	Type   string      `json:"type"`
	Claims game.Claims `json:"claims"`
}

func (r *Room) broadcastPlayerList() {
	r.mu.Lock()
	names := r.playerNamesLocked()
	r.mu.Unlock()
	r.broadcast(playerListEvent{Type: "player_list", Players: names})
}

// broadcast fans an event out to every member. Collect under the lock, send
// outside it; a full send buffer drops the frame rather than blocking.
func (r *Room) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("[Room %s] broadcast marshal: %v", r.ID, err)
		return
	}
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.members))
	for _, m := range r.members {
		if m.client != nil {
			clients = append(clients, m.client)
		}
	}
	r.mu.Unlock()

	for _, c := range clients {
		c.enqueue(b)
	}
}

package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tambolahq/tambola-backend/game"
)

// newTestClient builds a client with no live connection; the buffered send
// channel absorbs broadcasts without pumps running.
func newTestClient(id string) *Client {
	return &Client{id: id, send: make(chan []byte, 256)}
}

func newTestRegistry(interval time.Duration) *Registry {
	return NewRegistry(interval, nil)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached within", timeout)
}

func markAll(tk *game.Ticket) {
	for _, cell := range tk.FilledCells() {
		cell.Marked = true
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	reg := newTestRegistry(time.Second)
	_, err := reg.Get("nope42")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, 0, reg.Count(), "failed lookup creates nothing")
}

func TestJoinReturnsCatchUpSnapshot(t *testing.T) {
	reg := newTestRegistry(time.Second)
	alice := newTestClient("alice")
	room := reg.Create(alice.id)

	snap, err := room.Join(alice, "Alice")
	require.NoError(t, err)
	assert.True(t, snap.Host)
	assert.Equal(t, room.ID, snap.RoomID)
	assert.NotNil(t, snap.Ticket)
	assert.Empty(t, snap.CalledNumbers)
	assert.Len(t, snap.Claims, len(game.Patterns))

	// seed some authoritative history, then join late
	room.mu.Lock()
	room.called = []int{4, 17, 89}
	room.mu.Unlock()

	bob := newTestClient("bob")
	bobSnap, err := room.Join(bob, "Bob")
	require.NoError(t, err)
	assert.False(t, bobSnap.Host)
	assert.Equal(t, []int{4, 17, 89}, bobSnap.CalledNumbers)

	status := room.Status()
	assert.Equal(t, []string{"Alice", "Bob"}, status.Players, "join order preserved")
}

func TestRejoinKeepsOnePlayerListEntry(t *testing.T) {
	reg := newTestRegistry(time.Hour)
	alice := newTestClient("alice")
	room := reg.Create(alice.id)
	first, err := room.Join(alice, "Alice")
	require.NoError(t, err)
	second, err := room.Join(alice, "Alice")
	require.NoError(t, err)

	status := room.Status()
	assert.Equal(t, []string{"Alice"}, status.Players, "rejoin replaces the seat, never duplicates it")
	assert.NotSame(t, first.Ticket, second.Ticket, "rejoin deals a fresh ticket")

	room.Leave(alice.id)
	assert.Empty(t, room.Status().Players, "one leave clears the only entry")
}

func TestStartIsHostOnly(t *testing.T) {
	reg := newTestRegistry(time.Hour) // cadence never ticks in this test
	alice := newTestClient("alice")
	bob := newTestClient("bob")
	room := reg.Create(alice.id)
	_, err := room.Join(alice, "Alice")
	require.NoError(t, err)
	_, err = room.Join(bob, "Bob")
	require.NoError(t, err)

	room.Start(bob.id)
	assert.Equal(t, game.StateIdle, room.Status().State, "non-host start is silently ignored")

	room.Start(alice.id)
	assert.Equal(t, game.StateRunning, room.Status().State)
}

func TestClaimScenario(t *testing.T) {
	reg := newTestRegistry(time.Hour)
	alice := newTestClient("alice")
	bob := newTestClient("bob")
	room := reg.Create(alice.id)
	aliceSnap, err := room.Join(alice, "Alice")
	require.NoError(t, err)
	bobSnap, err := room.Join(bob, "Bob")
	require.NoError(t, err)

	room.Start(alice.id)

	// Alice's top row fully marked
	for c := 0; c < 9; c++ {
		if cell := aliceSnap.Ticket[0][c]; cell != nil {
			cell.Marked = true
		}
	}
	res := room.Claim(alice.id, game.PatternTopLine, aliceSnap.Ticket)
	assert.True(t, res.Success)

	// Bob's later claim loses even with a fully marked snapshot
	markAll(bobSnap.Ticket)
	res = room.Claim(bob.id, game.PatternTopLine, bobSnap.Ticket)
	assert.False(t, res.Success)
	assert.Equal(t, "Already claimed", res.Message)

	status := room.Status()
	require.NotNil(t, status.Claims[game.PatternTopLine])
	assert.Equal(t, "Alice", status.Claims[game.PatternTopLine].By)
}

func TestClaimRejections(t *testing.T) {
	reg := newTestRegistry(time.Hour)
	alice := newTestClient("alice")
	room := reg.Create(alice.id)
	snap, err := room.Join(alice, "Alice")
	require.NoError(t, err)

	res := room.Claim(alice.id, game.PatternTopLine, snap.Ticket)
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid claim", res.Message, "unmarked snapshot")

	res = room.Claim(alice.id, "Four Corners", snap.Ticket)
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid claim", res.Message, "unknown pattern")

	res = room.Claim(alice.id, game.PatternTopLine, nil)
	assert.False(t, res.Success, "nil snapshot never crashes the room")

	res = room.Claim("stranger", game.PatternTopLine, snap.Ticket)
	assert.False(t, res.Success)
	assert.Equal(t, "not in this room", res.Message)
}

func TestConcurrentClaimsExactlyOneWins(t *testing.T) {
	reg := newTestRegistry(time.Hour)
	host := newTestClient("host")
	room := reg.Create(host.id)
	_, err := room.Join(host, "Host")
	require.NoError(t, err)

	const players = 10
	snapshots := make([]*game.Ticket, players)
	clients := make([]*Client, players)
	for i := 0; i < players; i++ {
		c := newTestClient(string(rune('a'+i)) + "-player")
		snap, err := room.Join(c, "P"+string(rune('0'+i)))
		require.NoError(t, err)
		markAll(snap.Ticket)
		clients[i] = c
		snapshots[i] = snap.Ticket
	}

	var wg sync.WaitGroup
	results := make([]ClaimResult, players)
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = room.Claim(clients[i].id, game.PatternFirstFive, snapshots[i])
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, res := range results {
		if res.Success {
			wins++
		} else {
			assert.Equal(t, "Already claimed", res.Message)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestFullHousieClaimFinishesGame(t *testing.T) {
	reg := newTestRegistry(time.Hour)
	alice := newTestClient("alice")
	room := reg.Create(alice.id)
	snap, err := room.Join(alice, "Alice")
	require.NoError(t, err)

	room.Start(alice.id)
	markAll(snap.Ticket)
	res := room.Claim(alice.id, game.PatternFullHousie, snap.Ticket)
	assert.True(t, res.Success)
	assert.Equal(t, game.StateFinished, room.Status().State)

	room.Start(alice.id)
	assert.Equal(t, game.StateFinished, room.Status().State, "finished games need an explicit reset")
}

func TestCadenceExhaustsAndFinishes(t *testing.T) {
	reg := newTestRegistry(time.Millisecond)
	alice := newTestClient("alice")
	room := reg.Create(alice.id)
	_, err := room.Join(alice, "Alice")
	require.NoError(t, err)

	room.Start(alice.id)
	waitFor(t, 5*time.Second, func() bool {
		return room.Status().State == game.StateFinished
	})

	status := room.Status()
	assert.Len(t, status.Called, 90)
	seen := map[int]bool{}
	for _, n := range status.Called {
		assert.False(t, seen[n], "no repeats in call history")
		seen[n] = true
	}

	// startGame without reset does not resume drawing
	room.Start(alice.id)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, game.StateFinished, room.Status().State)
	assert.Len(t, room.Status().Called, 90)
}

func TestResetReturnsFinishedRoomToIdle(t *testing.T) {
	reg := newTestRegistry(time.Hour)
	alice := newTestClient("alice")
	room := reg.Create(alice.id)
	snap, err := room.Join(alice, "Alice")
	require.NoError(t, err)

	room.Start(alice.id)
	markAll(snap.Ticket)
	require.True(t, room.Claim(alice.id, game.PatternFullHousie, snap.Ticket).Success)
	require.Equal(t, game.StateFinished, room.Status().State)

	room.Reset(alice.id)
	status := room.Status()
	assert.Equal(t, game.StateIdle, status.State)
	assert.Empty(t, status.Called)
	for _, claim := range status.Claims {
		assert.Nil(t, claim)
	}

	room.Start(alice.id)
	assert.Equal(t, game.StateRunning, room.Status().State)
}

func TestStartReplacesRunningCadence(t *testing.T) {
	reg := newTestRegistry(5 * time.Millisecond)
	alice := newTestClient("alice")
	room := reg.Create(alice.id)
	_, err := room.Join(alice, "Alice")
	require.NoError(t, err)

	room.Start(alice.id)
	waitFor(t, time.Second, func() bool { return len(room.Status().Called) >= 3 })

	// restart resets the history; only one cadence may feed it
	room.Start(alice.id)
	waitFor(t, time.Second, func() bool {
		called := room.Status().Called
		return len(called) >= 4
	})
	called := room.Status().Called
	seen := map[int]bool{}
	for _, n := range called {
		assert.False(t, seen[n], "two cadences would repeat numbers")
		seen[n] = true
	}
}

func TestHostLeaveStopsCadenceAndHandsOff(t *testing.T) {
	reg := newTestRegistry(time.Hour)
	alice := newTestClient("alice")
	bob := newTestClient("bob")
	room := reg.Create(alice.id)
	_, err := room.Join(alice, "Alice")
	require.NoError(t, err)
	_, err = room.Join(bob, "Bob")
	require.NoError(t, err)

	room.Start(alice.id)
	require.Equal(t, game.StateRunning, room.Status().State)

	room.Leave(alice.id)
	status := room.Status()
	assert.Equal(t, game.StateIdle, status.State, "host leaving stops the game")
	assert.Equal(t, []string{"Bob"}, status.Players)

	room.Start(bob.id)
	assert.Equal(t, game.StateRunning, room.Status().State, "host role passed to Bob")
}

func TestDisconnectReleasesPendingHostSeat(t *testing.T) {
	reg := newTestRegistry(time.Hour)
	ghost := newTestClient("ghost")
	room := reg.Create(ghost.id)
	ghost.rememberCreated(room)

	alice := newTestClient("alice")
	_, err := room.Join(alice, "Alice")
	require.NoError(t, err)

	room.Start(alice.id)
	require.Equal(t, game.StateIdle, room.Status().State, "host seat still reserved for the creator")

	// creator disconnects without ever joining
	ghost.teardown()

	room.Start(alice.id)
	assert.Equal(t, game.StateRunning, room.Status().State, "seat passes to the longest-joined member")
}

func TestReleaseHostLeavesSeatedHostAlone(t *testing.T) {
	reg := newTestRegistry(time.Hour)
	alice := newTestClient("alice")
	room := reg.Create(alice.id)
	_, err := room.Join(alice, "Alice")
	require.NoError(t, err)

	room.releaseHost(alice.id)
	room.Start(alice.id)
	assert.Equal(t, game.StateRunning, room.Status().State, "a seated host keeps the role")
}

func TestLeaveDoesNotDestroyRoom(t *testing.T) {
	reg := newTestRegistry(time.Hour)
	alice := newTestClient("alice")
	room := reg.Create(alice.id)
	_, err := room.Join(alice, "Alice")
	require.NoError(t, err)

	room.Leave(alice.id)
	got, err := reg.Get(room.ID)
	require.NoError(t, err, "empty room survives until the reaper collects it")
	assert.Empty(t, got.Status().Players)
}

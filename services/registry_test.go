package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tambolahq/tambola-backend/game"
)

func TestCreateAllocatesDistinctShortCodes(t *testing.T) {
	reg := newTestRegistry(time.Second)
	format := regexp.MustCompile(`^[a-z0-9]{6}$`)

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		room := reg.Create("")
		assert.Regexp(t, format, room.ID)
		assert.False(t, seen[room.ID], "room ids must be unique")
		seen[room.ID] = true
	}
	assert.Equal(t, 200, reg.Count())
}

func TestGetAndRemove(t *testing.T) {
	reg := newTestRegistry(time.Second)
	room := reg.Create("")

	got, err := reg.Get(room.ID)
	require.NoError(t, err)
	assert.Same(t, room, got)

	reg.Remove(room.ID)
	_, err = reg.Get(room.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// removing twice is harmless
	reg.Remove(room.ID)
}

func TestRemoveCancelsCadence(t *testing.T) {
	reg := newTestRegistry(time.Millisecond)
	host := newTestClient("host")
	room := reg.Create(host.id)
	_, err := room.Join(host, "Host")
	require.NoError(t, err)
	room.Start(host.id)

	reg.Remove(room.ID)
	assert.Equal(t, game.StateFinished, room.Status().State)
	n := len(room.Status().Called)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, len(room.Status().Called), "no draws after teardown")
}

func TestReapCollectsOnlyStaleEmptyRooms(t *testing.T) {
	reg := newTestRegistry(time.Second)

	empty := reg.Create("")
	occupied := reg.Create("")
	_, err := occupied.Join(newTestClient("p1"), "P1")
	require.NoError(t, err)

	reg.reap(0)

	_, err = reg.Get(empty.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound, "empty room past grace is reaped")
	_, err = reg.Get(occupied.ID)
	assert.NoError(t, err, "occupied room survives")
}

func TestReapHonorsGracePeriod(t *testing.T) {
	reg := newTestRegistry(time.Second)
	room := reg.Create("")

	reg.reap(time.Hour)
	_, err := reg.Get(room.ID)
	assert.NoError(t, err, "freshly emptied room is kept during grace")
}

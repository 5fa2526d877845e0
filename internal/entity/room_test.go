package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoom_Status(t *testing.T) {
	t.Run("Room without a session is waiting", func(t *testing.T) {
		room := NewRoom(1, "lobby")

		assert.Equal(t, RoomStatusWaiting, room.Status())
	})

	t.Run("Room with an ongoing session is playing", func(t *testing.T) {
		room := NewRoom(1, "lobby")
		room.Session = &GameSession{Status: StatusOngoing}

		assert.Equal(t, RoomStatusPlaying, room.Status())
	})

	t.Run("Room with a finished session is finished", func(t *testing.T) {
		room := NewRoom(1, "lobby")
		room.Session = &GameSession{Status: StatusFinished}

		assert.Equal(t, RoomStatusFinished, room.Status())
	})
}

func TestRoom_Occupancy(t *testing.T) {
	t.Run("Tracks occupants up to capacity", func(t *testing.T) {
		// Given: an empty room
		room := NewRoom(1, "lobby")
		assert.True(t, room.IsEmpty())
		assert.False(t, room.IsFull())

		// When: two players occupy it
		room.Occupants = append(room.Occupants, &Player{ID: "p1"}, &Player{ID: "p2"})

		// Then: it is full and both occupants are found by id
		assert.True(t, room.IsFull())
		require.NotNil(t, room.OccupantByID("p1"))
		require.NotNil(t, room.OccupantByID("p2"))
		assert.Nil(t, room.OccupantByID("p3"))
	})

	t.Run("RemoveOccupant drops only the named player", func(t *testing.T) {
		room := NewRoom(1, "lobby")
		room.Occupants = append(room.Occupants, &Player{ID: "p1"}, &Player{ID: "p2"})

		assert.True(t, room.RemoveOccupant("p1"))
		assert.False(t, room.RemoveOccupant("p1"))
		require.Len(t, room.Occupants, 1)
		assert.Equal(t, "p2", room.Occupants[0].ID)
	})
}

func TestRoom_Summary(t *testing.T) {
	t.Run("Summary reflects the last refresh", func(t *testing.T) {
		// Given: a room whose occupancy changed since creation
		room := NewRoom(7, "evening game")
		room.Occupants = append(room.Occupants, &Player{ID: "p1"})

		// When: the snapshot has not been refreshed yet
		stale := room.Summary()

		// Then: it still shows the previous state
		assert.Equal(t, 0, stale.Occupants)

		// When: the mutation republishes the snapshot
		room.RefreshSummary()

		// Then: the summary matches the room
		summary := room.Summary()
		assert.Equal(t, int64(7), summary.ID)
		assert.Equal(t, "evening game", summary.Name)
		assert.Equal(t, 1, summary.Occupants)
		assert.Equal(t, RoomStatusWaiting, summary.Status)
	})
}

func TestRoom_IsExpired(t *testing.T) {
	now := time.Now()
	ttl := 10 * time.Second

	t.Run("Waiting and playing rooms never expire", func(t *testing.T) {
		room := NewRoom(1, "lobby")
		assert.False(t, room.IsExpired(ttl, now))

		room.Session = &GameSession{Status: StatusOngoing}
		assert.False(t, room.IsExpired(ttl, now))
	})

	t.Run("Finished room expires only after the grace period", func(t *testing.T) {
		room := NewRoom(1, "lobby")
		room.Session = &GameSession{Status: StatusFinished}
		room.FinishedAt = now.Add(-5 * time.Second)

		assert.False(t, room.IsExpired(ttl, now))

		room.FinishedAt = now.Add(-ttl)
		assert.True(t, room.IsExpired(ttl, now))
	})
}

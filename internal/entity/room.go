package entity

import (
	"sync"
	"time"
)

const (
	RoomStatusWaiting  = "waiting"
	RoomStatusPlaying  = "playing"
	RoomStatusFinished = "finished"
)

// RoomCapacity - gomoku is strictly a two player game.
const RoomCapacity = 2

// Room - a named space two players occupy to play one game. Every operation
// on a room happens under its lock; the listing snapshot lives behind its own
// small mutex so the lobby never waits for a game in progress.
type Room struct {
	ID   int64
	Name string

	// Occupants, Session and FinishedAt may only be touched while holding
	// the room lock.
	Occupants  []*Player
	Session    *GameSession
	FinishedAt time.Time

	mu sync.Mutex

	summaryMu sync.Mutex
	summary   RoomSummary
}

// RoomSummary - what the lobby sees of a room.
type RoomSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Occupants int    `json:"occupants"`
	Status    string `json:"status"`
}

func NewRoom(id int64, name string) *Room {
	room := &Room{
		ID:   id,
		Name: name,
	}
	room.RefreshSummary()

	return room
}

func (that *Room) Lock() {
	that.mu.Lock()
}

func (that *Room) Unlock() {
	that.mu.Unlock()
}

// Status - derives the lobby status; call while holding the room lock.
func (that *Room) Status() string {
	switch {
	case that.Session == nil:
		return RoomStatusWaiting
	case that.Session.IsFinished():
		return RoomStatusFinished
	default:
		return RoomStatusPlaying
	}
}

func (that *Room) IsFull() bool {
	return len(that.Occupants) >= RoomCapacity
}

func (that *Room) IsEmpty() bool {
	return len(that.Occupants) == 0
}

func (that *Room) OccupantByID(playerID string) *Player {
	for _, occupant := range that.Occupants {
		if occupant.ID == playerID {
			return occupant
		}
	}

	return nil
}

// RemoveOccupant - drops the player from the room and reports whether they
// were an occupant; call while holding the room lock.
func (that *Room) RemoveOccupant(playerID string) bool {
	for i, occupant := range that.Occupants {
		if occupant.ID == playerID {
			that.Occupants = append(that.Occupants[:i], that.Occupants[i+1:]...)
			return true
		}
	}

	return false
}

// IsExpired - reports whether a finished room has outlived its grace period.
func (that *Room) IsExpired(ttl time.Duration, now time.Time) bool {
	if that.Session == nil || !that.Session.IsFinished() {
		return false
	}

	return !that.FinishedAt.IsZero() && now.Sub(that.FinishedAt) >= ttl
}

// RefreshSummary - republishes the listing snapshot; call at the end of every
// mutation while still holding the room lock.
func (that *Room) RefreshSummary() {
	summary := RoomSummary{
		ID:        that.ID,
		Name:      that.Name,
		Occupants: len(that.Occupants),
		Status:    that.Status(),
	}

	that.summaryMu.Lock()
	that.summary = summary
	that.summaryMu.Unlock()
}

// Summary - returns the last published snapshot without taking the room lock.
func (that *Room) Summary() RoomSummary {
	that.summaryMu.Lock()
	defer that.summaryMu.Unlock()

	return that.summary
}

package repository

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type RoomRegistry interface {
	NextID() int64
	Add(room *entity.Room)
	GetByID(id int64) (*entity.Room, error)
	List() []*entity.Room
	DeleteByID(id int64)
}

// roomRegistry - the id to room map. Its lock covers id allocation and map
// access only; room internals are always touched outside of it.
type roomRegistry struct {
	mu     sync.RWMutex
	rooms  map[int64]*entity.Room
	nextID int64
}

func NewRoomRegistry() RoomRegistry {
	return &roomRegistry{
		rooms: make(map[int64]*entity.Room),
	}
}

// NextID - allocates the next room id. Ids are monotonically increasing and
// never reused within a server run.
func (that *roomRegistry) NextID() int64 {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.nextID++

	return that.nextID
}

func (that *roomRegistry) Add(room *entity.Room) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.rooms[room.ID] = room
}

func (that *roomRegistry) GetByID(id int64) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", apperror.ErrRoomNotFound, id)
	}

	return room, nil
}

// List - returns all registered rooms ordered by id.
func (that *roomRegistry) List() []*entity.Room {
	that.mu.RLock()
	rooms := make([]*entity.Room, 0, len(that.rooms))
	for _, room := range that.rooms {
		rooms = append(rooms, room)
	}
	that.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	return rooms
}

func (that *roomRegistry) DeleteByID(id int64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, id)
}

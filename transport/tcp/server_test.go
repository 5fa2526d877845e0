package tcp_test

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
	"github.com/rocketscienceinc/gomoku-backend/testing/suite"
)

func unmarshalPayload(t *testing.T, message *protocol.Message, target any) {
	t.Helper()

	require.NoError(t, json.Unmarshal(message.Payload, target))
}

func TestServer_GameFlow(t *testing.T) {
	// Given: a running server and two introduced players.
	_, s := suite.New(t)

	alice := s.Dial()
	alice.Send(protocol.ActionPlayerNickname, protocol.NicknamePayload{Name: "alice"})
	alice.RecvAction(protocol.ActionPlayerNickname)

	bob := s.Dial()
	bob.Send(protocol.ActionPlayerNickname, protocol.NicknamePayload{Name: "bob"})
	bob.RecvAction(protocol.ActionPlayerNickname)

	// When: alice creates a room.
	alice.Send(protocol.ActionRoomCreate, protocol.CreateRoomPayload{Name: "evening game"})

	// Then: she is seated as black.
	var joined protocol.RoomJoinedPayload
	unmarshalPayload(t, alice.RecvAction(protocol.ActionRoomJoined), &joined)

	require.Equal(t, int64(1), joined.RoomID)
	assert.Equal(t, "evening game", joined.RoomName)
	assert.Equal(t, "black", joined.Color)

	// When: bob joins the room.
	bob.Send(protocol.ActionRoomJoin, protocol.JoinRoomPayload{RoomID: joined.RoomID})

	var bobJoined protocol.RoomJoinedPayload
	unmarshalPayload(t, bob.RecvAction(protocol.ActionRoomJoined), &bobJoined)
	assert.Equal(t, "white", bobJoined.Color)

	// Then: both players see the same game start.
	for _, player := range []*suite.Client{alice, bob} {
		var started protocol.GameStartedPayload
		unmarshalPayload(t, player.RecvAction(protocol.ActionGameStarted), &started)

		assert.Equal(t, 15, started.BoardSize)
		assert.Equal(t, "black", started.Turn)
		assert.Equal(t, "alice", started.Black)
		assert.Equal(t, "bob", started.White)
	}

	// When: alice opens and bob answers.
	alice.Send(protocol.ActionGameMove, protocol.MovePayload{Row: 7, Col: 7})

	for _, player := range []*suite.Client{alice, bob} {
		var move protocol.MovePayload
		unmarshalPayload(t, player.RecvAction(protocol.ActionGameMove), &move)

		assert.Equal(t, 7, move.Row)
		assert.Equal(t, 7, move.Col)
		assert.Equal(t, "black", move.Color)
		assert.Equal(t, "white", move.Turn)
	}

	bob.Send(protocol.ActionGameMove, protocol.MovePayload{Row: 8, Col: 8})
	alice.RecvAction(protocol.ActionGameMove)
	bob.RecvAction(protocol.ActionGameMove)

	// Then: bob cannot move twice in a row.
	bob.Send(protocol.ActionGameMove, protocol.MovePayload{Row: 8, Col: 9})

	var wireErr protocol.ErrorPayload
	unmarshalPayload(t, bob.RecvAction(protocol.ActionError), &wireErr)
	assert.Equal(t, protocol.CodeNotYourTurn, wireErr.Code)

	// Then: a third player bounces off the full room but can still list it.
	carol := s.Dial()
	carol.Send(protocol.ActionPlayerNickname, protocol.NicknamePayload{Name: "carol"})
	carol.RecvAction(protocol.ActionPlayerNickname)

	carol.Send(protocol.ActionRoomJoin, protocol.JoinRoomPayload{RoomID: joined.RoomID})
	unmarshalPayload(t, carol.RecvAction(protocol.ActionError), &wireErr)
	assert.Equal(t, protocol.CodeRoomFull, wireErr.Code)

	carol.Send(protocol.ActionRoomList, nil)

	var list protocol.RoomListPayload
	unmarshalPayload(t, carol.RecvAction(protocol.ActionRoomList), &list)
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, "evening game", list.Rooms[0].Name)
	assert.Equal(t, 2, list.Rooms[0].Occupants)
	assert.Equal(t, "playing", list.Rooms[0].Status)

	// When: bob drops the connection mid game.
	bob.Close()

	// Then: alice is told bob left and wins by resignation.
	var left protocol.RoomLeftPayload
	unmarshalPayload(t, alice.RecvAction(protocol.ActionRoomLeft), &left)
	assert.Equal(t, "bob", left.Name)

	var over protocol.GameOverPayload
	unmarshalPayload(t, alice.RecvAction(protocol.ActionGameOver), &over)
	assert.Equal(t, "resign", over.Reason)
	assert.Equal(t, "black", over.Winner)
	assert.Equal(t, "alice", over.WinnerName)

	// When: alice leaves the finished room.
	alice.Send(protocol.ActionRoomLeave, nil)
	alice.RecvAction(protocol.ActionRoomLeft)

	// Then: the room is gone.
	carol.Send(protocol.ActionRoomList, nil)
	unmarshalPayload(t, carol.RecvAction(protocol.ActionRoomList), &list)
	assert.Empty(t, list.Rooms)
}

func TestServer_WinByFiveInARow(t *testing.T) {
	// Given: a running game.
	_, s := suite.New(t)

	alice := s.Dial()
	alice.Send(protocol.ActionPlayerNickname, protocol.NicknamePayload{Name: "alice"})
	alice.RecvAction(protocol.ActionPlayerNickname)
	alice.Send(protocol.ActionRoomCreate, protocol.CreateRoomPayload{Name: "speedrun"})

	var joined protocol.RoomJoinedPayload
	unmarshalPayload(t, alice.RecvAction(protocol.ActionRoomJoined), &joined)

	bob := s.Dial()
	bob.Send(protocol.ActionPlayerNickname, protocol.NicknamePayload{Name: "bob"})
	bob.RecvAction(protocol.ActionPlayerNickname)
	bob.Send(protocol.ActionRoomJoin, protocol.JoinRoomPayload{RoomID: joined.RoomID})

	alice.RecvAction(protocol.ActionGameStarted)
	bob.RecvAction(protocol.ActionGameStarted)

	// When: black builds a horizontal five while white wanders on row 8.
	for i := 0; i < 5; i++ {
		alice.Send(protocol.ActionGameMove, protocol.MovePayload{Row: 7, Col: 5 + i})
		alice.RecvAction(protocol.ActionGameMove)
		bob.RecvAction(protocol.ActionGameMove)

		if i < 4 {
			bob.Send(protocol.ActionGameMove, protocol.MovePayload{Row: 8, Col: 5 + i})
			alice.RecvAction(protocol.ActionGameMove)
			bob.RecvAction(protocol.ActionGameMove)
		}
	}

	// Then: both players see black win.
	for _, player := range []*suite.Client{alice, bob} {
		var over protocol.GameOverPayload
		unmarshalPayload(t, player.RecvAction(protocol.ActionGameOver), &over)

		assert.Equal(t, "win", over.Reason)
		assert.Equal(t, "black", over.Winner)
		assert.Equal(t, "alice", over.WinnerName)
	}
}

func TestServer_BadInput(t *testing.T) {
	// Given: a running server and one connection.
	_, s := suite.New(t)

	client := s.Dial()

	// When: a line that is not JSON arrives.
	client.SendRaw("{not json")

	// Then: the connection survives with a bad_message error.
	var wireErr protocol.ErrorPayload
	unmarshalPayload(t, client.RecvAction(protocol.ActionError), &wireErr)
	assert.Equal(t, protocol.CodeBadMessage, wireErr.Code)

	// When: a room is created before any nickname.
	client.Send(protocol.ActionRoomCreate, protocol.CreateRoomPayload{Name: "first"})

	// Then: the gate rejects it.
	unmarshalPayload(t, client.RecvAction(protocol.ActionError), &wireErr)
	assert.Equal(t, protocol.CodeNicknameRequired, wireErr.Code)

	// When: a move is sent from outside any room.
	client.Send(protocol.ActionPlayerNickname, protocol.NicknamePayload{Name: "loner"})
	client.RecvAction(protocol.ActionPlayerNickname)
	client.Send(protocol.ActionGameMove, protocol.MovePayload{Row: 0, Col: 0})

	// Then: the failure is reported and the connection still works.
	unmarshalPayload(t, client.RecvAction(protocol.ActionError), &wireErr)
	assert.Equal(t, protocol.CodeNotInRoom, wireErr.Code)

	client.Send(protocol.ActionRoomList, nil)
	client.RecvAction(protocol.ActionRoomList)
}

func TestServer_ConcurrentClients(t *testing.T) {
	// Given: a running server.
	_, s := suite.New(t)

	const players = 4

	clients := make([]*suite.Client, players)
	for i := range clients {
		clients[i] = s.Dial()
	}

	// When: every client creates its own room at the same time.
	var wg sync.WaitGroup
	for i, client := range clients {
		wg.Add(1)

		go func(i int, client *suite.Client) {
			defer wg.Done()

			client.Send(protocol.ActionPlayerNickname, protocol.NicknamePayload{Name: fmt.Sprintf("player-%d", i)})
			client.RecvAction(protocol.ActionPlayerNickname)

			client.Send(protocol.ActionRoomCreate, protocol.CreateRoomPayload{Name: fmt.Sprintf("room-%d", i)})
			client.RecvAction(protocol.ActionRoomJoined)
		}(i, client)
	}
	wg.Wait()

	// Then: every room exists exactly once, in id order.
	clients[0].Send(protocol.ActionRoomList, nil)

	var list protocol.RoomListPayload
	unmarshalPayload(t, clients[0].RecvAction(protocol.ActionRoomList), &list)

	require.Len(t, list.Rooms, players)
	for i := 1; i < players; i++ {
		assert.Greater(t, list.Rooms[i].ID, list.Rooms[i-1].ID)
	}
}

package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRegistry_Add(t *testing.T) {
	r := NewRegistry()
	sess, err := r.Add("c1", CharacterDee, 10, 20, nil, "ABC")
	require.NoError(t, err)
	assert.Equal(t, "c1", sess.ID)
	assert.Equal(t, CharacterDee, sess.Character)
	assert.Equal(t, "ABC", sess.RoomCode)
	assert.Equal(t, 1, r.Count())
	assert.Equal(t, 1, r.RoomCount("ABC"))
}

func TestRegistry_AddDuplicate(t *testing.T) {
	r := NewRegistry()
	_, err := r.Add("c1", CharacterDee, 0, 0, nil, "ABC")
	require.NoError(t, err)
	_, err = r.Add("c1", CharacterWee, 0, 0, nil, "XYZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has a session")
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	_, err := r.Add("c1", CharacterDee, 5, 6, nil, "ABC")
	require.NoError(t, err)

	removed, ok := r.Remove("c1")
	require.True(t, ok)
	assert.Equal(t, "c1", removed.ID)
	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 0, r.RoomCount("ABC"))
	assert.Empty(t, r.RoomMembers("ABC"))
}

func TestRegistry_RemoveUnknown(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Remove("ghost")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Add("c1", CharacterDee, 1, 2, nil, "ABC")

	sess, ok := r.Get("c1")
	require.True(t, ok)
	assert.Equal(t, 1.0, sess.X)
	assert.Equal(t, 2.0, sess.Y)

	_, ok = r.Get("ghost")
	assert.False(t, ok)
}

func TestRegistry_UpdatePosition(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Add("c1", CharacterDee, 0, 0, nil, "ABC")

	require.True(t, r.UpdatePosition("c1", 10, 20))
	sess, ok := r.Get("c1")
	require.True(t, ok)
	assert.Equal(t, 10.0, sess.X)
	assert.Equal(t, 20.0, sess.Y)

	assert.False(t, r.UpdatePosition("ghost", 1, 1))
}

func TestRegistry_RoomSnapshots(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Add("c1", CharacterDee, 1, 2, nil, "ABC")
	_, _ = r.Add("c2", CharacterWee, 3, 4, nil, "ABC")
	_, _ = r.Add("c3", CharacterDee, 5, 6, nil, "OTHER")

	snaps := r.RoomSnapshots("ABC")
	require.Len(t, snaps, 2)
	byID := make(map[string]Snapshot, len(snaps))
	for _, s := range snaps {
		byID[s.ID] = s
	}
	assert.Equal(t, CharacterDee, byID["c1"].Character)
	assert.Equal(t, CharacterWee, byID["c2"].Character)
	assert.Equal(t, "ABC", byID["c1"].RoomCode)

	assert.Empty(t, r.RoomSnapshots("EMPTY"))
}

func TestRegistry_HasCharacter(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Add("c1", CharacterDee, 0, 0, nil, "ABC")

	assert.True(t, r.HasCharacter("ABC", CharacterDee))
	assert.False(t, r.HasCharacter("ABC", CharacterWee))
	assert.False(t, r.HasCharacter("EMPTY", CharacterDee))
}

func TestRegistry_WaitingRooms(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Add("c1", CharacterDee, 0, 0, nil, "R2")
	_, _ = r.Add("c2", CharacterDee, 0, 0, nil, "R1")
	_, _ = r.Add("c3", CharacterDee, 0, 0, nil, "FULL")
	_, _ = r.Add("c4", CharacterWee, 0, 0, nil, "FULL")

	assert.Equal(t, []string{"R1", "R2"}, r.WaitingRooms())

	_, ok := r.Remove("c3")
	require.True(t, ok)
	assert.Equal(t, []string{"FULL", "R1", "R2"}, r.WaitingRooms())
}

func TestRegistry_ConcurrentAddRemove(t *testing.T) {
	r := NewRegistry()
	const n = 100
	var wg sync.WaitGroup

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, _ = r.Add(fmt.Sprintf("c%d", i), CharacterDee, 0, 0, nil, fmt.Sprintf("room%d", i%10))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, n, r.Count())

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, _ = r.Remove(fmt.Sprintf("c%d", i))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.WaitingRooms())
}

func TestPropertyRoomIndexConsistent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewRegistry()
		rooms := []string{"R1", "R2", "R3"}
		numPlayers := rapid.IntRange(1, 20).Draw(t, "num_players")

		for i := 0; i < numPlayers; i++ {
			roomIdx := rapid.IntRange(0, len(rooms)-1).Draw(t, "room_idx")
			_, _ = r.Add(fmt.Sprintf("c%d", i), CharacterDee, 0, 0, nil, rooms[roomIdx])
		}

		numRemoves := rapid.IntRange(0, numPlayers).Draw(t, "num_removes")
		for i := 0; i < numRemoves; i++ {
			idx := rapid.IntRange(0, numPlayers-1).Draw(t, "remove_idx")
			_, _ = r.Remove(fmt.Sprintf("c%d", idx))
		}

		// Room occupancy sums to the total session count, and every member
		// id resolves to a session in that room.
		total := 0
		for _, room := range rooms {
			members := r.RoomMembers(room)
			total += len(members)
			for _, id := range members {
				sess, ok := r.Get(id)
				if !ok {
					t.Fatalf("room %s indexes unknown session %s", room, id)
				}
				if sess.RoomCode != room {
					t.Fatalf("session %s indexed in %s but has room %s", id, room, sess.RoomCode)
				}
			}
		}
		if total != r.Count() {
			t.Fatalf("room occupancy sum %d != session count %d", total, r.Count())
		}
	})
}

// Package session provides player session tracking and room occupancy
// management for the game coordinator.
package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/raccoons/internal/game/spawn"
)

// Character is one of the two distinguishable player roles in a room.
type Character string

const (
	// CharacterDee is assigned to a room's first joiner.
	CharacterDee Character = "Dee"
	// CharacterWee is assigned to a room's second joiner.
	CharacterWee Character = "Wee"
)

// PlayerSession is the server-side record of one connected player's
// game-relevant state. It is owned exclusively by the Registry; mutate it
// only through Registry methods.
type PlayerSession struct {
	// ID is the unique connection identifier.
	ID string
	// Character is the role assigned at join time.
	Character Character
	// X is the current horizontal position.
	X float64
	// Y is the current vertical position.
	Y float64
	// Spawn is the spawn point assigned at join time, released on disconnect.
	Spawn *spawn.Point
	// RoomCode is the room the player occupies.
	RoomCode string
}

// Snapshot is the wire-facing view of a session, carried by startGame.
type Snapshot struct {
	ID        string    `json:"id"`
	Character Character `json:"character"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	RoomCode  string    `json:"roomCode"`
}

// Registry is the single source of truth mapping each connection to its
// player session, with an incremental room occupancy index.
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	players map[string]*PlayerSession  // connection id → session
	rooms   map[string]map[string]bool // room code → set of connection ids
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		players: make(map[string]*PlayerSession),
		rooms:   make(map[string]map[string]bool),
	}
}

// Add registers a new player session in the given room.
//
// Precondition: id and roomCode must be non-empty.
// Postcondition: Returns the created session, or an error if the connection
// id is already registered.
func (r *Registry) Add(id string, character Character, x, y float64, pt *spawn.Point, roomCode string) (*PlayerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[id]; exists {
		return nil, fmt.Errorf("connection %q already has a session", id)
	}

	sess := &PlayerSession{
		ID:        id,
		Character: character,
		X:         x,
		Y:         y,
		Spawn:     pt,
		RoomCode:  roomCode,
	}

	r.players[id] = sess
	if r.rooms[roomCode] == nil {
		r.rooms[roomCode] = make(map[string]bool)
	}
	r.rooms[roomCode][id] = true

	return sess, nil
}

// Remove deletes a player session and cleans up room occupancy.
//
// Postcondition: Returns a copy of the removed session and true, or a zero
// session and false when no session exists for the id.
func (r *Registry) Remove(id string) (PlayerSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, exists := r.players[id]
	if !exists {
		return PlayerSession{}, false
	}

	if members, ok := r.rooms[sess.RoomCode]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(r.rooms, sess.RoomCode)
		}
	}
	delete(r.players, id)

	return *sess, true
}

// Get returns a copy of the session for the given connection id.
//
// Postcondition: Returns (session, true) if found, or (zero, false) otherwise.
func (r *Registry) Get(id string) (PlayerSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.players[id]
	if !ok {
		return PlayerSession{}, false
	}
	return *sess, true
}

// UpdatePosition mutates a session's position in place.
//
// Postcondition: Returns true if the session exists and was updated.
func (r *Registry) UpdatePosition(id string, x, y float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.players[id]
	if !ok {
		return false
	}
	sess.X = x
	sess.Y = y
	return true
}

// RoomCount returns the number of sessions in the given room.
func (r *Registry) RoomCount(roomCode string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomCode])
}

// RoomMembers returns the connection ids of all sessions in the given room.
//
// Postcondition: Returns a slice of ids (may be empty).
func (r *Registry) RoomMembers(roomCode string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomCode]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// RoomSnapshots returns wire-facing snapshots of every session in the room.
//
// Postcondition: Returns a slice of snapshots (may be empty).
func (r *Registry) RoomSnapshots(roomCode string) []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomCode]
	if !ok {
		return nil
	}
	snaps := make([]Snapshot, 0, len(members))
	for id := range members {
		if sess, ok := r.players[id]; ok {
			snaps = append(snaps, Snapshot{
				ID:        sess.ID,
				Character: sess.Character,
				X:         sess.X,
				Y:         sess.Y,
				RoomCode:  sess.RoomCode,
			})
		}
	}
	return snaps
}

// HasCharacter reports whether any session in the room holds the given
// character variant.
func (r *Registry) HasCharacter(roomCode string, character Character) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id := range r.rooms[roomCode] {
		if sess, ok := r.players[id]; ok && sess.Character == character {
			return true
		}
	}
	return false
}

// WaitingRooms returns the codes of all rooms holding exactly one session,
// sorted for deterministic iteration.
//
// Postcondition: Returns a sorted slice of room codes (may be empty).
func (r *Registry) WaitingRooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var codes []string
	for code, members := range r.rooms {
		if len(members) == 1 {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// Count returns the total number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

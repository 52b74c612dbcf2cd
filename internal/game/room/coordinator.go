// Package room provides matchmaking, position relay, and disconnect handling
// for two-player game rooms.
package room

import (
	"errors"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/raccoons/internal/game/session"
	"github.com/cory-johannsen/raccoons/internal/game/spawn"
)

// MaxOccupants is the room capacity. A room with MaxOccupants sessions has
// an in-progress game; a room with one session is waiting.
const MaxOccupants = 2

// Outbound event names, matching the client protocol.
const (
	EventStartGame = "startGame"
	EventMoved     = "raccoonMoved"
	EventLeft      = "raccoonLeft"
	EventGameEnded = "gameEnded"
)

// gameEndedMessage is shown to the remaining player when their partner
// disconnects mid-game.
const gameEndedMessage = "The other raccoon left 😭. Try joining a new room."

// Join failures are recoverable and surfaced to the requesting client
// verbatim through the join acknowledgment.
var (
	// ErrRoomFull is returned when a join targets a room already at capacity.
	ErrRoomFull = errors.New("This room is full 💔")
	// ErrNoSpawnAvailable is returned when the spawn pool is exhausted.
	ErrNoSpawnAvailable = errors.New("No spawn points available 💔")
	// ErrNoAvailableRooms is returned when a random join finds no waiting room.
	ErrNoAvailableRooms = errors.New("No available rooms to join 💔")
)

// Broadcaster is the messaging substrate contract the coordinator emits
// through. Delivery is fire-and-forget and best-effort.
type Broadcaster interface {
	// JoinGroup marks the connection as belonging to the named room for
	// scoped broadcast.
	JoinGroup(connID, roomCode string)
	// ToRoom sends an event to every member of the room.
	ToRoom(roomCode, event string, payload any)
	// ToRoomExcept sends an event to every member of the room except the
	// named connection.
	ToRoomExcept(roomCode, exceptID, event string, payload any)
}

// Ack delivers a join acknowledgment to the requesting client: a nil error
// means joined. The coordinator invokes it before any room-wide broadcast
// the join triggers, and tolerates a nil Ack.
type Ack func(err error)

// MovedPayload is the body of a raccoonMoved event.
type MovedPayload struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// GameEndedPayload is the body of a gameEnded event.
type GameEndedPayload struct {
	Message string `json:"message"`
}

// Coordinator owns all shared mutable game state: the session registry and
// the spawn pool. A single mutex linearizes every join, move, and disconnect
// so that no two operations interleave their read-modify-write sequences.
// Nothing inside an operation blocks on I/O, so serialization is cheap.
type Coordinator struct {
	mu          sync.Mutex
	registry    *session.Registry
	pool        *spawn.Pool
	broadcaster Broadcaster
	logger      *zap.Logger
	intN        func(n int) int
}

// NewCoordinator creates a Coordinator over the given registry and pool.
//
// Precondition: all arguments must be non-nil.
func NewCoordinator(registry *session.Registry, pool *spawn.Pool, b Broadcaster, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		registry:    registry,
		pool:        pool,
		broadcaster: b,
		logger:      logger,
		intN:        rand.IntN,
	}
}

// JoinByCode joins the connection to the room with the given code.
//
// Postcondition: On success the ack fires with nil, the session is
// registered with a spawn point and character, and, if the room just became
// full, every member receives a startGame event carrying both session
// snapshots. On failure the ack fires with ErrRoomFull or
// ErrNoSpawnAvailable and no partial state remains.
func (c *Coordinator) JoinByCode(connID, roomCode string, ack Ack) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.join(connID, roomCode, ack)
}

// JoinRandom joins the connection to a uniformly chosen room currently
// holding exactly one player.
//
// Postcondition: Behaves as JoinByCode against the chosen room, or the ack
// fires with ErrNoAvailableRooms when no room is waiting. The chosen room
// cannot fill in between the scan and the join: both happen under the
// coordinator mutex.
func (c *Coordinator) JoinRandom(connID string, ack Ack) {
	c.mu.Lock()
	defer c.mu.Unlock()

	waiting := c.registry.WaitingRooms()
	if len(waiting) == 0 {
		c.logger.Info("random join found no waiting rooms", zap.String("conn", connID))
		acknowledge(ack, ErrNoAvailableRooms)
		return
	}

	roomCode := waiting[c.intN(len(waiting))]
	c.logger.Info("randomly joining room",
		zap.String("conn", connID),
		zap.String("room", roomCode),
	)
	c.join(connID, roomCode, ack)
}

// join runs the shared join procedure. Caller must hold c.mu.
func (c *Coordinator) join(connID, roomCode string, ack Ack) {
	if c.registry.RoomCount(roomCode) >= MaxOccupants {
		c.logger.Info("room is full, denying entry",
			zap.String("room", roomCode),
			zap.String("conn", connID),
		)
		acknowledge(ack, ErrRoomFull)
		return
	}

	pt, ok := c.pool.Allocate()
	if !ok {
		c.logger.Warn("spawn pool exhausted",
			zap.String("room", roomCode),
			zap.String("conn", connID),
		)
		acknowledge(ack, ErrNoSpawnAvailable)
		return
	}

	// First joiner always gets Dee; the fixed tie-break keeps the two
	// characters in a room distinct.
	character := session.CharacterDee
	if c.registry.HasCharacter(roomCode, session.CharacterDee) {
		character = session.CharacterWee
	}

	if _, err := c.registry.Add(connID, character, pt.X, pt.Y, pt, roomCode); err != nil {
		c.pool.Release(pt)
		c.logger.Warn("rejecting join", zap.String("conn", connID), zap.Error(err))
		acknowledge(ack, err)
		return
	}

	c.broadcaster.JoinGroup(connID, roomCode)
	c.logger.Info("player joined room",
		zap.String("conn", connID),
		zap.String("room", roomCode),
		zap.String("character", string(character)),
	)

	acknowledge(ack, nil)

	// The second successful join is the sole trigger that moves a room from
	// waiting to in progress.
	if c.registry.RoomCount(roomCode) == MaxOccupants {
		c.logger.Info("room is now full, starting game", zap.String("room", roomCode))
		c.broadcaster.ToRoom(roomCode, EventStartGame, c.registry.RoomSnapshots(roomCode))
	}
}

// Move updates the sender's position and relays it to the other occupant(s)
// of the room. Updates from identities with no session are silently ignored:
// a stray move racing a disconnect is expected and harmless.
func (c *Coordinator) Move(connID string, x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.registry.Get(connID)
	if !ok || sess.RoomCode == "" {
		return
	}

	c.registry.UpdatePosition(connID, x, y)
	c.broadcaster.ToRoomExcept(sess.RoomCode, connID, EventMoved, MovedPayload{
		ID: connID,
		X:  x,
		Y:  y,
	})
}

// Disconnect releases a departed connection's resources and notifies the
// rest of its room. A connection that never joined is a no-op.
//
// The occupant count is snapshotted before removal: the waiting/in-progress
// branch must reflect the room state the player is leaving, not the state
// after they are gone.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.registry.Get(connID)
	if !ok {
		return
	}

	occupantsBefore := c.registry.RoomCount(sess.RoomCode)

	c.pool.Release(sess.Spawn)
	c.registry.Remove(connID)

	c.logger.Info("player left room",
		zap.String("conn", connID),
		zap.String("room", sess.RoomCode),
	)

	if occupantsBefore == MaxOccupants {
		c.logger.Info("game ended by disconnect", zap.String("room", sess.RoomCode))
		c.broadcaster.ToRoomExcept(sess.RoomCode, connID, EventGameEnded, GameEndedPayload{
			Message: gameEndedMessage,
		})
	} else {
		c.broadcaster.ToRoom(sess.RoomCode, EventLeft, connID)
	}
}

func acknowledge(ack Ack, err error) {
	if ack != nil {
		ack(err)
	}
}

// Package gameserver provides the WebSocket transport adapter: it gives each
// connection a unique identity, decodes the client protocol, forwards
// requests to the room coordinator, and delivers room-scoped broadcasts.
package gameserver

import (
	"encoding/json"
	"fmt"
)

// Inbound message types.
const (
	// MsgJoinRoom requests entry to a specific room; carries an ack seq.
	MsgJoinRoom = "joinRoom"
	// MsgJoinRandom requests entry to any waiting room; carries an ack seq.
	MsgJoinRandom = "joinRandom"
	// MsgMove reports the sender's position; fire-and-forget.
	MsgMove = "raccoonMove"
)

// clientMessage is the single inbound envelope. Fields beyond Type are
// populated per message type.
type clientMessage struct {
	Type     string  `json:"type"`
	Seq      uint64  `json:"seq,omitempty"`
	RoomCode string  `json:"roomCode,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
}

// serverEvent is the outbound envelope for fire-and-forget broadcasts.
type serverEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ackMessage is the reply to a join request, correlated by the client's seq.
// Exactly one of Joined or Error is set.
type ackMessage struct {
	Type   string `json:"type"`
	Seq    uint64 `json:"seq"`
	Joined bool   `json:"joined,omitempty"`
	Error  string `json:"error,omitempty"`
}

// encodeEvent marshals a broadcast event frame.
//
// Postcondition: Returns the JSON frame or a non-nil error.
func encodeEvent(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(serverEvent{Type: event, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", event, err)
	}
	return data, nil
}

// encodeAck marshals a join acknowledgment frame. A nil err means joined.
//
// Postcondition: Returns the JSON frame or a non-nil error.
func encodeAck(seq uint64, ackErr error) ([]byte, error) {
	msg := ackMessage{Type: "ack", Seq: seq}
	if ackErr != nil {
		msg.Error = ackErr.Error()
	} else {
		msg.Joined = true
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding ack: %w", err)
	}
	return data, nil
}

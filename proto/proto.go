// Message Boundary: JSON-framed, type-tagged wire protocol.
//
// The teacher's proto.go hand-rolls a small DSL (a regexp tokenizer
// plus a parse() destructuring helper) to turn a line of text into a
// typed command and dispatches on it inside Client.Interpret. This
// package keeps the same "parse untrusted bytes into a closed set of
// typed messages, reject anything else at the boundary" discipline,
// but the wire format itself is the spec's tagged JSON object rather
// than the teacher's text protocol — one JSON value per frame, each
// carrying a `type` field, the shape wricardo-tesla-road-trip-game's
// transport/websocket hub uses for its own Message{Event} envelope.
package proto

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sk "go-skirmish"
)

// MessageType is the closed set of `type` tags recognized on the
// wire, per spec §6.1.
type MessageType string

const (
	PlayerAssigned    MessageType = "PLAYER_ASSIGNED"
	StartGame         MessageType = "START_GAME"
	NextTurn          MessageType = "NEXT_TURN"
	InvalidOperation  MessageType = "INVALID_OPERATION"
	EndGame           MessageType = "END_GAME"
	ActionMessageType MessageType = "ACTION"
)

// ErrBlankFrame is returned when a frame has no bytes to parse.
var ErrBlankFrame = errors.New("proto: blank frame")

// ErrUnknownType is returned when a frame's `type` field does not
// match any MessageType this boundary understands.
var ErrUnknownType = errors.New("proto: unknown message type")

// envelope is the minimal shape every frame must satisfy to be routed.
type envelope struct {
	Type MessageType `json:"type"`
}

// PlayerAssignedMsg tells a newly attached connection its seat.
type PlayerAssignedMsg struct {
	Type     MessageType `json:"type"`
	PlayerID sk.PlayerID `json:"playerId"`
}

// GameStart is the nested payload of a START_GAME frame.
type GameStart struct {
	Map          sk.MapLayout `json:"map"`
	InitialUnits []sk.Unit    `json:"initialUnits"`
	Timestamp    time.Time    `json:"timestamp"`
}

// StartGameMsg announces the initial board to both connections.
type StartGameMsg struct {
	Type      MessageType `json:"type"`
	GameStart GameStart   `json:"gameStart"`
}

// NextTurnMsg prompts the active player for a half-turn, carrying the
// full current game state so a client needs no prior history to act
// (spec §6.1/§4.3.1 — NEXT_TURN is not a delta).
type NextTurnMsg struct {
	Type      MessageType  `json:"type"`
	PlayerID  sk.PlayerID  `json:"playerId"`
	GameState sk.GameState `json:"gameState"`
	Round     uint64       `json:"round,omitempty"`
}

// InvalidOperationMsg reports a rejected ACTION batch or a malformed
// inbound frame, without ending the game.
type InvalidOperationMsg struct {
	Type     MessageType `json:"type"`
	PlayerID sk.PlayerID `json:"playerId"`
	Reason   string      `json:"reason"`
}

// GameEnd is the nested payload of an END_GAME frame.
type GameEnd struct {
	Map       sk.MapLayout   `json:"map"`
	Deltas    []sk.GameDelta `json:"deltas"`
	WinnerID  sk.PlayerID    `json:"winnerId,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// EndGameMsg is the terminal message, including every delta emitted
// over the course of the game so a client can reconstruct the full
// history by replaying them onto the START_GAME state (spec §8). The
// absence of WinnerID signals a draw.
type EndGameMsg struct {
	Type    MessageType `json:"type"`
	GameEnd GameEnd     `json:"gameEnd"`
}

// ActionMsg is the only client->server message: a batch of per-unit
// moves tagged with the round they answer.
type ActionMsg struct {
	Type     MessageType `json:"type"`
	PlayerID sk.PlayerID `json:"playerId"`
	Round    uint64      `json:"round,omitempty"`
	Actions  []sk.Action `json:"actions"`
}

// Decode inspects a frame's `type` tag and unmarshals it into the
// matching typed message, returning it as an any the caller switches
// on. Unknown types and blank frames are rejected here, at the
// boundary, rather than surfacing as a panic deeper in the
// orchestrator — mirroring how the teacher's parse() returns an error
// string for Interpret to relay back to the client instead of
// crashing the connection goroutine.
func Decode(frame []byte) (any, error) {
	if len(frame) == 0 {
		return nil, ErrBlankFrame
	}

	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("proto: malformed frame: %w", err)
	}

	switch env.Type {
	case ActionMessageType:
		var m ActionMsg
		if err := json.Unmarshal(frame, &m); err != nil {
			return nil, fmt.Errorf("proto: malformed ACTION: %w", err)
		}
		return m, nil
	case PlayerAssigned, StartGame, NextTurn, InvalidOperation, EndGame:
		return nil, fmt.Errorf("proto: %s is a server->client message", env.Type)
	default:
		return nil, ErrUnknownType
	}
}

// EncodePlayerAssigned, EncodeStartGame, EncodeNextTurn,
// EncodeInvalidOperation and EncodeEndGame serialize each outbound
// message, stamping its `type` tag; callers never hand-build the
// envelope field themselves, keeping a malformed outbound frame
// structurally impossible.

func EncodePlayerAssigned(player sk.PlayerID) ([]byte, error) {
	return json.Marshal(PlayerAssignedMsg{Type: PlayerAssigned, PlayerID: player})
}

func EncodeStartGame(layout sk.MapLayout, initialUnits []sk.Unit, timestamp time.Time) ([]byte, error) {
	return json.Marshal(StartGameMsg{
		Type: StartGame,
		GameStart: GameStart{
			Map:          layout,
			InitialUnits: initialUnits,
			Timestamp:    timestamp,
		},
	})
}

func EncodeNextTurn(player sk.PlayerID, round uint64, state sk.GameState) ([]byte, error) {
	return json.Marshal(NextTurnMsg{Type: NextTurn, PlayerID: player, Round: round, GameState: state})
}

func EncodeInvalidOperation(player sk.PlayerID, reason string) ([]byte, error) {
	return json.Marshal(InvalidOperationMsg{Type: InvalidOperation, PlayerID: player, Reason: reason})
}

func EncodeEndGame(layout sk.MapLayout, winner sk.PlayerID, deltas []sk.GameDelta, timestamp time.Time) ([]byte, error) {
	return json.Marshal(EndGameMsg{
		Type: EndGame,
		GameEnd: GameEnd{
			Map:       layout,
			Deltas:    deltas,
			WinnerID:  winner,
			Timestamp: timestamp,
		},
	})
}

// Shared types for the game session runtime
//
// Copyright (c) 2021, 2022  Philip Kaludercic
//
// This file is part of go-kgp.
//
// go-kgp is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-kgp is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-kgp. If not, see
// <http://www.gnu.org/licenses/>

// Package skirmish holds the data model shared by the world engine,
// the session registry, the turn orchestrator and the message
// boundary: positions, units, game state and deltas, and the small
// enums (direction, unit kind, outcome) that all four subsystems
// agree on.
package skirmish

import (
	"encoding/json"
	"fmt"
	"time"
)

// PlayerID identifies a seat. Only "player-1" and "player-2" are ever
// assigned; the zero value denotes "no player" (used for FOOD owners).
type PlayerID string

// Direction is one of the eight compass directions a PAWN may move in.
type Direction uint8

const (
	N Direction = iota
	NE
	E
	SE
	S
	SW
	W
	NW
)

func (d Direction) String() string {
	switch d {
	case N:
		return "N"
	case NE:
		return "NE"
	case E:
		return "E"
	case SE:
		return "SE"
	case S:
		return "S"
	case SW:
		return "SW"
	case W:
		return "W"
	case NW:
		return "NW"
	default:
		return "?"
	}
}

// MarshalJSON renders a Direction as its wire string ("N", "NE", ...).
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON parses a Direction from its wire string, rejecting
// anything outside the eight compass points.
func (d *Direction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, ok := ParseDirection(s)
	if !ok {
		return fmt.Errorf("skirmish: invalid direction %q", s)
	}
	*d = parsed
	return nil
}

// ParseDirection maps a wire string onto a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "N":
		return N, true
	case "NE":
		return NE, true
	case "E":
		return E, true
	case "SE":
		return SE, true
	case "S":
		return S, true
	case "SW":
		return SW, true
	case "W":
		return W, true
	case "NW":
		return NW, true
	default:
		return 0, false
	}
}

// Offset returns the (dx, dy) step for d; y increases downward.
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case N:
		return 0, -1
	case NE:
		return 1, -1
	case E:
		return 1, 0
	case SE:
		return 1, 1
	case S:
		return 0, 1
	case SW:
		return -1, 1
	case W:
		return -1, 0
	case NW:
		return -1, -1
	}
	panic("unknown direction")
}

// Position is an integer grid coordinate. The origin is top-left; y
// increases downward.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the position offset by a direction's step.
func (p Position) Add(d Direction) Position {
	dx, dy := d.Offset()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Dimension is the size of a rectangular playfield.
type Dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether p lies within [0, width) x [0, height).
func (dim Dimension) Contains(p Position) bool {
	return p.X >= 0 && p.X < dim.Width && p.Y >= 0 && p.Y < dim.Height
}

// MapLayout is the immutable geometry of a game: its dimensions and
// the set of impassable wall cells.
type MapLayout struct {
	Dimension Dimension  `json:"dimension"`
	Walls     []Position `json:"walls"`
}

// IsWall reports whether p is an impassable cell.
func (m MapLayout) IsWall(p Position) bool {
	for _, w := range m.Walls {
		if w == p {
			return true
		}
	}
	return false
}

// Passable reports whether p is in bounds and not a wall.
func (m MapLayout) Passable(p Position) bool {
	return m.Dimension.Contains(p) && !m.IsWall(p)
}

// GameSettings configures a single game's rules and geometry.
type GameSettings struct {
	Map                    MapLayout
	PotentialBaseLocations []Position
	TurnTimeLimit          time.Duration
	FoodScarcity           float64
	FogOfWar               bool
	StallBound             int // consecutive no-op rounds before a draw
}

// UnitKind distinguishes the three kinds of unit on the board.
type UnitKind uint8

const (
	BASE UnitKind = iota
	PAWN
	FOOD
)

func (k UnitKind) String() string {
	switch k {
	case BASE:
		return "BASE"
	case PAWN:
		return "PAWN"
	case FOOD:
		return "FOOD"
	default:
		return "?"
	}
}

// MarshalJSON renders a UnitKind as its wire string ("BASE", "PAWN", "FOOD").
func (k UnitKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON parses a UnitKind from its wire string.
func (k *UnitKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "BASE":
		*k = BASE
	case "PAWN":
		*k = PAWN
	case "FOOD":
		*k = FOOD
	default:
		return fmt.Errorf("skirmish: invalid unit kind %q", s)
	}
	return nil
}

// Unit is a single piece on the board. Owner is the empty string iff
// Kind == FOOD.
type Unit struct {
	ID       uint64   `json:"id"`
	Owner    PlayerID `json:"owner,omitempty"`
	Kind     UnitKind `json:"type"`
	Position Position `json:"position"`
}

// GameState is an unordered snapshot of every unit on the board plus
// the time the game started. It is treated as immutable by every
// consumer outside the engine: the orchestrator only ever replaces
// its held reference with a new GameState returned by the engine.
type GameState struct {
	Units   []Unit    `json:"units"`
	StartAt time.Time `json:"startAt"`
}

// Find returns the unit with the given id, or false if absent.
func (s GameState) Find(id uint64) (Unit, bool) {
	for _, u := range s.Units {
		if u.ID == id {
			return u, true
		}
	}
	return Unit{}, false
}

// Bases returns every BASE unit belonging to owner, across all
// players if owner is the zero value.
func (s GameState) Bases(owner PlayerID) []Unit {
	var out []Unit
	for _, u := range s.Units {
		if u.Kind == BASE && (owner == "" || u.Owner == owner) {
			out = append(out, u)
		}
	}
	return out
}

// Pawns returns every PAWN unit belonging to owner.
func (s GameState) Pawns(owner PlayerID) []Unit {
	var out []Unit
	for _, u := range s.Units {
		if u.Kind == PAWN && u.Owner == owner {
			out = append(out, u)
		}
	}
	return out
}

// Clone returns a deep copy safe to mutate independently of s.
func (s GameState) Clone() GameState {
	units := make([]Unit, len(s.Units))
	copy(units, s.Units)
	return GameState{Units: units, StartAt: s.StartAt}
}

// GameDelta is the structural diff between two consecutive states.
type GameDelta struct {
	AddedOrModified []Unit    `json:"addedOrModified"`
	Removed         []uint64  `json:"removed"`
	Timestamp       time.Time `json:"timestamp"`
}

// Diff computes the delta taking 'before' to 'after'.
func Diff(before, after GameState, at time.Time) GameDelta {
	prev := make(map[uint64]Unit, len(before.Units))
	for _, u := range before.Units {
		prev[u.ID] = u
	}
	next := make(map[uint64]Unit, len(after.Units))
	for _, u := range after.Units {
		next[u.ID] = u
	}

	delta := GameDelta{Timestamp: at}
	for id, u := range next {
		if old, ok := prev[id]; !ok || old != u {
			delta.AddedOrModified = append(delta.AddedOrModified, u)
		}
	}
	for id := range prev {
		if _, ok := next[id]; !ok {
			delta.Removed = append(delta.Removed, id)
		}
	}
	return delta
}

// Apply folds a single delta onto a state, producing the successor
// state. It is the inverse operation to Diff and is used to replay a
// GAME_START + END_GAME.deltas sequence (spec §8).
func Apply(s GameState, d GameDelta) GameState {
	out := s.Clone()
	byID := make(map[uint64]int, len(out.Units))
	for i, u := range out.Units {
		byID[u.ID] = i
	}

	removed := make(map[uint64]bool, len(d.Removed))
	for _, id := range d.Removed {
		removed[id] = true
	}

	var units []Unit
	for _, u := range out.Units {
		if removed[u.ID] {
			continue
		}
		units = append(units, u)
	}
	byID = make(map[uint64]int, len(units))
	for i, u := range units {
		byID[u.ID] = i
	}
	for _, u := range d.AddedOrModified {
		if i, ok := byID[u.ID]; ok {
			units[i] = u
		} else {
			units = append(units, u)
			byID[u.ID] = len(units) - 1
		}
	}

	out.Units = units
	return out
}

// Replay folds a sequence of deltas onto an initial state in order,
// reproducing the final pre-END_GAME state (spec §8 round-trip law).
func Replay(initial GameState, deltas []GameDelta) GameState {
	s := initial
	for _, d := range deltas {
		s = Apply(s, d)
	}
	return s
}

// Outcome is the terminal result of a game from a single player's
// point of view, or absent (draw/ongoing).
type Outcome uint8

const (
	ONGOING Outcome = iota
	WIN
	LOSS
	DRAW
)

func (o Outcome) String() string {
	switch o {
	case ONGOING:
		return "Ongoing"
	case WIN:
		return "Win"
	case LOSS:
		return "Loss"
	case DRAW:
		return "Draw"
	default:
		panic(fmt.Sprintf("illegal outcome: %d", o))
	}
}

// Action is a single unit's move for a half-turn.
type Action struct {
	UnitID    uint64    `json:"unitId"`
	Direction Direction `json:"direction"`
}

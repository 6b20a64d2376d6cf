// World Engine: pure state transitions over a grid of units.
//
// Grounded on the teacher's board.go, which holds the entirety of the
// rules for one game (Sow, Over, Outcome) as pure functions over a
// Board value. Here a Board's pits become a GameState's Units, and
// Sow's single stone-sowing pass becomes per-unit validation,
// movement and collision resolution, but the shape survives: every
// function takes a state and returns a new one, panicking only on
// programmer error (illegal calls), never on player input.
package engine

import (
	"math/rand"
	"time"

	sk "go-skirmish"
)

// Engine drives Init/Apply/Terminated over one game's settings. It
// holds the only mutable state outside of GameState itself: a
// monotonic unit-id counter and a seeded random source, mirroring how
// the teacher's Board.Random carries its own *rand.Rand rather than
// reaching for the global one.
type Engine struct {
	settings sk.GameSettings
	rng      *rand.Rand
	nextID   uint64
}

// New constructs an Engine for one game. seed is exposed (rather than
// hidden behind time.Now) so tests can reproduce a food-spawn sequence.
func New(settings sk.GameSettings, seed int64) *Engine {
	return &Engine{settings: settings, rng: rand.New(rand.NewSource(seed))}
}

func (e *Engine) allocID() uint64 {
	e.nextID++
	return e.nextID
}

// Init places two bases at settings.PotentialBaseLocations[0] and [1]
// (the first two distinct, passable cells reserved for the two
// players) and one pawn adjacent to each base, per spec §4.1.1.
func (e *Engine) Init(players [2]sk.PlayerID) sk.GameState {
	if len(e.settings.PotentialBaseLocations) < 2 {
		panic("engine: need at least two potential base locations")
	}

	var units []sk.Unit
	for i, pid := range players {
		basePos := e.settings.PotentialBaseLocations[i]
		base := sk.Unit{ID: e.allocID(), Owner: pid, Kind: sk.BASE, Position: basePos}
		units = append(units, base)

		pawnPos, ok := e.firstOpenNeighbor(basePos, units)
		if !ok {
			panic("engine: no open cell adjacent to base for starting pawn")
		}
		units = append(units, sk.Unit{ID: e.allocID(), Owner: pid, Kind: sk.PAWN, Position: pawnPos})
	}

	state := sk.GameState{Units: units, StartAt: e.startTime()}
	return e.spawnFood(state)
}

// nowFn is the clock startTime reads GameState.StartAt from; it is a
// package-level variable so it can be replaced, and defaults to time.Now.
var nowFn = time.Now

func (e *Engine) startTime() time.Time { return nowFn() }

// firstOpenNeighbor walks the fixed compass order (E, S, W, N, NE, SE,
// SW, NW) from base and returns the first passable, unoccupied cell.
func (e *Engine) firstOpenNeighbor(base sk.Position, occupied []sk.Unit) (sk.Position, bool) {
	order := [8]sk.Direction{sk.E, sk.S, sk.W, sk.N, sk.NE, sk.SE, sk.SW, sk.NW}
	for _, d := range order {
		p := base.Add(d)
		if !e.settings.Map.Passable(p) {
			continue
		}
		free := true
		for _, u := range occupied {
			if u.Position == p {
				free = false
				break
			}
		}
		if free {
			return p, true
		}
	}
	return sk.Position{}, false
}

// Reason is the closed taxonomy of causes a batch can be rejected for,
// per spec's validation rules — a batch fails atomically on any one of
// these, and the caller sees the state completely unchanged.
type Reason string

const (
	UnknownUnit     Reason = "UNKNOWN_UNIT"
	ForeignUnit     Reason = "FOREIGN_UNIT"
	NotPawn         Reason = "NOT_PAWN"
	BadDirection    Reason = "BAD_DIRECTION"
	DuplicateAction Reason = "DUPLICATE_ACTION"
	NullAction      Reason = "NULL_ACTION"
)

// Diagnostic reports a single action that failed validation.
type Diagnostic struct {
	UnitID uint64
	Reason Reason
}

// Apply validates one player's batch of actions for a half-turn and,
// if every action is valid, applies movement, resolves collisions,
// and spawns food. Validation fails the whole batch atomically: any
// single invalid action returns the state completely unchanged
// alongside the diagnostics, applying nothing (spec §4.1.2). A wall
// or out-of-bounds destination is not a validation failure — it is a
// silent per-unit no-op once the batch is accepted.
func (e *Engine) Apply(state sk.GameState, player sk.PlayerID, actions []sk.Action) (sk.GameState, sk.GameDelta, []Diagnostic) {
	byID := make(map[uint64]int, len(state.Units))
	for i, u := range state.Units {
		byID[u.ID] = i
	}

	var diags []Diagnostic
	seen := make(map[uint64]bool, len(actions))
	for _, a := range actions {
		switch {
		case a.UnitID == 0:
			diags = append(diags, Diagnostic{a.UnitID, NullAction})
			continue
		case a.Direction > sk.NW:
			diags = append(diags, Diagnostic{a.UnitID, BadDirection})
			continue
		}

		i, ok := byID[a.UnitID]
		if !ok {
			diags = append(diags, Diagnostic{a.UnitID, UnknownUnit})
			continue
		}
		u := state.Units[i]
		if u.Owner != player {
			diags = append(diags, Diagnostic{a.UnitID, ForeignUnit})
			continue
		}
		if u.Kind != sk.PAWN {
			diags = append(diags, Diagnostic{a.UnitID, NotPawn})
			continue
		}
		if seen[a.UnitID] {
			diags = append(diags, Diagnostic{a.UnitID, DuplicateAction})
			continue
		}
		seen[a.UnitID] = true
	}

	if len(diags) > 0 {
		return state, sk.GameDelta{}, diags
	}

	next := state.Clone()
	byID = make(map[uint64]int, len(next.Units))
	for i, u := range next.Units {
		byID[u.ID] = i
	}
	for _, a := range actions {
		i := byID[a.UnitID]
		u := next.Units[i]
		dest := u.Position.Add(a.Direction)
		if e.settings.Map.Passable(dest) {
			u.Position = dest
			next.Units[i] = u
		}
	}

	next = e.resolveCollisions(next, player)
	next = e.spawnFood(next)

	delta := sk.Diff(state, next, e.nowDelta())
	return next, delta, nil
}

var deltaNow = time.Now

func (e *Engine) nowDelta() time.Time { return deltaNow() }

// resolveCollisions groups units by cell and applies, in order: pawn
// reaching an enemy base destroys the base and every pawn at that
// cell; two or more differently-owned pawns sharing a cell destroy
// each other; same-owner pawns sharing a cell merely stack (no
// effect); a pawn reaching food consumes it and queues one
// reinforcement pawn per food consumed, materialized at player's base
// once every cell has been resolved. This mirrors the ordered-rule
// table the teacher applies inside Sow when a stone lands on a pit
// that is empty, the player's own, or the opponent's.
func (e *Engine) resolveCollisions(state sk.GameState, player sk.PlayerID) sk.GameState {
	byCell := make(map[sk.Position][]int)
	for i, u := range state.Units {
		byCell[u.Position] = append(byCell[u.Position], i)
	}

	remove := make(map[uint64]bool)
	reinforcements := 0
	for _, idxs := range byCell {
		if len(idxs) < 2 {
			continue
		}
		var bases, pawns, food []int
		for _, i := range idxs {
			switch state.Units[i].Kind {
			case sk.BASE:
				bases = append(bases, i)
			case sk.PAWN:
				pawns = append(pawns, i)
			case sk.FOOD:
				food = append(food, i)
			}
		}

		if len(bases) > 0 {
			base := state.Units[bases[0]]
			var attacked bool
			for _, pi := range pawns {
				if state.Units[pi].Owner != base.Owner {
					attacked = true
				}
			}
			if attacked {
				remove[base.ID] = true
				for _, pi := range pawns {
					remove[state.Units[pi].ID] = true
				}
			}
			continue
		}

		owners := make(map[sk.PlayerID]bool)
		for _, pi := range pawns {
			owners[state.Units[pi].Owner] = true
		}
		if len(owners) > 1 {
			for _, pi := range pawns {
				remove[state.Units[pi].ID] = true
			}
			continue
		}

		if len(pawns) > 0 && len(food) > 0 {
			for _, fi := range food {
				remove[state.Units[fi].ID] = true
			}
			reinforcements += len(food)
		}
	}

	if len(remove) > 0 {
		var units []sk.Unit
		for _, u := range state.Units {
			if !remove[u.ID] {
				units = append(units, u)
			}
		}
		state.Units = units
	}

	if reinforcements > 0 {
		if bases := state.Bases(player); len(bases) > 0 {
			base := bases[0]
			for i := 0; i < reinforcements; i++ {
				state.Units = append(state.Units, sk.Unit{ID: e.allocID(), Owner: player, Kind: sk.PAWN, Position: base.Position})
			}
		}
	}

	return state
}

// spawnFood draws r from [0, 1) and spawns nothing if r <= FoodScarcity;
// otherwise it retries up to 2*width*height random cells for one that
// is neither a wall nor occupied and materializes a FOOD unit there,
// giving up silently if none is found. Mirrors the teacher's Random
// helper in that it draws from the Engine's own seeded *rand.Rand
// rather than the global source, keeping replay deterministic.
func (e *Engine) spawnFood(state sk.GameState) sk.GameState {
	if e.rng.Float64() <= e.settings.FoodScarcity {
		return state
	}

	occupied := make(map[sk.Position]bool, len(state.Units))
	for _, u := range state.Units {
		occupied[u.Position] = true
	}

	w, h := e.settings.Map.Dimension.Width, e.settings.Map.Dimension.Height
	if w <= 0 || h <= 0 {
		return state
	}
	for attempt := 0; attempt < 2*w*h; attempt++ {
		p := sk.Position{X: e.rng.Intn(w), Y: e.rng.Intn(h)}
		if e.settings.Map.Passable(p) && !occupied[p] {
			state.Units = append(state.Units, sk.Unit{ID: e.allocID(), Kind: sk.FOOD, Position: p})
			return state
		}
	}
	return state
}

// Terminated reports whether the game is over and, if so, which
// player (if any) won, mirroring the teacher's Board.Over/Outcome
// split: Over decides the boolean, Outcome assigns the winner. A
// seated player having zero PAWNs has lost outright (spec §4.1.3),
// independent of base survival. Otherwise, if fewer than two distinct
// BASE owners remain, the sole surviving owner wins; the pawn check
// above already covers the "both bases survive but one has no pawns"
// tiebreak (spec §4.1.4). If both bases stand and neither seated player
// has a PAWN left, the game ends in a draw.
func (e *Engine) Terminated(state sk.GameState, players [2]sk.PlayerID) (bool, sk.PlayerID, sk.Outcome) {
	if len(state.Units) == 0 {
		return true, "", sk.DRAW
	}

	var aliveBase, alivePawn [2]bool
	for i, pid := range players {
		aliveBase[i] = len(state.Bases(pid)) > 0
		alivePawn[i] = len(state.Pawns(pid)) > 0
	}

	if alivePawn[0] != alivePawn[1] {
		if alivePawn[0] {
			return true, players[0], sk.WIN
		}
		return true, players[1], sk.WIN
	}

	baseOwners := 0
	for _, alive := range aliveBase {
		if alive {
			baseOwners++
		}
	}
	if baseOwners < 2 {
		switch {
		case aliveBase[0]:
			return true, players[0], sk.WIN
		case aliveBase[1]:
			return true, players[1], sk.WIN
		default:
			return true, "", sk.DRAW
		}
	}

	if !alivePawn[0] && !alivePawn[1] {
		return true, "", sk.DRAW
	}

	return false, "", sk.ONGOING
}

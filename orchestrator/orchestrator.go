// Turn Orchestrator: the single-threaded driver of one game.
//
// Grounded directly on the teacher's game.go Play(): one goroutine
// owns a Board and loops `select { move, death, timer }` until the
// board reports itself over. This file keeps exactly that shape but
// drives a sk.GameState through the engine package instead of mancala
// pit-sowing, and accepts one player's action batch per half-turn,
// the two players alternating.
package orchestrator

import (
	"context"
	"time"

	"go-skirmish/engine"

	sk "go-skirmish"
)

// Phase is the orchestrator's top-level state, per spec §4.3.1.
type Phase uint8

const (
	WAITING Phase = iota
	RUNNING
	ENDED
)

func (p Phase) String() string {
	switch p {
	case WAITING:
		return "WAITING"
	case RUNNING:
		return "RUNNING"
	case ENDED:
		return "ENDED"
	default:
		return "?"
	}
}

// ActionBatch is one player's submission for a half-turn. RoundTag
// must match the orchestrator's currently outstanding round or the
// batch is rejected as stale (spec §4.3.2) — this is how a delayed
// retransmit of an earlier prompt's reply can never be applied to a
// later round.
type ActionBatch struct {
	Player   sk.PlayerID
	RoundTag uint64
	Actions  []sk.Action
}

// Event is what Start emits to its caller as the game proceeds: the
// caller is responsible for turning each Event into wire frames via
// the message boundary and for persisting nothing (spec Non-goal: no
// persistence).
type Event struct {
	Kind    EventKind
	State   sk.GameState
	Delta   sk.GameDelta
	Turn    sk.PlayerID
	Round   uint64
	Winner  sk.PlayerID
	Outcome sk.Outcome
	Reason  string
}

// EventKind distinguishes the Events Start can emit.
type EventKind uint8

const (
	GameStarted EventKind = iota
	TurnPrompted
	TurnApplied
	ActionRejected
	GameEnded
)

// Disconnected is sent on the orchestrator's death channel when a
// seat's connection is lost mid-game.
type Disconnected struct {
	Player sk.PlayerID
}

// Orchestrator drives exactly one game from WAITING to ENDED.
type Orchestrator struct {
	eng      *engine.Engine
	settings sk.GameSettings
	players  [2]sk.PlayerID

	phase Phase
	round uint64
	state sk.GameState

	Inbox      chan ActionBatch
	Disconnect chan Disconnected
	Events     chan Event

	stallCount int
}

// New builds an Orchestrator for a fixed pair of players. The caller
// owns reading from Events until it is closed (on ENDED) and writing
// to Inbox/Disconnect as frames and disconnects arrive.
func New(eng *engine.Engine, settings sk.GameSettings, players [2]sk.PlayerID) *Orchestrator {
	return &Orchestrator{
		eng:        eng,
		settings:   settings,
		players:    players,
		phase:      WAITING,
		Inbox:      make(chan ActionBatch, 4),
		Disconnect: make(chan Disconnected, 2),
		Events:     make(chan Event, 8),
	}
}

// Phase reports the orchestrator's current top-level state.
func (o *Orchestrator) Phase() Phase { return o.phase }

// Start transitions WAITING -> RUNNING, initializes the world and
// begins the half-turn loop. It blocks until the game reaches ENDED
// or ctx is cancelled (spec §5 cooperative shutdown), then closes
// Events. Run in its own goroutine by the caller, symmetric to how
// the teacher's Play() is always launched with `go`.
func (o *Orchestrator) Start(ctx context.Context) {
	defer close(o.Events)

	if o.phase != WAITING {
		panic("orchestrator: Start called outside WAITING")
	}
	o.phase = RUNNING
	o.state = o.eng.Init(o.players)
	o.Events <- Event{Kind: GameStarted, State: o.state}

	turn := 0
	for {
		current := o.players[turn%2]
		o.round++
		deadline := time.NewTimer(o.settings.TurnTimeLimit)
		o.Events <- Event{Kind: TurnPrompted, Turn: current, Round: o.round, State: o.state}

		_, done := o.awaitHalfTurn(ctx, current, deadline)
		deadline.Stop()
		if done {
			o.phase = ENDED
			return
		}

		if over, winner, result := o.eng.Terminated(o.state, o.players); over {
			o.phase = ENDED
			o.Events <- Event{Kind: GameEnded, Winner: winner, Outcome: result, State: o.state}
			return
		}

		if o.Stalled() {
			o.phase = ENDED
			o.Events <- Event{Kind: GameEnded, Outcome: sk.DRAW, State: o.state, Reason: "stalemate"}
			return
		}

		turn++
	}
}

// awaitHalfTurn blocks for exactly one half-turn: it accepts the
// first well-formed, correctly-tagged batch from `current`, a
// disconnect of either seat, a context cancellation, or a deadline
// expiry (forfeiting the half-turn and ending the game), whichever
// comes first — the teacher's `select { move, death, timer }` body.
// A batch for the wrong seat or a stale round tag is silently
// dropped (spec §4.3.2); a batch that fails engine validation
// re-prompts the same player without resetting the deadline (spec
// §4.3.3) by looping back into the same select rather than returning.
func (o *Orchestrator) awaitHalfTurn(ctx context.Context, current sk.PlayerID, deadline *time.Timer) (sk.Outcome, bool) {
	for {
		select {
		case <-ctx.Done():
			o.Events <- Event{Kind: GameEnded, Outcome: sk.DRAW, Reason: "shutdown"}
			return sk.DRAW, true

		case d := <-o.Disconnect:
			winner := o.otherPlayer(d.Player)
			o.Events <- Event{Kind: GameEnded, Winner: winner, Outcome: sk.WIN, Reason: "disconnect"}
			return sk.WIN, true

		case batch := <-o.Inbox:
			if batch.Player != current || batch.RoundTag != o.round {
				continue
			}
			if !o.applyBatch(current, batch.Actions) {
				continue
			}
			return sk.ONGOING, false

		case <-deadline.C:
			winner := o.otherPlayer(current)
			o.Events <- Event{Kind: GameEnded, Winner: winner, Outcome: sk.WIN, Reason: "timeout"}
			return sk.WIN, true
		}
	}
}

// applyBatch hands actions to the engine and reports whether they
// were accepted. A rejected batch leaves o.state untouched (the
// engine's validation failure is atomic) and emits ActionRejected for
// each diagnostic instead of TurnApplied; the caller must re-prompt
// the same player rather than advance.
func (o *Orchestrator) applyBatch(player sk.PlayerID, actions []sk.Action) bool {
	next, delta, diags := o.eng.Apply(o.state, player, actions)
	if len(diags) > 0 {
		for _, d := range diags {
			o.Events <- Event{Kind: ActionRejected, Turn: player, Reason: string(d.Reason)}
		}
		return false
	}

	if len(delta.AddedOrModified) == 0 && len(delta.Removed) == 0 {
		o.stallCount++
	} else {
		o.stallCount = 0
	}
	o.state = next
	o.Events <- Event{Kind: TurnApplied, Turn: player, Round: o.round, State: o.state, Delta: delta}
	return true
}

func (o *Orchestrator) otherPlayer(p sk.PlayerID) sk.PlayerID {
	if p == o.players[0] {
		return o.players[1]
	}
	return o.players[0]
}

// Stalled reports whether the last StallBound consecutive half-turns
// produced no board change, the condition spec §4.1.3 calls a draw by
// stalemate.
func (o *Orchestrator) Stalled() bool {
	return o.settings.StallBound > 0 && o.stallCount >= o.settings.StallBound
}

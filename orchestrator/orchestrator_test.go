package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-skirmish/engine"

	sk "go-skirmish"
)

func testSettings() sk.GameSettings {
	return sk.GameSettings{
		Map:                    sk.MapLayout{Dimension: sk.Dimension{Width: 8, Height: 8}},
		PotentialBaseLocations: []sk.Position{{X: 0, Y: 0}, {X: 7, Y: 7}},
		TurnTimeLimit:          30 * time.Millisecond,
		StallBound:             6,
		FoodScarcity:           1, // deterministic: never auto-spawn food in these tests
	}
}

func collectUntilEnded(t *testing.T, events <-chan Event, timeout time.Duration) []Event {
	t.Helper()
	var out []Event
	deadline := time.After(timeout)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, e)
			if e.Kind == GameEnded {
				return out
			}
		case <-deadline:
			t.Fatal("timed out waiting for GameEnded")
			return out
		}
	}
}

func TestStartEmitsGameStarted(t *testing.T) {
	eng := engine.New(testSettings(), 1)
	orch := New(eng, testSettings(), [2]sk.PlayerID{"player-1", "player-2"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go orch.Start(ctx)

	first := <-orch.Events
	assert.Equal(t, GameStarted, first.Kind)
	assert.Equal(t, RUNNING, orch.Phase())
	cancel()
}

func TestDeadlineExpiryForfeitsTheHalfTurn(t *testing.T) {
	settings := testSettings()
	settings.TurnTimeLimit = 5 * time.Millisecond
	eng := engine.New(settings, 1)
	orch := New(eng, settings, [2]sk.PlayerID{"player-1", "player-2"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go orch.Start(ctx)

	<-orch.Events // GameStarted
	prompted := <-orch.Events
	require.Equal(t, TurnPrompted, prompted.Kind)

	events := collectUntilEnded(t, orch.Events, time.Second)
	last := events[len(events)-1]
	assert.Equal(t, GameEnded, last.Kind)
	assert.Equal(t, sk.WIN, last.Outcome)
	assert.Equal(t, "timeout", last.Reason)
	assert.Equal(t, orch.otherPlayer(prompted.Turn), last.Winner)
	assert.Equal(t, ENDED, orch.Phase())
}

func TestDisconnectEndsGameWithOtherPlayerWinning(t *testing.T) {
	settings := testSettings()
	settings.TurnTimeLimit = time.Second
	eng := engine.New(settings, 1)
	orch := New(eng, settings, [2]sk.PlayerID{"player-1", "player-2"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go orch.Start(ctx)

	<-orch.Events // GameStarted
	<-orch.Events // TurnPrompted for player-1

	orch.Disconnect <- Disconnected{Player: "player-1"}

	events := collectUntilEnded(t, orch.Events, time.Second)
	last := events[len(events)-1]
	assert.Equal(t, GameEnded, last.Kind)
	assert.Equal(t, sk.PlayerID("player-2"), last.Winner)
	assert.Equal(t, sk.WIN, last.Outcome)
	assert.Equal(t, ENDED, orch.Phase())
}

func TestStaleRoundTagIsSilentlyDroppedWithoutAdvancingTheTurn(t *testing.T) {
	settings := testSettings()
	settings.TurnTimeLimit = time.Second
	eng := engine.New(settings, 1)
	orch := New(eng, settings, [2]sk.PlayerID{"player-1", "player-2"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go orch.Start(ctx)

	<-orch.Events // GameStarted
	prompted := <-orch.Events
	require.Equal(t, TurnPrompted, prompted.Kind)

	orch.Inbox <- ActionBatch{Player: prompted.Turn, RoundTag: prompted.Round + 100}
	orch.Inbox <- ActionBatch{Player: prompted.Turn, RoundTag: prompted.Round}

	applied := <-orch.Events
	require.Equal(t, TurnApplied, applied.Kind)
	assert.Equal(t, prompted.Round, applied.Round)
}

func TestWrongSeatBatchIsSilentlyDropped(t *testing.T) {
	settings := testSettings()
	settings.TurnTimeLimit = time.Second
	eng := engine.New(settings, 1)
	orch := New(eng, settings, [2]sk.PlayerID{"player-1", "player-2"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go orch.Start(ctx)

	<-orch.Events // GameStarted
	prompted := <-orch.Events
	require.Equal(t, TurnPrompted, prompted.Kind)

	other := orch.otherPlayer(prompted.Turn)
	orch.Inbox <- ActionBatch{Player: other, RoundTag: prompted.Round}
	orch.Inbox <- ActionBatch{Player: prompted.Turn, RoundTag: prompted.Round}

	applied := <-orch.Events
	require.Equal(t, TurnApplied, applied.Kind)
	assert.Equal(t, prompted.Turn, applied.Turn)
}

func TestValidationFailureRePromptsSamePlayerWithoutAdvancing(t *testing.T) {
	settings := testSettings()
	settings.TurnTimeLimit = time.Second
	eng := engine.New(settings, 1)
	orch := New(eng, settings, [2]sk.PlayerID{"player-1", "player-2"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go orch.Start(ctx)

	started := <-orch.Events // GameStarted
	prompted := <-orch.Events
	require.Equal(t, TurnPrompted, prompted.Kind)

	foreignUnit := started.State.Units[0]
	for _, u := range started.State.Units {
		if u.Owner != prompted.Turn {
			foreignUnit = u
			break
		}
	}

	orch.Inbox <- ActionBatch{
		Player:   prompted.Turn,
		RoundTag: prompted.Round,
		Actions:  []sk.Action{{UnitID: foreignUnit.ID, Direction: sk.N}},
	}

	rejected := <-orch.Events
	assert.Equal(t, ActionRejected, rejected.Kind)
	assert.Equal(t, prompted.Turn, rejected.Turn)

	orch.Inbox <- ActionBatch{Player: prompted.Turn, RoundTag: prompted.Round}
	applied := <-orch.Events
	require.Equal(t, TurnApplied, applied.Kind)
	assert.Equal(t, prompted.Round, applied.Round)
}

func TestContextCancellationEndsGameAsDraw(t *testing.T) {
	settings := testSettings()
	settings.TurnTimeLimit = time.Second
	eng := engine.New(settings, 1)
	orch := New(eng, settings, [2]sk.PlayerID{"player-1", "player-2"})

	ctx, cancel := context.WithCancel(context.Background())
	go orch.Start(ctx)

	<-orch.Events // GameStarted
	<-orch.Events // TurnPrompted

	cancel()

	events := collectUntilEnded(t, orch.Events, time.Second)
	last := events[len(events)-1]
	assert.Equal(t, GameEnded, last.Kind)
	assert.Equal(t, sk.DRAW, last.Outcome)
}

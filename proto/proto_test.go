package proto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sk "go-skirmish"
)

func TestDecodeRejectsBlankFrame(t *testing.T) {
	_, err := Decode(nil)
	require.ErrorIs(t, err, ErrBlankFrame)
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"NOT_A_REAL_TYPE"}`))
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestDecodeRejectsServerOnlyType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"START_GAME"}`))
	require.Error(t, err)
}

func TestDecodeAction(t *testing.T) {
	frame := []byte(`{"type":"ACTION","round":3,"actions":[{"unitId":1,"direction":"E"}]}`)
	msg, err := Decode(frame)
	require.NoError(t, err)

	action, ok := msg.(ActionMsg)
	require.True(t, ok)
	assert.Equal(t, uint64(3), action.Round)
	require.Len(t, action.Actions, 1)
	assert.Equal(t, sk.E, action.Actions[0].Direction)
}

func TestEncodeEndGameCarriesMapAndWinnerID(t *testing.T) {
	layout := sk.MapLayout{Dimension: sk.Dimension{Width: 8, Height: 8}}
	frame, err := EncodeEndGame(layout, "player-1", nil, time.Now())
	require.NoError(t, err)
	assert.Contains(t, string(frame), `"winnerId":"player-1"`)
	assert.Contains(t, string(frame), `"gameEnd"`)
	assert.Contains(t, string(frame), `"map"`)
	assert.Contains(t, string(frame), `"type":"END_GAME"`)
}

func TestEncodeEndGameOmitsWinnerIDOnDraw(t *testing.T) {
	layout := sk.MapLayout{Dimension: sk.Dimension{Width: 8, Height: 8}}
	frame, err := EncodeEndGame(layout, "", nil, time.Now())
	require.NoError(t, err)
	assert.NotContains(t, string(frame), "winnerId")
}

func TestEncodeNextTurnCarriesFullGameState(t *testing.T) {
	state := sk.GameState{Units: []sk.Unit{{ID: 1, Owner: "player-1", Kind: sk.PAWN, Position: sk.Position{X: 1, Y: 1}}}}
	frame, err := EncodeNextTurn("player-2", 7, state)
	require.NoError(t, err)
	assert.Contains(t, string(frame), `"gameState"`)
	assert.Contains(t, string(frame), `"playerId":"player-2"`)
	assert.NotContains(t, string(frame), `"delta"`)
}

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sk "go-skirmish"
)

type fakeConn struct {
	sent [][]byte
	fail bool
}

func (f *fakeConn) Send(frame []byte) error {
	if f.fail {
		return assertError
	}
	f.sent = append(f.sent, frame)
	return nil
}

var assertError = &sentinelError{"send failed"}

type sentinelError struct{ msg string }

func (e *sentinelError) Error() string { return e.msg }

func TestAttachAssignsSeatsInOrder(t *testing.T) {
	r := New()
	_, p1, err := r.Attach(&fakeConn{})
	require.NoError(t, err)
	assert.Equal(t, sk.PlayerID("player-1"), p1)

	_, p2, err := r.Attach(&fakeConn{})
	require.NoError(t, err)
	assert.Equal(t, sk.PlayerID("player-2"), p2)
}

func TestAttachRejectsThirdConnection(t *testing.T) {
	r := New()
	_, _, _ = r.Attach(&fakeConn{})
	_, _, _ = r.Attach(&fakeConn{})

	_, _, err := r.Attach(&fakeConn{})
	require.ErrorIs(t, err, ErrFull)
}

func TestReadyRequiresBothSeats(t *testing.T) {
	r := New()
	id1, _, _ := r.Attach(&fakeConn{})
	id2, _, _ := r.Attach(&fakeConn{})

	both, err := r.Ready(id1)
	require.NoError(t, err)
	assert.False(t, both)

	both, err = r.Ready(id2)
	require.NoError(t, err)
	assert.True(t, both)
}

func TestDetachFreesASeat(t *testing.T) {
	r := New()
	id1, _, _ := r.Attach(&fakeConn{})
	_, _, _ = r.Attach(&fakeConn{})

	require.NoError(t, r.Detach(id1))
	assert.Equal(t, 1, r.Occupancy())

	_, _, err := r.Attach(&fakeConn{})
	require.NoError(t, err)
}

func TestDetachUnknownConnReturnsError(t *testing.T) {
	r := New()
	id1, _, _ := r.Attach(&fakeConn{})
	require.NoError(t, r.Detach(id1))

	err := r.Detach(id1)
	require.ErrorIs(t, err, ErrUnknownConn)
}

func TestUnicastReachesOnlyOneSeat(t *testing.T) {
	r := New()
	_, _, _ = r.Attach(&fakeConn{})
	c2 := &fakeConn{}
	_, _, _ = r.Attach(c2)

	require.NoError(t, r.Unicast("player-2", []byte("hello")))
	assert.Len(t, c2.sent, 1)
}

func TestBroadcastReachesBothSeatsAndCollectsErrors(t *testing.T) {
	r := New()
	c1 := &fakeConn{fail: true}
	_, _, _ = r.Attach(c1)
	c2 := &fakeConn{}
	_, _, _ = r.Attach(c2)

	errs := r.Broadcast([]byte("frame"))
	require.Len(t, errs, 1)
	assert.Len(t, c2.sent, 1)
}

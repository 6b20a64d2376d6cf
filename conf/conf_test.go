package conf

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoadFallsBackToDefaultOnEmptyInput(t *testing.T) {
	c, err := load(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Port != defaultConfig.Port {
		t.Fatalf("expected default port %d, got %d", defaultConfig.Port, c.Port)
	}
}

func TestLoadOverridesFields(t *testing.T) {
	input := `
listen = "ws"
port = 9000

[game]
turn_timeout_ms = 2500
food_scarcity = 0.5
stall_bound = 5

[protocol]
version = "2.0"
`
	c, err := load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Listen != "ws" || c.Port != 9000 {
		t.Fatalf("listen/port not overridden: %+v", c)
	}
	if c.Settings.TurnTimeLimit != 2500*time.Millisecond {
		t.Fatalf("turn timeout not overridden: %v", c.Settings.TurnTimeLimit)
	}
	if c.ProtocolVersion != "2.0" {
		t.Fatalf("protocol version not overridden: %v", c.ProtocolVersion)
	}
}

func TestDumpLoadRoundTrip(t *testing.T) {
	c, err := load(strings.NewReader(`port = 5555`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := c.Dump(&buf); err != nil {
		t.Fatalf("dump failed: %v", err)
	}

	reloaded, err := load(&buf)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Port != c.Port {
		t.Fatalf("round-trip changed port: %d != %d", reloaded.Port, c.Port)
	}
}

func TestParseArenaRectangular(t *testing.T) {
	input := "b...\n....\n....\n...p\n"
	layout, bases, err := ParseArena(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if layout.Dimension.Width != 4 || layout.Dimension.Height != 4 {
		t.Fatalf("unexpected dimension: %+v", layout.Dimension)
	}
	if len(bases) != 2 {
		t.Fatalf("expected 2 base locations, got %d", len(bases))
	}
}

func TestParseArenaRejectsRaggedRows(t *testing.T) {
	input := "b...\n..\n"
	_, _, err := ParseArena(strings.NewReader(input))
	if err == nil {
		t.Fatalf("expected an error for ragged rows")
	}
}

func TestParseArenaRejectsUnknownCell(t *testing.T) {
	input := "b..x\n...p\n"
	_, _, err := ParseArena(strings.NewReader(input))
	if err == nil {
		t.Fatalf("expected an error for an unrecognized cell")
	}
}

func TestParseArenaRejectsTooFewBases(t *testing.T) {
	input := "b...\n....\n"
	_, _, err := ParseArena(strings.NewReader(input))
	if err == nil {
		t.Fatalf("expected an error for fewer than two base locations")
	}
}

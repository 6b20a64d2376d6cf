// Arena text format: a line-oriented grid description.
//
// Grounded in the teacher's own taste for a small, hand-scanned DSL
// rather than reaching for a parser-generator (see proto.go's
// tokenizer/parse pair): each line of an arena file is one row of the
// map, read top to bottom, and each character of a line is one cell:
//
//	.  passable, empty cell
//	#  wall
//	b  a potential base location
//	p  also a potential base location, handled exactly like b
//	   (engine.Init places a pawn beside every base it seats)
//	f  accepted, but treated as an empty cell: no food is seeded
//
// A trailing width mismatch between rows is a parse error: the arena
// is rectangular or not accepted at all.
package conf

import (
	"bufio"
	"fmt"
	"io"

	sk "go-skirmish"
)

// ParseArena reads a line-oriented grid description and returns the
// resulting layout plus the ordered list of potential base locations
// (in the order their markers appeared, so the first two become
// player-1's and player-2's starting bases per engine.Init).
func ParseArena(r io.Reader) (sk.MapLayout, []sk.Position, error) {
	var (
		rows  []string
		width = -1
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if width == -1 {
			width = len(line)
		} else if len(line) != width {
			return sk.MapLayout{}, nil, fmt.Errorf("arena: row %d has width %d, expected %d", len(rows)+1, len(line), width)
		}
		rows = append(rows, line)
	}
	if err := scanner.Err(); err != nil {
		return sk.MapLayout{}, nil, fmt.Errorf("arena: %w", err)
	}
	if len(rows) == 0 {
		return sk.MapLayout{}, nil, fmt.Errorf("arena: empty arena")
	}

	layout := sk.MapLayout{Dimension: sk.Dimension{Width: width, Height: len(rows)}}
	var bases []sk.Position

	for y, row := range rows {
		for x, ch := range row {
			pos := sk.Position{X: x, Y: y}
			switch ch {
			case '.':
				// passable, nothing to record
			case '#':
				layout.Walls = append(layout.Walls, pos)
			case 'b', 'p':
				bases = append(bases, pos)
			case 'f':
				// food markers are not recorded or returned; the
				// engine's own spawnFood rolls independently of the
				// arena, so this marker is treated as a passable cell.
			default:
				return sk.MapLayout{}, nil, fmt.Errorf("arena: row %d col %d: unrecognized cell %q", y+1, x+1, string(ch))
			}
		}
	}

	if len(bases) < 2 {
		return sk.MapLayout{}, nil, fmt.Errorf("arena: need at least two potential base locations, found %d", len(bases))
	}

	return layout, bases, nil
}

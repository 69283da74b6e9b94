// Package mahjong implements the pure, deterministic riichi mahjong rule
// engine: tiles, walls, melds, hand decomposition, yaku/scoring, and the
// round/game state transition function. No component in this package
// performs I/O; every transition takes a state value and returns a new
// state value plus the events it produced.
package mahjong

import "fmt"

// TileType is a tile's suit/rank identity in [0, 34), ignoring the four
// physical copies of each type.
type TileType int

const (
	Man1 TileType = iota
	Man2
	Man3
	Man4
	Man5
	Man6
	Man7
	Man8
	Man9
	Pin1
	Pin2
	Pin3
	Pin4
	Pin5
	Pin6
	Pin7
	Pin8
	Pin9
	Sou1
	Sou2
	Sou3
	Sou4
	Sou5
	Sou6
	Sou7
	Sou8
	Sou9
	East
	South
	West
	North
	White // haku
	Green // hatsu
	Red   // chun
	NumTileTypes
)

// TotalTiles is the physical wall size (34 types x 4 copies).
const TotalTiles = 136

// Suit groups related tile types for sequence/flush checks.
type Suit int

const (
	SuitMan Suit = iota
	SuitPin
	SuitSou
	SuitHonor
)

// Tile is a physical tile identifier in [0, 136).
type Tile int

// Type returns the tile's suit/rank in [0, 34).
func (t Tile) Type() TileType { return TileType(int(t) / 4) }

// IsRedFive reports whether this physical tile is the red-five copy. By
// convention the 0th copy (index 0 within its type's 4-tile block) of
// each five is the red five when red fives are enabled.
func (t Tile) IsRedFive() bool {
	tt := t.Type()
	if tt != Man5 && tt != Pin5 && tt != Sou5 {
		return false
	}
	return int(t)%4 == 0
}

func (tt TileType) IsNumber() bool { return tt <= Sou9 }
func (tt TileType) IsHonor() bool  { return tt >= East }
func (tt TileType) IsWind() bool   { return tt >= East && tt <= North }
func (tt TileType) IsDragon() bool { return tt >= White && tt <= Red }

func (tt TileType) Suit() Suit {
	switch {
	case tt <= Man9:
		return SuitMan
	case tt <= Pin9:
		return SuitPin
	case tt <= Sou9:
		return SuitSou
	default:
		return SuitHonor
	}
}

// NumberValue returns 1-9 for number tiles; 0 for honors.
func (tt TileType) NumberValue() int {
	if !tt.IsNumber() {
		return 0
	}
	return int(tt)%9 + 1
}

// IsTerminal reports a 1 or 9 numbered tile.
func (tt TileType) IsTerminal() bool {
	if !tt.IsNumber() {
		return false
	}
	v := tt.NumberValue()
	return v == 1 || v == 9
}

// IsTerminalOrHonor reports a yaochuu (terminal/honor) tile type.
func (tt TileType) IsTerminalOrHonor() bool {
	return tt.IsTerminal() || tt.IsHonor()
}

// Wind is a seat or round wind.
type Wind int

const (
	WindEast Wind = iota
	WindSouth
	WindWest
	WindNorth
)

func (w Wind) String() string {
	switch w {
	case WindEast:
		return "East"
	case WindSouth:
		return "South"
	case WindWest:
		return "West"
	case WindNorth:
		return "North"
	default:
		return "Unknown"
	}
}

func (w Wind) Next() Wind { return (w + 1) % 4 }

// WindTileType converts a wind to its honor tile type.
func (w Wind) TileType() TileType { return East + TileType(w) }

// SeatWind computes the wind a seat plays under, relative to the dealer.
func SeatWind(seat, dealerSeat int) Wind {
	return Wind(mod4(seat - dealerSeat))
}

func mod4(v int) int {
	v %= 4
	if v < 0 {
		v += 4
	}
	return v
}

func (tt TileType) String() string {
	switch {
	case tt.Suit() == SuitMan:
		return fmt.Sprintf("%dm", tt.NumberValue())
	case tt.Suit() == SuitPin:
		return fmt.Sprintf("%dp", tt.NumberValue())
	case tt.Suit() == SuitSou:
		return fmt.Sprintf("%ds", tt.NumberValue())
	default:
		names := [...]string{"E", "S", "W", "N", "Haku", "Hatsu", "Chun"}
		return names[int(tt-East)]
	}
}

// SortTiles returns a copy of tiles sorted by tile type then raw id, as
// a hand is conventionally displayed.
func SortTiles(tiles []Tile) []Tile {
	out := append([]Tile(nil), tiles...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Hand34 counts tile types 0..33 in a hand.
func Hand34(tiles []Tile) [34]int {
	var counts [34]int
	for _, t := range tiles {
		counts[t.Type()]++
	}
	return counts
}

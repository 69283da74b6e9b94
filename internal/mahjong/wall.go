package mahjong

import (
	"mahjongserver/internal/wallrng"
)

// Wall is an immutable wall state for one round. Mirrors the invariants
// in the data model: live+dead tiles total 136, all IDs unique, dora
// indicators drawn from dead_wall[2+i].
type Wall struct {
	LiveTiles        []Tile
	DeadWallTiles    []Tile
	DoraIndicators   []Tile
	PendingDoraCount int
	Dice             [2]int
}

// NewWall shuffles a fresh wall for (seed, roundNumber), rolls dice, and
// splits it into live/dead sections around the dice-determined break.
func NewWall(seedHex string, roundNumber uint32, dealerSeat int) (Wall, error) {
	shuffled, d1, d2, err := wallrng.GenerateShuffledWallAndDice(seedHex, roundNumber)
	if err != nil {
		return Wall{}, err
	}
	liveInts, deadInts := wallrng.SplitWallByDice(shuffled, d1, d2, dealerSeat)
	w := Wall{
		LiveTiles:     intsToTiles(liveInts),
		DeadWallTiles: intsToTiles(deadInts),
		Dice:          [2]int{d1, d2},
	}
	w.DoraIndicators = []Tile{w.DeadWallTiles[wallrng.FirstDoraIndex]}
	return w, nil
}

func intsToTiles(ints []int) []Tile {
	out := make([]Tile, len(ints))
	for i, v := range ints {
		out[i] = Tile(v)
	}
	return out
}

// DealInitialHands deals 13 tiles to each seat starting from the dealer:
// three rounds of 4 tiles, then 1 tile each. Returns the updated wall and
// each seat's sorted starting hand.
func DealInitialHands(w Wall, dealerSeat int) (Wall, [4][]Tile, error) {
	const minTiles = 4 * (4*3 + 1)
	if len(w.LiveTiles) < minTiles {
		return w, [4][]Tile{}, &InvalidActionError{Reason: "live wall too small to deal initial hands"}
	}
	live := append([]Tile(nil), w.LiveTiles...)
	var hands [4][]Tile
	pos := 0
	for block := 0; block < 3; block++ {
		for offset := 0; offset < 4; offset++ {
			seat := mod4(dealerSeat + offset)
			hands[seat] = append(hands[seat], live[pos:pos+4]...)
			pos += 4
		}
	}
	for offset := 0; offset < 4; offset++ {
		seat := mod4(dealerSeat + offset)
		hands[seat] = append(hands[seat], live[pos])
		pos++
	}
	for seat := range hands {
		hands[seat] = SortTiles(hands[seat])
	}
	nw := w
	nw.LiveTiles = append([]Tile(nil), live[pos:]...)
	return nw, hands, nil
}

// Draw takes the front tile of the live wall. ok is false if the wall is
// exhausted.
func (w Wall) Draw() (Wall, Tile, bool) {
	if len(w.LiveTiles) == 0 {
		return w, 0, false
	}
	nw := w
	nw.LiveTiles = append([]Tile(nil), w.LiveTiles[1:]...)
	return nw, w.LiveTiles[0], true
}

// DrawFromDeadWall pops a replacement tile from the end of the dead wall
// (rinshan draw), replenishing the dead wall from the live wall tail if
// possible to keep its 14-tile size.
func (w Wall) DrawFromDeadWall() (Wall, Tile, error) {
	if len(w.DeadWallTiles) == 0 {
		return w, 0, &InvalidActionError{Reason: "dead wall is empty"}
	}
	dead := append([]Tile(nil), w.DeadWallTiles...)
	tile := dead[len(dead)-1]
	dead = dead[:len(dead)-1]

	live := append([]Tile(nil), w.LiveTiles...)
	if len(live) > 0 {
		dead = append(dead, live[len(live)-1])
		live = live[:len(live)-1]
	}
	nw := w
	nw.DeadWallTiles = dead
	nw.LiveTiles = live
	return nw, tile, nil
}

// AddDoraIndicator reveals the next dora indicator from the dead wall.
func (w Wall) AddDoraIndicator() (Wall, Tile, error) {
	if len(w.DoraIndicators) >= wallrng.MaxDoraIndicators {
		return w, 0, &InvalidActionError{Reason: "no more dora indicator slots"}
	}
	nextIdx := wallrng.FirstDoraIndex + len(w.DoraIndicators)
	if nextIdx >= len(w.DeadWallTiles) {
		return w, 0, &InvalidActionError{Reason: "no more dora indicator positions in dead wall"}
	}
	indicator := w.DeadWallTiles[nextIdx]
	nw := w
	nw.DoraIndicators = append(append([]Tile(nil), w.DoraIndicators...), indicator)
	return nw, indicator, nil
}

// RevealPendingDora reveals every deferred kan-dora indicator and resets
// the pending count to zero.
func (w Wall) RevealPendingDora() (Wall, []Tile, error) {
	if w.PendingDoraCount == 0 {
		return w, nil, nil
	}
	cur := w
	var revealed []Tile
	for i := 0; i < w.PendingDoraCount; i++ {
		var indicator Tile
		var err error
		cur, indicator, err = cur.AddDoraIndicator()
		if err != nil {
			return w, nil, err
		}
		revealed = append(revealed, indicator)
	}
	cur.PendingDoraCount = 0
	return cur, revealed, nil
}

// IncrementPendingDora defers a kan-dora reveal until the triggering
// discard or call prompt resolves.
func (w Wall) IncrementPendingDora() Wall {
	nw := w
	nw.PendingDoraCount++
	return nw
}

// IsExhausted reports an empty live wall.
func (w Wall) IsExhausted() bool { return len(w.LiveTiles) == 0 }

// TilesRemaining reports how many tiles remain in the live wall.
func (w Wall) TilesRemaining() int { return len(w.LiveTiles) }

// CollectUraDoraIndicators returns the ura dora indicators a riichi
// winner is entitled to: one normally, or one per revealed dora
// indicator (up to numDora) when kan-ura is in play.
func (w Wall) CollectUraDoraIndicators(includeKanUra bool, numDora int) []Tile {
	if len(w.DeadWallTiles) == 0 || len(w.DoraIndicators) == 0 {
		return nil
	}
	count := 1
	if includeKanUra {
		count = numDora
	}
	var out []Tile
	for i := 0; i < count; i++ {
		idx := wallrng.UraDoraStartIndex + i
		if idx < len(w.DeadWallTiles) {
			out = append(out, w.DeadWallTiles[idx])
		}
	}
	return out
}

package mahjong

import "testing"

func tilesOfType(tt TileType, n int) []Tile {
	out := make([]Tile, n)
	for i := range out {
		out[i] = Tile(int(tt)*4 + i)
	}
	return out
}

func seqTiles(low TileType) []Tile {
	return []Tile{Tile(int(low) * 4), Tile(int(low+1) * 4), Tile(int(low+2) * 4)}
}

func TestIsAgariStandardHand(t *testing.T) {
	var tiles []Tile
	tiles = append(tiles, seqTiles(Man1)...)
	tiles = append(tiles, seqTiles(Man4)...)
	tiles = append(tiles, seqTiles(Pin1)...)
	tiles = append(tiles, seqTiles(Sou1)...)
	tiles = append(tiles, tilesOfType(East, 2)...)
	if len(tiles) != 14 {
		t.Fatalf("expected 14 tiles, got %d", len(tiles))
	}
	if !IsAgari(tiles, nil) {
		t.Fatalf("expected complete hand to be agari")
	}
}

func TestIsAgariRejectsIncompleteHand(t *testing.T) {
	var tiles []Tile
	tiles = append(tiles, seqTiles(Man1)...)
	tiles = append(tiles, seqTiles(Man4)...)
	tiles = append(tiles, seqTiles(Pin1)...)
	tiles = append(tiles, seqTiles(Sou1)...)
	tiles = append(tiles, tilesOfType(East, 1)...) // only a single east, no pair
	if IsAgari(tiles, nil) {
		t.Fatalf("expected incomplete hand to not be agari")
	}
}

func TestIsChiitoitsuAgari(t *testing.T) {
	var tiles []Tile
	types := []TileType{Man1, Man2, Man3, Man4, Man5, Man6, Man7}
	for _, tt := range types {
		tiles = append(tiles, tilesOfType(tt, 2)...)
	}
	if !IsAgari(tiles, nil) {
		t.Fatalf("expected seven pairs to be agari")
	}
}

func TestIsKokushiAgari(t *testing.T) {
	tiles := []Tile{
		Tile(int(Man1) * 4), Tile(int(Man9) * 4), Tile(int(Pin1) * 4), Tile(int(Pin9) * 4),
		Tile(int(Sou1) * 4), Tile(int(Sou9) * 4), Tile(int(East) * 4), Tile(int(South) * 4),
		Tile(int(West) * 4), Tile(int(North) * 4), Tile(int(White) * 4), Tile(int(Green) * 4),
		Tile(int(Red) * 4), Tile(int(Red)*4 + 1),
	}
	if !IsAgari(tiles, nil) {
		t.Fatalf("expected thirteen orphans to be agari")
	}
}

func TestGetWaitingTilesShanpon(t *testing.T) {
	var tiles []Tile
	tiles = append(tiles, seqTiles(Man1)...)
	tiles = append(tiles, seqTiles(Man4)...)
	tiles = append(tiles, seqTiles(Pin1)...)
	tiles = append(tiles, tilesOfType(East, 2)...)
	tiles = append(tiles, tilesOfType(South, 2)...)
	waits := GetWaitingTiles(tiles, nil)
	if len(waits) != 2 {
		t.Fatalf("expected shanpon wait on 2 tile types, got %v", waits)
	}
}

func TestIsFuritenOnOwnDiscard(t *testing.T) {
	var tiles []Tile
	tiles = append(tiles, seqTiles(Man1)...)
	tiles = append(tiles, seqTiles(Man4)...)
	tiles = append(tiles, seqTiles(Pin1)...)
	tiles = append(tiles, tilesOfType(East, 2)...)
	tiles = append(tiles, tilesOfType(South, 2)...)
	p := Player{Tiles: tiles, Discards: []Discard{{TileID: Tile(int(South) * 4)}}}
	if !IsFuriten(p) {
		t.Fatalf("expected furiten when waiting on a previously discarded tile type")
	}
}

func TestIsFuritenFalseWhenNotWaiting(t *testing.T) {
	var tiles []Tile
	tiles = append(tiles, seqTiles(Man1)...)
	tiles = append(tiles, seqTiles(Man4)...)
	tiles = append(tiles, seqTiles(Pin1)...)
	tiles = append(tiles, tilesOfType(East, 2)...)
	tiles = append(tiles, tilesOfType(South, 1)...)
	p := Player{Tiles: tiles, Discards: nil}
	if IsFuriten(p) {
		t.Fatalf("did not expect furiten on a hand with no complete wait")
	}
}

func TestIsHaiteiHoutei(t *testing.T) {
	w := Wall{}
	if !IsHaitei(true, w) {
		t.Fatalf("expected haitei on exhausted wall tsumo")
	}
	if !IsHoutei(true, w) {
		t.Fatalf("expected houtei on exhausted wall ron")
	}
	w.LiveTiles = []Tile{1}
	if IsHaitei(true, w) {
		t.Fatalf("did not expect haitei with tiles remaining")
	}
}

func TestIsTenhouChiihou(t *testing.T) {
	if !IsTenhou(0, 0, 0, false) {
		t.Fatalf("expected tenhou for dealer's first uninterrupted draw")
	}
	if IsTenhou(0, 0, 0, true) {
		t.Fatalf("did not expect tenhou once a call interrupted the round")
	}
	if !IsChiihou(1, 0, 3, false) {
		t.Fatalf("expected chiihou for a non-dealer's first uninterrupted draw")
	}
	if IsChiihou(0, 0, 3, false) {
		t.Fatalf("did not expect chiihou for the dealer")
	}
}

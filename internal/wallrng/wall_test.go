package wallrng

import "testing"

func TestSplitWallByDicePartitionSizes(t *testing.T) {
	tiles := make([]int, TotalWallSize)
	for i := range tiles {
		tiles[i] = i
	}
	live, dead := SplitWallByDice(tiles, 3, 4, 0)
	if len(dead) != DeadWallSize {
		t.Fatalf("dead wall size = %d, want %d", len(dead), DeadWallSize)
	}
	if len(live) != TotalWallSize-DeadWallSize {
		t.Fatalf("live wall size = %d, want %d", len(live), TotalWallSize-DeadWallSize)
	}
	seen := make(map[int]bool, TotalWallSize)
	for _, tile := range append(append([]int{}, live...), dead...) {
		if seen[tile] {
			t.Fatalf("tile %d appears in both/more than one wall segment", tile)
		}
		seen[tile] = true
	}
	if len(seen) != TotalWallSize {
		t.Fatalf("split lost tiles: got %d distinct, want %d", len(seen), TotalWallSize)
	}
}

func TestComputeBreakInfoWrapsWithinRing(t *testing.T) {
	for dealer := 0; dealer < 4; dealer++ {
		for d1 := 1; d1 <= 6; d1++ {
			for d2 := 1; d2 <= 6; d2++ {
				info := ComputeBreakInfo(d1, d2, dealer)
				if info.BreakStack < 0 || info.BreakStack >= TotalStacks {
					t.Fatalf("break stack out of ring: %+v", info)
				}
				if info.TargetSeat < 0 || info.TargetSeat >= NumPlayers {
					t.Fatalf("target seat out of range: %+v", info)
				}
			}
		}
	}
}

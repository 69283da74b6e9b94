package wallrng

// Wall ring constants for dice-based wall breaking. The 136-tile wall is
// modeled as 68 two-tile stacks arranged in a ring, 17 stacks per seat.
const (
	NumPlayers      = 4
	StacksPerPlayer = 17 // 34 tiles / 2 tiles per stack
	TilesPerStack   = 2
	TotalStacks     = NumPlayers * StacksPerPlayer // 68

	DeadWallSize   = 14
	DeadWallStacks = DeadWallSize / TilesPerStack // 7
	LiveWallStacks = TotalStacks - DeadWallStacks // 61

	// Dead wall layout (14 tiles as 7 stacks of 2):
	//   top row:    [0] [1] [2] [3] [4] [5] [6]
	//   bottom row: [7] [8] [9] [10][11][12][13]
	FirstDoraIndex    = 2
	MaxDoraIndicators = 5
	UraDoraStartIndex = 7
)

// BreakInfo is the computed wall-break position derived from a dice roll.
type BreakInfo struct {
	DiceSum    int // sum of two dice (2-12)
	TargetSeat int // seat whose wall segment is broken (0-3)
	BreakStack int // first dead-wall stack index in the 68-stack ring (0-67)
}

// ComputeBreakInfo computes the wall break position from the dice roll and
// dealer seat. The target seat is counted counter-clockwise from the
// dealer by (dice_sum - 1); the break stack is counted dice_sum stacks
// from the right end of the target seat's wall segment.
func ComputeBreakInfo(die1, die2, dealerSeat int) BreakInfo {
	diceSum := die1 + die2
	targetSeat := mod(dealerSeat+diceSum-1, NumPlayers)
	breakStack := mod((targetSeat+1)*StacksPerPlayer-diceSum, TotalStacks)
	return BreakInfo{DiceSum: diceSum, TargetSeat: targetSeat, BreakStack: breakStack}
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// SplitWallByDice splits 136 shuffled tiles into (liveTiles, deadWallTiles)
// based on the dice break position. The 7 stacks starting at BreakStack
// (going right, wrapping) form the dead wall in top-row-then-bottom-row
// order; the 61 stacks starting at BreakStack-1 (going left, wrapping)
// form the live wall in dealing order.
func SplitWallByDice(tiles []int, die1, die2, dealerSeat int) (liveTiles, deadWallTiles []int) {
	info := ComputeBreakInfo(die1, die2, dealerSeat)
	breakStack := info.BreakStack

	deadStacks := make([]int, DeadWallStacks)
	for i := range deadStacks {
		deadStacks[i] = mod(breakStack+i, TotalStacks)
	}
	deadWallTiles = make([]int, 0, DeadWallSize)
	for _, s := range deadStacks { // top row
		deadWallTiles = append(deadWallTiles, tiles[s*2])
	}
	for _, s := range deadStacks { // bottom row
		deadWallTiles = append(deadWallTiles, tiles[s*2+1])
	}

	liveStacks := make([]int, LiveWallStacks)
	for i := range liveStacks {
		liveStacks[i] = mod(breakStack-1-i, TotalStacks)
	}
	liveTiles = make([]int, 0, LiveWallStacks*TilesPerStack)
	for _, s := range liveStacks {
		liveTiles = append(liveTiles, tiles[s*2], tiles[s*2+1])
	}

	return liveTiles, deadWallTiles
}

package mahjong

import "mahjongserver/internal/wallrng"

// IsAgari reports whether tiles (the player's concealed tiles, including
// the tile under consideration) plus their exposed melds form a
// complete hand: standard 4-melds-plus-pair, chiitoitsu, or kokushi.
func IsAgari(tiles []Tile, melds []Meld) bool {
	if len(melds) == 0 {
		if IsChiitoitsu(tiles) || IsKokushiMusou(tiles) {
			return true
		}
	}
	return len(DecomposeHand(tiles, len(melds))) > 0
}

// CanDeclareTsumo reports whether the player may declare a self-draw
// win: the hand must be complete, and an open hand additionally needs
// at least one yaku (closed hands can win on menzen tsumo alone).
func CanDeclareTsumo(ctx YakuContext) bool {
	if !IsAgari(ctx.Player.Tiles, ctx.Player.Melds) {
		return false
	}
	return HasAnyYaku(ctx)
}

// CanCallRon reports whether a player may call ron on tile: the hand
// formed by adding it must be complete, the player must not be furiten,
// and (for an open hand) at least one non-dora yaku must apply.
func CanCallRon(ctx YakuContext) bool {
	candidate := append(append([]Tile(nil), ctx.Player.Tiles...), ctx.WinningTile)
	if !IsAgari(candidate, ctx.Player.Melds) {
		return false
	}
	if IsFuriten(ctx.Player) {
		return false
	}
	ronCtx := ctx
	ronCtx.Player.Tiles = candidate
	return HasAnyYaku(ronCtx)
}

// GetWaitingTiles returns every tile type that would complete the hand
// formed by tiles + melds, i.e. the player's current wait.
func GetWaitingTiles(tiles []Tile, melds []Meld) []TileType {
	var waits []TileType
	counts := Hand34(tiles)
	for tt := TileType(0); tt < NumTileTypes; tt++ {
		if counts[tt] >= 4 {
			continue
		}
		candidate := append(append([]Tile(nil), tiles...), Tile(int(tt)*4))
		if IsAgari(candidate, melds) {
			waits = append(waits, tt)
		}
	}
	return waits
}

// IsFuriten reports permanent furiten: the player is waiting on one or
// more tile types and has themselves, at any point, discarded a tile of
// one of those types. A multi-sided wait is entirely blocked even if
// only one of its tile types was ever self-discarded.
func IsFuriten(p Player) bool {
	if p.IsFuriten {
		return true
	}
	waits := GetWaitingTiles(p.Tiles, p.Melds)
	if len(waits) == 0 {
		return false
	}
	waitSet := make(map[TileType]bool, len(waits))
	for _, w := range waits {
		waitSet[w] = true
	}
	for _, d := range p.Discards {
		if waitSet[d.TileID.Type()] {
			return true
		}
	}
	return false
}

// IsChankanPossible reports whether adding a kan's called tile to a
// waiting player's hand would complete it, letting them rob the kan.
func IsChankanPossible(ctx YakuContext, calledTile Tile) bool {
	candidate := append(append([]Tile(nil), ctx.Player.Tiles...), calledTile)
	return IsAgari(candidate, ctx.Player.Melds)
}

// IsHaitei reports a tsumo on the very last live-wall tile.
func IsHaitei(isTsumo bool, wall Wall) bool {
	return isTsumo && wall.IsExhausted()
}

// IsHoutei reports a ron on the discard following the very last draw.
func IsHoutei(isRon bool, wall Wall) bool {
	return isRon && wall.IsExhausted()
}

// IsTenhou reports a dealer's tsumo before any discard has been made.
func IsTenhou(seat, dealerSeat int, turnCount int, anyCallMade bool) bool {
	return seat == dealerSeat && turnCount == 0 && !anyCallMade
}

// IsChiihou reports a non-dealer's tsumo on their first draw, before any
// call has interrupted the first go-around.
func IsChiihou(seat, dealerSeat int, turnCount int, anyCallMade bool) bool {
	return seat != dealerSeat && turnCount < wallrng.NumPlayers && !anyCallMade
}

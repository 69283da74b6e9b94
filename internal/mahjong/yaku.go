package mahjong

// Yaku enumerates every scoring pattern this engine recognizes, standard
// and yakuman alike.
type Yaku int

const (
	YakuMenzenTsumo Yaku = iota
	YakuRiichi
	YakuIppatsu
	YakuPinfu
	YakuTanyao
	YakuYakuhaiWind
	YakuYakuhaiDragon
	YakuIipeikou
	YakuSanshokuDoujun
	YakuSanshokuDoukou
	YakuIttsu
	YakuChanta
	YakuJunchan
	YakuToitoi
	YakuSanankou
	YakuHonitsu
	YakuChinitsu
	YakuChiitoitsu
	YakuHaitei
	YakuHoutei
	YakuRinshan
	YakuChankan
	YakuDoubleRiichi
	YakuDora
	YakuAkaDora
	YakuUraDora

	// Yakuman.
	YakuKokushi
	YakuKokushi13
	YakuSuuankou
	YakuSuuankouTanki
	YakuDaisangen
	YakuShousuushi
	YakuDaisuushi
	YakuTsuuiisou
	YakuChinroutou
	YakuRyuuiisou
	YakuChuurenPoutou
	YakuJunseiChuurenPoutou
	YakuSuukantsu
	YakuTenhou
	YakuChiihou
)

// YakuResult is one scored yaku and its han value (0 for a yakuman
// marker, whose strength is instead carried in the yakuman multiplier).
type YakuResult struct {
	Yaku Yaku
	Han  int
}

// YakuContext bundles everything needed to evaluate yaku and fu for one
// candidate winning hand. WinningTile is assumed to already be present
// in Player.Tiles (tsumo) or appended there by the caller (ron).
type YakuContext struct {
	Player            Player
	WinningTile       Tile
	IsTsumo           bool
	SeatWind          Wind
	RoundWind         Wind
	IsIppatsu         bool
	IsHaitei          bool
	IsHoutei          bool
	IsRinshan         bool
	IsChankan         bool
	IsTenhou          bool
	IsChiihou         bool
	DoraIndicators    []Tile
	UraDoraIndicators []Tile
}

func dora(indicator Tile) TileType {
	tt := indicator.Type()
	switch {
	case tt == Man9:
		return Man1
	case tt == Pin9:
		return Pin1
	case tt == Sou9:
		return Sou1
	case tt.Suit() != SuitHonor:
		return tt + 1
	case tt == North:
		return East
	case tt == Red:
		return White
	default:
		return tt + 1
	}
}

func countDora(tiles []Tile, indicators []Tile) int {
	count := 0
	wanted := make(map[TileType]bool, len(indicators))
	for _, ind := range indicators {
		wanted[dora(ind)] = true
	}
	for _, t := range tiles {
		if wanted[t.Type()] {
			count++
		}
	}
	return count
}

func countAkaDora(tiles []Tile) int {
	count := 0
	for _, t := range tiles {
		if t.IsRedFive() {
			count++
		}
	}
	return count
}

// EvaluatedHand is one fully scored candidate reading of a winning hand.
type EvaluatedHand struct {
	Han              int
	Fu               int
	Yaku             []YakuResult
	YakumanMultiplier int // 0 for a non-yakuman hand
}

// points is the total collected by the winner, used only to rank
// candidate hand readings against each other.
func (h EvaluatedHand) points(isDealer bool, isRon bool, honba int) int {
	if isRon {
		return ScoreRon(h, isDealer, honba)
	}
	dealerPay, nonDealerPay := ScoreTsumo(h, isDealer, honba)
	if isDealer {
		return dealerPay * 3
	}
	return dealerPay + nonDealerPay*2
}

// EvaluateWin scores every standard/chiitoitsu/kokushi reading of the
// winning hand and returns the single best one (highest point value,
// yakuman readings always preferred over non-yakuman ones).
func EvaluateWin(ctx YakuContext) (EvaluatedHand, bool) {
	var candidates []EvaluatedHand

	if kokushi, ok := evaluateKokushi(ctx); ok {
		candidates = append(candidates, kokushi)
	}
	if !ctx.Player.HasOpenMelds() {
		if chii, ok := evaluateChiitoitsu(ctx); ok {
			candidates = append(candidates, chii)
		}
	}
	openMeldCount := len(ctx.Player.Melds)
	for _, decomp := range DecomposeHand(ctx.Player.Tiles, openMeldCount) {
		if hand, ok := evaluateStandardHand(ctx, decomp); ok {
			candidates = append(candidates, hand)
		}
	}

	if len(candidates) == 0 {
		return EvaluatedHand{}, false
	}

	isDealer := ctx.SeatWind == WindEast
	best := candidates[0]
	bestPoints := best.points(isDealer, !ctx.IsTsumo, 0)
	for _, c := range candidates[1:] {
		p := c.points(isDealer, !ctx.IsTsumo, 0)
		if p > bestPoints || (c.YakumanMultiplier > best.YakumanMultiplier) {
			best, bestPoints = c, p
		}
	}
	return best, true
}

// HasAnyYaku reports whether at least one yaku (menzen tsumo, riichi, or
// any other) applies to the best reading of the hand, which gates
// tsumo/ron declarations for open hands. Dora, aka dora and ura dora
// add han but do not count as a yaku here.
func HasAnyYaku(ctx YakuContext) bool {
	hand, ok := EvaluateWin(ctx)
	if !ok {
		return false
	}
	if hand.YakumanMultiplier > 0 {
		return true
	}
	for _, y := range hand.Yaku {
		switch y.Yaku {
		case YakuDora, YakuAkaDora, YakuUraDora:
			continue
		}
		return true
	}
	return false
}

func evaluateKokushi(ctx YakuContext) (EvaluatedHand, bool) {
	if len(ctx.Player.Melds) > 0 || len(ctx.Player.Tiles) != 14 {
		return EvaluatedHand{}, false
	}
	if !IsKokushiMusou(ctx.Player.Tiles) {
		return EvaluatedHand{}, false
	}
	counts := Hand34(ctx.Player.Tiles)
	thirteenSided := counts[ctx.WinningTile.Type()] == 2
	if thirteenSided {
		return EvaluatedHand{YakumanMultiplier: 2, Yaku: []YakuResult{{Yaku: YakuKokushi13}}}, true
	}
	return EvaluatedHand{YakumanMultiplier: 1, Yaku: []YakuResult{{Yaku: YakuKokushi}}}, true
}

func evaluateChiitoitsu(ctx YakuContext) (EvaluatedHand, bool) {
	if !IsChiitoitsu(ctx.Player.Tiles) {
		return EvaluatedHand{}, false
	}
	yakuList := []YakuResult{{Yaku: YakuChiitoitsu, Han: 2}}
	han := 2
	if isHonitsu(ctx.Player.Tiles, nil) {
		if isChinitsu(ctx.Player.Tiles, nil) {
			yakuList = append(yakuList, YakuResult{Yaku: YakuChinitsu, Han: 6})
			han += 6
		} else {
			yakuList = append(yakuList, YakuResult{Yaku: YakuHonitsu, Han: 3})
			han += 3
		}
	}
	han += addCommonHanYaku(ctx, &yakuList, true)
	return EvaluatedHand{Han: han, Fu: 25, Yaku: yakuList}, true
}

// evaluateStandardHand scores one 4-melds-plus-pair reading.
func evaluateStandardHand(ctx YakuContext, decomp HandDecomposition) (EvaluatedHand, bool) {
	var yakuList []YakuResult
	han := 0
	closed := ctx.Player.IsMenzen()

	if closed && ctx.IsTsumo {
		yakuList = append(yakuList, YakuResult{Yaku: YakuMenzenTsumo, Han: 1})
		han++
	}

	allGroupTypes := standardGroupTileTypes(decomp, ctx.Player.Melds)

	pinfu, ryanmenAvailable := checkPinfu(ctx, decomp)
	fu := 20
	if pinfu {
		fu = 20
		if !ctx.IsTsumo {
			fu = 30
		}
		yakuList = append(yakuList, YakuResult{Yaku: YakuPinfu, Han: 1})
		han++
	} else {
		fu += meldFu(ctx.Player.Melds)
		fu += closedGroupFu(ctx, decomp)
		fu += pairFu(decomp.Pair, ctx.SeatWind, ctx.RoundWind)
		fu += waitShapeFu(ctx, decomp)
		if ctx.IsTsumo {
			fu += 2
		} else if closed {
			fu += 10
		}
		fu = roundUpTo10(fu)
	}
	_ = ryanmenAvailable

	if tanyaoHan := checkTanyao(allGroupTypes); tanyaoHan > 0 {
		yakuList = append(yakuList, YakuResult{Yaku: YakuTanyao, Han: tanyaoHan})
		han += tanyaoHan
	}
	han += checkYakuhai(decomp, ctx.Player.Melds, ctx.SeatWind, ctx.RoundWind, &yakuList)
	if closed {
		if n := checkIipeikou(decomp); n > 0 {
			yakuList = append(yakuList, YakuResult{Yaku: YakuIipeikou, Han: n})
			han += n
		}
	}
	if n := checkSanshokuDoujun(decomp, ctx.Player.Melds); n > 0 {
		bonus := n
		if !closed {
			bonus--
		}
		if bonus > 0 {
			yakuList = append(yakuList, YakuResult{Yaku: YakuSanshokuDoujun, Han: bonus})
			han += bonus
		}
	}
	if checkIttsu(decomp, ctx.Player.Melds) {
		n := 2
		if !closed {
			n = 1
		}
		yakuList = append(yakuList, YakuResult{Yaku: YakuIttsu, Han: n})
		han += n
	}
	if chanta, junchan := checkChantaJunchan(decomp, ctx.Player.Melds); junchan {
		n := 3
		if !closed {
			n = 2
		}
		yakuList = append(yakuList, YakuResult{Yaku: YakuJunchan, Han: n})
		han += n
	} else if chanta {
		n := 2
		if !closed {
			n = 1
		}
		yakuList = append(yakuList, YakuResult{Yaku: YakuChanta, Han: n})
		han += n
	}
	if checkToitoi(decomp, ctx.Player.Melds) {
		yakuList = append(yakuList, YakuResult{Yaku: YakuToitoi, Han: 2})
		han += 2
	}
	if n := checkSanankou(ctx, decomp); n {
		yakuList = append(yakuList, YakuResult{Yaku: YakuSanankou, Han: 2})
		han += 2
	}
	if checkSanshokuDoukou(decomp, ctx.Player.Melds) {
		yakuList = append(yakuList, YakuResult{Yaku: YakuSanshokuDoukou, Han: 2})
		han += 2
	}
	if isHonitsu(ctx.Player.Tiles, ctx.Player.Melds) {
		if isChinitsu(ctx.Player.Tiles, ctx.Player.Melds) {
			n := 6
			if !closed {
				n = 5
			}
			yakuList = append(yakuList, YakuResult{Yaku: YakuChinitsu, Han: n})
			han += n
		} else {
			n := 3
			if !closed {
				n = 2
			}
			yakuList = append(yakuList, YakuResult{Yaku: YakuHonitsu, Han: n})
			han += n
		}
	}

	// Yakuman checks that depend on full meld context (standard shape).
	if ym, yk := checkSuuankou(ctx, decomp); ym > 0 {
		return EvaluatedHand{YakumanMultiplier: ym, Yaku: []YakuResult{{Yaku: yk}}}, true
	}
	if checkDaisangen(decomp, ctx.Player.Melds) {
		return EvaluatedHand{YakumanMultiplier: 1, Yaku: []YakuResult{{Yaku: YakuDaisangen}}}, true
	}
	if shou, dai := checkShouDaisuushi(decomp, ctx.Player.Melds); dai {
		return EvaluatedHand{YakumanMultiplier: 2, Yaku: []YakuResult{{Yaku: YakuDaisuushi}}}, true
	} else if shou {
		return EvaluatedHand{YakumanMultiplier: 1, Yaku: []YakuResult{{Yaku: YakuShousuushi}}}, true
	}
	if checkTsuuiisou(allGroupTypes, decomp.Pair) {
		return EvaluatedHand{YakumanMultiplier: 1, Yaku: []YakuResult{{Yaku: YakuTsuuiisou}}}, true
	}
	if checkChinroutou(allGroupTypes, decomp.Pair) {
		return EvaluatedHand{YakumanMultiplier: 1, Yaku: []YakuResult{{Yaku: YakuChinroutou}}}, true
	}
	if checkRyuuiisou(ctx.Player.Tiles, ctx.Player.Melds) {
		return EvaluatedHand{YakumanMultiplier: 1, Yaku: []YakuResult{{Yaku: YakuRyuuiisou}}}, true
	}
	if n, yk := checkChuurenPoutou(ctx, decomp); n > 0 {
		return EvaluatedHand{YakumanMultiplier: n, Yaku: []YakuResult{{Yaku: yk}}}, true
	}
	if checkSuukantsu(ctx.Player.Melds) {
		return EvaluatedHand{YakumanMultiplier: 1, Yaku: []YakuResult{{Yaku: YakuSuukantsu}}}, true
	}

	han += addCommonHanYaku(ctx, &yakuList, false)

	if han == 0 {
		return EvaluatedHand{}, false
	}
	return EvaluatedHand{Han: han, Fu: fu, Yaku: yakuList}, true
}

// addCommonHanYaku appends riichi/ippatsu/haitei/houtei/rinshan/chankan/
// tenhou/chiihou/dora, which apply identically regardless of hand shape.
func addCommonHanYaku(ctx YakuContext, yakuList *[]YakuResult, isChiitoitsu bool) int {
	added := 0
	if ctx.Player.IsDaburi {
		*yakuList = append(*yakuList, YakuResult{Yaku: YakuDoubleRiichi, Han: 2})
		added += 2
	} else if ctx.Player.IsRiichi {
		*yakuList = append(*yakuList, YakuResult{Yaku: YakuRiichi, Han: 1})
		added++
	}
	if ctx.Player.IsRiichi && ctx.IsIppatsu {
		*yakuList = append(*yakuList, YakuResult{Yaku: YakuIppatsu, Han: 1})
		added++
	}
	if ctx.IsHaitei {
		*yakuList = append(*yakuList, YakuResult{Yaku: YakuHaitei, Han: 1})
		added++
	}
	if ctx.IsHoutei {
		*yakuList = append(*yakuList, YakuResult{Yaku: YakuHoutei, Han: 1})
		added++
	}
	if ctx.IsRinshan {
		*yakuList = append(*yakuList, YakuResult{Yaku: YakuRinshan, Han: 1})
		added++
	}
	if ctx.IsChankan {
		*yakuList = append(*yakuList, YakuResult{Yaku: YakuChankan, Han: 1})
		added++
	}
	if ctx.IsTenhou {
		*yakuList = append(*yakuList, YakuResult{Yaku: YakuTenhou, Han: 0})
	}
	if ctx.IsChiihou {
		*yakuList = append(*yakuList, YakuResult{Yaku: YakuChiihou, Han: 0})
	}
	if d := countDora(ctx.Player.Tiles, ctx.DoraIndicators); d > 0 {
		*yakuList = append(*yakuList, YakuResult{Yaku: YakuDora, Han: d})
		added += d
	}
	if a := countAkaDora(ctx.Player.Tiles); a > 0 {
		*yakuList = append(*yakuList, YakuResult{Yaku: YakuAkaDora, Han: a})
		added += a
	}
	if ctx.Player.IsRiichi {
		if u := countDora(ctx.Player.Tiles, ctx.UraDoraIndicators); u > 0 {
			*yakuList = append(*yakuList, YakuResult{Yaku: YakuUraDora, Han: u})
			added += u
		}
	}
	return added
}

package mahjong

// expandGroupTypes lists every tile type making up a closed-hand
// decomposition, expanding sequences to their three constituent types
// so suit/terminal/honor checks can look at each tile directly.
func expandGroupTypes(decomp HandDecomposition) []TileType {
	out := []TileType{decomp.Pair, decomp.Pair}
	for _, g := range decomp.ClosedGroups {
		if g.Kind == GroupSequence {
			out = append(out, g.Type, g.Type+1, g.Type+2)
		} else {
			out = append(out, g.Type, g.Type, g.Type)
		}
	}
	return out
}

func expandMeldTypes(melds []Meld) []TileType {
	var out []TileType
	for _, m := range melds {
		for _, t := range m.Tiles {
			out = append(out, t.Type())
		}
	}
	return out
}

func standardGroupTileTypes(decomp HandDecomposition, melds []Meld) []TileType {
	return append(expandGroupTypes(decomp), expandMeldTypes(melds)...)
}

func checkTanyao(allTypes []TileType) int {
	for _, tt := range allTypes {
		if tt.IsTerminalOrHonor() {
			return 0
		}
	}
	return 1
}

func checkYakuhai(decomp HandDecomposition, melds []Meld, seatWind, roundWind Wind, yakuList *[]YakuResult) int {
	han := 0
	checkType := func(tt TileType) {
		if tt.IsDragon() {
			*yakuList = append(*yakuList, YakuResult{Yaku: YakuYakuhaiDragon, Han: 1})
			han++
			return
		}
		if !tt.IsWind() {
			return
		}
		w := Wind(tt - East)
		if w == seatWind {
			*yakuList = append(*yakuList, YakuResult{Yaku: YakuYakuhaiWind, Han: 1})
			han++
		}
		if w == roundWind {
			*yakuList = append(*yakuList, YakuResult{Yaku: YakuYakuhaiWind, Han: 1})
			han++
		}
	}
	for _, g := range decomp.ClosedGroups {
		if g.Kind == GroupTriplet {
			checkType(g.Type)
		}
	}
	for _, m := range melds {
		if m.Type == MeldPon || m.Type.IsKan() {
			checkType(m.TileTypeOf())
		}
	}
	return han
}

func checkIipeikou(decomp HandDecomposition) int {
	seen := map[TileType]int{}
	for _, g := range decomp.ClosedGroups {
		if g.Kind == GroupSequence {
			seen[g.Type]++
		}
	}
	for _, c := range seen {
		if c >= 2 {
			return 1
		}
	}
	return 0
}

func checkSanshokuDoujun(decomp HandDecomposition, melds []Meld) int {
	bySuitValue := map[int]map[Suit]bool{}
	add := func(tt TileType) {
		v := tt.NumberValue()
		if bySuitValue[v] == nil {
			bySuitValue[v] = map[Suit]bool{}
		}
		bySuitValue[v][tt.Suit()] = true
	}
	for _, g := range decomp.ClosedGroups {
		if g.Kind == GroupSequence {
			add(g.Type)
		}
	}
	for _, m := range melds {
		if m.Type == MeldChi {
			add(m.TileTypeOf())
		}
	}
	for _, suits := range bySuitValue {
		if suits[SuitMan] && suits[SuitPin] && suits[SuitSou] {
			return 2
		}
	}
	return 0
}

func checkSanshokuDoukou(decomp HandDecomposition, melds []Meld) bool {
	bySuitValue := map[int]map[Suit]bool{}
	add := func(tt TileType) {
		if !tt.IsNumber() {
			return
		}
		v := tt.NumberValue()
		if bySuitValue[v] == nil {
			bySuitValue[v] = map[Suit]bool{}
		}
		bySuitValue[v][tt.Suit()] = true
	}
	for _, g := range decomp.ClosedGroups {
		if g.Kind == GroupTriplet {
			add(g.Type)
		}
	}
	for _, m := range melds {
		if m.Type == MeldPon || m.Type.IsKan() {
			add(m.TileTypeOf())
		}
	}
	for _, suits := range bySuitValue {
		if suits[SuitMan] && suits[SuitPin] && suits[SuitSou] {
			return true
		}
	}
	return false
}

func checkIttsu(decomp HandDecomposition, melds []Meld) bool {
	have := map[Suit]map[int]bool{}
	add := func(tt TileType) {
		v, s := tt.NumberValue(), tt.Suit()
		if have[s] == nil {
			have[s] = map[int]bool{}
		}
		have[s][v] = true
	}
	for _, g := range decomp.ClosedGroups {
		if g.Kind == GroupSequence {
			add(g.Type)
		}
	}
	for _, m := range melds {
		if m.Type == MeldChi {
			add(m.TileTypeOf())
		}
	}
	for _, vals := range have {
		if vals[1] && vals[4] && vals[7] {
			return true
		}
	}
	return false
}

func checkChantaJunchan(decomp HandDecomposition, melds []Meld) (chanta, junchan bool) {
	allTerminalOrHonor := true
	anyHonor := false
	check := func(tt TileType) {
		if !tt.IsTerminalOrHonor() {
			allTerminalOrHonor = false
		}
		if tt.IsHonor() {
			anyHonor = true
		}
	}
	checkSequence := func(low TileType) {
		v := low.NumberValue()
		if v != 1 && v != 7 {
			allTerminalOrHonor = false
		}
	}
	check(decomp.Pair)
	for _, g := range decomp.ClosedGroups {
		if g.Kind == GroupSequence {
			checkSequence(g.Type)
		} else {
			check(g.Type)
		}
	}
	for _, m := range melds {
		if m.Type == MeldChi {
			checkSequence(m.TileTypeOf())
		} else {
			check(m.TileTypeOf())
		}
	}
	if !allTerminalOrHonor {
		return false, false
	}
	if anyHonor {
		return true, false
	}
	return true, true
}

func checkToitoi(decomp HandDecomposition, melds []Meld) bool {
	for _, g := range decomp.ClosedGroups {
		if g.Kind == GroupSequence {
			return false
		}
	}
	for _, m := range melds {
		if m.Type == MeldChi {
			return false
		}
	}
	return true
}

func checkSanankou(ctx YakuContext, decomp HandDecomposition) bool {
	count := 0
	for _, g := range decomp.ClosedGroups {
		if g.Kind != GroupTriplet {
			continue
		}
		if !ctx.IsTsumo && g.Type == ctx.WinningTile.Type() {
			continue
		}
		count++
	}
	for _, m := range ctx.Player.Melds {
		if m.Type == MeldClosedKan {
			count++
		}
	}
	return count >= 3
}

func isHonitsu(tiles []Tile, melds []Meld) bool {
	suits := map[Suit]bool{}
	for _, t := range tiles {
		suits[t.Type().Suit()] = true
	}
	for _, m := range melds {
		for _, t := range m.Tiles {
			suits[t.Type().Suit()] = true
		}
	}
	delete(suits, SuitHonor)
	return len(suits) <= 1
}

func isChinitsu(tiles []Tile, melds []Meld) bool {
	suits := map[Suit]bool{}
	hasHonor := false
	mark := func(t Tile) {
		s := t.Type().Suit()
		if s == SuitHonor {
			hasHonor = true
		}
		suits[s] = true
	}
	for _, t := range tiles {
		mark(t)
	}
	for _, m := range melds {
		for _, t := range m.Tiles {
			mark(t)
		}
	}
	if hasHonor {
		return false
	}
	delete(suits, SuitHonor)
	return len(suits) == 1
}

func checkSuuankou(ctx YakuContext, decomp HandDecomposition) (int, Yaku) {
	ankouCount := 0
	winningIsTanki := decomp.Pair == ctx.WinningTile.Type()
	for _, g := range decomp.ClosedGroups {
		if g.Kind != GroupTriplet {
			continue
		}
		if !ctx.IsTsumo && g.Type == ctx.WinningTile.Type() {
			return 0, 0
		}
		ankouCount++
	}
	for _, m := range ctx.Player.Melds {
		if m.Type == MeldClosedKan {
			ankouCount++
		}
	}
	if ankouCount != 4 {
		return 0, 0
	}
	if winningIsTanki {
		return 2, YakuSuuankouTanki
	}
	return 1, YakuSuuankou
}

func checkDaisangen(decomp HandDecomposition, melds []Meld) bool {
	have := map[TileType]bool{}
	for _, g := range decomp.ClosedGroups {
		if g.Kind == GroupTriplet && g.Type.IsDragon() {
			have[g.Type] = true
		}
	}
	for _, m := range melds {
		if (m.Type == MeldPon || m.Type.IsKan()) && m.TileTypeOf().IsDragon() {
			have[m.TileTypeOf()] = true
		}
	}
	return have[White] && have[Green] && have[Red]
}

func checkShouDaisuushi(decomp HandDecomposition, melds []Meld) (shou, dai bool) {
	windGroups := map[TileType]bool{}
	for _, g := range decomp.ClosedGroups {
		if g.Kind == GroupTriplet && g.Type.IsWind() {
			windGroups[g.Type] = true
		}
	}
	for _, m := range melds {
		if (m.Type == MeldPon || m.Type.IsKan()) && m.TileTypeOf().IsWind() {
			windGroups[m.TileTypeOf()] = true
		}
	}
	n := len(windGroups)
	if n == 4 {
		return false, true
	}
	if n == 3 && decomp.Pair.IsWind() {
		return true, false
	}
	return false, false
}

func checkTsuuiisou(allTypes []TileType, pair TileType) bool {
	for _, tt := range allTypes {
		if !tt.IsHonor() {
			return false
		}
	}
	return pair.IsHonor()
}

func checkChinroutou(allTypes []TileType, pair TileType) bool {
	for _, tt := range allTypes {
		if !tt.IsTerminal() {
			return false
		}
	}
	return pair.IsTerminal()
}

var ryuuiisouTiles = map[TileType]bool{
	Sou2: true, Sou3: true, Sou4: true, Sou6: true, Sou8: true, Green: true,
}

func checkRyuuiisou(tiles []Tile, melds []Meld) bool {
	for _, t := range tiles {
		if !ryuuiisouTiles[t.Type()] {
			return false
		}
	}
	for _, m := range melds {
		for _, t := range m.Tiles {
			if !ryuuiisouTiles[t.Type()] {
				return false
			}
		}
	}
	return true
}

// checkChuurenPoutou detects the nine gates shape: a closed single-suit
// hand of 1112345678999 plus one extra same-suit tile. The pure
// (junsei) nine-sided-wait variant is not distinguished; every
// qualifying hand scores as the single, not double, yakuman.
func checkChuurenPoutou(ctx YakuContext, decomp HandDecomposition) (int, Yaku) {
	if len(ctx.Player.Melds) > 0 || len(ctx.Player.Tiles) != 14 {
		return 0, 0
	}
	tiles := ctx.Player.Tiles
	suit := tiles[0].Type().Suit()
	if suit == SuitHonor {
		return 0, 0
	}
	var counts [9]int
	for _, t := range tiles {
		tt := t.Type()
		if tt.Suit() != suit {
			return 0, 0
		}
		counts[tt.NumberValue()-1]++
	}
	base := [9]int{3, 1, 1, 1, 1, 1, 1, 1, 3}
	extraSeen := false
	for i := 0; i < 9; i++ {
		d := counts[i] - base[i]
		if d < 0 || d > 1 {
			return 0, 0
		}
		if d == 1 {
			if extraSeen {
				return 0, 0
			}
			extraSeen = true
		}
	}
	if !extraSeen {
		return 0, 0
	}
	return 1, YakuChuurenPoutou
}

func checkSuukantsu(melds []Meld) bool {
	count := 0
	for _, m := range melds {
		if m.Type.IsKan() {
			count++
		}
	}
	return count == 4
}

func meldFu(melds []Meld) int {
	fu := 0
	for _, m := range melds {
		yaochuu := m.TileTypeOf().IsTerminalOrHonor()
		switch m.Type {
		case MeldPon:
			if yaochuu {
				fu += 4
			} else {
				fu += 2
			}
		case MeldOpenKan, MeldAddedKan:
			if yaochuu {
				fu += 16
			} else {
				fu += 8
			}
		case MeldClosedKan:
			if yaochuu {
				fu += 32
			} else {
				fu += 16
			}
		}
	}
	return fu
}

func closedGroupFu(ctx YakuContext, decomp HandDecomposition) int {
	fu := 0
	for _, g := range decomp.ClosedGroups {
		if g.Kind != GroupTriplet {
			continue
		}
		yaochuu := g.Type.IsTerminalOrHonor()
		if !ctx.IsTsumo && g.Type == ctx.WinningTile.Type() {
			if yaochuu {
				fu += 4
			} else {
				fu += 2
			}
			continue
		}
		if yaochuu {
			fu += 8
		} else {
			fu += 4
		}
	}
	return fu
}

func pairFu(pair TileType, seatWind, roundWind Wind) int {
	fu := 0
	if pair.IsDragon() {
		fu += 2
	}
	if pair.IsWind() {
		w := Wind(pair - East)
		if w == seatWind {
			fu += 2
		}
		if w == roundWind {
			fu += 2
		}
	}
	return fu
}

// waitShapeFu returns the highest-fu legal reading of the winning tile's
// wait shape: tanki (pair wait) or the closed-wait forms of a sequence
// (kanchan, penchan) each add 2 fu; a two-sided (ryanmen) or shanpon
// (dual-pair) wait adds none.
func waitShapeFu(ctx YakuContext, decomp HandDecomposition) int {
	best := 0
	wt := ctx.WinningTile.Type()
	if decomp.Pair == wt {
		best = 2
	}
	for _, g := range decomp.ClosedGroups {
		if g.Kind != GroupSequence {
			continue
		}
		if wt < g.Type || wt > g.Type+2 {
			continue
		}
		lowVal := g.Type.NumberValue()
		cand := 0
		switch {
		case wt == g.Type+1:
			cand = 2
		case lowVal == 1 && wt == g.Type+2:
			cand = 2
		case lowVal == 7 && wt == g.Type:
			cand = 2
		}
		if cand > best {
			best = cand
		}
	}
	return best
}

// checkPinfu reports whether the hand qualifies for pinfu (closed,
// all-sequence, non-yakuhai pair) and whether the winning tile can be
// read as a two-sided wait, which pinfu requires.
func checkPinfu(ctx YakuContext, decomp HandDecomposition) (isPinfu bool, ryanmenAvailable bool) {
	if !ctx.Player.IsMenzen() {
		return false, false
	}
	for _, g := range decomp.ClosedGroups {
		if g.Kind != GroupSequence {
			return false, false
		}
	}
	if decomp.Pair.IsDragon() {
		return false, false
	}
	if decomp.Pair.IsWind() {
		w := Wind(decomp.Pair - East)
		if w == ctx.SeatWind || w == ctx.RoundWind {
			return false, false
		}
	}
	wt := ctx.WinningTile.Type()
	for _, g := range decomp.ClosedGroups {
		if wt < g.Type || wt > g.Type+2 {
			continue
		}
		lowVal := g.Type.NumberValue()
		if wt == g.Type+1 {
			continue
		}
		if lowVal == 1 && wt == g.Type+2 {
			continue
		}
		if lowVal == 7 && wt == g.Type {
			continue
		}
		return true, true
	}
	return false, false
}

func roundUpTo10(fu int) int {
	if fu%10 == 0 {
		return fu
	}
	return (fu/10 + 1) * 10
}

func roundUp100(v int) int {
	if v%100 == 0 {
		return v
	}
	return (v/100 + 1) * 100
}

// calculateBasePoints implements the standard base-point table, with
// the fixed mangan-and-up bands replacing the fu*2^(2+han) formula once
// it would exceed mangan.
func calculateBasePoints(han, fu int) int {
	switch {
	case han >= 13:
		return 8000
	case han >= 11:
		return 6000
	case han >= 8:
		return 4000
	case han >= 6:
		return 3000
	case han == 5:
		return 2000
	}
	base := fu * (1 << uint(2+han))
	if base > 2000 {
		return 2000
	}
	return base
}

func effectiveBasePoints(hand EvaluatedHand) int {
	if hand.YakumanMultiplier > 0 {
		return 8000 * hand.YakumanMultiplier
	}
	return calculateBasePoints(hand.Han, hand.Fu)
}

// ScoreRon returns the total points the discarder (or the perpetrator of
// a chankan) pays the winner.
func ScoreRon(hand EvaluatedHand, isDealer bool, honba int) int {
	base := effectiveBasePoints(hand)
	mult := 4
	if isDealer {
		mult = 6
	}
	return roundUp100(base*mult) + honba*300
}

// ScoreTsumo returns what the dealer pays and what each non-dealer pays;
// when the winner is the dealer, every payer pays dealerPay and
// nonDealerPay is equal to it.
func ScoreTsumo(hand EvaluatedHand, isDealer bool, honba int) (dealerPay, nonDealerPay int) {
	base := effectiveBasePoints(hand)
	if isDealer {
		pay := roundUp100(base*2) + honba*100
		return pay, pay
	}
	nonDealerPay = roundUp100(base) + honba*100
	dealerPay = roundUp100(base*2) + honba*100
	return dealerPay, nonDealerPay
}

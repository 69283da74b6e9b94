// Package wallrng implements the deterministic random number generation used
// to shuffle the tile wall, roll break/dealer dice, and split the wall into
// live and dead sections. Every game round's tile order is fully determined
// by a 96-byte seed and a round number, so replays reproduce byte-identical
// walls without storing the shuffled tiles themselves.
package wallrng

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math/bits"
)

const (
	// SeedBytes is the width of a game seed: 768 bits, comfortably above
	// the ~2^616 unique 136-tile permutation space.
	SeedBytes = 96

	// TotalWallSize is the number of physical tiles in a four-player wall.
	TotalWallSize = 136

	// RNGVersion is stored alongside replays to detect algorithm drift.
	RNGVersion = "pcg64dxsm-v1"
)

var (
	domainPrefix       = []byte("ronin-wall-v1:")
	dealerDomainPrefix = []byte("ronin-dealer-v1:")
)

// The canonical 128-bit PCG LCG multiplier and DXSM output multiplier,
// split into high/low 64-bit halves since Go has no native 128-bit type.
const (
	multiplierHi uint64 = 0x2360ED051FC65DA4
	multiplierLo uint64 = 0x4385DF649FCCF645
	dxsmMul      uint64 = 0xDA942042E4DD58B5
)

// add128 returns (a+b) mod 2^128, each operand split hi:lo.
func add128(aHi, aLo, bHi, bLo uint64) (hi, lo uint64) {
	lo, carry := bits.Add64(aLo, bLo, 0)
	hi, _ = bits.Add64(aHi, bHi, carry)
	return hi, lo
}

// mul128 returns (a*b) mod 2^128, each operand split hi:lo.
func mul128(aHi, aLo, bHi, bLo uint64) (hi, lo uint64) {
	hi, lo = bits.Mul64(aLo, bLo)
	hi += aHi*bLo + aLo*bHi
	return hi, lo
}

// shl1or1 returns ((v << 1) | 1) mod 2^128, v split hi:lo.
func shl1or1(vHi, vLo uint64) (hi, lo uint64) {
	hi = (vHi << 1) | (vLo >> 63)
	lo = (vLo << 1) | 1
	return hi, lo
}

// PCG64DXSM is a 128-bit-state permuted congruential generator with the
// DXSM (double-xorshift-multiply) output permutation. It passes the
// BigCrush/PractRand statistical test suites while needing no hashing of
// its output stream.
//
// Reference: O'Neill, M. (2014), "PCG: A Family of Simple Fast
// Space-Efficient Statistically Good Algorithms for Random Number
// Generation."
type PCG64DXSM struct {
	stateHi, stateLo uint64
	incHi, incLo     uint64
}

// NewPCG64DXSMRaw seeds a generator directly from a 128-bit state and
// increment, each split into high/low 64-bit halves (for state or
// increment values below 2^64, pass 0 for the high half). The increment
// is forced odd, then the state advances twice before the first output to
// avoid weak initial states. Exposed for reference-vector testing; normal
// callers should derive streams via deriveRoundPCG/deriveDealerPCG.
func NewPCG64DXSMRaw(stateHi, stateLo, incHi, incLo uint64) *PCG64DXSM {
	incHi, incLo = shl1or1(incHi, incLo)

	g := &PCG64DXSM{incHi: incHi, incLo: incLo}
	g.stateHi, g.stateLo = add128(stateHi, stateLo, incHi, incLo) // seed injection
	g.advance()
	g.advance()
	return g
}

func (g *PCG64DXSM) advance() {
	hi, lo := mul128(g.stateHi, g.stateLo, multiplierHi, multiplierLo)
	g.stateHi, g.stateLo = add128(hi, lo, g.incHi, g.incLo)
}

// NextUint64 returns the next 64-bit output and advances the generator.
func (g *PCG64DXSM) NextUint64() uint64 {
	hi := g.stateHi
	lo := g.stateLo | 1

	hi ^= hi >> 32
	hi *= dxsmMul
	hi ^= hi >> 48
	hi *= lo

	g.advance()
	return hi
}

// GenerateSeed returns a fresh cryptographically random seed as a
// lowercase hex string (192 characters / 768 bits).
func GenerateSeed() (string, error) {
	buf := make([]byte, SeedBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("wallrng: generate seed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidateSeedHex enforces exact length and valid hex encoding.
func ValidateSeedHex(seedHex string) error {
	if len(seedHex) != SeedBytes*2 {
		return fmt.Errorf("wallrng: seed must be exactly %d hex characters, got %d", SeedBytes*2, len(seedHex))
	}
	if _, err := hex.DecodeString(seedHex); err != nil {
		return fmt.Errorf("wallrng: seed contains invalid hex characters: %w", err)
	}
	return nil
}

// derivePCG derives a PCG64DXSM from SHA-512(domainPrefix || data). The
// first 16 bytes of the digest become the state, the next 16 the
// increment, each read as little-endian 128-bit integers (i.e. the low
// 8 bytes are the low 64 bits, the high 8 bytes are the high 64 bits).
func derivePCG(domain, data []byte) *PCG64DXSM {
	h := sha512.New()
	h.Write(domain)
	h.Write(data)
	digest := h.Sum(nil)

	stateLo := leUint64(digest[0:8])
	stateHi := leUint64(digest[8:16])
	incLo := leUint64(digest[16:24])
	incHi := leUint64(digest[24:32])

	return NewPCG64DXSMRaw(stateHi, stateLo, incHi, incLo)
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = (v << 8) | uint64(b[i])
	}
	return v
}

// deriveRoundPCG derives the per-round PCG64DXSM stream used for wall
// shuffling and wall-break dice. Derivation is O(1) regardless of round
// number: SHA512(domainPrefix || seedBytes || roundNumber_LE32).
func deriveRoundPCG(seedHex string, roundNumber uint32) (*PCG64DXSM, error) {
	if err := ValidateSeedHex(seedHex); err != nil {
		return nil, err
	}
	seedBytes, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("wallrng: decode seed: %w", err)
	}
	roundBytes := []byte{
		byte(roundNumber), byte(roundNumber >> 8),
		byte(roundNumber >> 16), byte(roundNumber >> 24),
	}
	data := append(append([]byte{}, seedBytes...), roundBytes...)
	return derivePCG(domainPrefix, data), nil
}

// deriveDealerPCG derives the dedicated first-dealer-determination stream,
// independent of the wall-shuffle stream via domain separation.
func deriveDealerPCG(seedHex string) (*PCG64DXSM, error) {
	if err := ValidateSeedHex(seedHex); err != nil {
		return nil, err
	}
	seedBytes, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("wallrng: decode seed: %w", err)
	}
	return derivePCG(dealerDomainPrefix, seedBytes), nil
}

// boundedUint64 returns an unbiased random value in [0, bound) via
// rejection sampling: values from the partial final bucket of the 2^64
// output space are discarded so no value in [0, bound) is favored. With
// bound at most a few hundred, rejection probability is astronomically
// small (~bound/2^64).
func boundedUint64(g *PCG64DXSM, bound uint64) uint64 {
	const maxU64 = ^uint64(0)
	modVal := (maxU64%bound + 1) % bound // (2^64) mod bound, without overflowing uint64
	if modVal == 0 {
		return g.NextUint64() % bound
	}
	limit := maxU64 - modVal + 1
	for {
		r := g.NextUint64()
		if r < limit {
			return r % bound
		}
	}
}

// fisherYatesShuffle returns a new slice containing tiles permuted via the
// Knuth shuffle, consuming g's stream. Unbiased because boundedUint64 uses
// rejection sampling rather than modulo reduction.
func fisherYatesShuffle(tiles []int, g *PCG64DXSM) []int {
	result := append([]int(nil), tiles...)
	n := len(result)
	for i := 0; i < n-1; i++ {
		j := i + int(boundedUint64(g, uint64(n-i)))
		result[i], result[j] = result[j], result[i]
	}
	return result
}

// RollDice rolls two standard six-sided dice from g's stream.
func RollDice(g *PCG64DXSM) (die1, die2 int) {
	die1 = int(boundedUint64(g, 6)) + 1
	die2 = int(boundedUint64(g, 6)) + 1
	return die1, die2
}

// GenerateShuffledWallAndDice shuffles the 136-tile wall and rolls the
// wall-break dice from a single deterministic stream for (seedHex,
// roundNumber). Order matches the physical ritual: the wall is built
// (shuffled) before the dice are rolled, so dice values are fully
// determined by seed and round.
func GenerateShuffledWallAndDice(seedHex string, roundNumber uint32) (tiles []int, die1, die2 int, err error) {
	g, err := deriveRoundPCG(seedHex, roundNumber)
	if err != nil {
		return nil, 0, 0, err
	}
	base := make([]int, TotalWallSize)
	for i := range base {
		base[i] = i
	}
	shuffled := fisherYatesShuffle(base, g)
	d1, d2 := RollDice(g)
	return shuffled, d1, d2, nil
}

// DetermineFirstDealer simulates the two-dice-roll method (二度振り) for
// choosing the game's first dealer: provisional East rolls, then the
// provisional dealer rolls again to pick the real first dealer. This
// nearly eliminates the bias of a single roll. Uses a dedicated PCG
// stream (domain-separated from the wall-shuffle stream) derived from the
// game seed.
func DetermineFirstDealer(seedHex string) (dealerSeat int, firstDice [2]int, secondDice [2]int, err error) {
	g, err := deriveDealerPCG(seedHex)
	if err != nil {
		return 0, firstDice, secondDice, err
	}
	d1a, d1b := RollDice(g)
	firstDice = [2]int{d1a, d1b}
	tempDealer := (d1a + d1b - 1) % 4

	d2a, d2b := RollDice(g)
	secondDice = [2]int{d2a, d2b}
	dealerSeat = (tempDealer + d2a + d2b - 1) % 4
	return dealerSeat, firstDice, secondDice, nil
}

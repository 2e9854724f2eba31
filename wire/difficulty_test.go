package wire

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

func TestCompactToBigMainnetGenesisBits(t *testing.T) {
	// 0x1d00ffff is Bitcoin mainnet's genesis difficulty bits, decoding
	// to the target 0x00ffff * 2^(8*(0x1d-3)).
	got := CompactToBig(0x1d00ffff)
	if got.Sign() <= 0 {
		t.Fatalf("decoded target is non-positive: %v", got)
	}
	if got.BitLen() != 224 {
		t.Fatalf("decoded target bit length = %d, want 224", got.BitLen())
	}
}

func TestCompactToBigNegativeBitSetYieldsNegativeTarget(t *testing.T) {
	// 0x04923456: exponent 4, mantissa 0x123456 with the sign bit set,
	// decoding to -0x12345600.
	got := CompactToBig(0x04923456)
	if got.Sign() >= 0 {
		t.Fatalf("expected a negative target when the sign bit is set, got %v", got)
	}
}

func TestCompactToBigSmallExponent(t *testing.T) {
	got := CompactToBig(0x02008000)
	if got.Sign() <= 0 {
		t.Fatalf("expected a positive target for exponent <= 3, got %v", got)
	}
}

func TestHashMeetsTargetEasyBitsAcceptsHashAtTarget(t *testing.T) {
	// 0x207fffff decodes to 0x7fffff * 2^232; a hash whose three most
	// significant bytes are 7f ff ff and the rest zero equals it exactly.
	var hash chainhash.Hash
	hash[31] = 0x7f
	hash[30] = 0xff
	hash[29] = 0xff
	if !HashMeetsTarget(hash, 0x207fffff) {
		t.Fatal("expected the maximum regtest-style target to accept a hash equal to it")
	}
}

func TestHashMeetsTargetZeroHashAlwaysPasses(t *testing.T) {
	var hash chainhash.Hash
	if !HashMeetsTarget(hash, 0x1d00ffff) {
		t.Fatal("expected the all-zero hash to meet any positive target")
	}
}

func TestHashMeetsTargetRejectsNonPositiveTarget(t *testing.T) {
	var hash chainhash.Hash
	if HashMeetsTarget(hash, 0x01800001) {
		t.Fatal("expected a negative-sign-bit target to reject every hash")
	}
}

func TestHashMeetsTargetAboveTargetFails(t *testing.T) {
	var hash chainhash.Hash
	for i := range hash {
		hash[i] = 0xff
	}
	if HashMeetsTarget(hash, 0x1d00ffff) {
		t.Fatal("expected an all-0xff hash to fail a tight mainnet-style target")
	}
}

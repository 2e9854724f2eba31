package wire

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// CompactToBig converts a compact-format difficulty representation (the
// nBits encoding carried in BlockHeader.Bits) to its full big.Int form,
// mirroring the original's arith_uint256::SetCompact.
func CompactToBig(bits uint32) *big.Int {
	mantissa := bits & 0x007fffff
	exponent := uint(bits >> 24)

	var target big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		target.SetInt64(int64(mantissa))
	} else {
		target.SetInt64(int64(mantissa))
		target.Lsh(&target, 8*(exponent-3))
	}

	if bits&0x00800000 != 0 {
		target.Neg(&target)
	}
	return &target
}

// HashMeetsTarget reports whether hash, read as a big-endian unsigned
// integer, is less than or equal to the target implied by bits. PoW's
// hashing inner loop calls this once per candidate nonce.
func HashMeetsTarget(hash chainhash.Hash, bits uint32) bool {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return false
	}

	hashNum := new(big.Int)
	buf := make([]byte, chainhash.HashSize)
	for i := 0; i < chainhash.HashSize; i++ {
		buf[i] = hash[chainhash.HashSize-1-i]
	}
	hashNum.SetBytes(buf)

	return hashNum.Cmp(target) <= 0
}

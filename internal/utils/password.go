package utils

import (
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword computes the legacy rolling-checksum hash: a 32-bit
// accumulator (h = h*31 + ch, expressed as shift-and-subtract) rendered in
// base 36 with the password length appended. It is deliberately weak and
// exists only so hashes match the ones already persisted by the original
// client. New deployments without legacy data should run in bcrypt mode.
func HashPassword(password string) string {
	var h int32
	for _, ch := range password {
		h = h<<5 - h + int32(ch)
	}
	// Work in int64 so negating math.MinInt32 cannot overflow.
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36) + strconv.Itoa(len(password))
}

// BcryptPassword hashes with bcrypt at the given cost.
func BcryptPassword(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword checks a plaintext password against a stored hash of
// either format. Bcrypt hashes are self-describing ("$2a$"/"$2b$"...), so
// a store can hold a mix of legacy and bcrypt entries and both verify.
func VerifyPassword(password, hash string) bool {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	return HashPassword(password) == hash
}

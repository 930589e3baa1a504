package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Base32 without easily confused characters; 12 chars give 60 bits of
// entropy per day, enough that collisions are handled by the unique index
// plus a retry rather than by hoping.
const orderNumberAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const orderNumberSuffixLen = 12

// GenerateOrderNumber returns a new order number of the form
// ORD-YYYYMMDD-XXXXXXXXXXXX with a cryptographically random suffix.
func GenerateOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, orderNumberSuffixLen)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = orderNumberAlphabet[n.Int64()]
	}

	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), string(suffix)), nil
}

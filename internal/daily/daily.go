// internal/daily/daily.go
//
// Daily boards: every player gets the same mine layout on a given UTC date.
// The layout is driven by a math/rand seed derived from HMAC(salt, YYYY-MM-DD),
// so the answer cannot be predicted without the server salt.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns a deterministic seed for the date using HMAC(salt, YYYY-MM-DD).
func Seed(date time.Time, salt string) int64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes of the MAC
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

package outbox

import (
	"math/rand"
	"strings"
	"time"
)

// retryDelay doubles from one second per failed attempt, capped at ceiling,
// plus up to spread of random jitter when rng is set.
func retryDelay(attempts int, ceiling, spread time.Duration, rng *rand.Rand) time.Duration {
	if attempts <= 0 {
		return 0
	}
	d := ceiling
	if attempts < 32 {
		if step := time.Second << (attempts - 1); step < ceiling {
			d = step
		}
	}
	if rng != nil && spread > 0 {
		d += time.Duration(rng.Int63n(int64(spread) + 1)) //nolint:gosec
	}
	return d
}

// lastError renders err for the last_error column, cut to at most limit
// bytes on a rune boundary.
func lastError(err error, limit int) string {
	if err == nil || limit <= 0 {
		return ""
	}
	return strings.ToValidUTF8(clip(err.Error(), limit), "")
}

func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

package itf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeDBName(t *testing.T) {
	assert.Equal(t, "testrank_promote_gold", sanitizeDBName("TestRank/promote (gold)"))
	assert.Equal(t, "test_db", sanitizeDBName("///"))

	long := "TestSomething/" + strings.Repeat("very_long_segment_", 6)
	got := sanitizeDBName(long)
	assert.Len(t, got, maxDBNameLength)
	assert.NotEqual(t, got, sanitizeDBName(long+"x"))
}

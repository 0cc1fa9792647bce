package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSixDigitCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateSixDigitCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestPendingCodeLifecycle(t *testing.T) {
	now := time.Now().UnixMilli()
	code, pc, err := issuePendingCode(now, 10*time.Minute)
	require.NoError(t, err)
	require.NotNil(t, pc.CodeHash)
	assert.NotEqual(t, code, *pc.CodeHash, "the raw code must never be stored")

	assert.True(t, pendingCodeMatches(pc, code, now))
	assert.False(t, pendingCodeMatches(pc, "000000", now))

	// Matching does not consume; consuming clears everything.
	assert.True(t, pendingCodeMatches(pc, code, now))
	consumePendingCode(&pc)
	assert.Nil(t, pc.CodeHash)
	assert.Nil(t, pc.CodeExpiry)
	assert.Nil(t, pc.RequestedAt)
	assert.False(t, pendingCodeMatches(pc, code, now))
}

func TestPendingCodeExpiryBehavesLikeMismatch(t *testing.T) {
	now := time.Now().UnixMilli()
	code, pc, err := issuePendingCode(now, time.Minute)
	require.NoError(t, err)

	after := now + (2 * time.Minute).Milliseconds()
	assert.False(t, pendingCodeMatches(pc, code, after))

	// The record itself is untouched; only the caller's transition clears it.
	require.NotNil(t, pc.CodeHash)
}

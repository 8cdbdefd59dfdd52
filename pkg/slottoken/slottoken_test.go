package slottoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuote() Quote {
	return Quote{
		ServiceID:       42,
		Activity:        "TENNIS",
		Date:            "2026-03-16",
		StartTime:       "10:00",
		DurationMinutes: 90,
		ResourceIDs:     []int64{1, 3},
		UnitPrice:       1500,
		PricingType:     "PER_UNIT",
	}
}

func TestIssueAndParse(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)
	now := time.Now()

	token, err := codec.Issue(testQuote(), now)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, testQuote(), *got)
}

func TestParseExpired(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)

	// Котировка выдана два часа назад при TTL в час
	token, err := codec.Issue(testQuote(), time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = codec.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseWrongSecret(t *testing.T) {
	issuer := NewCodec("secret-a", time.Hour)
	verifier := NewCodec("secret-b", time.Hour)

	token, err := issuer.Issue(testQuote(), time.Now())
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseGarbage(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)

	for _, bad := range []string{"", "not.a.jwt", "eyJhbGciOiJIUzI1NiJ9.e30."} {
		_, err := codec.Parse(bad)
		assert.ErrorIs(t, err, ErrTokenInvalid, "input %q", bad)
	}
}

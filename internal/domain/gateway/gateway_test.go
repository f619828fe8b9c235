package gateway

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMSISDN(t *testing.T) {
	cases := map[string]string{
		"+250 788 000 000": "250788000000",
		"0788000000":       "250788000000",
		"788000000":        "250788000000",
		"250788000000":     "250788000000",
		"078-800-0000":     "250788000000",
	}
	for input, want := range cases {
		got, err := NormalizeMSISDN(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, got, "input %q", input)
	}
}

func TestNormalizeMSISDNRejectsGarbage(t *testing.T) {
	_, err := NormalizeMSISDN("")
	assert.ErrorIs(t, err, ErrPhoneRequired)

	_, err = NormalizeMSISDN("not-a-number")
	assert.Error(t, err)
}

func TestParseProviderState(t *testing.T) {
	assert.Equal(t, StatePending, ParseProviderState("PENDING"))
	assert.Equal(t, StateSuccessful, ParseProviderState("successful"))
	assert.Equal(t, StateFailed, ParseProviderState("Failed"))
	assert.Equal(t, StateUnknown, ParseProviderState("EXPLODED"))
	assert.Equal(t, StateUnknown, ParseProviderState(""))
}

func TestGatewayErrorWrapping(t *testing.T) {
	inner := errors.New("connection refused")
	err := &Error{Op: "submit", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.True(t, IsGatewayError(err))
	assert.Contains(t, err.Error(), "submit")

	assert.False(t, IsGatewayError(errors.New("plain")))
}

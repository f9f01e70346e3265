package accounts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatLogLine(t *testing.T) {
	assert.Equal(t,
		"[ERR] ACCOUNTS login failed",
		formatLogLine("ERR", "login failed", nil),
	)

	assert.Equal(t,
		"[WRN] ACCOUNTS relay request failed endpoint=http://provider error=boom",
		formatLogLine("WRN", "relay request failed", []any{
			"endpoint", "http://provider",
			"error", errors.New("boom"),
		}),
	)

	// A dangling key is printed, never silently dropped.
	assert.Equal(t,
		"[INF] ACCOUNTS odd args leftover",
		formatLogLine("INF", "odd args", []any{"leftover"}),
	)
}

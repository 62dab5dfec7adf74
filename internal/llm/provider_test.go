package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &CallError{Provider: "openai", LatencyMs: 840, Err: inner}

	assert.Equal(t, "openai completion failed: connection refused", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestLatency(t *testing.T) {
	err := &CallError{Provider: "anthropic", LatencyMs: 1200, Err: errors.New("overloaded")}

	assert.Equal(t, int64(1200), Latency(err))
	assert.Equal(t, int64(1200), Latency(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, int64(0), Latency(errors.New("plain error")))
	assert.Equal(t, int64(0), Latency(nil))
}

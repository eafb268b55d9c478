//go:build integration

package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCounter(t *testing.T) {
	counter, err := NewCounter("")
	require.NoError(t, err)
	require.NotNil(t, counter.encoding)
}

func TestCounter_Count(t *testing.T) {
	counter, err := NewCounter(DefaultEncoding)
	require.NoError(t, err)

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"empty string", "", 0},
		{"simple english", "Hello, World!", 4},
		{"longer text", "This is a test sentence with multiple words.", 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, counter.Count(tt.text))
		})
	}
}

func TestCounter_NilSafe(t *testing.T) {
	var c *Counter
	assert.Equal(t, 0, c.Count("anything"))
}

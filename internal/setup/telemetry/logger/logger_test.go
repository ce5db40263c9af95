package logger_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robalyx/slashcore/internal/setup/telemetry/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBuffer(t *testing.T) {
	t.Parallel()

	rb := logger.NewRingBuffer(3)
	assert.Nil(t, rb.Lines())

	rb.Add("a")
	rb.Add("b")
	assert.Equal(t, []string{"a", "b"}, rb.Lines())

	rb.Add("c")
	rb.Add("d")
	rb.Add("e")
	assert.Equal(t, []string{"c", "d", "e"}, rb.Lines())
	assert.Equal(t, 3, rb.Len())
	assert.Equal(t, 3, rb.Cap())
}

func TestRingBufferMinimumCapacity(t *testing.T) {
	t.Parallel()

	rb := logger.NewRingBuffer(0)
	rb.Add("a")
	rb.Add("b")
	assert.Equal(t, []string{"b"}, rb.Lines())
}

func TestLogRotatorKeepsNewestLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.log")
	rotator, err := logger.NewLogRotator(path, 5)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rotator.Close() })

	for i := range 12 {
		_, err := fmt.Fprintf(rotator, "line %d\n", i)
		require.NoError(t, err)
	}
	require.NoError(t, rotator.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	// Rotation after line 9 keeps lines 5-9, then 10 and 11 are appended.
	assert.Equal(t, []string{
		"line 5", "line 6", "line 7", "line 8", "line 9", "line 10", "line 11",
	}, lines)
}

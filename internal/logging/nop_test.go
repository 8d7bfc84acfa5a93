package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNopLogger(t *testing.T) {
	logger := NewNop()

	require.NotPanics(t, func() {
		logger.Debug("debug", "k", "v")
		logger.Info("info")
		logger.Warn("warn", "k")
		logger.Error("error", "k", 1)
		logger.Fatal("fatal")
	})
}

func TestFormatKeyValues(t *testing.T) {
	require.Equal(t, "", formatKeyValues(nil))
	require.Equal(t, "a=1 b=two", formatKeyValues([]any{"a", 1, "b", "two"}))
	require.Equal(t, "a=1 dangling=<missing>", formatKeyValues([]any{"a", 1, "dangling"}))
}

func TestTestLogger(t *testing.T) {
	logger := NewTest(t)

	require.NotPanics(t, func() {
		logger.Debug("debug", "k", "v")
		logger.Info("info")
		logger.Warn("warn")
		logger.Error("error")
	})
}

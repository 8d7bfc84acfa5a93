package testing

import (
	"testing"

	"github.com/arloliu/coalesce/internal/logging"
	"github.com/arloliu/coalesce/types"
)

// NewTestLogger creates a logger that writes to the test log.
// This is useful for seeing manager and channel output during test runs.
func NewTestLogger(tb testing.TB) types.Logger {
	return logging.NewTest(tb)
}

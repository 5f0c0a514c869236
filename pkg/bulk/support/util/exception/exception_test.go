package exception

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBulkError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewBulkError("remote", "analysis request failed", cause)

	assert.Equal(t, "remote", err.Module)
	assert.Equal(t, "analysis request failed", err.Message)
	assert.Equal(t, cause, err.OriginalErr)
	assert.NotEmpty(t, err.StackTrace)
	assert.Equal(t, "[remote] analysis request failed: connection refused", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestNewBulkError_NoCause(t *testing.T) {
	err := NewBulkError("coordinator", "run already in progress", nil)
	assert.Equal(t, "[coordinator] run already in progress", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestNewBulkErrorf(t *testing.T) {
	cause := errors.New("timeout")
	err := NewBulkErrorf("executor", "item '%s' failed after %d ms", "rec-42", 1500, cause)

	assert.Equal(t, "item 'rec-42' failed after 1500 ms", err.Message)
	assert.Equal(t, cause, err.OriginalErr)

	// Without a trailing error, all arguments feed the format string.
	err = NewBulkErrorf("executor", "batch %d resolved", 3)
	assert.Equal(t, "batch 3 resolved", err.Message)
	assert.Nil(t, err.OriginalErr)
}

func TestIsBulkError(t *testing.T) {
	assert.True(t, IsBulkError(NewBulkError("export", "write failed", nil)))
	assert.False(t, IsBulkError(errors.New("plain")))
	assert.False(t, IsBulkError(nil))
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", ExtractErrorMessage(nil))
	assert.Equal(t, "plain failure", ExtractErrorMessage(errors.New("plain failure")))

	// BulkError yields the clean Message, not the decorated Error() string.
	be := NewBulkError("remote", "missing transcript", fmt.Errorf("status 422"))
	assert.Equal(t, "missing transcript", ExtractErrorMessage(be))
}

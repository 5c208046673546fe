package staticgate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuffClass(t *testing.T) {
	assert.Equal(t, IssueFatal, ruffClass("E999"))
	assert.Equal(t, IssueFatal, ruffClass("F821"))
	assert.Equal(t, IssueError, ruffClass("E501"))
	assert.Equal(t, IssueError, ruffClass("F401"))
	assert.Equal(t, IssueWarning, ruffClass("B006"))
}

func TestIgnoreExitError_PropagatesNonExitErrors(t *testing.T) {
	assert.NoError(t, ignoreExitError(nil))
	assert.Error(t, ignoreExitError(errors.New("exec: not started")))
}

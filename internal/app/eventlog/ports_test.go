package eventlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaughtUpRunsOnce(t *testing.T) {
	calls := 0
	o := NewSubscribeOptions(OnCaughtUp(func() { calls++ }))

	o.CaughtUp()
	o.CaughtUp()

	assert.Equal(t, 1, calls)
}

func TestCaughtUpWithoutOptionIsNoop(t *testing.T) {
	o := NewSubscribeOptions()
	assert.NotPanics(t, o.CaughtUp)
}

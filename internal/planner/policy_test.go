package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_FillsPolicyDefaults(t *testing.T) {
	assert.Equal(t, DefaultPolicy(), New(Policy{}).Policy())

	got := New(Policy{BlockDays: 1, VerificationWindow: time.Minute}).Policy()
	assert.Equal(t, 1, got.BlockDays)
	assert.Equal(t, time.Minute, got.VerificationWindow)
	assert.Equal(t, DefaultPolicy().MissedThreshold, got.MissedThreshold)
}

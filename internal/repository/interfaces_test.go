package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyNextAttempt(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	p := RetryPolicy{MaxRetries: 3, Delay: 5 * time.Second}

	at, dead := p.NextAttempt(now, 1)
	assert.False(t, dead)
	assert.Equal(t, now.Add(5*time.Second), at)

	at, dead = p.NextAttempt(now, 2)
	assert.False(t, dead)
	assert.Equal(t, now.Add(10*time.Second), at)

	_, dead = p.NextAttempt(now, 3)
	assert.True(t, dead)
}

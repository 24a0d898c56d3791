package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestStatusTransitions(t *testing.T) {
	assert.False(t, StatusPending.Terminal())

	for _, to := range []RequestStatus{StatusAccepted, StatusDeclined, StatusCanceled} {
		assert.True(t, StatusPending.CanTransition(to), "pending -> %s", to)
		assert.True(t, to.Terminal())
		for _, next := range []RequestStatus{StatusPending, StatusAccepted, StatusDeclined, StatusCanceled} {
			assert.False(t, to.CanTransition(next), "%s -> %s", to, next)
		}
	}

	// Self-loops and unknown states are never legal.
	assert.False(t, StatusPending.CanTransition(StatusPending))
	assert.False(t, RequestStatus("bogus").CanTransition(StatusAccepted))
}

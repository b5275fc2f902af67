package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReviewEditableAt(t *testing.T) {
	now := time.Now()

	unsubmitted := Stage1Review{}
	assert.True(t, unsubmitted.EditableAt(now))

	recent := now.Add(-time.Hour)
	inside := Stage1Review{IsSubmitted: true, SubmittedAt: &recent}
	assert.True(t, inside.EditableAt(now))

	old := now.Add(-ReviewEditWindow - time.Minute)
	outside := Stage1Review{IsSubmitted: true, SubmittedAt: &old}
	assert.False(t, outside.EditableAt(now))

	// The flag without a timestamp stays editable
	flagOnly := Stage2Review{IsSubmitted: true}
	assert.True(t, flagOnly.EditableAt(now))
}

func TestApplicationStatusIsRejected(t *testing.T) {
	assert.True(t, ApplicationStage1Rejected.IsRejected())
	assert.True(t, ApplicationStage2Rejected.IsRejected())
	assert.True(t, ApplicationStage3Rejected.IsRejected())
	assert.False(t, ApplicationSubmitted.IsRejected())
	assert.False(t, ApplicationApproved.IsRejected())
}

package funnel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(t time.Time) *time.Time { return &t }

func TestBucketPredicates(t *testing.T) {
	t.Run("Overdue", func(t *testing.T) {
		l := LeadSnapshot{Status: StatusCalled, NextFollowupDate: ptr(now.Add(-2 * time.Hour))}
		assert.True(t, IsOverdue(l, now))

		l.Status = StatusJoined
		assert.False(t, IsOverdue(l, now), "joined leads are out of the funnel")

		l = LeadSnapshot{Status: StatusCalled}
		assert.False(t, IsOverdue(l, now), "no followup date means unscheduled, not overdue")
	})

	t.Run("Unscheduled", func(t *testing.T) {
		assert.True(t, IsUnscheduled(LeadSnapshot{Status: StatusNew}))
		assert.True(t, IsUnscheduled(LeadSnapshot{Status: StatusCalled}))
		assert.False(t, IsUnscheduled(LeadSnapshot{Status: StatusTrialScheduled}))
		assert.False(t, IsUnscheduled(LeadSnapshot{
			Status:           StatusNew,
			NextFollowupDate: ptr(now.Add(time.Hour)),
		}))
	})

	t.Run("Hot trial window", func(t *testing.T) {
		l := LeadSnapshot{Status: StatusTrialScheduled, NextFollowupDate: ptr(now.Add(12 * time.Hour))}
		assert.True(t, IsHotTrial(l, now))

		l.NextFollowupDate = ptr(now.Add(72 * time.Hour))
		assert.False(t, IsHotTrial(l, now))

		l.NextFollowupDate = ptr(now.Add(-time.Hour))
		assert.False(t, IsHotTrial(l, now), "past trials are overdue, not hot")
	})

	t.Run("Post-trial silence", func(t *testing.T) {
		l := LeadSnapshot{Status: StatusTrialAttended, UpdatedAt: now.Add(-96 * time.Hour)}
		assert.True(t, IsPostTrialSilent(l, now))

		l.UpdatedAt = now.Add(-time.Hour)
		assert.False(t, IsPostTrialSilent(l, now))
	})
}

func TestCountBuckets(t *testing.T) {
	leads := []LeadSnapshot{
		{Status: StatusNew}, // unscheduled
		{Status: StatusCalled, NextFollowupDate: ptr(now.Add(-24 * time.Hour))},                       // overdue
		{Status: StatusTrialScheduled, NextFollowupDate: ptr(now.Add(6 * time.Hour))},                 // hot trial
		{Status: StatusTrialAttended, UpdatedAt: now.Add(-100 * time.Hour)},                           // silent
		{Status: StatusTrialScheduled, NextFollowupDate: ptr(now.Add(time.Hour)), RescheduleCount: 2}, // hot + reschedule
		{Status: StatusJoined},
		{Status: StatusDead},
	}

	counts := CountBuckets(leads, now)
	assert.Equal(t, 1, counts.Overdue)
	assert.Equal(t, 1, counts.Unscheduled)
	assert.Equal(t, 2, counts.HotTrials)
	assert.Equal(t, 1, counts.Reschedule)
	assert.Equal(t, 1, counts.PostTrialSilent)
}

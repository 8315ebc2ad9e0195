package funnel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixed reference instant for age tests: after the Aug-1 cutoff.
var now = time.Date(2024, time.August, 15, 12, 0, 0, 0, time.UTC)

func TestAgeCategory(t *testing.T) {
	t.Run("Age 6 maps to U7", func(t *testing.T) {
		dob := time.Date(2018, time.March, 10, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, CategoryU7, AgeCategory(dob, now))
	})

	t.Run("Exactly 9 crosses the U9 boundary", func(t *testing.T) {
		// Turned 9 before "now": age < 9 no longer holds.
		dob := time.Date(2015, time.July, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, CategoryU11, AgeCategory(dob, now))

		// Still 8 at "now".
		dob = time.Date(2015, time.September, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, CategoryU9, AgeCategory(dob, now))
	})

	t.Run("August cutoff shifts category down before Aug 1", func(t *testing.T) {
		beforeCutoff := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

		// Born Sep 2013: age 10 on June 15 2024, minus one for the cutoff
		// rule (birthday on/after Aug 1) -> treated as 9 -> U11.
		dob := time.Date(2013, time.September, 20, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, CategoryU11, AgeCategory(dob, beforeCutoff))

		// Born May 2013: age 11, birthday before Aug 1, no extra decrement.
		dob = time.Date(2013, time.May, 20, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, CategoryU13, AgeCategory(dob, beforeCutoff))
	})

	t.Run("Monotonic in date of birth", func(t *testing.T) {
		// As DOB moves later, computed age never increases, so the band
		// index never increases either.
		rank := map[string]int{
			CategoryU7: 0, CategoryU9: 1, CategoryU11: 2, CategoryU13: 3,
			CategoryU15: 4, CategoryU17: 5, CategoryU17Plus: 6,
		}
		prev := rank[CategoryU17Plus]
		dob := time.Date(2005, time.January, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 200; i++ {
			got := rank[AgeCategory(dob, now)]
			assert.LessOrEqual(t, got, prev, "band increased as DOB moved later: %s", dob)
			prev = got
			dob = dob.AddDate(0, 1, 7)
		}
	})

	t.Run("Adult maps to U17+", func(t *testing.T) {
		dob := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, CategoryU17Plus, AgeCategory(dob, now))
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		age  time.Duration
		want Freshness
	}{
		{3 * time.Hour, FreshnessFresh},
		{10 * time.Hour, FreshnessStale},
		{30 * time.Hour, FreshnessRotten},
		{0, FreshnessFresh},
		{4 * time.Hour, FreshnessStale},
		{24 * time.Hour, FreshnessRotten},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(now.Add(-tc.age), now), "age %s", tc.age)
	}
}

func TestPreviousStatus(t *testing.T) {
	order := FunnelOrder()
	for i, s := range order {
		prev, ok := PreviousStatus(s)
		if i == 0 {
			assert.False(t, ok, "initial status must have no predecessor")
			continue
		}
		require.True(t, ok, "status %s", s)
		assert.Equal(t, order[i-1], prev, "status %s", s)
	}

	// Side states have no defined predecessor.
	_, ok := PreviousStatus(StatusNurture)
	assert.False(t, ok)
	_, ok = PreviousStatus(StatusDead)
	assert.False(t, ok)
}

func TestCanRevert(t *testing.T) {
	assert.False(t, CanRevert(StatusNew, false))
	assert.True(t, CanRevert(StatusCalled, false))
	assert.True(t, CanRevert(StatusTrialScheduled, false))
	assert.True(t, CanRevert(StatusTrialAttended, false))
	assert.False(t, CanRevert(StatusNurture, false))

	// Once a student exists, reversal goes through student correction types.
	assert.False(t, CanRevert(StatusJoined, true))
	assert.False(t, CanRevert(StatusTrialAttended, true))
}

func TestCanTransition(t *testing.T) {
	t.Run("Forward moves are direct", func(t *testing.T) {
		allowed, approval := CanTransition(StatusNew, StatusCalled)
		assert.True(t, allowed)
		assert.False(t, approval)

		allowed, approval = CanTransition(StatusTrialAttended, StatusJoined)
		assert.True(t, allowed)
		assert.False(t, approval)
	})

	t.Run("Backward moves require approval", func(t *testing.T) {
		allowed, approval := CanTransition(StatusTrialScheduled, StatusCalled)
		assert.True(t, allowed)
		assert.True(t, approval)
	})

	t.Run("Skipping stages is rejected", func(t *testing.T) {
		allowed, _ := CanTransition(StatusNew, StatusJoined)
		assert.False(t, allowed)
		allowed, _ = CanTransition(StatusCalled, StatusTrialAttended)
		assert.False(t, allowed)
	})

	t.Run("Terminal and absorbing states", func(t *testing.T) {
		for _, to := range AllStatuses() {
			allowed, _ := CanTransition(StatusJoined, to)
			assert.False(t, allowed, "Joined -> %s", to)
			allowed, _ = CanTransition(StatusDead, to)
			assert.False(t, allowed, "Dead -> %s", to)
		}
	})

	t.Run("Nurture re-enters the funnel", func(t *testing.T) {
		allowed, approval := CanTransition(StatusNurture, StatusCalled)
		assert.True(t, allowed)
		assert.False(t, approval)
	})
}

func TestValidateTransition(t *testing.T) {
	assert.NoError(t, ValidateTransition(StatusCalled, StatusTrialScheduled))
	assert.Error(t, ValidateTransition(StatusCalled, "Bogus"))
	assert.Error(t, ValidateTransition(StatusNew, StatusJoined))

	err := ValidateTransition(StatusTrialScheduled, StatusCalled)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approved status reversal")
}

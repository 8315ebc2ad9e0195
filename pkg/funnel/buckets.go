package funnel

import "time"

// LeadSnapshot is the minimal lead view the bucketing predicates need.
// The analytics service loads these in bulk and classifies them here so
// that every dashboard shares one implementation of each bucket.
type LeadSnapshot struct {
	Status           Status
	NextFollowupDate *time.Time
	UpdatedAt        time.Time
	RescheduleCount  int
	DoNotContact     bool
}

const (
	hotTrialWindow   = 48 * time.Hour
	postTrialSilence = 72 * time.Hour
)

// IsActive reports whether the lead is still in play for the sales funnel.
func IsActive(s Status) bool {
	return s != StatusJoined && s != StatusDead
}

// IsOverdue reports whether an active lead's followup date has passed.
func IsOverdue(l LeadSnapshot, now time.Time) bool {
	if !IsActive(l.Status) || l.NextFollowupDate == nil {
		return false
	}
	return l.NextFollowupDate.Before(now)
}

// IsUnscheduled reports whether an early-funnel lead has no followup at all.
func IsUnscheduled(l LeadSnapshot) bool {
	if l.Status != StatusNew && l.Status != StatusCalled {
		return false
	}
	return l.NextFollowupDate == nil
}

// IsHotTrial reports whether a trial is coming up within the next 48 hours.
func IsHotTrial(l LeadSnapshot, now time.Time) bool {
	if l.Status != StatusTrialScheduled || l.NextFollowupDate == nil {
		return false
	}
	until := l.NextFollowupDate.Sub(now)
	return until >= 0 && until <= hotTrialWindow
}

// NeedsReschedule reports whether the lead has bounced at least one trial
// and is still active.
func NeedsReschedule(l LeadSnapshot) bool {
	return IsActive(l.Status) && l.RescheduleCount > 0
}

// IsPostTrialSilent reports whether a lead attended a trial and then went
// quiet for more than 72 hours.
func IsPostTrialSilent(l LeadSnapshot, now time.Time) bool {
	if l.Status != StatusTrialAttended {
		return false
	}
	return now.Sub(l.UpdatedAt) > postTrialSilence
}

// BucketCounts aggregates the action-grid buckets over a set of leads.
type BucketCounts struct {
	Overdue         int `json:"overdue"`
	Unscheduled     int `json:"unscheduled"`
	HotTrials       int `json:"hot_trials"`
	Reschedule      int `json:"reschedule"`
	PostTrialSilent int `json:"post_trial_no_response"`
}

// CountBuckets classifies every snapshot into the action-grid buckets.
// Buckets are not mutually exclusive; a lead may count in several.
func CountBuckets(leads []LeadSnapshot, now time.Time) BucketCounts {
	var c BucketCounts
	for _, l := range leads {
		if IsOverdue(l, now) {
			c.Overdue++
		}
		if IsUnscheduled(l) {
			c.Unscheduled++
		}
		if IsHotTrial(l, now) {
			c.HotTrials++
		}
		if NeedsReschedule(l) {
			c.Reschedule++
		}
		if IsPostTrialSilent(l, now) {
			c.PostTrialSilent++
		}
	}
	return c
}

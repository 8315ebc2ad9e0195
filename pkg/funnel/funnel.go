package funnel

import (
	"fmt"
	"time"
)

// Status represents a lead's position in the sales funnel
type Status string

const (
	StatusNew            Status = "New"
	StatusCalled         Status = "Called"
	StatusTrialScheduled Status = "Trial Scheduled"
	StatusTrialAttended  Status = "Trial Attended"
	StatusJoined         Status = "Joined"
	StatusNurture        Status = "Nurture"
	StatusDead           Status = "Dead/Not Interested"
)

// funnelOrder is the forward progression of the sales funnel.
// Nurture and Dead sit outside it as side states.
var funnelOrder = []Status{
	StatusNew,
	StatusCalled,
	StatusTrialScheduled,
	StatusTrialAttended,
	StatusJoined,
}

// Rule describes what a lead in a given status may do next.
// Forward moves are performed directly by sales roles; the single-step
// backward move always goes through a team-lead approval request.
type Rule struct {
	Forward  []Status
	Backward Status // empty when no reversal exists
}

// transitions is the single transition table consulted by both the
// direct status-update path and the approval-request path.
var transitions = map[Status]Rule{
	StatusNew:            {Forward: []Status{StatusCalled, StatusNurture, StatusDead}},
	StatusCalled:         {Forward: []Status{StatusTrialScheduled, StatusNurture, StatusDead}, Backward: StatusNew},
	StatusTrialScheduled: {Forward: []Status{StatusTrialAttended, StatusNurture, StatusDead}, Backward: StatusCalled},
	StatusTrialAttended:  {Forward: []Status{StatusJoined, StatusNurture, StatusDead}, Backward: StatusTrialScheduled},
	StatusJoined:         {}, // terminal: a Student record takes over
	StatusNurture:        {Forward: []Status{StatusCalled, StatusTrialScheduled, StatusDead}},
	StatusDead:           {}, // absorbing: reactivation means a new lead
}

// AllStatuses returns every valid lead status.
func AllStatuses() []Status {
	return []Status{
		StatusNew, StatusCalled, StatusTrialScheduled, StatusTrialAttended,
		StatusJoined, StatusNurture, StatusDead,
	}
}

// IsValidStatus reports whether s is a member of the status enum.
func IsValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// FunnelOrder returns the forward funnel progression (excludes side states).
func FunnelOrder() []Status {
	out := make([]Status, len(funnelOrder))
	copy(out, funnelOrder)
	return out
}

// CanTransition reports whether a move from one status to another is
// permitted, and whether it requires a resolved approval request.
func CanTransition(from, to Status) (allowed bool, requiresApproval bool) {
	rule, ok := transitions[from]
	if !ok {
		return false, false
	}
	for _, next := range rule.Forward {
		if next == to {
			return true, false
		}
	}
	if rule.Backward != "" && rule.Backward == to {
		return true, true
	}
	return false, false
}

// PreviousStatus returns the status immediately preceding s in the funnel.
// The second return value is false for the initial status and for the
// side states, which have no single defined predecessor.
func PreviousStatus(s Status) (Status, bool) {
	rule, ok := transitions[s]
	if !ok || rule.Backward == "" {
		return "", false
	}
	return rule.Backward, true
}

// CanRevert reports whether a one-step status reversal may be requested.
// Once a lead has produced a student record, reversal is disallowed in
// favor of the dedicated student correction request types.
func CanRevert(s Status, hasStudent bool) bool {
	if hasStudent {
		return false
	}
	_, ok := PreviousStatus(s)
	return ok
}

// ValidateTransition wraps CanTransition with descriptive errors for the
// service layer.
func ValidateTransition(from, to Status) error {
	if !IsValidStatus(to) {
		return fmt.Errorf("unknown status %q", to)
	}
	allowed, requiresApproval := CanTransition(from, to)
	if !allowed {
		return fmt.Errorf("transition from %q to %q is not permitted", from, to)
	}
	if requiresApproval {
		return fmt.Errorf("transition from %q to %q requires an approved status reversal request", from, to)
	}
	return nil
}

// Age-category bands used across youth sports.
const (
	CategoryU7      = "U7"
	CategoryU9      = "U9"
	CategoryU11     = "U11"
	CategoryU13     = "U13"
	CategoryU15     = "U15"
	CategoryU17     = "U17"
	CategoryU17Plus = "U17+"
)

// AgeCategory derives the age band for a date of birth as of now.
// Age is computed as of now, then the August-1st cutoff rule applies:
// when now is before Aug 1 and the birthday falls on or after Aug 1,
// the effective age drops by one more year.
func AgeCategory(dob, now time.Time) string {
	age := now.Year() - dob.Year()
	anniversary := time.Date(now.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, now.Location())
	if now.Before(anniversary) {
		age--
	}

	cutoff := time.Date(now.Year(), time.August, 1, 0, 0, 0, 0, now.Location())
	birthdayAfterCutoff := dob.Month() > time.August || (dob.Month() == time.August && dob.Day() >= 1)
	if now.Before(cutoff) && birthdayAfterCutoff {
		age--
	}

	switch {
	case age < 7:
		return CategoryU7
	case age < 9:
		return CategoryU9
	case age < 11:
		return CategoryU11
	case age < 13:
		return CategoryU13
	case age < 15:
		return CategoryU15
	case age < 17:
		return CategoryU17
	default:
		return CategoryU17Plus
	}
}

// Freshness classifies how recently a lead was touched. Display-only; it
// never gates a transition.
type Freshness string

const (
	FreshnessFresh  Freshness = "fresh"
	FreshnessStale  Freshness = "stale"
	FreshnessRotten Freshness = "rotten"
)

const (
	freshWindow = 4 * time.Hour
	staleWindow = 24 * time.Hour
)

// Classify returns the freshness bucket for a last-updated timestamp.
func Classify(updatedAt, now time.Time) Freshness {
	age := now.Sub(updatedAt)
	switch {
	case age < freshWindow:
		return FreshnessFresh
	case age < staleWindow:
		return FreshnessStale
	default:
		return FreshnessRotten
	}
}

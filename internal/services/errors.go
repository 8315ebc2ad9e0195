package services

import "errors"

// Sentinel errors the handlers translate into structured API error codes.
var (
	// ErrNotFound means the addressed record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrLeadExists means a lead with the same phone already exists.
	ErrLeadExists = errors.New("lead with this phone already exists")

	// ErrInvalidTransition wraps a funnel rule violation.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrBatchRequired means a lead cannot join without a permanent batch.
	ErrBatchRequired = errors.New("a permanent batch is required to join")

	// ErrCapacityReached means the target batch is full.
	ErrCapacityReached = errors.New("batch capacity reached")

	// ErrAlreadyResolved means the approval request was decided by someone
	// else first.
	ErrAlreadyResolved = errors.New("approval request already resolved")

	// ErrDuplicatePending means an identical approval request is already
	// waiting for a decision.
	ErrDuplicatePending = errors.New("a pending request of this type already exists for this record")

	// ErrNotEligible means the participant does not belong to the batch
	// being marked.
	ErrNotEligible = errors.New("participant is not eligible for this batch")
)

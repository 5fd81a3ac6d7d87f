package model

import "go-production-inventory/internal/apperror"

// BatchStatus is the lifecycle state of a production batch.
type BatchStatus string

const (
	BatchPlanned    BatchStatus = "PLANNED"
	BatchInProgress BatchStatus = "IN_PROGRESS"
	BatchQCReview   BatchStatus = "QC_REVIEW"
	BatchReleased   BatchStatus = "RELEASED"
	BatchHold       BatchStatus = "HOLD"
)

// AllBatchStatuses lists every known status in lifecycle order.
var AllBatchStatuses = []BatchStatus{
	BatchPlanned,
	BatchInProgress,
	BatchQCReview,
	BatchReleased,
	BatchHold,
}

// Valid reports whether s is a known status.
func (s BatchStatus) Valid() bool {
	switch s {
	case BatchPlanned, BatchInProgress, BatchQCReview, BatchReleased, BatchHold:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the lifecycle permits moving from s to target.
// Every status must have a case here; RELEASED is terminal.
func (s BatchStatus) CanTransitionTo(target BatchStatus) bool {
	switch s {
	case BatchPlanned:
		return target == BatchInProgress
	case BatchInProgress:
		return target == BatchQCReview
	case BatchQCReview:
		return target == BatchReleased || target == BatchHold
	case BatchHold:
		return target == BatchQCReview
	case BatchReleased:
		return false
	default:
		return false
	}
}

// Transition returns target if the edge s -> target is legal, otherwise an
// INVALID_TRANSITION error naming both statuses.
func (s BatchStatus) Transition(target BatchStatus) (BatchStatus, error) {
	if !s.CanTransitionTo(target) {
		return s, apperror.InvalidTransition(string(s), string(target))
	}
	return target, nil
}

// PathTo returns the shortest sequence of legal edges leading from s to target,
// excluding s itself. An empty path means s == target.
func (s BatchStatus) PathTo(target BatchStatus) ([]BatchStatus, error) {
	if s == target {
		return nil, nil
	}
	prev := map[BatchStatus]BatchStatus{s: s}
	queue := []BatchStatus{s}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range AllBatchStatuses {
			if _, seen := prev[next]; seen || !current.CanTransitionTo(next) {
				continue
			}
			prev[next] = current
			if next == target {
				var path []BatchStatus
				for step := target; step != s; step = prev[step] {
					path = append([]BatchStatus{step}, path...)
				}
				return path, nil
			}
			queue = append(queue, next)
		}
	}
	return nil, apperror.InvalidTransition(string(s), string(target))
}

// IsMutable reports whether batch details may still be edited or the batch soft-deleted.
func (s BatchStatus) IsMutable() bool {
	return s == BatchPlanned || s == BatchInProgress
}

package service

import (
	"fmt"
	"strconv"

	"go-production-inventory/internal/apperror"

	"github.com/google/uuid"
)

// AllocationInput is a planned quantity of a batch destined for one location.
type AllocationInput struct {
	LocationID uuid.UUID `json:"location_id"`
	Quantity   int       `json:"quantity"`
}

// AllocationError explains why a set of allocations was rejected. Sum and TotalUnits let the
// caller show the shortfall or overage; LocationID names the offending entry for duplicate or
// negative quantities.
type AllocationError struct {
	Reason     string
	Sum        int
	TotalUnits int
	LocationID uuid.UUID
}

const (
	allocationReasonSum       = "sum"
	allocationReasonDuplicate = "duplicate_location"
	allocationReasonNegative  = "negative_quantity"
	allocationReasonLocation  = "missing_location"
)

func (e *AllocationError) Error() string {
	switch e.Reason {
	case allocationReasonDuplicate:
		return fmt.Sprintf("location %s is allocated more than once", e.LocationID)
	case allocationReasonNegative:
		return fmt.Sprintf("allocation for location %s has a negative quantity", e.LocationID)
	case allocationReasonLocation:
		return "every allocation needs a location"
	}
	diff := e.TotalUnits - e.Sum
	if diff > 0 {
		return fmt.Sprintf("allocations total %d of %d units (%d short)", e.Sum, e.TotalUnits, diff)
	}
	return fmt.Sprintf("allocations total %d of %d units (%d over)", e.Sum, e.TotalUnits, -diff)
}

// Unwrap exposes the error as ALLOCATION_MISMATCH with its figures as metadata.
func (e *AllocationError) Unwrap() error {
	metadata := map[string]string{
		"Reason":     e.Reason,
		"Sum":        strconv.Itoa(e.Sum),
		"TotalUnits": strconv.Itoa(e.TotalUnits),
		"Difference": strconv.Itoa(e.TotalUnits - e.Sum),
	}
	if e.LocationID != uuid.Nil {
		metadata["LocationID"] = e.LocationID.String()
	}
	return apperror.WithMetadata(apperror.CodeAllocationMismatch, e.Error(), metadata)
}

// ValidateAllocations accepts an empty set, or a set with distinct locations, non-negative
// quantities and a sum equal to totalUnits.
func ValidateAllocations(totalUnits int, allocations []AllocationInput) error {
	if len(allocations) == 0 {
		return nil
	}

	sum := 0
	seen := make(map[uuid.UUID]struct{}, len(allocations))
	for _, a := range allocations {
		sum += a.Quantity
		if a.LocationID == uuid.Nil {
			return &AllocationError{Reason: allocationReasonLocation, TotalUnits: totalUnits}
		}
		if a.Quantity < 0 {
			return &AllocationError{Reason: allocationReasonNegative, TotalUnits: totalUnits, LocationID: a.LocationID}
		}
		if _, dup := seen[a.LocationID]; dup {
			return &AllocationError{Reason: allocationReasonDuplicate, TotalUnits: totalUnits, LocationID: a.LocationID}
		}
		seen[a.LocationID] = struct{}{}
	}

	if sum != totalUnits {
		return &AllocationError{Reason: allocationReasonSum, Sum: sum, TotalUnits: totalUnits}
	}
	return nil
}

func allocationLocationIDs(allocations []AllocationInput) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(allocations))
	for _, a := range allocations {
		ids = append(ids, a.LocationID)
	}
	return ids
}

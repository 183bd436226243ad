package services

import "errors"

// Sentinel errors returned for predictable client-visible cases so handlers
// can map them to HTTP results consistently.
var (
	// ErrReviewNotFound is returned when a resolution targets a review that
	// does not exist.
	ErrReviewNotFound = errors.New("review not found")

	// ErrProcedureNotFound is returned when the review's owning procedure is
	// missing.
	ErrProcedureNotFound = errors.New("procedure not found")

	// ErrInvalidResolutionStatus is returned when a resolution carries a
	// status outside approve/reject/request-correction.
	ErrInvalidResolutionStatus = errors.New("invalid resolution status")

	// ErrNotDirectorReview is returned when a director decision targets a
	// review row that is not the reserved director slot.
	ErrNotDirectorReview = errors.New("review is not a director review")
)

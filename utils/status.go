// utils/status.go - Status code helpers shared by controllers.
package utils

import (
	"strings"

	"permit-management-api/models"
)

// resolutionSynonyms maps the decision spellings clients send to canonical
// resolution codes.
var resolutionSynonyms = map[string]int{
	"approve":            models.ResolutionApprove,
	"approved":           models.ResolutionApprove,
	"agree":              models.ResolutionApprove,
	"reject":             models.ResolutionReject,
	"rejected":           models.ResolutionReject,
	"disagree":           models.ResolutionReject,
	"prevention":         models.ResolutionRequestCorrection,
	"correction":         models.ResolutionRequestCorrection,
	"request_correction": models.ResolutionRequestCorrection,
	"needs_correction":   models.ResolutionRequestCorrection,
}

// ResolutionStatusFromString resolves a client-supplied decision string to a
// resolution status code.
func ResolutionStatusFromString(decision string) (int, bool) {
	status, ok := resolutionSynonyms[strings.ToLower(strings.TrimSpace(decision))]
	return status, ok
}

// ReviewStatusLabel maps a review status code to its display name.
func ReviewStatusLabel(code int) string {
	switch code {
	case models.ReviewStatusPending:
		return "pending"
	case models.ReviewStatusApproved:
		return "approved"
	case models.ReviewStatusRejected:
		return "rejected"
	case models.ReviewStatusPrevention:
		return "prevention"
	case models.ReviewStatusLicenseIssued:
		return "license_issued"
	}
	return "unknown"
}

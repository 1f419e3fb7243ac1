package enums

import "fmt"

// ApplicationStatus is persisted by symbolic name; the spellings are part of
// the external contract and must not change.
type ApplicationStatus string

const (
	ApplicationStatusDraft               ApplicationStatus = "Draft"
	ApplicationStatusPendingVerification ApplicationStatus = "PendingVerification"
	ApplicationStatusApproved            ApplicationStatus = "Approved"
	ApplicationStatusRejected            ApplicationStatus = "Rejected"
	ApplicationStatusExceptionReview     ApplicationStatus = "ExceptionReview"
	ApplicationStatusRevoked             ApplicationStatus = "Revoked"
)

var validApplicationStatuses = []ApplicationStatus{
	ApplicationStatusDraft,
	ApplicationStatusPendingVerification,
	ApplicationStatusApproved,
	ApplicationStatusRejected,
	ApplicationStatusExceptionReview,
	ApplicationStatusRevoked,
}

// String implements fmt.Stringer.
func (s ApplicationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known application status.
func (s ApplicationStatus) IsValid() bool {
	for _, candidate := range validApplicationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseApplicationStatus converts raw input into ApplicationStatus.
func ParseApplicationStatus(value string) (ApplicationStatus, error) {
	for _, candidate := range validApplicationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid application status %q", value)
}

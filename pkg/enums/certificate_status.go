package enums

import "fmt"

// CertificateStatus is persisted by symbolic name, same contract as
// ApplicationStatus.
type CertificateStatus string

const (
	CertificateStatusActive  CertificateStatus = "Active"
	CertificateStatusRevoked CertificateStatus = "Revoked"
	CertificateStatusExpired CertificateStatus = "Expired"
)

var validCertificateStatuses = []CertificateStatus{
	CertificateStatusActive,
	CertificateStatusRevoked,
	CertificateStatusExpired,
}

// String implements fmt.Stringer.
func (s CertificateStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known certificate status.
func (s CertificateStatus) IsValid() bool {
	for _, candidate := range validCertificateStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCertificateStatus converts raw input into CertificateStatus.
func ParseCertificateStatus(value string) (CertificateStatus, error) {
	for _, candidate := range validCertificateStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid certificate status %q", value)
}

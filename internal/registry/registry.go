package registry

import (
	"context"

	"github.com/google/uuid"
)

// Record is a minimal identity-registry entry for a National Identification
// Number lookup.
type Record struct {
	ReferenceID uuid.UUID
	NIN         string
	Valid       bool
}

// Client resolves National Identification Numbers against the identity
// registry.
type Client interface {
	LookupNIN(ctx context.Context, nin string) (*Record, error)
}

type formatClient struct{}

// NewFormatClient returns a registry client that accepts any NIN of exactly
// eleven ASCII digits. It stands in for the national registry integration,
// which exposes no public verification API.
func NewFormatClient() Client {
	return formatClient{}
}

func (formatClient) LookupNIN(_ context.Context, nin string) (*Record, error) {
	return &Record{
		ReferenceID: uuid.New(),
		NIN:         nin,
		Valid:       ValidNINFormat(nin),
	}, nil
}

// ValidNINFormat reports whether nin is exactly eleven ASCII digits.
func ValidNINFormat(nin string) bool {
	if len(nin) != 11 {
		return false
	}
	for i := 0; i < len(nin); i++ {
		if nin[i] < '0' || nin[i] > '9' {
			return false
		}
	}
	return true
}

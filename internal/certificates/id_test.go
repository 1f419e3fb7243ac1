package certificates

import (
	"strings"
	"testing"
	"time"
)

func TestNewCertificateIDFormat(t *testing.T) {
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		state  string
		prefix string
	}{
		{state: "Lagos", prefix: "LAG"},
		{state: "Oyo", prefix: "OYO"},
		{state: "FC", prefix: "FC"},
	}

	for _, tt := range tests {
		id := newCertificateID(tt.state, now, 1234)
		if !CertificateIDPattern.MatchString(id) {
			t.Errorf("id %q does not match the required pattern", id)
		}
		if !strings.HasPrefix(id, tt.prefix+"-20250901-") {
			t.Errorf("id %q missing expected prefix %s-20250901-", id, tt.prefix)
		}
	}
}

func TestRandomSuffixRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		s := randomSuffix()
		if s < 1000 || s > 9999 {
			t.Fatalf("suffix %d out of range", s)
		}
	}
}

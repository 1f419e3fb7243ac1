package certificates

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// CertificateIDPattern is the externally visible id format.
var CertificateIDPattern = regexp.MustCompile(`^[A-Z]{1,3}-\d{8}-\d{4}$`)

// newCertificateID builds `<state prefix>-<UTC date>-<4 digit suffix>`.
// Uniqueness is the caller's problem; the suffix alone is not collision-free.
func newCertificateID(state string, now time.Time, suffix int) string {
	prefix := strings.ToUpper(state)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, now.UTC().Format("20060102"), suffix)
}

// randomSuffix returns a value in [1000, 9999].
func randomSuffix() int {
	return 1000 + rand.Intn(9000)
}

package helper

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const ticketPrefix = "ADU"

// NewTicketNumber returns ADU-YYYYMMDD-XXXXXX. The suffix is random, so callers retry on a unique violation.
func NewTicketNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return ticketPrefix + "-" + now.Format("20060102") + "-" + suffix
}

func ValidTicketNumber(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] != ticketPrefix || len(parts[2]) != 6 {
		return false
	}
	if _, err := time.Parse("20060102", parts[1]); err != nil {
		return false
	}
	for _, r := range parts[2] {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}

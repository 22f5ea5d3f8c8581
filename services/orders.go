package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderID produces a short order identifier shown to the buyer and
// quoted in the transfer comment: month-day-hour-minute plus a random
// four-character suffix, e.g. "09011542-a3f1".
func NewOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return now.Format("01021504") + "-" + suffix
}

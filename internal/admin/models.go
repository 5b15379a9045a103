// Package admin holds the organization-wide settings managed from the admin
// console: risk threshold bands and the department list.
package admin

import (
	"time"

	dErrors "employee-compass/pkg/domain-errors"
)

// Thresholds partitions the 0-100 risk score range into three bands.
// Low covers [0, LowMax], medium (LowMax, MediumMax], high (MediumMax, 100].
type Thresholds struct {
	LowMax    int `json:"low_max"`
	MediumMax int `json:"medium_max"`
}

// Validate rejects bands that do not tile 0-100 contiguously.
func (t Thresholds) Validate() error {
	if t.LowMax < 0 || t.LowMax > 100 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "low_max %d out of range", t.LowMax)
	}
	if t.MediumMax < 0 || t.MediumMax > 100 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "medium_max %d out of range", t.MediumMax)
	}
	if t.LowMax >= t.MediumMax {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"low_max %d must be below medium_max %d", t.LowMax, t.MediumMax)
	}
	if t.MediumMax >= 100 {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"medium_max %d leaves no high band", t.MediumMax)
	}
	return nil
}

// Band returns the band name for a risk score.
func (t Thresholds) Band(score int) string {
	switch {
	case score <= t.LowMax:
		return "low"
	case score <= t.MediumMax:
		return "medium"
	default:
		return "high"
	}
}

// DefaultThresholds is the initial band layout before an admin tunes it.
var DefaultThresholds = Thresholds{LowMax: 40, MediumMax: 70}

// Department is an organizational unit employees belong to.
type Department struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

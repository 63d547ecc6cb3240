package license

import "time"

type License struct {
	ID           string     `json:"_id"`
	SoftwareName string     `json:"softwareName"`
	Vendor       string     `json:"vendor"`
	LicenseKey   string     `json:"licenseKey"`
	Seats        int        `json:"seats"`
	AssignedTo   string     `json:"assignedTo"` // user id, row owner
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Expired reports whether the license lapsed before now.
func (l *License) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

type Filter struct {
	OwnerID string
}

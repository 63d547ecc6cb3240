package hardware

import "time"

type Status string

const (
	StatusAvailable Status = "available"
	StatusAssigned  Status = "assigned"
	StatusRepair    Status = "in_repair"
	StatusRetired   Status = "retired"
)

type Asset struct {
	ID           string     `json:"_id"`
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	SerialNumber string     `json:"serialNumber"`
	Status       Status     `json:"status"`
	AssignedTo   string     `json:"assignedTo"` // user id, row owner
	PurchaseDate *time.Time `json:"purchaseDate,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Filter struct {
	OwnerID string
}

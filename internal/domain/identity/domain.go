package identity

import (
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Identity is the principal resolved for one request.
type Identity struct {
	ID            string `json:"id"`
	Role          Role   `json:"role"`
	Employee      string `json:"employee,omitempty"`
	MsGraphUserID string `json:"msGraphUserId,omitempty"`
	Email         string `json:"email,omitempty"`
}

// Privileged principals see every row of a listing.
func (i Identity) Privileged() bool {
	return i.Role == RoleAdmin || i.Role == RoleManager
}

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Password      string    `json:"-"`
	Role          Role      `json:"role"`
	EmployeeID    string    `json:"employee,omitempty"`
	MsGraphUserID string    `json:"msGraphUserId,omitempty"`
	RefreshToken  string    `json:"-"` // digest of the current refresh token
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) Identity() Identity {
	return Identity{
		ID:            u.ID,
		Role:          u.Role,
		Employee:      u.EmployeeID,
		MsGraphUserID: u.MsGraphUserID,
		Email:         u.Email,
	}
}

package domain

import "time"

// Role enumerates the closed set of operator roles.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleDispatcher Role = "DISPATCHER"
	RoleTechnician Role = "TECHNICIAN"
)

// User is the domain model for operators. Technicians additionally carry a
// specialty and an enabled flag; disabled technicians keep their historical
// tickets but are excluded from routing.
type User struct {
	ID           string
	Role         Role
	Name         string
	Email        string
	Specialty    string
	PasswordHash string
	Enabled      bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsTechnician reports whether the user works tickets.
func (u *User) IsTechnician() bool {
	return u.Role == RoleTechnician
}

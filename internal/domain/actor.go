package domain

import "github.com/google/uuid"

type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
	RoleOperator   Role = "operator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleFreelancer, RoleOperator:
		return true
	}
	return false
}

// Actor is the identity resolved by the external session layer.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsOperator() bool {
	return a.Role == RoleOperator
}

package domain

import "time"

// User owns every ledger row
type User struct {
	ID        int32     `json:"id"`
	Auth0ID   string    `json:"auth0Id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	GetByID(id int32) (*User, error)
	GetByAuth0ID(auth0ID string) (*User, error)
	CreateOrGetByAuth0ID(auth0ID, email string, name *string) (*User, error)
}

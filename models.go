package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the account model
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id"`
	Name          string     `bun:"name,notnull" json:"name"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	Mobile        string     `bun:"mobile,notnull" json:"mobile"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Role          Role       `bun:"role,notnull" json:"role"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Profile returns the public view of the account
func (a *Account) Profile() Profile {
	return Profile{
		ID:    a.ID.String(),
		Name:  a.Name,
		Email: a.Email,
		Role:  a.Role,
	}
}

// Profile is what login hands back about the account. It never carries
// the password hash.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// AuthenticatedIdentity is the identity decoded from a verified token. It
// lives only as long as the request it is attached to.
type AuthenticatedIdentity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsZero reports whether no identity has been set
func (i AuthenticatedIdentity) IsZero() bool {
	return i.ID == "" && i.Role == ""
}

// GetID satisfies jwtware.Identity
func (i AuthenticatedIdentity) GetID() string { return i.ID }

// GetRole satisfies jwtware.Identity
func (i AuthenticatedIdentity) GetRole() string { return string(i.Role) }

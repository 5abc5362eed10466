package identity

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrInvalidRole = errors.New("invalid role")

// Role gates endpoint access. There is no hierarchy between roles.
// @Description user role: "guest", "user", "agent" or "admin"
type Role string

const (
	// Guest is any caller without an identity record.
	Guest Role = "guest"
	User  Role = "user"
	Agent Role = "agent"
	Admin Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case Guest, User, Agent, Admin:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Identity binds an email to a role.
// @Description identity record
type Identity struct {
	ID        string    `json:"_id" bson:"_id,omitempty" gorm:"primaryKey"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email" gorm:"uniqueIndex;not null"`
	Photo     string    `json:"photo,omitempty" bson:"photo,omitempty"`
	Role      Role      `json:"role" bson:"role" gorm:"type:text;default:'user'"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (i *Identity) DocumentID() string      { return i.ID }
func (i *Identity) SetDocumentID(id string) { i.ID = id }

// EffectiveRole treats records without a recognized role as plain users.
func (i *Identity) EffectiveRole() Role {
	r, err := ParseRole(string(i.Role))
	if err != nil || r == Guest {
		return User
	}
	return r
}

func NewIdentity(name, email, photo string) *Identity {
	return &Identity{
		Name:      name,
		Email:     strings.TrimSpace(email),
		Photo:     photo,
		Role:      User,
		CreatedAt: time.Now().UTC(),
	}
}

package review

import (
	"errors"
	"time"
)

var (
	ErrNotAuthor     = errors.New("review belongs to another user")
	ErrInvalidRating = errors.New("rating must be between 0 and 5")
)

type Review struct {
	ID         string    `json:"_id" bson:"_id,omitempty" gorm:"primaryKey"`
	Email      string    `json:"email" bson:"email" gorm:"index"`
	Name       string    `json:"name" bson:"name"`
	Photo      string    `json:"photo" bson:"photo"`
	PropertyID string    `json:"propertyId" bson:"propertyId" gorm:"column:propertyId"`
	HomeName   string    `json:"home_name" bson:"home_name"`
	HomeAgent  string    `json:"home_agent" bson:"home_agent"`
	Rating     int       `json:"rating" bson:"rating"`
	Comment    string    `json:"comment" bson:"comment"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

func (r *Review) DocumentID() string      { return r.ID }
func (r *Review) SetDocumentID(id string) { r.ID = id }

type CreateRequest struct {
	Email      string `json:"email" binding:"required"`
	Name       string `json:"name"`
	Photo      string `json:"photo"`
	PropertyID string `json:"propertyId"`
	HomeName   string `json:"home_name"`
	HomeAgent  string `json:"home_agent"`
	// Rating is optional; zero means not rated.
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Remover is the caller of a delete.
type Remover struct {
	Email string
	Admin bool
}

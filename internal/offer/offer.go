package offer

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidStatus = errors.New("invalid offer status")
	// ErrPaidViaCheckout is returned when a caller tries to set paid directly.
	ErrPaidViaCheckout = errors.New("offers become paid only through payment completion")
	ErrAlreadyPaid     = errors.New("offer is already paid")
)

type Status string

const (
	StatusRequested Status = "requested"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusPaid      Status = "paid"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusRequested, StatusAccepted, StatusRejected, StatusPaid:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*s = ""
		return nil
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Offer is a buyer's request to purchase the listing PropertyID. The listing
// fields are a snapshot taken when the offer is made.
type Offer struct {
	ID             string    `json:"_id" bson:"_id,omitempty" gorm:"primaryKey"`
	PropertyID     string    `json:"propertyId" bson:"propertyId" gorm:"column:propertyId;index"`
	HomeName       string    `json:"home_name" bson:"home_name"`
	HomeLocation   string    `json:"home_location" bson:"home_location"`
	HomePhoto      string    `json:"home_photo" bson:"home_photo"`
	HomeAgent      string    `json:"home_agent" bson:"home_agent"`
	HomeOwnerEmail string    `json:"home_owner_email" bson:"home_owner_email" gorm:"index"`
	BuyerName      string    `json:"buyer_name" bson:"buyer_name"`
	BuyerEmail     string    `json:"buyer_email" bson:"buyer_email" gorm:"index"`
	OfferPrice     float64   `json:"offer_price" bson:"offer_price"`
	HomeStatus     Status    `json:"home_status" bson:"home_status" gorm:"type:text;index"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

func (o *Offer) DocumentID() string      { return o.ID }
func (o *Offer) SetDocumentID(id string) { o.ID = id }

type CreateRequest struct {
	PropertyID     string  `json:"propertyId"`
	HomeName       string  `json:"home_name"`
	HomeLocation   string  `json:"home_location"`
	HomePhoto      string  `json:"home_photo"`
	HomeAgent      string  `json:"home_agent"`
	HomeOwnerEmail string  `json:"home_owner_email"`
	BuyerName      string  `json:"buyer_name"`
	BuyerEmail     string  `json:"buyer_email" binding:"required"`
	OfferPrice     float64 `json:"offer_price" binding:"gte=0"`
}

type StatusUpdate struct {
	HomeStatus Status `json:"home_status" binding:"required"`
}

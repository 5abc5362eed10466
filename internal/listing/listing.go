package listing

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/mehmetcc/homefinders-service/internal/store"
)

var (
	ErrInvalidStatus     = errors.New("invalid listing status")
	ErrInvalidPriceRange = errors.New("starting price exceeds ending price")
	ErrNotOwner          = errors.New("listing belongs to another owner")
)

// Status is the lifecycle state of a listing. Any authorized editor may set
// any status; only payment completion sets sold implicitly.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
	StatusSold     Status = "sold"
)

// ParseStatus is case-insensitive so "Verified" from older clients is accepted.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusVerified, StatusRejected, StatusSold:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

// UnmarshalJSON leaves an empty string as the zero Status, meaning "not provided".
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

// Property is a listing document.
type Property struct {
	ID                string    `json:"_id" bson:"_id,omitempty" gorm:"primaryKey"`
	HomeName          string    `json:"home_name" bson:"home_name"`
	HomeLocation      string    `json:"home_location" bson:"home_location"`
	HomeDescription   string    `json:"home_description" bson:"home_description"`
	HomeStartingPrice float64   `json:"home_starting_price" bson:"home_starting_price"`
	HomeEndingPrice   float64   `json:"home_ending_price" bson:"home_ending_price"`
	HomeType          string    `json:"home_type" bson:"home_type"`
	HomeArea          string    `json:"home_area" bson:"home_area"`
	HomeBed           int       `json:"home_bed" bson:"home_bed"`
	HomeBath          int       `json:"home_bath" bson:"home_bath"`
	HomeGarage        int       `json:"home_garage" bson:"home_garage"`
	HomeSize          string    `json:"home_size" bson:"home_size"`
	HomeStatus        Status    `json:"home_status" bson:"home_status" gorm:"type:text;index"`
	HomeAgent         string    `json:"home_agent" bson:"home_agent"`
	HomePhoto         string    `json:"home_photo" bson:"home_photo"`
	HomeOwnerName     string    `json:"home_owner_name" bson:"home_owner_name"`
	HomeOwnerEmail    string    `json:"home_owner_email" bson:"home_owner_email" gorm:"index"`
	HomeOwnerPhone    string    `json:"home_owner_phone" bson:"home_owner_phone"`
	HomeUserPhoto     string    `json:"home_user_photo" bson:"home_user_photo"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
}

func (p *Property) DocumentID() string      { return p.ID }
func (p *Property) SetDocumentID(id string) { p.ID = id }

// PropertyInput holds every client-editable field of a listing.
type PropertyInput struct {
	HomeName          string  `json:"home_name"`
	HomeLocation      string  `json:"home_location"`
	HomeDescription   string  `json:"home_description"`
	HomeStartingPrice float64 `json:"home_starting_price" binding:"gte=0"`
	HomeEndingPrice   float64 `json:"home_ending_price" binding:"gte=0"`
	HomeType          string  `json:"home_type"`
	HomeArea          string  `json:"home_area"`
	HomeBed           int     `json:"home_bed" binding:"gte=0"`
	HomeBath          int     `json:"home_bath" binding:"gte=0"`
	HomeGarage        int     `json:"home_garage" binding:"gte=0"`
	HomeSize          string  `json:"home_size"`
	HomeStatus        Status  `json:"home_status"`
	HomeAgent         string  `json:"home_agent"`
	HomePhoto         string  `json:"home_photo"`
	HomeOwnerName     string  `json:"home_owner_name"`
	HomeOwnerEmail    string  `json:"home_owner_email"`
	HomeOwnerPhone    string  `json:"home_owner_phone"`
	HomeUserPhoto     string  `json:"home_user_photo"`
}

func (in PropertyInput) validate() error {
	return validatePriceRange(in.HomeStartingPrice, in.HomeEndingPrice)
}

// fields sets every field; status only when provided.
func (in PropertyInput) fields() store.Fields {
	f := store.Fields{
		"home_name":           in.HomeName,
		"home_location":       in.HomeLocation,
		"home_description":    in.HomeDescription,
		"home_starting_price": in.HomeStartingPrice,
		"home_ending_price":   in.HomeEndingPrice,
		"home_type":           in.HomeType,
		"home_area":           in.HomeArea,
		"home_bed":            in.HomeBed,
		"home_bath":           in.HomeBath,
		"home_garage":         in.HomeGarage,
		"home_size":           in.HomeSize,
		"home_agent":          in.HomeAgent,
		"home_photo":          in.HomePhoto,
		"home_owner_name":     in.HomeOwnerName,
		"home_owner_email":    in.HomeOwnerEmail,
		"home_owner_phone":    in.HomeOwnerPhone,
		"home_user_photo":     in.HomeUserPhoto,
	}
	if in.HomeStatus != "" {
		f["home_status"] = in.HomeStatus
	}
	return f
}

func (in PropertyInput) property() *Property {
	return &Property{
		HomeName:          in.HomeName,
		HomeLocation:      in.HomeLocation,
		HomeDescription:   in.HomeDescription,
		HomeStartingPrice: in.HomeStartingPrice,
		HomeEndingPrice:   in.HomeEndingPrice,
		HomeType:          in.HomeType,
		HomeArea:          in.HomeArea,
		HomeBed:           in.HomeBed,
		HomeBath:          in.HomeBath,
		HomeGarage:        in.HomeGarage,
		HomeSize:          in.HomeSize,
		HomeStatus:        in.HomeStatus,
		HomeAgent:         in.HomeAgent,
		HomePhoto:         in.HomePhoto,
		HomeOwnerName:     in.HomeOwnerName,
		HomeOwnerEmail:    in.HomeOwnerEmail,
		HomeOwnerPhone:    in.HomeOwnerPhone,
		HomeUserPhoto:     in.HomeUserPhoto,
		CreatedAt:         time.Now().UTC(),
	}
}

// AgentUpdate is the subset of fields an agent may change.
type AgentUpdate struct {
	HomeName          string  `json:"home_name"`
	HomeLocation      string  `json:"home_location"`
	HomeStartingPrice float64 `json:"home_starting_price" binding:"gte=0"`
	HomeEndingPrice   float64 `json:"home_ending_price" binding:"gte=0"`
	HomeStatus        Status  `json:"home_status"`
}

func (in AgentUpdate) fields() store.Fields {
	f := store.Fields{
		"home_name":           in.HomeName,
		"home_location":       in.HomeLocation,
		"home_starting_price": in.HomeStartingPrice,
		"home_ending_price":   in.HomeEndingPrice,
	}
	if in.HomeStatus != "" {
		f["home_status"] = in.HomeStatus
	}
	return f
}

// StatusUpdate changes only the status of a listing.
type StatusUpdate struct {
	HomeStatus Status `json:"home_status" binding:"required"`
}

// Editor is the caller of a full update.
type Editor struct {
	Email string
	Admin bool
}

func validatePriceRange(start, end float64) error {
	if end > 0 && start > end {
		return ErrInvalidPriceRange
	}
	return nil
}

package payment

import (
	"errors"
	"math"
	"time"

	"github.com/mehmetcc/homefinders-service/internal/store"
)

const Currency = "usd"

var (
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrOfferNotFound = errors.New("offer not found")
	ErrAlreadyPaid   = errors.New("offer is already paid")
)

// Record is the durable evidence of a completed purchase. PropertyID holds
// the id of the offer the payment consumed.
type Record struct {
	ID            string    `json:"_id" bson:"_id,omitempty" gorm:"primaryKey"`
	Email         string    `json:"email" bson:"email" gorm:"index"`
	Price         float64   `json:"price" bson:"price"`
	TransactionID string    `json:"transactionId" bson:"transactionId" gorm:"column:transactionId"`
	PropertyID    string    `json:"propertyId" bson:"propertyId" gorm:"column:propertyId;uniqueIndex"`
	HomeName      string    `json:"home_name" bson:"home_name"`
	Date          time.Time `json:"date" bson:"date"`
}

func (r *Record) DocumentID() string      { return r.ID }
func (r *Record) SetDocumentID(id string) { r.ID = id }

type IntentRequest struct {
	Price float64 `json:"price"`
}

type IntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type CompleteRequest struct {
	Email         string    `json:"email" binding:"required"`
	Price         float64   `json:"price"`
	TransactionID string    `json:"transactionId"`
	PropertyID    string    `json:"propertyId" binding:"required"`
	HomeName      string    `json:"home_name"`
	Date          time.Time `json:"date"`
}

// Completion is what a completed payment returns: the inserted record and
// the removal of the consumed offer.
type Completion struct {
	PaymentResult store.InsertResult `json:"paymentResult"`
	DeleteResult  store.DeleteResult `json:"deleteResult"`
}

// ToMinorUnits converts a dollar amount to cents, rounding to the nearest cent.
func ToMinorUnits(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, ErrInvalidAmount
	}
	cents := int64(math.Round(amount * 100))
	if cents < 1 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

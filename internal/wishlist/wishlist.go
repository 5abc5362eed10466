package wishlist

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/store"
)

// Entry is a listing a user saved, with enough of the listing copied to show it.
type Entry struct {
	ID                string    `json:"_id" bson:"_id,omitempty" gorm:"primaryKey"`
	Email             string    `json:"email" bson:"email" gorm:"index"`
	PropertyID        string    `json:"propertyId" bson:"propertyId" gorm:"column:propertyId"`
	HomeName          string    `json:"home_name" bson:"home_name"`
	HomeLocation      string    `json:"home_location" bson:"home_location"`
	HomePhoto         string    `json:"home_photo" bson:"home_photo"`
	HomeAgent         string    `json:"home_agent" bson:"home_agent"`
	HomeOwnerEmail    string    `json:"home_owner_email" bson:"home_owner_email"`
	HomeStartingPrice float64   `json:"home_starting_price" bson:"home_starting_price"`
	HomeEndingPrice   float64   `json:"home_ending_price" bson:"home_ending_price"`
	HomeStatus        string    `json:"home_status" bson:"home_status"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
}

func (e *Entry) DocumentID() string      { return e.ID }
func (e *Entry) SetDocumentID(id string) { e.ID = id }

type CreateRequest struct {
	Email             string  `json:"email" binding:"required"`
	PropertyID        string  `json:"propertyId" binding:"required"`
	HomeName          string  `json:"home_name"`
	HomeLocation      string  `json:"home_location"`
	HomePhoto         string  `json:"home_photo"`
	HomeAgent         string  `json:"home_agent"`
	HomeOwnerEmail    string  `json:"home_owner_email"`
	HomeStartingPrice float64 `json:"home_starting_price"`
	HomeEndingPrice   float64 `json:"home_ending_price"`
	HomeStatus        string  `json:"home_status"`
}

type Service interface {
	ListByEmail(ctx context.Context, email string) ([]Entry, error)
	Get(ctx context.Context, id string) (*Entry, error)
	Create(ctx context.Context, req CreateRequest) (store.InsertResult, error)
	Delete(ctx context.Context, id string) (store.DeleteResult, error)
}

type service struct {
	repo   store.Repository[Entry]
	logger *zap.Logger
}

func NewService(repo store.Repository[Entry], logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (s *service) ListByEmail(ctx context.Context, email string) ([]Entry, error) {
	entries, err := s.repo.Find(ctx, store.Filter{"email": email})
	if err != nil {
		s.logger.Error("failed to list wishlist", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return entries, nil
}

func (s *service) Get(ctx context.Context, id string) (*Entry, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) Create(ctx context.Context, req CreateRequest) (store.InsertResult, error) {
	res, err := s.repo.Insert(ctx, &Entry{
		Email:             req.Email,
		PropertyID:        req.PropertyID,
		HomeName:          req.HomeName,
		HomeLocation:      req.HomeLocation,
		HomePhoto:         req.HomePhoto,
		HomeAgent:         req.HomeAgent,
		HomeOwnerEmail:    req.HomeOwnerEmail,
		HomeStartingPrice: req.HomeStartingPrice,
		HomeEndingPrice:   req.HomeEndingPrice,
		HomeStatus:        req.HomeStatus,
		CreatedAt:         time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to add wishlist entry", zap.String("email", req.Email), zap.Error(err))
		return store.InsertResult{}, err
	}
	return res, nil
}

func (s *service) Delete(ctx context.Context, id string) (store.DeleteResult, error) {
	res, err := s.repo.DeleteByID(ctx, id)
	if err != nil && !errors.Is(err, store.ErrInvalidID) {
		s.logger.Error("failed to delete wishlist entry", zap.String("id", id), zap.Error(err))
	}
	return res, err
}

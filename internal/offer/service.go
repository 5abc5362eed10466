package offer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/store"
)

type Service interface {
	List(ctx context.Context) ([]Offer, error)
	Get(ctx context.Context, id string) (*Offer, error)
	// ByAgent lists offers on listings owned by email.
	ByAgent(ctx context.Context, email string) ([]Offer, error)
	ByBuyer(ctx context.Context, email string) ([]Offer, error)
	// Create stores a new offer in status requested.
	Create(ctx context.Context, req CreateRequest) (store.InsertResult, error)
	// SetStatus applies an agent decision. paid is refused.
	SetStatus(ctx context.Context, id string, status Status) (store.UpdateResult, error)
	Delete(ctx context.Context, id string) (store.DeleteResult, error)
}

type service struct {
	repo   store.Repository[Offer]
	logger *zap.Logger
}

func NewService(repo store.Repository[Offer], logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

func (s *service) List(ctx context.Context) ([]Offer, error) {
	return s.find(ctx, nil)
}

func (s *service) Get(ctx context.Context, id string) (*Offer, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrInvalidID) {
		s.logger.Error("failed to get offer", zap.String("id", id), zap.Error(err))
	}
	return o, err
}

func (s *service) ByAgent(ctx context.Context, email string) ([]Offer, error) {
	return s.find(ctx, store.Filter{"home_owner_email": email})
}

func (s *service) ByBuyer(ctx context.Context, email string) ([]Offer, error) {
	return s.find(ctx, store.Filter{"buyer_email": email})
}

func (s *service) find(ctx context.Context, filter store.Filter) ([]Offer, error) {
	offers, err := s.repo.Find(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list offers", zap.Any("filter", filter), zap.Error(err))
		return nil, err
	}
	return offers, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (store.InsertResult, error) {
	o := &Offer{
		PropertyID:     req.PropertyID,
		HomeName:       req.HomeName,
		HomeLocation:   req.HomeLocation,
		HomePhoto:      req.HomePhoto,
		HomeAgent:      req.HomeAgent,
		HomeOwnerEmail: req.HomeOwnerEmail,
		BuyerName:      req.BuyerName,
		BuyerEmail:     req.BuyerEmail,
		OfferPrice:     req.OfferPrice,
		HomeStatus:     StatusRequested,
		CreatedAt:      time.Now().UTC(),
	}
	res, err := s.repo.Insert(ctx, o)
	if err != nil {
		s.logger.Error("failed to create offer", zap.String("buyer", req.BuyerEmail), zap.Error(err))
		return store.InsertResult{}, err
	}
	return res, nil
}

func (s *service) SetStatus(ctx context.Context, id string, status Status) (store.UpdateResult, error) {
	status, err := ParseStatus(string(status))
	if err != nil {
		return store.UpdateResult{}, err
	}
	if status == StatusPaid {
		return store.UpdateResult{}, ErrPaidViaCheckout
	}
	current, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.UpdateResult{Acknowledged: true}, nil
	}
	if err != nil {
		return store.UpdateResult{}, err
	}
	if current.HomeStatus == StatusPaid {
		return store.UpdateResult{}, ErrAlreadyPaid
	}
	// Conditional on the observed status so a concurrent payment wins.
	res, err := s.repo.UpdateByIDWhere(ctx, id,
		store.Filter{"home_status": current.HomeStatus},
		store.Fields{"home_status": status})
	if err != nil {
		if !errors.Is(err, store.ErrInvalidID) {
			s.logger.Error("failed to update offer", zap.String("id", id), zap.Error(err))
		}
		return store.UpdateResult{}, err
	}
	return res, nil
}

func (s *service) Delete(ctx context.Context, id string) (store.DeleteResult, error) {
	res, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrInvalidID) {
			s.logger.Error("failed to delete offer", zap.String("id", id), zap.Error(err))
		}
		return store.DeleteResult{}, err
	}
	return res, nil
}

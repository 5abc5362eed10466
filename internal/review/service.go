package review

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/store"
)

type Service interface {
	List(ctx context.Context) ([]Review, error)
	ListByEmail(ctx context.Context, email string) ([]Review, error)
	Create(ctx context.Context, req CreateRequest) (store.InsertResult, error)
	// Delete removes a review when the remover wrote it or is an admin.
	Delete(ctx context.Context, id string, remover Remover) (store.DeleteResult, error)
}

type service struct {
	repo   store.Repository[Review]
	logger *zap.Logger
}

func NewService(repo store.Repository[Review], logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (s *service) List(ctx context.Context) ([]Review, error) {
	return s.find(ctx, nil)
}

func (s *service) ListByEmail(ctx context.Context, email string) ([]Review, error) {
	return s.find(ctx, store.Filter{"email": email})
}

func (s *service) find(ctx context.Context, filter store.Filter) ([]Review, error) {
	reviews, err := s.repo.Find(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list reviews", zap.Error(err))
		return nil, err
	}
	return reviews, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (store.InsertResult, error) {
	if req.Rating < 0 || req.Rating > 5 {
		return store.InsertResult{}, ErrInvalidRating
	}
	res, err := s.repo.Insert(ctx, &Review{
		Email:      req.Email,
		Name:       req.Name,
		Photo:      req.Photo,
		PropertyID: req.PropertyID,
		HomeName:   req.HomeName,
		HomeAgent:  req.HomeAgent,
		Rating:     req.Rating,
		Comment:    req.Comment,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to create review", zap.String("email", req.Email), zap.Error(err))
		return store.InsertResult{}, err
	}
	return res, nil
}

func (s *service) Delete(ctx context.Context, id string, remover Remover) (store.DeleteResult, error) {
	current, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.DeleteResult{Acknowledged: true}, nil
	}
	if err != nil {
		return store.DeleteResult{}, err
	}
	if !remover.Admin && current.Email != remover.Email {
		s.logger.Warn("review delete by non-author", zap.String("id", id), zap.String("caller", remover.Email))
		return store.DeleteResult{}, ErrNotAuthor
	}

	res, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete review", zap.String("id", id), zap.Error(err))
		return store.DeleteResult{}, err
	}
	return res, nil
}

package identity

import (
	"context"
	"errors"
	"net/mail"

	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/store"
)

var ErrInvalidEmailFormat = errors.New("invalid email format")

type Service interface {
	// Signup stores a new identity with role user. created is false when the
	// email is already registered.
	Signup(ctx context.Context, name, email, photo string) (result store.InsertResult, created bool, err error)
	List(ctx context.Context) ([]Identity, error)
	// ResolveRole reads the identity of email on every call; unknown emails are guests.
	ResolveRole(ctx context.Context, email string) (Role, error)
	HasRole(ctx context.Context, email string, role Role) (bool, error)
	SetRole(ctx context.Context, id string, role Role) (store.UpdateResult, error)
	Delete(ctx context.Context, id string) (store.DeleteResult, error)
}

type service struct {
	repo   store.Repository[Identity]
	logger *zap.Logger
}

func NewService(repo store.Repository[Identity], logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

/** CREATE */
func (s *service) Signup(ctx context.Context, name, email, photo string) (store.InsertResult, bool, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		s.logger.Warn("invalid email format", zap.String("email", email), zap.Error(err))
		return store.InsertResult{}, false, ErrInvalidEmailFormat
	}

	// The unique index on email decides; there is no check-then-insert window.
	res, err := s.repo.Insert(ctx, NewIdentity(name, email, photo))
	switch {
	case err == nil:
		return res, true, nil
	case errors.Is(err, store.ErrDuplicate):
		return store.InsertResult{}, false, nil
	default:
		s.logger.Error("failed to create identity", zap.String("email", email), zap.Error(err))
		return store.InsertResult{}, false, err
	}
}

/** READ */
func (s *service) List(ctx context.Context) ([]Identity, error) {
	identities, err := s.repo.Find(ctx, nil)
	if err != nil {
		s.logger.Error("failed to list identities", zap.Error(err))
		return nil, err
	}
	return identities, nil
}

func (s *service) ResolveRole(ctx context.Context, email string) (Role, error) {
	if email == "" {
		return Guest, nil
	}
	ident, err := s.repo.FindOne(ctx, store.Filter{"email": email})
	if errors.Is(err, store.ErrNotFound) {
		return Guest, nil
	}
	if err != nil {
		s.logger.Error("failed to resolve role", zap.String("email", email), zap.Error(err))
		return "", err
	}
	return ident.EffectiveRole(), nil
}

func (s *service) HasRole(ctx context.Context, email string, role Role) (bool, error) {
	resolved, err := s.ResolveRole(ctx, email)
	if err != nil {
		return false, err
	}
	return resolved == role, nil
}

/** UPDATE */
func (s *service) SetRole(ctx context.Context, id string, role Role) (store.UpdateResult, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return store.UpdateResult{}, err
	}
	res, err := s.repo.UpdateByID(ctx, id, store.Fields{"role": role})
	if err != nil {
		s.logger.Error("failed to update role", zap.String("id", id), zap.String("role", string(role)), zap.Error(err))
		return store.UpdateResult{}, err
	}
	return res, nil
}

/** DELETE */
func (s *service) Delete(ctx context.Context, id string) (store.DeleteResult, error) {
	res, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete identity", zap.String("id", id), zap.Error(err))
		return store.DeleteResult{}, err
	}
	return res, nil
}

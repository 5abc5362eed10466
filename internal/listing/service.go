package listing

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/cache"
	"github.com/mehmetcc/homefinders-service/internal/store"
)

const featuredCount = 4

const (
	keyAll      = "propertys:all"
	keyFeatured = "propertys:featured"
	keyVerified = "propertys:verified"
)

type Service interface {
	List(ctx context.Context) ([]Property, error)
	// Featured returns the first few listings for the landing page.
	Featured(ctx context.Context) ([]Property, error)
	Verified(ctx context.Context) ([]Property, error)
	ListByOwner(ctx context.Context, email string) ([]Property, error)
	Get(ctx context.Context, id string) (*Property, error)
	Create(ctx context.Context, in PropertyInput) (store.InsertResult, error)
	// CreateForAgent stores a pending listing owned by agentEmail unless the input names an owner.
	CreateForAgent(ctx context.Context, in PropertyInput, agentEmail string) (store.InsertResult, error)
	// Update replaces every editable field. Only admins and the listing owner may call it.
	Update(ctx context.Context, id string, editor Editor, in PropertyInput) (store.UpdateResult, error)
	AgentUpdate(ctx context.Context, id string, in AgentUpdate) (store.UpdateResult, error)
	SetStatus(ctx context.Context, id string, status Status) (store.UpdateResult, error)
	MarkSold(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) (store.DeleteResult, error)
	// DeleteOwned deletes the listing only when ownerEmail owns it.
	DeleteOwned(ctx context.Context, id, ownerEmail string) (store.DeleteResult, error)
	InvalidateCache(ctx context.Context)
}

type service struct {
	repo   store.Repository[Property]
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewService(repo store.Repository[Property], c cache.Cache, ttl time.Duration, logger *zap.Logger) Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &service{
		repo:   repo,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

/** READ */
func (s *service) List(ctx context.Context) ([]Property, error) {
	return s.cached(ctx, keyAll, func() ([]Property, error) {
		return s.repo.Find(ctx, nil)
	})
}

func (s *service) Featured(ctx context.Context) ([]Property, error) {
	return s.cached(ctx, keyFeatured, func() ([]Property, error) {
		return s.repo.Find(ctx, nil, store.Limit(featuredCount))
	})
}

func (s *service) Verified(ctx context.Context) ([]Property, error) {
	return s.cached(ctx, keyVerified, func() ([]Property, error) {
		return s.repo.Find(ctx, store.Filter{"home_status": StatusVerified})
	})
}

func (s *service) ListByOwner(ctx context.Context, email string) ([]Property, error) {
	props, err := s.repo.Find(ctx, store.Filter{"home_owner_email": email})
	if err != nil {
		s.logger.Error("failed to list listings by owner", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return props, nil
}

func (s *service) Get(ctx context.Context, id string) (*Property, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrInvalidID) {
		s.logger.Error("failed to get listing", zap.String("id", id), zap.Error(err))
	}
	return p, err
}

func (s *service) cached(ctx context.Context, key string, load func() ([]Property, error)) ([]Property, error) {
	var props []Property
	hit, err := s.cache.Get(ctx, key, &props)
	if err != nil {
		s.logger.Warn("listing cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return props, nil
	}

	props, err = load()
	if err != nil {
		s.logger.Error("failed to list listings", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	if err := s.cache.Set(ctx, key, props, s.ttl); err != nil {
		s.logger.Warn("listing cache write failed", zap.String("key", key), zap.Error(err))
	}
	return props, nil
}

// InvalidateCache drops every cached listing list.
func (s *service) InvalidateCache(ctx context.Context) {
	if err := s.cache.Delete(ctx, keyAll, keyFeatured, keyVerified); err != nil {
		s.logger.Warn("listing cache invalidation failed", zap.Error(err))
	}
}

/** CREATE */
func (s *service) Create(ctx context.Context, in PropertyInput) (store.InsertResult, error) {
	if in.HomeStatus == "" {
		in.HomeStatus = StatusPending
	}
	return s.insert(ctx, in)
}

func (s *service) CreateForAgent(ctx context.Context, in PropertyInput, agentEmail string) (store.InsertResult, error) {
	in.HomeStatus = StatusPending
	if in.HomeOwnerEmail == "" {
		in.HomeOwnerEmail = agentEmail
	}
	return s.insert(ctx, in)
}

func (s *service) insert(ctx context.Context, in PropertyInput) (store.InsertResult, error) {
	if err := in.validate(); err != nil {
		return store.InsertResult{}, err
	}
	res, err := s.repo.Insert(ctx, in.property())
	if err != nil {
		s.logger.Error("failed to create listing", zap.String("owner", in.HomeOwnerEmail), zap.Error(err))
		return store.InsertResult{}, err
	}
	s.InvalidateCache(ctx)
	return res, nil
}

/** UPDATE */
func (s *service) Update(ctx context.Context, id string, editor Editor, in PropertyInput) (store.UpdateResult, error) {
	if err := in.validate(); err != nil {
		return store.UpdateResult{}, err
	}
	current, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.UpdateResult{Acknowledged: true}, nil
	}
	if err != nil {
		return store.UpdateResult{}, err
	}
	if !editor.Admin && current.HomeOwnerEmail != editor.Email {
		s.logger.Warn("listing update by non-owner",
			zap.String("id", id), zap.String("editor", editor.Email), zap.String("owner", current.HomeOwnerEmail))
		return store.UpdateResult{}, ErrNotOwner
	}
	return s.update(ctx, id, in.fields())
}

func (s *service) AgentUpdate(ctx context.Context, id string, in AgentUpdate) (store.UpdateResult, error) {
	if err := validatePriceRange(in.HomeStartingPrice, in.HomeEndingPrice); err != nil {
		return store.UpdateResult{}, err
	}
	return s.update(ctx, id, in.fields())
}

func (s *service) SetStatus(ctx context.Context, id string, status Status) (store.UpdateResult, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return store.UpdateResult{}, err
	}
	return s.update(ctx, id, store.Fields{"home_status": status})
}

func (s *service) MarkSold(ctx context.Context, id string) error {
	res, err := s.update(ctx, id, store.Fields{"home_status": StatusSold})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *service) update(ctx context.Context, id string, fields store.Fields) (store.UpdateResult, error) {
	res, err := s.repo.UpdateByID(ctx, id, fields)
	if err != nil {
		if !errors.Is(err, store.ErrInvalidID) {
			s.logger.Error("failed to update listing", zap.String("id", id), zap.Error(err))
		}
		return store.UpdateResult{}, err
	}
	s.InvalidateCache(ctx)
	return res, nil
}

/** DELETE */
func (s *service) Delete(ctx context.Context, id string) (store.DeleteResult, error) {
	res, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrInvalidID) {
			s.logger.Error("failed to delete listing", zap.String("id", id), zap.Error(err))
		}
		return store.DeleteResult{}, err
	}
	s.InvalidateCache(ctx)
	return res, nil
}

func (s *service) DeleteOwned(ctx context.Context, id, ownerEmail string) (store.DeleteResult, error) {
	current, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.DeleteResult{Acknowledged: true}, nil
	}
	if err != nil {
		return store.DeleteResult{}, err
	}
	if current.HomeOwnerEmail != ownerEmail {
		s.logger.Warn("listing delete by non-owner", zap.String("id", id), zap.String("agent", ownerEmail))
		return store.DeleteResult{}, ErrNotOwner
	}
	return s.Delete(ctx, id)
}

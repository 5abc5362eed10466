package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/metrics"
	"github.com/mehmetcc/homefinders-service/internal/notification"
	"github.com/mehmetcc/homefinders-service/internal/offer"
	"github.com/mehmetcc/homefinders-service/internal/store"
)

// ListingMarker is the part of the listing service payment completion needs.
type ListingMarker interface {
	MarkSold(ctx context.Context, id string) error
	InvalidateCache(ctx context.Context)
}

// ReconcileReport counts the paid offers a reconcile run looked at.
type ReconcileReport struct {
	Deleted  int
	Orphaned []string
}

type Service interface {
	CreateIntent(ctx context.Context, price float64, idempotencyKey string) (string, error)
	// Complete records a payment and consumes its offer. It succeeds at most
	// once per offer.
	Complete(ctx context.Context, req CompleteRequest) (*Completion, error)
	ListByEmail(ctx context.Context, email string) ([]Record, error)
	// Reconcile deletes paid offers that already have a payment record. Paid
	// offers without one are reported; retrying their completion finishes them.
	Reconcile(ctx context.Context) (ReconcileReport, error)
}

type service struct {
	payments  store.Repository[Record]
	offers    store.Repository[offer.Offer]
	listings  ListingMarker
	tx        store.Transactor
	processor Processor
	notifier  notification.Notifier
	now       func() time.Time
	logger    *zap.Logger
}

type Dependencies struct {
	Payments  store.Repository[Record]
	Offers    store.Repository[offer.Offer]
	Listings  ListingMarker
	Tx        store.Transactor
	Processor Processor
	Notifier  notification.Notifier
	Logger    *zap.Logger
}

func NewService(deps Dependencies) Service {
	s := &service{
		payments:  deps.Payments,
		offers:    deps.Offers,
		listings:  deps.Listings,
		tx:        deps.Tx,
		processor: deps.Processor,
		notifier:  deps.Notifier,
		now:       time.Now,
		logger:    deps.Logger,
	}
	if s.tx == nil {
		s.tx = store.NoopTransactor{}
	}
	if s.notifier == nil {
		s.notifier = notification.Nop{}
	}
	return s
}

func (s *service) CreateIntent(ctx context.Context, price float64, idempotencyKey string) (string, error) {
	amount, err := ToMinorUnits(price)
	if err != nil {
		return "", err
	}
	secret, err := s.processor.CreateIntent(ctx, amount, Currency, idempotencyKey)
	if err != nil {
		s.logger.Error("failed to create payment intent", zap.Int64("amount", amount), zap.Error(err))
		return "", err
	}
	return secret, nil
}

func (s *service) Complete(ctx context.Context, req CompleteRequest) (*Completion, error) {
	if req.Price <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.Date.IsZero() {
		req.Date = s.now().UTC()
	}

	var out Completion
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		res, err := s.complete(ctx, req)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrOfferNotFound) && !errors.Is(err, ErrAlreadyPaid) && !errors.Is(err, store.ErrInvalidID) {
			s.logger.Error("payment completion failed",
				zap.String("offer", req.PropertyID), zap.String("email", req.Email), zap.Error(err))
		}
		return nil, err
	}

	metrics.RecordPaymentCompleted()
	s.listings.InvalidateCache(ctx)
	if err := s.notifier.SendPaymentReceipt(ctx, req.Email, req.Price, req.TransactionID); err != nil {
		s.logger.Warn("payment receipt not sent", zap.String("email", req.Email), zap.Error(err))
	}
	return &out, nil
}

// complete runs inside the transaction. The offer is claimed with a
// conditional status change before anything is written, so a second
// completion for the same offer fails even without transactions. A paid
// offer without a record is a completion that failed after its claim; it is
// resumed from the insert, and the unique propertyId on records keeps
// concurrent resumptions to one.
func (s *service) complete(ctx context.Context, req CompleteRequest) (Completion, error) {
	o, err := s.offers.FindByID(ctx, req.PropertyID)
	if errors.Is(err, store.ErrNotFound) {
		return Completion{}, ErrOfferNotFound
	}
	if err != nil {
		return Completion{}, err
	}

	if o.HomeStatus == offer.StatusPaid {
		recorded, err := s.recorded(ctx, o.ID)
		if err != nil {
			return Completion{}, err
		}
		if recorded {
			return Completion{}, ErrAlreadyPaid
		}
		s.logger.Info("resuming interrupted payment", zap.String("offer", o.ID))
	} else {
		claim, err := s.offers.UpdateByIDWhere(ctx, o.ID,
			store.Filter{"home_status": o.HomeStatus},
			store.Fields{"home_status": offer.StatusPaid})
		if err != nil {
			return Completion{}, err
		}
		if claim.MatchedCount == 0 {
			return Completion{}, ErrAlreadyPaid
		}
	}

	record := &Record{
		Email:         req.Email,
		Price:         req.Price,
		TransactionID: req.TransactionID,
		PropertyID:    o.ID,
		HomeName:      req.HomeName,
		Date:          req.Date,
	}
	if record.HomeName == "" {
		record.HomeName = o.HomeName
	}
	inserted, err := s.payments.Insert(ctx, record)
	if errors.Is(err, store.ErrDuplicate) {
		return Completion{}, ErrAlreadyPaid
	}
	if err != nil {
		return Completion{}, err
	}

	if o.PropertyID != "" {
		err := s.listings.MarkSold(ctx, o.PropertyID)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidID):
			s.logger.Warn("paid offer references a missing listing",
				zap.String("offer", o.ID), zap.String("listing", o.PropertyID))
		default:
			return Completion{}, err
		}
	}

	deleted, err := s.offers.DeleteByID(ctx, o.ID)
	if err != nil {
		return Completion{}, err
	}
	return Completion{PaymentResult: inserted, DeleteResult: deleted}, nil
}

func (s *service) recorded(ctx context.Context, offerID string) (bool, error) {
	records, err := s.payments.Find(ctx, store.Filter{"propertyId": offerID}, store.Limit(1))
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

func (s *service) ListByEmail(ctx context.Context, email string) ([]Record, error) {
	records, err := s.payments.Find(ctx, store.Filter{"email": email})
	if err != nil {
		s.logger.Error("failed to list payments", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return records, nil
}

func (s *service) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	paid, err := s.offers.Find(ctx, store.Filter{"home_status": offer.StatusPaid})
	if err != nil {
		return report, err
	}
	for _, o := range paid {
		recorded, err := s.recorded(ctx, o.ID)
		if err != nil {
			return report, err
		}
		if !recorded {
			s.logger.Warn("paid offer has no payment record", zap.String("offer", o.ID), zap.String("buyer", o.BuyerEmail))
			report.Orphaned = append(report.Orphaned, o.ID)
			continue
		}
		if _, err := s.offers.DeleteByID(ctx, o.ID); err != nil {
			return report, err
		}
		report.Deleted++
	}

	metrics.RecordReconciled("deleted", report.Deleted)
	metrics.RecordReconciled("orphaned", len(report.Orphaned))
	return report, nil
}

package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/listing"
	"github.com/mehmetcc/homefinders-service/internal/offer"
	"github.com/mehmetcc/homefinders-service/internal/store"
)

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) CreateIntent(ctx context.Context, amount int64, currency, idempotencyKey string) (string, error) {
	args := m.Called(ctx, amount, currency, idempotencyKey)
	return args.String(0), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendPaymentReceipt(ctx context.Context, to string, amount float64, transactionID string) error {
	return m.Called(ctx, to, amount, transactionID).Error(0)
}

// flakyInserts rejects the first failures inserts.
type flakyInserts struct {
	store.Repository[Record]
	mu       sync.Mutex
	failures int
}

func (f *flakyInserts) Insert(ctx context.Context, r *Record) (store.InsertResult, error) {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return store.InsertResult{}, errors.New("transient write error")
	}
	f.mu.Unlock()
	return f.Repository.Insert(ctx, r)
}

func newPayments() *store.MemoryRepository[Record, *Record] {
	return store.NewMemoryRepository[Record](store.WithUniqueFields("propertyId"))
}

type fixture struct {
	svc       Service
	payments  store.Repository[Record]
	offers    *store.MemoryRepository[offer.Offer, *offer.Offer]
	listings  listing.Service
	processor *mockProcessor
	notifier  *mockNotifier
}

func newFixture(t *testing.T, payments store.Repository[Record]) *fixture {
	t.Helper()
	if payments == nil {
		payments = newPayments()
	}
	f := &fixture{
		payments:  payments,
		offers:    store.NewMemoryRepository[offer.Offer](),
		listings:  listing.NewService(store.NewMemoryRepository[listing.Property](), nil, time.Minute, zap.NewNop()),
		processor: &mockProcessor{},
		notifier:  &mockNotifier{},
	}
	f.notifier.On("SendPaymentReceipt", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.svc = NewService(Dependencies{
		Payments:  f.payments,
		Offers:    f.offers,
		Listings:  f.listings,
		Processor: f.processor,
		Notifier:  f.notifier,
		Logger:    zap.NewNop(),
	})
	return f
}

func (f *fixture) seedOffer(t *testing.T) (offerID, listingID string) {
	t.Helper()
	ctx := context.Background()
	l, err := f.listings.Create(ctx, listing.PropertyInput{HomeName: "Lake house", HomeStatus: listing.StatusVerified})
	require.NoError(t, err)
	o, err := f.offers.Insert(ctx, &offer.Offer{
		PropertyID: l.InsertedID,
		HomeName:   "Lake house",
		BuyerEmail: "a@b.com",
		HomeStatus: offer.StatusAccepted,
	})
	require.NoError(t, err)
	return o.InsertedID, l.InsertedID
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{19.99, 1999},
		{500, 50000},
		{0.1 + 0.2, 30},
		{1.005, 100},
		{0.01, 1},
	}
	for _, tt := range tests {
		got, err := ToMinorUnits(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "amount %v", tt.in)
	}

	for _, bad := range []float64{0, -5, 0.001} {
		_, err := ToMinorUnits(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %v", bad)
	}
}

func TestCreateIntent(t *testing.T) {
	f := newFixture(t, nil)
	f.processor.On("CreateIntent", mock.Anything, int64(1999), "usd", "key-1").Return("pi_secret", nil).Once()

	secret, err := f.svc.CreateIntent(context.Background(), 19.99, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "pi_secret", secret)
	f.processor.AssertExpectations(t)
}

func TestCreateIntentRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.CreateIntent(context.Background(), 0, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	f.processor.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateIntentProcessorFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.processor.On("CreateIntent", mock.Anything, int64(500), "usd", "").Return("", errors.New("card network down"))

	_, err := f.svc.CreateIntent(context.Background(), 5, "")
	assert.Error(t, err)
}

func TestCompleteRecordsPaymentAndConsumesOffer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	offerID, listingID := f.seedOffer(t)

	out, err := f.svc.Complete(ctx, CompleteRequest{
		Email:         "a@b.com",
		Price:         500,
		TransactionID: "txn_1",
		PropertyID:    offerID,
	})
	require.NoError(t, err)
	assert.True(t, out.PaymentResult.Acknowledged)
	assert.NotEmpty(t, out.PaymentResult.InsertedID)
	assert.Equal(t, store.DeleteResult{Acknowledged: true, DeletedCount: 1}, out.DeleteResult)

	records, err := f.svc.ListByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 500.0, records[0].Price)
	assert.Equal(t, offerID, records[0].PropertyID)
	assert.Equal(t, "Lake house", records[0].HomeName)
	assert.False(t, records[0].Date.IsZero())

	_, err = f.offers.FindByID(ctx, offerID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	l, err := f.listings.Get(ctx, listingID)
	require.NoError(t, err)
	assert.Equal(t, listing.StatusSold, l.HomeStatus)

	f.notifier.AssertCalled(t, "SendPaymentReceipt", mock.Anything, "a@b.com", 500.0, "txn_1")
}

func TestCompleteIsAtMostOncePerOffer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	offerID, _ := f.seedOffer(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Complete(ctx, CompleteRequest{Email: "a@b.com", Price: 500, PropertyID: offerID})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadyPaid), errors.Is(err, ErrOfferNotFound):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)

	records, err := f.payments.Find(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCompleteUnknownOffer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.Complete(ctx, CompleteRequest{Email: "a@b.com", Price: 500, PropertyID: "missing"})
	assert.ErrorIs(t, err, ErrOfferNotFound)

	records, err := f.payments.Find(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCompleteRejectsNonPositivePrice(t *testing.T) {
	f := newFixture(t, nil)
	offerID, _ := f.seedOffer(t)

	_, err := f.svc.Complete(context.Background(), CompleteRequest{Email: "a@b.com", Price: -1, PropertyID: offerID})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCompleteSucceedsWhenReceiptFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.notifier.ExpectedCalls = nil
	f.notifier.On("SendPaymentReceipt", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("mailgun down"))
	offerID, _ := f.seedOffer(t)

	_, err := f.svc.Complete(ctx, CompleteRequest{Email: "a@b.com", Price: 500, PropertyID: offerID})
	assert.NoError(t, err)
}

func TestReconcileCleansPaidOffers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	// A paid offer whose record exists: left behind by a failed delete.
	done, err := f.offers.Insert(ctx, &offer.Offer{BuyerEmail: "a@b.com", HomeStatus: offer.StatusPaid})
	require.NoError(t, err)
	_, err = f.payments.Insert(ctx, &Record{Email: "a@b.com", Price: 10, PropertyID: done.InsertedID})
	require.NoError(t, err)

	// A paid offer without a record.
	orphan, err := f.offers.Insert(ctx, &offer.Offer{BuyerEmail: "c@d.com", HomeStatus: offer.StatusPaid})
	require.NoError(t, err)

	// Untouched.
	open, err := f.offers.Insert(ctx, &offer.Offer{BuyerEmail: "e@f.com", HomeStatus: offer.StatusRequested})
	require.NoError(t, err)

	report, err := f.svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, []string{orphan.InsertedID}, report.Orphaned)

	_, err = f.offers.FindByID(ctx, done.InsertedID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.offers.FindByID(ctx, orphan.InsertedID)
	assert.NoError(t, err)
	_, err = f.offers.FindByID(ctx, open.InsertedID)
	assert.NoError(t, err)
}

func TestCompleteResumesAfterFailedRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &flakyInserts{Repository: newPayments(), failures: 1})
	offerID, listingID := f.seedOffer(t)

	_, err := f.svc.Complete(ctx, CompleteRequest{Email: "a@b.com", Price: 500, PropertyID: offerID})
	require.Error(t, err)

	// Without a transaction the claim stays behind.
	o, err := f.offers.FindByID(ctx, offerID)
	require.NoError(t, err)
	assert.Equal(t, offer.StatusPaid, o.HomeStatus)

	report, err := f.svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{offerID}, report.Orphaned)

	out, err := f.svc.Complete(ctx, CompleteRequest{Email: "a@b.com", Price: 500, PropertyID: offerID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.DeleteResult.DeletedCount)

	records, err := f.payments.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, offerID, records[0].PropertyID)

	l, err := f.listings.Get(ctx, listingID)
	require.NoError(t, err)
	assert.Equal(t, listing.StatusSold, l.HomeStatus)

	_, err = f.svc.Complete(ctx, CompleteRequest{Email: "a@b.com", Price: 500, PropertyID: offerID})
	assert.ErrorIs(t, err, ErrOfferNotFound)

	report, err = f.svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Orphaned)
}

func TestCompleteRefusesPaidOfferWithRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	// Left behind by a completion whose offer delete failed.
	o, err := f.offers.Insert(ctx, &offer.Offer{BuyerEmail: "a@b.com", HomeStatus: offer.StatusPaid})
	require.NoError(t, err)
	_, err = f.payments.Insert(ctx, &Record{Email: "a@b.com", Price: 10, PropertyID: o.InsertedID})
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, CompleteRequest{Email: "a@b.com", Price: 10, PropertyID: o.InsertedID})
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	records, err := f.payments.Find(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestConcurrentResumesRecordOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	o, err := f.offers.Insert(ctx, &offer.Offer{BuyerEmail: "a@b.com", HomeStatus: offer.StatusPaid})
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Complete(ctx, CompleteRequest{Email: "a@b.com", Price: 10, PropertyID: o.InsertedID})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadyPaid), errors.Is(err, ErrOfferNotFound):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)

	records, err := f.payments.Find(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

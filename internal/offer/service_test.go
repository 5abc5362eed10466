package offer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/store"
)

func newTestService() (Service, *store.MemoryRepository[Offer, *Offer]) {
	repo := store.NewMemoryRepository[Offer]()
	return NewService(repo, zap.NewNop()), repo
}

func TestCreateStartsRequested(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	res, err := svc.Create(ctx, CreateRequest{
		PropertyID:     "listing-1",
		HomeOwnerEmail: "agent@x.com",
		BuyerEmail:     "buyer@x.com",
		OfferPrice:     1200,
	})
	require.NoError(t, err)

	o, err := svc.Get(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, StatusRequested, o.HomeStatus)
	assert.Equal(t, "listing-1", o.PropertyID)

	byAgent, err := svc.ByAgent(ctx, "agent@x.com")
	require.NoError(t, err)
	assert.Len(t, byAgent, 1)

	byBuyer, err := svc.ByBuyer(ctx, "buyer@x.com")
	require.NoError(t, err)
	assert.Len(t, byBuyer, 1)

	none, err := svc.ByBuyer(ctx, "agent@x.com")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSetStatusTransitions(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	res, err := svc.Create(ctx, CreateRequest{BuyerEmail: "buyer@x.com"})
	require.NoError(t, err)

	upd, err := svc.SetStatus(ctx, res.InsertedID, StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), upd.ModifiedCount)

	_, err = svc.SetStatus(ctx, res.InsertedID, StatusRejected)
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, res.InsertedID, StatusPaid)
	assert.ErrorIs(t, err, ErrPaidViaCheckout)

	_, err = svc.SetStatus(ctx, res.InsertedID, Status("cancelled"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = repo.UpdateByID(ctx, res.InsertedID, store.Fields{"home_status": StatusPaid})
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, res.InsertedID, StatusAccepted)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	upd, err = svc.SetStatus(ctx, "missing", StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, int64(0), upd.MatchedCount)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	res, err := svc.Create(ctx, CreateRequest{BuyerEmail: "buyer@x.com"})
	require.NoError(t, err)

	del, err := svc.Delete(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), del.DeletedCount)

	_, err = svc.Get(ctx, res.InsertedID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

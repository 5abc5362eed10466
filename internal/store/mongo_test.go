package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newMongoRepo(t *testing.T) *MongoRepository[testDoc, *testDoc] {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("homefinders_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db.Drop(ctx)
		client.Disconnect(ctx)
	})
	return NewMongoRepository[testDoc](db, "docs")
}

func TestMongoRepositoryCRUD(t *testing.T) {
	repo := newMongoRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.EnsureUnique(ctx, "email"))

	res, err := repo.Insert(ctx, &testDoc{Email: "a@b.com", Stage: "new"})
	require.NoError(t, err)
	assert.True(t, primitive.IsValidObjectID(res.InsertedID))

	got, err := repo.FindByID(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, res.InsertedID, got.ID)

	_, err = repo.Insert(ctx, &testDoc{Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	upd, err := repo.UpdateByIDWhere(ctx, res.InsertedID, Filter{"stage": "new"}, Fields{"stage": "done"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), upd.MatchedCount)

	del, err := repo.DeleteByID(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), del.DeletedCount)
}

func TestObjectIDRejectsNonHex(t *testing.T) {
	_, err := objectID("not-an-object-id")
	assert.ErrorIs(t, err, ErrInvalidID)

	oid := primitive.NewObjectID()
	got, err := objectID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)
}

func TestHelloAllowsTransactions(t *testing.T) {
	tests := []struct {
		name  string
		hello bson.M
		want  bool
	}{
		{name: "standalone", hello: bson.M{"isWritablePrimary": true, "ok": 1.0}},
		{name: "replica set", hello: bson.M{"isWritablePrimary": true, "setName": "rs0"}, want: true},
		{name: "mongos", hello: bson.M{"isWritablePrimary": true, "msg": "isdbgrid"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, helloAllowsTransactions(tt.hello))
		})
	}
}

package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository stores documents in a MongoDB collection. Identifiers are
// ObjectIDs in the database and their hex form in Go.
type MongoRepository[T any, PT Document[T]] struct {
	coll *mongo.Collection
}

func NewMongoRepository[T any, PT Document[T]](db *mongo.Database, collection string) *MongoRepository[T, PT] {
	return &MongoRepository[T, PT]{coll: db.Collection(collection)}
}

// EnsureUnique creates a unique ascending index on field.
func (r *MongoRepository[T, PT]) EnsureUnique(ctx context.Context, field string) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create unique index on %s.%s: %w", r.coll.Name(), field, err)
	}
	return nil
}

func (r *MongoRepository[T, PT]) Find(ctx context.Context, filter Filter, opts ...FindOption) ([]T, error) {
	o := collectFindOptions(opts)
	findOpts := options.Find()
	if o.Limit > 0 {
		findOpts.SetLimit(o.Limit)
	}
	cursor, err := r.coll.Find(ctx, toBSON(filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", r.coll.Name(), err)
	}
	docs := make([]T, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.coll.Name(), err)
	}
	return docs, nil
}

func (r *MongoRepository[T, PT]) FindOne(ctx context.Context, filter Filter) (*T, error) {
	return r.findOne(ctx, toBSON(filter))
}

func (r *MongoRepository[T, PT]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoRepository[T, PT]) findOne(ctx context.Context, filter bson.M) (*T, error) {
	var doc T
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find one in %s: %w", r.coll.Name(), err)
	}
	return &doc, nil
}

func (r *MongoRepository[T, PT]) Insert(ctx context.Context, doc *T) (InsertResult, error) {
	oid := primitive.NewObjectID()
	if id := PT(doc).DocumentID(); id != "" {
		parsed, err := objectID(id)
		if err != nil {
			return InsertResult{}, err
		}
		oid = parsed
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		return InsertResult{}, fmt.Errorf("encode %s document: %w", r.coll.Name(), err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return InsertResult{}, fmt.Errorf("encode %s document: %w", r.coll.Name(), err)
	}
	m["_id"] = oid

	if _, err := r.coll.InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return InsertResult{}, ErrDuplicate
		}
		return InsertResult{}, fmt.Errorf("insert into %s: %w", r.coll.Name(), err)
	}
	PT(doc).SetDocumentID(oid.Hex())
	return InsertResult{Acknowledged: true, InsertedID: oid.Hex()}, nil
}

func (r *MongoRepository[T, PT]) UpdateByID(ctx context.Context, id string, fields Fields) (UpdateResult, error) {
	return r.UpdateByIDWhere(ctx, id, nil, fields)
}

func (r *MongoRepository[T, PT]) UpdateByIDWhere(ctx context.Context, id string, where Filter, fields Fields) (UpdateResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return UpdateResult{}, err
	}
	filter := toBSON(where)
	filter["_id"] = oid

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M(fields)})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return UpdateResult{}, ErrDuplicate
		}
		return UpdateResult{}, fmt.Errorf("update %s: %w", r.coll.Name(), err)
	}
	return UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}, nil
}

func (r *MongoRepository[T, PT]) DeleteByID(ctx context.Context, id string) (DeleteResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return DeleteResult{}, err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete from %s: %w", r.coll.Name(), err)
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

// MongoTransactor runs callbacks inside a MongoDB session transaction.
// Requires a replica set or sharded cluster.
type MongoTransactor struct {
	client *mongo.Client
}

// SupportsTransactions asks the deployment behind client whether it is a
// replica set or a sharded cluster. A standalone mongod rejects transactions.
func SupportsTransactions(ctx context.Context, client *mongo.Client) (bool, error) {
	var hello bson.M
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return false, fmt.Errorf("hello: %w", err)
	}
	return helloAllowsTransactions(hello), nil
}

func helloAllowsTransactions(hello bson.M) bool {
	if _, ok := hello["setName"]; ok {
		return true
	}
	msg, _ := hello["msg"].(string)
	return msg == "isdbgrid"
}

func NewMongoTransactor(client *mongo.Client) *MongoTransactor {
	return &MongoTransactor{client: client}
}

func (t *MongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func toBSON(filter Filter) bson.M {
	m := bson.M{}
	for k, v := range filter {
		m[k] = v
	}
	return m
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

type txKey struct{}

// GormRepository stores documents as rows of a table, one column per field.
// Identifiers are random UUIDs.
type GormRepository[T any, PT Document[T]] struct {
	db    *gorm.DB
	table string
}

func NewGormRepository[T any, PT Document[T]](db *gorm.DB, table string) *GormRepository[T, PT] {
	return &GormRepository[T, PT]{db: db, table: table}
}

// Migrate creates or alters the table to match T.
func (r *GormRepository[T, PT]) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Table(r.table).AutoMigrate(new(T)); err != nil {
		return fmt.Errorf("migrate %s: %w", r.table, err)
	}
	return nil
}

// conn joins the transaction carried by ctx, if any.
func (r *GormRepository[T, PT]) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.Table(r.table)
	}
	return r.db.WithContext(ctx).Table(r.table)
}

func (r *GormRepository[T, PT]) Find(ctx context.Context, filter Filter, opts ...FindOption) ([]T, error) {
	o := collectFindOptions(opts)
	q := r.conn(ctx)
	if len(filter) > 0 {
		q = q.Where(map[string]interface{}(filter))
	}
	if o.Limit > 0 {
		q = q.Limit(int(o.Limit))
	}
	docs := make([]T, 0)
	if err := q.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("find in %s: %w", r.table, err)
	}
	return docs, nil
}

func (r *GormRepository[T, PT]) FindOne(ctx context.Context, filter Filter) (*T, error) {
	q := r.conn(ctx)
	if len(filter) > 0 {
		q = q.Where(map[string]interface{}(filter))
	}
	return r.take(q)
}

func (r *GormRepository[T, PT]) FindByID(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	return r.take(r.conn(ctx).Where("id = ?", id))
}

func (r *GormRepository[T, PT]) take(q *gorm.DB) (*T, error) {
	var doc T
	err := q.Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find one in %s: %w", r.table, err)
	}
	return &doc, nil
}

func (r *GormRepository[T, PT]) Insert(ctx context.Context, doc *T) (InsertResult, error) {
	if PT(doc).DocumentID() == "" {
		PT(doc).SetDocumentID(uuid.NewString())
	}
	if err := r.conn(ctx).Create(doc).Error; err != nil {
		if isUniqueViolation(err) {
			return InsertResult{}, ErrDuplicate
		}
		return InsertResult{}, fmt.Errorf("insert into %s: %w", r.table, err)
	}
	return InsertResult{Acknowledged: true, InsertedID: PT(doc).DocumentID()}, nil
}

func (r *GormRepository[T, PT]) UpdateByID(ctx context.Context, id string, fields Fields) (UpdateResult, error) {
	return r.UpdateByIDWhere(ctx, id, nil, fields)
}

func (r *GormRepository[T, PT]) UpdateByIDWhere(ctx context.Context, id string, where Filter, fields Fields) (UpdateResult, error) {
	if id == "" {
		return UpdateResult{}, ErrInvalidID
	}
	q := r.conn(ctx).Model(new(T)).Where("id = ?", id)
	if len(where) > 0 {
		q = q.Where(map[string]interface{}(where))
	}
	res := q.Updates(map[string]interface{}(fields))
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return UpdateResult{}, ErrDuplicate
		}
		return UpdateResult{}, fmt.Errorf("update %s: %w", r.table, res.Error)
	}
	return UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.RowsAffected,
		ModifiedCount: res.RowsAffected,
	}, nil
}

func (r *GormRepository[T, PT]) DeleteByID(ctx context.Context, id string) (DeleteResult, error) {
	if id == "" {
		return DeleteResult{}, ErrInvalidID
	}
	res := r.conn(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return DeleteResult{}, fmt.Errorf("delete from %s: %w", r.table, res.Error)
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.RowsAffected}, nil
}

// GormTransactor opens a database transaction and hands it to repositories through the context.
type GormTransactor struct {
	db *gorm.DB
}

func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

func (t *GormTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

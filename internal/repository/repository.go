// Package repository persists the entity graph and enforces its integrity rules:
// foreign keys resolve, emails are unique, referenced users are never removed and
// defect deletion cascades to comments and attachments.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rise171/system-control-defects/internal/apperrors"
	"github.com/rise171/system-control-defects/internal/database"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page is a limit/offset window over an id-ordered result set.
type Page struct {
	Limit  int
	Offset int
}

// NewPage applies the defaults: limit 100, offset 0, limit capped at MaxLimit.
func NewPage(limit, offset int) Page {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

func (p Page) scope(db *gorm.DB) *gorm.DB {
	p = NewPage(p.Limit, p.Offset)
	return db.Order("id ASC").Limit(p.Limit).Offset(p.Offset)
}

// Store bundles the per-entity repositories over one connection or transaction.
type Store struct {
	db          *gorm.DB
	Users       *UserRepository
	Projects    *ProjectRepository
	Defects     *DefectRepository
	Comments    *CommentRepository
	Attachments *AttachmentRepository
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Users:       &UserRepository{db: db},
		Projects:    &ProjectRepository{db: db},
		Defects:     &DefectRepository{db: db},
		Comments:    &CommentRepository{db: db},
		Attachments: &AttachmentRepository{db: db},
	}
}

// Transaction runs fn against repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back on error or panic.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

func findByID[T any](ctx context.Context, db *gorm.DB, kind string, id uint) (*T, error) {
	var out T
	if err := db.WithContext(ctx).First(&out, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(kind, id)
		}
		return nil, fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	return &out, nil
}

func listWhere[T any](ctx context.Context, db *gorm.DB, kind string, page Page, query any, args ...any) ([]T, error) {
	tx := db.WithContext(ctx)
	if query != nil {
		tx = tx.Where(query, args...)
	}
	out := make([]T, 0)
	if err := tx.Scopes(page.scope).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return out, nil
}

// mustExist returns a NotFound error naming kind when no row of model has id.
func mustExist(ctx context.Context, db *gorm.DB, model any, kind string, id uint) error {
	var count int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check %s %d: %w", kind, id, err)
	}
	if count == 0 {
		return apperrors.NotFound(kind, id)
	}
	return nil
}

func countWhere(ctx context.Context, db *gorm.DB, model any, query string, args ...any) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error
	return count, err
}

// writeErr classifies storage errors raised by constraint checks the
// repository could not anticipate (e.g. concurrent inserts).
func writeErr(op, kind string, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return apperrors.Conflict("%s violates a uniqueness constraint", kind)
	case database.IsForeignKeyViolation(err):
		return apperrors.Invalid("%s references a missing or protected row", kind)
	default:
		return fmt.Errorf("%s %s: %w", op, kind, err)
	}
}

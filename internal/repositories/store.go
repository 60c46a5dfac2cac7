package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Repositories groups the repositories that share one database handle.
type Repositories interface {
	Products() ProductRepository
	Transactions() TransactionRepository
	Categories() CategoryRepository
	Users() UserRepository
}

// Store is the entry point to persistence. Reads may go straight through the
// embedded Repositories; every multi-step mutation goes through Atomic.
type Store interface {
	Repositories

	// Atomic runs fn inside one database transaction on a connection taken
	// from the pool. A nil return commits; an error or a panic rolls back.
	// The connection goes back to the pool on every exit path.
	Atomic(ctx context.Context, fn func(repos Repositories) error) error
}

// GORMStore is a Store backed by a *gorm.DB and its connection pool.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore creates a new GORMStore.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

func (s *GORMStore) Products() ProductRepository {
	return NewGORMProductRepository(s.db)
}

func (s *GORMStore) Transactions() TransactionRepository {
	return NewGORMTransactionRepository(s.db)
}

func (s *GORMStore) Categories() CategoryRepository {
	return NewGORMCategoryRepository(s.db)
}

func (s *GORMStore) Users() UserRepository {
	return NewGORMUserRepository(s.db)
}

// Atomic implements Store.
func (s *GORMStore) Atomic(ctx context.Context, fn func(repos Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMStore(tx))
	})
}

var _ Store = (*GORMStore)(nil)

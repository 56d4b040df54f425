// Package repository provides the data access layer over GORM.
package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that must share a transaction.
type Store interface {
	Posts() PostRepository
	Users() UserRepository
	// Transaction runs fn against a Store bound to a single database
	// transaction. fn's error rolls the transaction back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type store struct {
	db *gorm.DB
}

// NewStore creates a Store over db.
func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

func (s *store) Posts() PostRepository {
	return NewPostRepository(s.db)
}

func (s *store) Users() UserRepository {
	return NewUserRepository(s.db)
}

func (s *store) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&store{db: tx})
	})
}

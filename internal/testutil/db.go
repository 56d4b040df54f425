// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ideafoundry/internal/database"
	"ideafoundry/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewSQLiteDB opens a private in-memory sqlite database with the full schema
// migrated. Each call gets its own database, closed when the test ends.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// CreateUser inserts an active user with the given username.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, DisplayName: strings.ToUpper(username[:1]) + username[1:], IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

// PostOption customizes a fixture post.
type PostOption func(*models.Post)

// WithTags sets the post's tags.
func WithTags(tags ...string) PostOption {
	return func(p *models.Post) { p.Tags = tags }
}

// WithCategory sets the post's category.
func WithCategory(category string) PostOption {
	return func(p *models.Post) { p.Category = category }
}

// PublishedAt sets the publication time.
func PublishedAt(at time.Time) PostOption {
	return func(p *models.Post) { p.PublishedAt = &at }
}

// Draft marks the post unpublished.
func Draft() PostOption {
	return func(p *models.Post) {
		p.Status = models.PostStatusDraft
		p.PublishedAt = nil
	}
}

// CreatePost inserts a published post by author.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, slug string, opts ...PostOption) *models.Post {
	t.Helper()
	now := time.Now().UTC()
	post := &models.Post{
		AuthorID:       author.ID,
		Title:          slug,
		Slug:           slug,
		Content:        "Body of " + slug,
		Category:       models.DefaultCategory,
		Tags:           []string{},
		ReadingMinutes: 1,
		Status:         models.PostStatusPublished,
		PublishedAt:    &now,
	}
	for _, opt := range opts {
		opt(post)
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

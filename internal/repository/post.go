package repository

import (
	"context"
	"errors"
	"strings"

	"ideafoundry/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sort orders accepted by PostFilter.Order.
const (
	OrderNewest = "new"
	OrderOldest = "old"
)

// PostFilter narrows the published feed. Zero values mean "no filter".
type PostFilter struct {
	Category       string
	Tag            string
	AuthorID       uint
	AuthorUsername string
	Query          string
	Order          string
	Limit          int
	Offset         int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	DistinctCategories(ctx context.Context) ([]string, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	AuthorIDBySlug(ctx context.Context, slug string) (uint, bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListPublished(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error)
	Related(ctx context.Context, source *models.Post, limit int) ([]*models.Post, error)
	Sitemap(ctx context.Context) ([]models.SitemapEntry, error)
	UpsertBySlug(ctx context.Context, post *models.Post) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// upsertColumns are overwritten when a write hits an existing slug.
var upsertColumns = []string{
	"title", "content", "excerpt", "category", "tags", "reading_minutes",
	"cover_image_url", "status", "author_id", "published_at", "updated_at",
}

func (r *postRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Distinct("category").
		Where("category IS NOT NULL AND category <> ''").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Scopes(withAuthor).
		Where("slug = ?", slug).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("post", slug)
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) AuthorIDBySlug(ctx context.Context, slug string) (uint, bool, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("slug = ?", slug).
		Limit(1).
		Pluck("author_id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, false, err
	}
	return ids[0], true, nil
}

func (r *postRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("slug = ?", slug).
		Count(&count).Error
	return count > 0, err
}

func (r *postRepository) ListPublished(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Scopes(published, filtered(filter)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	posts := []*models.Post{}
	if total == 0 {
		return posts, 0, nil
	}

	err := r.db.WithContext(ctx).
		Scopes(withAuthor, published, filtered(filter), ordered(filter.Order)).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) Related(ctx context.Context, source *models.Post, limit int) ([]*models.Post, error) {
	match := r.db.Where("category = ?", source.Category)
	for _, tag := range source.Tags {
		match = match.Or("tags LIKE ?", tagPattern(tag))
	}

	posts := []*models.Post{}
	err := r.db.WithContext(ctx).
		Scopes(withAuthor, published, ordered(OrderNewest)).
		Where("id <> ?", source.ID).
		Where(match).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) Sitemap(ctx context.Context) ([]models.SitemapEntry, error) {
	entries := []models.SitemapEntry{}
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("slug", "category", "published_at", "updated_at").
		Scopes(published, ordered(OrderNewest)).
		Scan(&entries).Error
	return entries, err
}

func (r *postRepository) UpsertBySlug(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		Create(post).Error
}

func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("Author", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "username", "display_name", "bio")
	})
}

func published(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? AND published_at IS NOT NULL", models.PostStatusPublished)
}

func filtered(f PostFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Category != "" {
			db = db.Where("category = ?", f.Category)
		}
		if f.Tag != "" {
			db = db.Where("tags LIKE ?", tagPattern(f.Tag))
		}
		if f.AuthorID != 0 {
			db = db.Where("author_id = ?", f.AuthorID)
		}
		if f.AuthorUsername != "" {
			db = db.Where("author_id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).Model(&models.User{}).Select("id").Where("username = ?", f.AuthorUsername))
		}
		if q := strings.TrimSpace(f.Query); q != "" {
			like := "%" + escapeLike(strings.ToLower(q)) + "%"
			db = db.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(excerpt) LIKE ? ESCAPE '\\' OR LOWER(content) LIKE ? ESCAPE '\\')",
				like, like, like)
		}
		return db
	}
}

// ordered sorts by publication time, then creation time, newest first unless
// order is OrderOldest.
func ordered(order string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if order == OrderOldest {
			return db.Order("published_at ASC").Order("created_at ASC").Order("id ASC")
		}
		return db.Order("published_at DESC").Order("created_at DESC").Order("id DESC")
	}
}

// tagPattern matches one element of the JSON-encoded tags column. Tags are
// normalized to [a-z0-9-] before they reach the repository.
func tagPattern(tag string) string {
	return `%"` + tag + `"%`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Package service holds the blog's read and write use cases on top of the
// repositories, the cache and the Markdown renderer.
package service

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"ideafoundry/internal/cache"
	"ideafoundry/internal/database"
	"ideafoundry/internal/markdown"
	"ideafoundry/internal/middleware"
	"ideafoundry/internal/models"
	"ideafoundry/internal/observability"
	"ideafoundry/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Feed and related-posts bounds.
const (
	DefaultPageSize     = 10
	MaxPageSize         = 100
	DefaultRelatedLimit = 4
	MaxRelatedLimit     = 10

	derivedExcerptRunes = 200
	defaultSlugAttempts = 100
	defaultAuthor       = "guest"
)

// PostServiceConfig carries the tunables PostService reads from config.Config.
type PostServiceConfig struct {
	SlugMaxAttempts int
	DefaultAuthor   string
}

type PostService struct {
	store           repository.Store
	cache           *cache.Cache
	renderer        *markdown.Renderer
	slugMaxAttempts int
	defaultAuthor   string
	now             func() time.Time
}

// ListPostsInput is the feed query. Out-of-range Page and PageSize values are
// clamped rather than rejected.
type ListPostsInput struct {
	Category       string
	Tag            string
	AuthorID       uint
	AuthorUsername string
	Query          string
	Order          string
	Page           int
	PageSize       int
}

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// PostPage is one page of the feed.
type PostPage struct {
	Data       []*models.Post `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

func NewPostService(store repository.Store, c *cache.Cache, renderer *markdown.Renderer, cfg PostServiceConfig) *PostService {
	if renderer == nil {
		renderer = markdown.NewRenderer()
	}
	if cfg.SlugMaxAttempts < 1 {
		cfg.SlugMaxAttempts = defaultSlugAttempts
	}
	if strings.TrimSpace(cfg.DefaultAuthor) == "" {
		cfg.DefaultAuthor = defaultAuthor
	}
	return &PostService{
		store:           store,
		cache:           c,
		renderer:        renderer,
		slugMaxAttempts: cfg.SlugMaxAttempts,
		defaultAuthor:   strings.TrimSpace(cfg.DefaultAuthor),
		now:             time.Now,
	}
}

// Categories returns the sorted, distinct, non-blank categories of all posts.
// A missing posts table or category column yields an empty list.
func (s *PostService) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.cache.Aside(ctx, cache.CategoriesKey, &categories, cache.CategoriesTTL, func() error {
		raw, err := s.store.Posts().DistinctCategories(ctx)
		if err != nil {
			return err
		}
		categories = normalizeCategories(raw)
		return nil
	})
	if err != nil {
		if database.IsSchemaMissingError(err) {
			observability.SchemaDriftEvents.WithLabelValues("categories").Inc()
			middleware.Logger.WarnContext(ctx, "category list unavailable, schema is behind the models",
				slog.String("error", err.Error()))
			return []string{}, nil
		}
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func normalizeCategories(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// GetPostBySlug returns a published post with its author. Unknown and
// unpublished slugs yield a NOT_FOUND error.
func (s *PostService) GetPostBySlug(ctx context.Context, slug string) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "GetPostBySlug", attribute.String("post.slug", slug))
	defer func() { observability.EndSpan(span, ignoreNotFound(err)) }()

	post = &models.Post{}
	err = s.cache.Aside(ctx, cache.PostKey(slug), post, cache.PostTTL, func() error {
		found, err := s.store.Posts().GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		if !found.IsPublished() {
			return models.NewNotFoundError("post", slug)
		}
		*post = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// RenderContent converts a post body to HTML.
func (s *PostService) RenderContent(post *models.Post) (template.HTML, error) {
	return s.renderer.Render(post.Content)
}

// ListPosts returns one page of the published feed.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (page *PostPage, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "ListPosts")
	defer func() { observability.EndSpan(span, err) }()

	in.Page, in.PageSize = clampPage(in.Page, in.PageSize)
	order := repository.OrderNewest
	if in.Order == repository.OrderOldest {
		order = repository.OrderOldest
	}

	posts, total, err := s.store.Posts().ListPublished(ctx, repository.PostFilter{
		Category:       strings.TrimSpace(in.Category),
		Tag:            Slugify(in.Tag),
		AuthorID:       in.AuthorID,
		AuthorUsername: strings.TrimSpace(in.AuthorUsername),
		Query:          in.Query,
		Order:          order,
		Limit:          in.PageSize,
		Offset:         (in.Page - 1) * in.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return &PostPage{
		Data: posts,
		Pagination: Pagination{
			Page:       in.Page,
			PageSize:   in.PageSize,
			Total:      total,
			TotalPages: totalPages(total, in.PageSize),
		},
	}, nil
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize < 1:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// totalPages is never less than one, even for an empty feed.
func totalPages(total int64, pageSize int) int {
	pages := int(math.Ceil(float64(total) / float64(pageSize)))
	if pages < 1 {
		return 1
	}
	return pages
}

// RelatedPosts returns up to limit published posts sharing a tag or the
// category with slug's post. An unknown slug yields an empty list.
func (s *PostService) RelatedPosts(ctx context.Context, slug string, limit int) (related []*models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "RelatedPosts", attribute.String("post.slug", slug))
	defer func() { observability.EndSpan(span, err) }()

	switch {
	case limit <= 0:
		limit = DefaultRelatedLimit
	case limit > MaxRelatedLimit:
		limit = MaxRelatedLimit
	}

	source, err := s.store.Posts().GetBySlug(ctx, slug)
	if err != nil {
		if models.IsNotFound(err) {
			return []*models.Post{}, nil
		}
		return nil, fmt.Errorf("load source post: %w", err)
	}

	related, err = s.store.Posts().Related(ctx, source, limit)
	if err != nil {
		return nil, fmt.Errorf("related posts: %w", err)
	}
	return related, nil
}

// Authors lists active users, most prolific first.
func (s *PostService) Authors(ctx context.Context) ([]*models.User, error) {
	var authors []*models.User
	err := s.cache.Aside(ctx, cache.AuthorsKey, &authors, cache.AuthorsTTL, func() error {
		var err error
		authors, err = s.store.Users().ListActiveAuthors(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	return authors, nil
}

// SitemapPosts lists every published post, newest first.
func (s *PostService) SitemapPosts(ctx context.Context) ([]models.SitemapEntry, error) {
	entries, err := s.store.Posts().Sitemap(ctx)
	if err != nil {
		return nil, fmt.Errorf("sitemap: %w", err)
	}
	return entries, nil
}

// GetAuthorID resolves username (default "guest") to a user ID. When no such
// user exists the first user is used; an empty users table is ErrNoUsers.
func (s *PostService) GetAuthorID(ctx context.Context, username string) (uint, error) {
	return s.resolveAuthorID(ctx, s.store.Users(), username)
}

func (s *PostService) resolveAuthorID(ctx context.Context, users repository.UserRepository, username string) (uint, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		username = s.defaultAuthor
	}

	id, found, err := users.FindIDByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("find author %q: %w", username, err)
	}
	if found {
		return id, nil
	}

	id, found, err = users.FirstID(ctx)
	if err != nil {
		return 0, fmt.Errorf("find fallback author: %w", err)
	}
	if !found {
		return 0, models.ErrNoUsers
	}
	middleware.Logger.InfoContext(ctx, "unknown author, attributing post to first user",
		slog.String("username", username), slog.Uint64("user_id", uint64(id)))
	return id, nil
}

// CreatePost validates in and upserts the post by slug. Author resolution,
// slug resolution, the upsert and the posts_count refresh share one
// transaction. A post whose slug already belongs to the same author is
// updated in place; a slug owned by someone else gets a numeric suffix.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (result *CreatePostResult, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "CreatePost")
	defer func() { observability.EndSpan(span, err) }()

	in = in.Normalize(s.defaultAuthor)
	if verr := in.Validate(); verr != nil {
		observability.PostValidationFailures.Inc()
		return rejected(in, verr), nil
	}

	now := s.now().UTC()
	post := &models.Post{
		Title:          in.Title,
		Content:        in.Content,
		Excerpt:        truncateRunes(excerptFor(s.renderer, in), models.MaxExcerptLength),
		Category:       in.Category,
		Tags:           NormalizeTags(in.Tags),
		ReadingMinutes: markdown.ReadingMinutes(s.renderer.PlainText(in.Content)),
		CoverImageURL:  in.CoverImageURL,
		Status:         models.PostStatusPublished,
		PublishedAt:    &now,
	}

	base := in.Slug
	if base == "" {
		base = in.Title
	}
	base = Slugify(base)

	var created bool
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		authorID, err := s.resolveAuthorID(ctx, tx.Users(), in.AuthorUsername)
		if err != nil {
			return err
		}
		post.AuthorID = authorID

		post.Slug, created, err = s.resolveSlug(ctx, tx.Posts(), base, authorID)
		if err != nil {
			return err
		}

		if err := tx.Posts().UpsertBySlug(ctx, post); err != nil {
			return fmt.Errorf("upsert post %q: %w", post.Slug, err)
		}
		if err := tx.Users().RecomputePostsCounts(ctx); err != nil {
			return fmt.Errorf("recompute posts counts: %w", err)
		}
		return nil
	})
	if err != nil {
		outcome := "failed"
		if errors.Is(err, models.ErrNoUsers) {
			outcome = "no_users"
		}
		observability.PostsWritten.WithLabelValues(outcome).Inc()
		return nil, err
	}

	outcome := "updated"
	if created {
		outcome = "created"
	}
	observability.PostsWritten.WithLabelValues(outcome).Inc()
	s.cache.InvalidatePostWrite(ctx, post.Slug)

	middleware.Logger.InfoContext(ctx, "post saved",
		slog.String("slug", post.Slug),
		slog.String("outcome", outcome),
		slog.Uint64("author_id", uint64(post.AuthorID)))

	return &CreatePostResult{OK: true, Slug: post.Slug, Created: created}, nil
}

// resolveSlug picks the slug a write lands on and reports whether it creates a
// new post.
func (s *PostService) resolveSlug(ctx context.Context, posts repository.PostRepository, base string, authorID uint) (string, bool, error) {
	if base == "" {
		base = fallbackSlug
	}
	owner, taken, err := posts.AuthorIDBySlug(ctx, base)
	if err != nil {
		return "", false, fmt.Errorf("look up slug %q: %w", base, err)
	}
	if taken && owner == authorID {
		return base, false, nil
	}
	if !taken {
		return base, true, nil
	}
	slug, err := s.ensureUniqueSlug(ctx, posts, base)
	return slug, true, err
}

func ignoreNotFound(err error) error {
	if models.IsNotFound(err) {
		return nil
	}
	return err
}

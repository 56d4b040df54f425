package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	CategoriesKey    = "blog:categories"
	PostKeyPrefix    = "blog:post:%s"
	AuthorsKey       = "blog:authors"
	keyFamilyDivider = ":"
)

const (
	CategoriesTTL = 10 * time.Minute
	PostTTL       = 30 * time.Minute
	AuthorsTTL    = 5 * time.Minute
)

func PostKey(slug string) string {
	return fmt.Sprintf(PostKeyPrefix, slug)
}

// keyFamily returns the metrics label for key, e.g. "post" for "blog:post:hello".
func keyFamily(key string) string {
	parts := strings.SplitN(key, keyFamilyDivider, 3)
	if len(parts) < 2 {
		return key
	}
	return parts[1]
}

// InvalidatePostWrite drops every entry a post upsert can make stale.
func (c *Cache) InvalidatePostWrite(ctx context.Context, slug string) {
	c.Invalidate(ctx, PostKey(slug), CategoriesKey, AuthorsKey)
}

package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ideafoundry/internal/models"
	"ideafoundry/internal/observability"
	"ideafoundry/internal/repository"
)

// fallbackSlug is used when a title has no slug-safe characters.
const fallbackSlug = "post"

var (
	slugUnsafe     = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// Slugify lower-cases s, drops everything except ASCII letters, digits,
// whitespace and hyphens, and joins words with single hyphens.
//
//	Slugify("Hello, World!") == "hello-world"
func Slugify(s string) string {
	slug := strings.TrimSpace(strings.ToLower(s))
	slug = slugUnsafe.ReplaceAllString(slug, "")
	slug = slugWhitespace.ReplaceAllString(slug, "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > models.MaxSlugLength {
		slug = strings.TrimRight(slug[:models.MaxSlugLength], "-")
	}
	return slug
}

// NormalizeTags splits a comma separated list, slugifies each tag and drops
// empties and duplicates while keeping the input order.
func NormalizeTags(raw string) []string {
	tags := []string{}
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		tag := Slugify(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// EnsureUniqueSlug returns base, or base-2, base-3, ... whichever is first
// unused. It gives up with a SLUG_EXHAUSTED error after the configured number
// of attempts.
func (s *PostService) EnsureUniqueSlug(ctx context.Context, base string) (string, error) {
	return s.ensureUniqueSlug(ctx, s.store.Posts(), base)
}

func (s *PostService) ensureUniqueSlug(ctx context.Context, posts repository.PostRepository, base string) (string, error) {
	if base == "" {
		base = fallbackSlug
	}

	for attempt := 1; attempt <= s.slugMaxAttempts; attempt++ {
		candidate := withSuffix(base, attempt)
		exists, err := posts.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		observability.SlugCollisions.Inc()
	}

	return "", models.NewSlugExhaustedError(base, s.slugMaxAttempts)
}

// withSuffix appends -n for n > 1, shortening base so the result still fits
// the slug column.
func withSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}
	suffix := "-" + strconv.Itoa(n)
	if len(base)+len(suffix) > models.MaxSlugLength {
		base = strings.TrimRight(base[:models.MaxSlugLength-len(suffix)], "-")
	}
	return base + suffix
}

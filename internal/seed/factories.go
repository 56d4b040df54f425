package seed

import (
	"fmt"
	"strings"
	"time"

	"ideafoundry/internal/markdown"
	"ideafoundry/internal/models"
	"ideafoundry/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	categories = []string{"Development", "Design", "Product", "Startups", "Infrastructure", "Career"}
	tagPool    = []string{"go", "postgres", "redis", "testing", "ux", "mvp", "devops", "cloud", "writing", "ideas"}
)

// Factory generates users and posts with gofakeit. A fixed seed yields the
// same data on every run.
type Factory struct {
	faker   *gofakeit.Faker
	maxDays int
	now     func() time.Time
}

// NewFactory creates a Factory. randSeed 0 seeds from the clock.
func NewFactory(randSeed int64, maxDays int, now func() time.Time) *Factory {
	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}
	if maxDays <= 0 {
		maxDays = 90
	}
	if now == nil {
		now = time.Now
	}
	return &Factory{faker: gofakeit.New(randSeed), maxDays: maxDays, now: now}
}

// Users builds n distinct active users.
func (f *Factory) Users(n int) []models.User {
	users := make([]models.User, 0, n)
	seen := map[string]bool{}
	for i := 0; len(users) < n; i++ {
		username := service.Slugify(f.faker.Username())
		if len(username) > models.MaxUsernameLength-4 {
			username = username[:models.MaxUsernameLength-4]
		}
		if username == "" || seen[username] {
			username = fmt.Sprintf("writer-%d", i)
		}
		if seen[username] {
			continue
		}
		seen[username] = true

		email := fmt.Sprintf("%s@example.com", username)
		users = append(users, models.User{
			Username:    username,
			DisplayName: f.faker.Name(),
			Email:       &email,
			Bio:         f.faker.Sentence(12),
			Role:        models.RoleUser,
			IsActive:    true,
		})
	}
	return users
}

// Posts builds n published posts spread over the last maxDays days and
// attributed round-robin to authorIDs.
func (f *Factory) Posts(n int, authorIDs []uint, r *markdown.Renderer) []*models.Post {
	if n <= 0 || len(authorIDs) == 0 {
		return nil
	}

	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		title := strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), ".")
		content := f.content()
		publishedAt := f.now().UTC().
			Add(-time.Duration(f.faker.Number(0, f.maxDays*24)) * time.Hour)

		posts = append(posts, &models.Post{
			AuthorID:       authorIDs[i%len(authorIDs)],
			Title:          title,
			Slug:           fmt.Sprintf("%s-%d", service.Slugify(title), i+1),
			Content:        content,
			Excerpt:        r.Excerpt(content, 200),
			Category:       f.faker.RandomString(categories),
			Tags:           f.tags(),
			ReadingMinutes: markdown.ReadingMinutes(r.PlainText(content)),
			CoverImageURL:  fmt.Sprintf("https://picsum.photos/seed/post-%d/1200/630", i+1),
			Status:         models.PostStatusPublished,
			PublishedAt:    &publishedAt,
		})
	}
	return posts
}

func (f *Factory) content() string {
	var b strings.Builder
	for i, n := 0, f.faker.Number(2, 5); i < n; i++ {
		if i > 0 && i%2 == 0 {
			fmt.Fprintf(&b, "## %s\n\n", strings.TrimSuffix(f.faker.Sentence(4), "."))
		}
		b.WriteString(f.faker.Paragraph(1, f.faker.Number(3, 6), 12, " "))
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

func (f *Factory) tags() []string {
	n := f.faker.Number(1, 3)
	seen := map[string]bool{}
	tags := make([]string, 0, n)
	for len(tags) < n {
		tag := f.faker.RandomString(tagPool)
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

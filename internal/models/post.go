package models

import "time"

// PostStatus is the publication state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// DefaultCategory is used when a submission leaves the category blank.
const DefaultCategory = "uncategorized"

// Column size limits shared by validation and the schema.
const (
	MaxTitleLength    = 255
	MaxSlugLength     = 255
	MaxCategoryLength = 100
	MaxExcerptLength  = 512
	MaxUsernameLength = 50
)

// Post is a Markdown article owned by a User. Slug is globally unique and is
// the upsert key for writes. A nil PublishedAt means the post is a draft.
type Post struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	AuthorID       uint       `gorm:"not null;index" json:"author_id"`
	Author         *User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author,omitempty"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Slug           string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	Excerpt        string     `gorm:"size:512" json:"excerpt,omitempty"`
	Category       string     `gorm:"size:100;not null;index;default:uncategorized" json:"category"`
	Tags           []string   `gorm:"type:text;serializer:json" json:"tags"`
	ReadingMinutes int        `gorm:"not null;default:3" json:"reading_minutes"`
	CoverImageURL  string     `gorm:"size:1024" json:"cover_image_url,omitempty"`
	Status         PostStatus `gorm:"size:20;not null;default:published;index" json:"status"`
	PublishedAt    *time.Time `gorm:"index" json:"published_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsPublished reports whether the post is visible in the public feed.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished && p.PublishedAt != nil
}

// SitemapEntry is the projection of a published post used for sitemaps.
type SitemapEntry struct {
	Slug        string     `json:"slug"`
	Category    string     `json:"category"`
	PublishedAt *time.Time `json:"published_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

package service

import (
	"errors"
	"regexp"
	"strings"

	"ideafoundry/internal/markdown"
	"ideafoundry/internal/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	msgRequiredFields = "Title and content are required."
	msgInvalidFields  = "Please correct the highlighted fields."
)

var httpURL = regexp.MustCompile(`^https?://`)

// CreatePostInput is the submitted post form. Field names follow the form
// inputs so validation errors can be shown next to them.
type CreatePostInput struct {
	Title          string `json:"title" form:"title"`
	Slug           string `json:"slug" form:"slug"`
	Category       string `json:"category" form:"category"`
	Content        string `json:"content" form:"content"`
	AuthorUsername string `json:"authorUsername" form:"authorUsername"`
	Tags           string `json:"tags" form:"tags"`
	Excerpt        string `json:"excerpt" form:"excerpt"`
	CoverImageURL  string `json:"coverImageUrl" form:"coverImageUrl"`
}

// CreatePostResult reports the outcome of CreatePost. A rejected submission
// has OK false with Error and FieldErrors set; it is not an error value.
type CreatePostResult struct {
	OK          bool              `json:"ok"`
	Slug        string            `json:"slug,omitempty"`
	Created     bool              `json:"created,omitempty"`
	Error       string            `json:"error,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// Normalize trims every field and applies defaults. The category is cut to
// its column width before trimming, so a blank result falls back to
// models.DefaultCategory.
func (in CreatePostInput) Normalize(defaultAuthor string) CreatePostInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Content = strings.TrimSpace(in.Content)
	in.Tags = strings.TrimSpace(in.Tags)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.CoverImageURL = strings.TrimSpace(in.CoverImageURL)

	category := in.Category
	if category == "" {
		category = models.DefaultCategory
	}
	category = strings.TrimSpace(truncateRunes(category, models.MaxCategoryLength))
	if category == "" {
		category = models.DefaultCategory
	}
	in.Category = category

	in.AuthorUsername = strings.TrimSpace(in.AuthorUsername)
	if in.AuthorUsername == "" {
		in.AuthorUsername = defaultAuthor
	}
	return in
}

func (in CreatePostInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(0, models.MaxTitleLength),
		),
		validation.Field(&in.Slug, validation.RuneLength(0, models.MaxSlugLength)),
		validation.Field(&in.Content, validation.Required.Error("content is required")),
		validation.Field(&in.AuthorUsername, validation.RuneLength(0, models.MaxUsernameLength)),
		validation.Field(&in.Excerpt, validation.RuneLength(0, models.MaxExcerptLength)),
		validation.Field(&in.CoverImageURL,
			is.RequestURL.Error("must be a valid URL"),
			validation.Match(httpURL).Error("must be an http or https URL"),
		),
	)
}

// rejected converts a validation error into a CreatePostResult.
func rejected(in CreatePostInput, err error) *CreatePostResult {
	result := &CreatePostResult{Error: msgInvalidFields, FieldErrors: map[string]string{}}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		result.Error = err.Error()
		return result
	}
	for field, fieldErr := range fieldErrs {
		result.FieldErrors[field] = fieldErr.Error()
	}
	if in.Title == "" || in.Content == "" {
		result.Error = msgRequiredFields
	}
	return result
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// excerptFor returns the submitted excerpt, or one derived from content.
func excerptFor(r *markdown.Renderer, in CreatePostInput) string {
	if in.Excerpt != "" {
		return in.Excerpt
	}
	return r.Excerpt(in.Content, derivedExcerptRunes)
}

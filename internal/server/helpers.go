package server

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ideafoundry/internal/middleware"
	"ideafoundry/internal/models"
	"ideafoundry/internal/service"

	"github.com/gofiber/fiber/v2"
)

//go:embed views
var viewsFS embed.FS

var templateFuncs = map[string]any{
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
	"isoDate": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	},
	"join": strings.Join,
	"safeURL": func(s string) template.URL {
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
			return template.URL(s)
		}
		return ""
	},
}

func isOperationalPath(path string) bool {
	return path == "/metrics" || strings.HasPrefix(path, "/health/")
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// parseListInput reads the feed filters shared by /blog and /api/posts.
func parseListInput(c *fiber.Ctx) service.ListPostsInput {
	in := service.ListPostsInput{
		Category:       strings.TrimSpace(c.Query("category")),
		Tag:            strings.TrimSpace(c.Query("tag")),
		AuthorUsername: strings.TrimSpace(firstNonEmpty(c.Query("author"), c.Query("authorUsername"))),
		Query:          strings.TrimSpace(c.Query("q")),
		Order:          c.Query("order"),
		Page:           c.QueryInt("page", 1),
		PageSize:       c.QueryInt("pageSize", service.DefaultPageSize),
	}
	if id := c.QueryInt("authorId", 0); id > 0 {
		in.AuthorID = uint(id)
	}
	return in
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// feedURL renders the /blog URL for in with page replaced.
func feedURL(in service.ListPostsInput, page, pageSize int) string {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("category", in.Category)
	set("tag", in.Tag)
	set("author", in.AuthorUsername)
	set("q", in.Query)
	if in.Order == "old" {
		q.Set("order", "old")
	}
	if in.AuthorID > 0 {
		q.Set("authorId", strconv.FormatUint(uint64(in.AuthorID), 10))
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize != service.DefaultPageSize {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	if len(q) == 0 {
		return "/blog"
	}
	return "/blog?" + q.Encode()
}

// renderError renders the error page with status. Internal details are
// logged, not shown.
func (s *Server) renderError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).Render("error", fiber.Map{
		"Title":   "Something went wrong",
		"Status":  status,
		"Message": message,
	})
}

func (s *Server) renderNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("not_found", fiber.Map{
		"Title": "Not found",
		"Path":  c.Path(),
	})
}

func (s *Server) createRateLimited(c *fiber.Ctx) error {
	return s.renderError(c, fiber.StatusTooManyRequests, "You are posting too quickly. Please wait a minute and try again.")
}

// errorHandler answers JSON under /api and an HTML page elsewhere.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	}

	if isAPIPath(c.Path()) {
		if fe != nil {
			return c.Status(status).JSON(models.ErrorResponse{Error: fe.Message})
		}
		return models.RespondWithError(c, status, err)
	}

	if status == fiber.StatusNotFound {
		return s.renderNotFound(c)
	}
	message := "An unexpected error occurred."
	if fe != nil && status < fiber.StatusInternalServerError {
		message = fe.Message
	}
	return s.renderError(c, status, message)
}

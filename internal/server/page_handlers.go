package server

import (
	"context"
	"errors"
	"log/slog"

	"ideafoundry/internal/middleware"
	"ideafoundry/internal/models"
	"ideafoundry/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Home redirects to the feed.
func (s *Server) Home(c *fiber.Ctx) error {
	return c.Redirect("/blog", fiber.StatusFound)
}

// BlogIndex renders the filtered, paginated feed.
func (s *Server) BlogIndex(c *fiber.Ctx) error {
	ctx := c.UserContext()
	in := parseListInput(c)

	page, err := s.postService.ListPosts(ctx, in)
	if err != nil {
		return err
	}
	categories, err := s.postService.Categories(ctx)
	if err != nil {
		return err
	}

	p := page.Pagination
	data := fiber.Map{
		"Title":      "Blog",
		"Posts":      page.Data,
		"Pagination": p,
		"Categories": categories,
		"Filter":     in,
	}
	if p.Page > 1 {
		data["PrevURL"] = feedURL(in, p.Page-1, p.PageSize)
	}
	if p.Page < p.TotalPages {
		data["NextURL"] = feedURL(in, p.Page+1, p.PageSize)
	}
	return c.Render("blog", data)
}

// PostPage renders one post with its Markdown body and related posts.
func (s *Server) PostPage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	slug := c.Params("slug")

	post, err := s.postService.GetPostBySlug(ctx, slug)
	if err != nil {
		if models.IsNotFound(err) {
			return s.renderNotFound(c)
		}
		return err
	}

	body, err := s.postService.RenderContent(post)
	if err != nil {
		return err
	}

	related, err := s.postService.RelatedPosts(ctx, slug, service.DefaultRelatedLimit)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "related posts unavailable",
			slog.String("slug", slug), slog.String("error", err.Error()))
		related = nil
	}

	return c.Render("post", fiber.Map{
		"Title":   post.Title,
		"Post":    post,
		"Body":    body,
		"Related": related,
	})
}

// CreateForm renders an empty post form.
func (s *Server) CreateForm(c *fiber.Ctx) error {
	return s.renderCreateForm(c, fiber.StatusOK, service.CreatePostInput{}, nil)
}

// CreateSubmit handles the post form. Success redirects to the post with
// 303; a rejected submission re-renders the form with 422.
func (s *Server) CreateSubmit(c *fiber.Ctx) error {
	var in service.CreatePostInput
	if err := c.BodyParser(&in); err != nil {
		return s.renderCreateForm(c, fiber.StatusBadRequest, in, &service.CreatePostResult{
			Error: "Could not read the submitted form.",
		})
	}

	ctx := context.WithValue(c.UserContext(), middleware.AuthorKey, in.AuthorUsername)
	result, err := s.postService.CreatePost(ctx, in)
	switch {
	case errors.Is(err, models.ErrNoUsers):
		middleware.Logger.ErrorContext(ctx, "post rejected, users table is empty")
		return s.renderError(c, fiber.StatusInternalServerError, models.ErrNoUsers.Message)
	case models.HasCode(err, models.CodeSlugExhausted):
		return s.renderCreateForm(c, fiber.StatusConflict, in, &service.CreatePostResult{
			Error:       "That slug is taken too many times over. Please choose another one.",
			FieldErrors: map[string]string{"slug": "already in use"},
		})
	case err != nil:
		return err
	}

	if !result.OK {
		return s.renderCreateForm(c, fiber.StatusUnprocessableEntity, in, result)
	}
	return c.Redirect("/blog/"+result.Slug, fiber.StatusSeeOther)
}

func (s *Server) renderCreateForm(c *fiber.Ctx, status int, in service.CreatePostInput, result *service.CreatePostResult) error {
	categories, err := s.postService.Categories(c.UserContext())
	if err != nil {
		categories = nil
	}
	if result == nil {
		result = &service.CreatePostResult{}
	}
	return c.Status(status).Render("create", fiber.Map{
		"Title":      "New post",
		"Form":       in,
		"Result":     result,
		"Categories": categories,
	})
}

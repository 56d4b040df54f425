package server

import (
	"ideafoundry/internal/models"
	"ideafoundry/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListPosts(c.UserContext(), parseListInput(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(page)
}

// GetPost handles GET /api/posts/:slug
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postService.GetPostBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(post)
}

// GetRelatedPosts handles GET /api/posts/:slug/related?limit=
func (s *Server) GetRelatedPosts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", service.DefaultRelatedLimit)
	posts, err := s.postService.RelatedPosts(c.UserContext(), c.Params("slug"), limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(posts)
}

// GetCategories handles GET /api/categories
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.postService.Categories(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(categories)
}

// GetAuthors handles GET /api/authors
func (s *Server) GetAuthors(c *fiber.Ctx) error {
	authors, err := s.postService.Authors(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(authors)
}

// GetSitemap handles GET /api/sitemap
func (s *Server) GetSitemap(c *fiber.Ctx) error {
	entries, err := s.postService.SitemapPosts(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(entries)
}

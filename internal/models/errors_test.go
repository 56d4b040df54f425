package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorClassification(t *testing.T) {
	wrapped := fmt.Errorf("load post: %w", NewNotFoundError("post", "hello-world"))

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, HasCode(wrapped, CodeValidation))
	assert.True(t, errors.Is(fmt.Errorf("resolve author: %w", ErrNoUsers), ErrNoUsers))

	assert.Equal(t, http.StatusNotFound, StatusFor(wrapped))
	assert.Equal(t, http.StatusBadRequest, StatusFor(NewValidationError("bad")))
	assert.Equal(t, http.StatusConflict, StatusFor(NewSlugExhaustedError("post", 3)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}

func TestRespondWithError_HidesInternalDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("dial tcp: refused")))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload ErrorResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, CodeInternal, payload.Code)
	assert.Empty(t, payload.Details)
}

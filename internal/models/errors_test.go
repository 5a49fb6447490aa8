package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", NewUnauthenticatedError("x"), fiber.StatusUnauthorized},
		{"forbidden", NewForbiddenError("x"), fiber.StatusForbidden},
		{"not found", NewNotFoundError("Post", 1), fiber.StatusNotFound},
		{"conflict", NewConflictError("x"), fiber.StatusConflict},
		{"self follow", NewSelfFollowError(), fiber.StatusBadRequest},
		{"validation", NewValidationError("x"), fiber.StatusBadRequest},
		{"storage", NewStorageError("x", errors.New("boom")), fiber.StatusBadGateway},
		{"malformed credential", NewMalformedCredentialError(errors.New("bad hash")), fiber.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NewNotFoundError("User", 2)), fiber.StatusNotFound},
		{"plain", errors.New("plain"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	sentinel := &AppError{Code: CodeMalformedCredential}
	err := fmt.Errorf("verify: %w", NewMalformedCredentialError(errors.New("hash too short")))

	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, &AppError{Code: CodeConflict}))
	assert.True(t, HasCode(err, CodeMalformedCredential))
}

func TestRespondWithError_HidesCause(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/storage", func(c *fiber.Ctx) error {
		return RespondWithAppError(c, NewStorageError("Error uploading image", errors.New("s3 secret detail")))
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, errors.New("pq: connection refused"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/storage", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	var payload ErrorResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "Error uploading image", payload.Error)
	assert.Equal(t, CodeStorage, payload.Code)
	assert.NotContains(t, string(body), "secret detail")

	resp, err = app.Test(httptest.NewRequest("GET", "/plain", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "connection refused")
}

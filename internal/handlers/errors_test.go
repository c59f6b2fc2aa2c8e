package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"validation keeps detail", apperr.New(apperr.KindValidation, "Missing userId or symptoms"), http.StatusBadRequest, "Missing userId or symptoms"},
		{"store error is generic", apperr.Wrap(apperr.KindStoreUnavailable, "find", errors.New("pq: password authentication failed")), http.StatusInternalServerError, apperr.KindStoreUnavailable.PublicMessage()},
		{"untyped error is internal", errors.New("nil pointer"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return writeError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			var got dto.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.wantMessage, got.Error)
			assert.Equal(t, string(apperr.KindOf(tt.err)), got.Kind)
		})
	}
}

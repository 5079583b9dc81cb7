package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantReasons int
	}{
		{"validation", apperr.Validation("limit must be positive"), http.StatusBadRequest, "limit must be positive", 0},
		{"policy", apperr.Policy([]string{"a", "b"}), http.StatusUnprocessableEntity, "content violates community guidelines", 2},
		{"conflict", apperr.Conflict("invite already redeemed"), http.StatusConflict, "invite already redeemed", 0},
		{"conflict default message", &apperr.Error{Kind: apperr.KindConflict}, http.StatusConflict, "action not applicable", 0},
		{"forbidden hides detail", &apperr.Error{Kind: apperr.KindForbidden, Message: "author is suspended"}, http.StatusForbidden, "forbidden", 0},
		{"not found", apperr.NotFound("signal"), http.StatusNotFound, "signal not found", 0},
		{"wrapped", fmt.Errorf("outer: %w", apperr.NotFound("claim")), http.StatusNotFound, "claim not found", 0},
		{"storage", apperr.Storage(errors.New("connection reset"), "insert_signal"), http.StatusInternalServerError, "internal server error", 0},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal server error", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var body dto.ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode error = %v", err)
			}
			if !body.Error {
				t.Error("error flag = false, want true")
			}
			if body.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMessage)
			}
			if len(body.Reasons) != tt.wantReasons {
				t.Errorf("reasons = %v, want %d", body.Reasons, tt.wantReasons)
			}
		})
	}
}

func TestIDParam(t *testing.T) {
	app := fiber.New()
	app.Get("/:id", func(c *fiber.Ctx) error {
		if _, ok := idParam(c, "id"); !ok {
			return badRequest(c, "invalid id")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	for path, want := range map[string]int{
		"/3f1c2a9e-8d5b-4c6f-9a7e-2b1d0c4e5f60": http.StatusNoContent,
		"/nope":                                 http.StatusBadRequest,
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("GET %s = %d, want %d", path, resp.StatusCode, want)
		}
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"leadhook/internal/engine/mapping"
	"leadhook/internal/engine/webhooks"
	"leadhook/internal/platform/models"
)

func TestWriteProcessError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		production bool
		wantStatus int
		wantCode   string
		wantField  string
		wantDetail bool
	}{
		{"not found", webhooks.ErrWebhookNotFound, false, http.StatusNotFound, "WEBHOOK_NOT_FOUND", "", false},
		{"inactive", webhooks.ErrWebhookInactive, false, http.StatusForbidden, "WEBHOOK_INACTIVE", "", false},
		{"invalid payload", fmt.Errorf("%w: bad", webhooks.ErrInvalidPayload), false, http.StatusBadRequest, "INVALID_INPUT", "", false},
		{"no mappings", mapping.ErrNoMappingsConfigured, false, http.StatusUnprocessableEntity, "NO_MAPPINGS_CONFIGURED", "", false},
		{"missing field", &mapping.MissingFieldError{Field: "lead.email"}, false, http.StatusUnprocessableEntity, "MISSING_REQUIRED_FIELD", "lead.email", false},
		{"no admin", webhooks.ErrNoAdminUser, false, http.StatusUnprocessableEntity, "NO_ADMIN_USER", "", false},
		{"write failed", &webhooks.DownstreamWriteError{Op: "create lead", Err: errors.New("disk full")}, false, http.StatusBadGateway, "DOWNSTREAM_WRITE_FAILED", "", true},
		{"write failed in production", &webhooks.DownstreamWriteError{Op: "create lead", Err: errors.New("disk full")}, true, http.StatusBadGateway, "DOWNSTREAM_WRITE_FAILED", "", false},
		{"unexpected", errors.New("boom"), false, http.StatusInternalServerError, "INTERNAL_ERROR", "", true},
		{"unexpected in production", errors.New("boom"), true, http.StatusInternalServerError, "INTERNAL_ERROR", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewWebhookHandler(nil, tt.production)
			rr := httptest.NewRecorder()

			h.writeProcessError(rr, &webhooks.Result{Mode: models.ModeActive, RequestID: "req_1"}, tt.err)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}

			var body webhookErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success {
				t.Error("Expected success=false")
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.Field != tt.wantField {
				t.Errorf("field = %q, want %q", body.Field, tt.wantField)
			}
			if (body.Details != "") != tt.wantDetail {
				t.Errorf("details = %q, want present=%v", body.Details, tt.wantDetail)
			}
			if body.RequestID != "req_1" || body.Mode != models.ModeActive {
				t.Errorf("Expected request id and mode to be echoed, got %+v", body)
			}
		})
	}
}

func TestCaptureHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	h.Set("Cookie", "session=1")
	h.Set("Content-Type", "application/json")
	h.Add("X-Forwarded-For", "203.0.113.7")
	h.Add("X-Forwarded-For", "10.0.0.1")

	got := captureHeaders(h)

	if _, ok := got["Authorization"]; ok {
		t.Error("Authorization must not be captured")
	}
	if _, ok := got["Cookie"]; ok {
		t.Error("Cookie must not be captured")
	}
	if got["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %q", got["Content-Type"])
	}
	if got["X-Forwarded-For"] != "203.0.113.7" {
		t.Errorf("Expected first X-Forwarded-For value, got %q", got["X-Forwarded-For"])
	}
}

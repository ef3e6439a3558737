package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	apiContext "leadhook/internal/api/context"
	"leadhook/internal/api/middleware"
	"leadhook/internal/engine/mapping"
	"leadhook/internal/engine/payload"
	"leadhook/internal/engine/webhooks"
	apierrors "leadhook/internal/pkg/errors"
	"leadhook/internal/platform/models"
)

// MaxWebhookBody is the largest accepted webhook payload.
const MaxWebhookBody = 1 << 20

type WebhookHandler struct {
	processor  *webhooks.Processor
	production bool
}

func NewWebhookHandler(processor *webhooks.Processor, production bool) *WebhookHandler {
	return &WebhookHandler{processor: processor, production: production}
}

type webhookErrorResponse struct {
	Success   bool                `json:"success"`
	Mode      models.EndpointMode `json:"mode,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
	Error     string              `json:"error"`
	Code      string              `json:"code"`
	Field     string              `json:"field,omitempty"`
	Details   string              `json:"details,omitempty"`
}

// Receive handles POST /webhook/:token.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	token := params.ByName("token")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.WriteError(w, http.StatusRequestEntityTooLarge, apierrors.ErrCodeInvalidInput, "Payload too large", nil)
			return
		}
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Failed to read request body", nil)
		return
	}

	doc, err := payload.Parse(body)
	if errors.Is(err, payload.ErrEmptyPayload) {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Request body must not be empty", nil)
		return
	}
	if err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Request body must be a JSON document", nil)
		return
	}
	if doc.IsEmpty() {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Request body must not be empty", nil)
		return
	}

	meta := webhooks.RequestMeta{
		Headers:   captureHeaders(r.Header),
		SourceIP:  middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}

	result, err := h.processor.Process(r.Context(), token, body, meta)
	if err != nil {
		h.writeProcessError(w, result, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, result)
}

// Test handles GET /webhook/:token/test.
func (h *WebhookHandler) Test(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	insp, err := h.processor.Inspect(r.Context(), params.ByName("token"))
	if err != nil {
		h.writeProcessError(w, nil, err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, insp)
}

func (h *WebhookHandler) writeProcessError(w http.ResponseWriter, result *webhooks.Result, err error) {
	resp := webhookErrorResponse{Error: err.Error()}
	if result != nil {
		resp.Mode = result.Mode
		resp.RequestID = result.RequestID
	}

	var missing *mapping.MissingFieldError
	var writeErr *webhooks.DownstreamWriteError
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, webhooks.ErrWebhookNotFound):
		status, resp.Code, resp.Error = http.StatusNotFound, apierrors.ErrCodeWebhookNotFound, "Webhook not found"
	case errors.Is(err, webhooks.ErrWebhookInactive):
		status, resp.Code, resp.Error = http.StatusForbidden, apierrors.ErrCodeWebhookInactive, "Webhook is inactive"
	case errors.Is(err, webhooks.ErrInvalidPayload):
		status, resp.Code = http.StatusBadRequest, apierrors.ErrCodeInvalidInput
	case errors.Is(err, mapping.ErrNoMappingsConfigured):
		status, resp.Code = http.StatusUnprocessableEntity, apierrors.ErrCodeNoMappingsConfigured
	case errors.As(err, &missing):
		status, resp.Code, resp.Field = http.StatusUnprocessableEntity, apierrors.ErrCodeMissingRequiredField, missing.Field
	case errors.Is(err, webhooks.ErrNoAdminUser):
		status, resp.Code = http.StatusUnprocessableEntity, apierrors.ErrCodeNoAdminUser
	case errors.As(err, &writeErr):
		status, resp.Code, resp.Error = http.StatusBadGateway, apierrors.ErrCodeDownstreamWrite, "Failed to store lead"
		if !h.production {
			resp.Details = err.Error()
		}
	default:
		log.Error().Err(err).Str("request_id", resp.RequestID).Msg("webhook processing error")
		resp.Code, resp.Error = apierrors.ErrCodeInternal, "Internal server error"
		if !h.production {
			resp.Details = err.Error()
		}
	}

	apierrors.WriteJSON(w, status, resp)
}

var sensitiveHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"Set-Cookie":    true,
}

// captureHeaders keeps the first value of each header for the audit record.
func captureHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if sensitiveHeaders[k] || len(v) == 0 {
			continue
		}
		out[k] = v[0]
	}
	return out
}

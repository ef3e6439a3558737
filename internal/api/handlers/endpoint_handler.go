package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	apiContext "leadhook/internal/api/context"
	"leadhook/internal/api/middleware"
	"leadhook/internal/engine/mapping"
	apierrors "leadhook/internal/pkg/errors"
	"leadhook/internal/pkg/validator"
	"leadhook/internal/platform/models"
	"leadhook/internal/platform/repositories"
)

// EndpointHandler serves the tenant admin API for webhook endpoints, their
// mappings, captured samples and request history.
type EndpointHandler struct {
	endpoints *repositories.EndpointRepository
	mappings  *repositories.MappingRepository
	samples   *repositories.SampleRepository
	requests  *repositories.RequestRepository
}

func NewEndpointHandler(
	endpoints *repositories.EndpointRepository,
	mappings *repositories.MappingRepository,
	samples *repositories.SampleRepository,
	requests *repositories.RequestRepository,
) *EndpointHandler {
	return &EndpointHandler{endpoints: endpoints, mappings: mappings, samples: samples, requests: requests}
}

type endpointRequest struct {
	Name            *string `json:"name"`
	Mode            *string `json:"mode"`
	IsActive        *bool   `json:"is_active"`
	DefaultStatus   *string `json:"default_status"`
	DefaultPriority *string `json:"default_priority"`
	DefaultSource   *string `json:"default_source"`
	PipelineID      *string `json:"pipeline_id"`
	DefaultColumnID *string `json:"default_column_id"`
}

// apply copies the fields present in the request onto ep.
func (req *endpointRequest) apply(ep *models.Endpoint) {
	if req.Name != nil {
		ep.Name = strings.TrimSpace(*req.Name)
	}
	if req.Mode != nil {
		ep.Mode = models.EndpointMode(*req.Mode)
	}
	if req.IsActive != nil {
		ep.IsActive = *req.IsActive
	}
	if req.DefaultStatus != nil {
		ep.DefaultStatus = strings.TrimSpace(*req.DefaultStatus)
	}
	if req.DefaultPriority != nil {
		ep.DefaultPriority = mapping.NormalizePriority(*req.DefaultPriority)
	}
	if req.DefaultSource != nil {
		ep.DefaultSource = strings.TrimSpace(*req.DefaultSource)
	}
	if req.PipelineID != nil {
		ep.PipelineID = emptyToNil(*req.PipelineID)
	}
	if req.DefaultColumnID != nil {
		ep.DefaultColumnID = emptyToNil(*req.DefaultColumnID)
	}
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func tenantFrom(r *http.Request) *middleware.TenantContext {
	return r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
}

// loadEndpoint writes a 404 and returns nil when the endpoint is not the tenant's.
func (h *EndpointHandler) loadEndpoint(w http.ResponseWriter, r *http.Request) *models.Endpoint {
	tenant := tenantFrom(r)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	ep, err := h.endpoints.GetByID(r.Context(), tenant.TenantID, params.ByName("endpoint_id"))
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenant.TenantID).Msg("failed to load endpoint")
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to load endpoint", nil)
		return nil
	}
	if ep == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Endpoint not found", nil)
		return nil
	}
	return ep
}

// validEndpoint writes a 400 and returns false when ep cannot be stored. The
// default column must belong to the endpoint's pipeline.
func (h *EndpointHandler) validEndpoint(w http.ResponseWriter, r *http.Request, ep *models.Endpoint) bool {
	if err := validator.ValidateEndpoint(ep); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, err.Error(), nil)
		return false
	}
	if ep.DefaultColumnID == nil {
		return true
	}

	ok, err := h.endpoints.ColumnInPipeline(r.Context(), *ep.PipelineID, *ep.DefaultColumnID)
	if err != nil {
		log.Error().Err(err).Str("tenant_id", ep.TenantID).Msg("failed to check default column")
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to validate endpoint", nil)
		return false
	}
	if !ok {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "default_column_id is not a column of pipeline_id", nil)
		return false
	}
	return true
}

func (h *EndpointHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	var req endpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	ep := &models.Endpoint{
		TenantID:        tenant.TenantID,
		IsActive:        true,
		Mode:            models.ModeMapping,
		DefaultStatus:   "new",
		DefaultPriority: "medium",
		DefaultSource:   "webhook",
	}
	req.apply(ep)

	if !h.validEndpoint(w, r, ep) {
		return
	}

	if err := h.endpoints.Create(r.Context(), ep); err != nil {
		log.Error().Err(err).Str("tenant_id", tenant.TenantID).Msg("failed to create endpoint")
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to create endpoint", nil)
		return
	}

	log.Info().Str("tenant_id", tenant.TenantID).Str("endpoint_id", ep.ID).Str("user_id", tenant.UserID).Msg("webhook endpoint created")
	apierrors.WriteJSON(w, http.StatusCreated, ep)
}

func (h *EndpointHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	endpoints, err := h.endpoints.ListByTenant(r.Context(), tenant.TenantID)
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenant.TenantID).Msg("failed to list endpoints")
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to list endpoints", nil)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, endpoints)
}

func (h *EndpointHandler) Get(w http.ResponseWriter, r *http.Request) {
	ep := h.loadEndpoint(w, r)
	if ep == nil {
		return
	}

	detail, err := h.endpoints.GetDetail(r.Context(), ep.ID)
	if err != nil {
		log.Error().Err(err).Str("endpoint_id", ep.ID).Msg("failed to load endpoint pipeline")
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to load endpoint", nil)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, detail)
}

func (h *EndpointHandler) Update(w http.ResponseWriter, r *http.Request) {
	ep := h.loadEndpoint(w, r)
	if ep == nil {
		return
	}

	var req endpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	req.apply(ep)

	if !h.validEndpoint(w, r, ep) {
		return
	}

	if err := h.endpoints.Update(r.Context(), ep); err != nil {
		log.Error().Err(err).Str("endpoint_id", ep.ID).Msg("failed to update endpoint")
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to update endpoint", nil)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, ep)
}

func (h *EndpointHandler) GetMappings(w http.ResponseWriter, r *http.Request) {
	ep := h.loadEndpoint(w, r)
	if ep == nil {
		return
	}

	mappings, err := h.mappings.List(r.Context(), ep.ID)
	if err != nil {
		log.Error().Err(err).Str("endpoint_id", ep.ID).Msg("failed to list mappings")
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to list mappings", nil)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, map[string]interface{}{"mappings": mappings})
}

type mappingRequest struct {
	SourceField  string  `json:"source_field"`
	TargetField  string  `json:"target_field"`
	IsRequired   bool    `json:"is_required"`
	DefaultValue *string `json:"default_value"`
	IsActive     *bool   `json:"is_active"`
}

func (h *EndpointHandler) ReplaceMappings(w http.ResponseWriter, r *http.Request) {
	ep := h.loadEndpoint(w, r)
	if ep == nil {
		return
	}

	var req struct {
		Mappings []mappingRequest `json:"mappings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	mappings := make([]*models.FieldMapping, 0, len(req.Mappings))
	for _, m := range req.Mappings {
		active := true
		if m.IsActive != nil {
			active = *m.IsActive
		}
		mappings = append(mappings, &models.FieldMapping{
			SourceField:  m.SourceField,
			TargetField:  m.TargetField,
			IsRequired:   m.IsRequired,
			DefaultValue: m.DefaultValue,
			IsActive:     active,
		})
	}

	if err := validator.ValidateMappings(mappings); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	if err := h.mappings.Replace(r.Context(), ep.ID, mappings); err != nil {
		log.Error().Err(err).Str("endpoint_id", ep.ID).Msg("failed to replace mappings")
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to save mappings", nil)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, map[string]interface{}{"mappings": mappings})
}

func (h *EndpointHandler) GetSample(w http.ResponseWriter, r *http.Request) {
	ep := h.loadEndpoint(w, r)
	if ep == nil {
		return
	}

	sample, err := h.samples.Get(r.Context(), ep.ID)
	if err != nil {
		log.Error().Err(err).Str("endpoint_id", ep.ID).Msg("failed to load sample")
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to load sample", nil)
		return
	}
	if sample == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "No sample captured yet", nil)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, struct {
		*models.SampleData
		Payload json.RawMessage `json:"payload"`
	}{sample, json.RawMessage(sample.Payload)})
}

// maxRequestPage keeps (page-1)*limit far from int overflow.
const maxRequestPage = 100000

type requestView struct {
	*models.WebhookRequest
	Payload json.RawMessage `json:"payload"`
}

func (h *EndpointHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	ep := h.loadEndpoint(w, r)
	if ep == nil {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	if page > maxRequestPage {
		page = maxRequestPage
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 50
	}
	offset := (page - 1) * limit

	requests, total, err := h.requests.ListByEndpoint(r.Context(), ep.ID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("endpoint_id", ep.ID).Msg("failed to list requests")
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to list requests", nil)
		return
	}

	views := make([]requestView, 0, len(requests))
	for _, req := range requests {
		var raw json.RawMessage
		if json.Valid(req.Payload) {
			raw = json.RawMessage(req.Payload)
		}
		views = append(views, requestView{WebhookRequest: req, Payload: raw})
	}

	apierrors.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": views,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

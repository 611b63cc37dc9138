package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/internal/idscan/jmbg"
	"github.com/medflow/medflow-idscan/internal/idscan/service"
	apperrors "github.com/medflow/medflow-idscan/pkg/errors"
	"github.com/medflow/medflow-idscan/pkg/httputil"
	"github.com/medflow/medflow-idscan/pkg/logger"
)

// PermissionScan is the gateway permission required for every scan route
const PermissionScan = "idscan.scan"

// JSON escaping can blow a payload up to six bytes per input byte
const bodyOverhead = 6

// Handler handles HTTP requests for identity scans
type Handler struct {
	service    *service.Service
	maxPayload int
	log        *logger.Logger
}

// NewHandler creates a new identity scan handler
func NewHandler(svc *service.Service, maxPayload int, log *logger.Logger) *Handler {
	return &Handler{
		service:    svc,
		maxPayload: maxPayload,
		log:        log,
	}
}

// Routes mounts the scan API under the given router
func (h *Handler) Routes(r chi.Router) {
	r.Post("/extract", h.Extract)
	r.Get("/jobs/{jobId}", h.GetJob)
	r.Post("/decode", h.Decode)
	r.Get("/audit", h.ListAudit)
}

// ExtractRequest is the body of POST /extract
type ExtractRequest struct {
	Payload string `json:"payload" validate:"required"`
	Channel string `json:"channel" validate:"required,oneof=structured_code free_text"`
}

// DecodeRequest is the body of POST /decode
type DecodeRequest struct {
	Number string `json:"number" validate:"required,max=32"`
}

// DecodeResponse is a decoded identity number
type DecodeResponse struct {
	*jmbg.Decoded
	BirthDate string `json:"birth_date,omitempty"`
}

// Extract handles POST /extract
// Runs the scan synchronously and returns the stored job.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	if h.maxPayload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(h.maxPayload*bodyOverhead+1024))
	}

	var req ExtractRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	userID := httputil.GetUserID(r.Context())
	job, err := h.service.Extract(r.Context(), domain.RawScanInput{
		Payload: req.Payload,
		Channel: domain.Channel(req.Channel),
	}, userID)
	if err != nil {
		h.writeExtractError(w, job, err)
		return
	}

	httputil.JSON(w, http.StatusOK, job)
}

func (h *Handler) writeExtractError(w http.ResponseWriter, job *domain.ScanJob, err error) {
	var noData *domain.NoDataError
	switch {
	case errors.As(err, &noData):
		appErr := apperrors.NoDataExtracted(string(noData.Format))
		if job != nil {
			appErr.Details["job_id"] = job.JobID
		}
		httputil.Error(w, appErr)
	case errors.Is(err, service.ErrPayloadTooLarge):
		httputil.Error(w, apperrors.PayloadTooLarge(h.maxPayload))
	case errors.Is(err, service.ErrInvalidChannel), errors.Is(err, service.ErrEmptyPayload):
		httputil.Error(w, apperrors.BadRequest(err.Error()))
	default:
		h.log.Error().Err(err).Msg("scan extraction failed")
		httputil.Error(w, apperrors.Internal("scan extraction failed"))
	}
}

// GetJob handles GET /jobs/{jobId}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")

	job, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		httputil.Error(w, apperrors.NotFound("scan job"))
		return
	}

	httputil.JSON(w, http.StatusOK, job)
}

// Decode handles POST /decode
// Decodes a single identity number without running a scan.
func (h *Handler) Decode(w http.ResponseWriter, r *http.Request) {
	var req DecodeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	decoded, err := h.service.DecodeNationalID(req.Number)
	if err != nil {
		httputil.Error(w, apperrors.InvalidIdentityNumber(jmbg.ErrInvalidFormat.Error()))
		return
	}

	resp := DecodeResponse{Decoded: decoded}
	if decoded.DateValid {
		resp.BirthDate = decoded.BirthDateISO()
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// ListAudit handles GET /audit?limit=N
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			httputil.Error(w, apperrors.Validation(map[string]string{"limit": "must be between 1 and 100"}))
			return
		}
		limit = n
	}

	entries, err := h.service.RecentAudit(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list scan audit")
		httputil.Error(w, apperrors.Internal("failed to list scan audit"))
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, entries, &httputil.Meta{Limit: limit, Count: len(entries)})
}

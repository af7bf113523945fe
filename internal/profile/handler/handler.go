package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"signup/internal/platform/middleware"
	"signup/internal/profile/models"
	"signup/internal/profile/rules"
	dErrors "signup/pkg/domain-errors"
	"signup/pkg/platform/httputil"
)

// maxBodyBytes bounds the registration payload.
const maxBodyBytes = 64 << 10

// Service defines the profile operations the HTTP layer needs.
type Service interface {
	Register(ctx context.Context, req *models.RegistrationRequest) (*models.Profile, error)
	UsernameAvailability(ctx context.Context, username string) (*models.Availability, error)
	EmailAvailability(ctx context.Context, email string) (*models.Availability, error)
	List(ctx context.Context) (*models.ProfileList, error)
	Seed(ctx context.Context) (*models.SeedResult, error)
	Reset(ctx context.Context) (int, error)
}

// Handler serves the registration, availability and development endpoints.
type Handler struct {
	service    Service
	logger     *slog.Logger
	production bool
}

// New creates a profile Handler. production guards the destructive
// development routes.
func New(service Service, logger *slog.Logger, production bool) *Handler {
	return &Handler{service: service, logger: logger, production: production}
}

// Register registers the profile routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registration", h.handleRegister)
	r.Get("/registration/rules", h.handleRules)
	r.Get("/profiles", h.handleListProfiles)
	r.Get("/availability/username/{value}", h.handleUsernameAvailability)
	r.Get("/availability/email/{value}", h.handleEmailAvailability)

	r.Route("/dev", func(r chi.Router) {
		r.Post("/seed", h.handleSeed)
		r.With(middleware.RequireNonProduction(h.production, h.logger)).Delete("/reset", h.handleReset)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(r)

	var req models.RegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid registration request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.service.Register(ctx, &req)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.InfoContext(ctx, "registration rejected",
				"request_id", requestID,
				"violations", len(dErrors.FieldsOf(err)),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toProfileResponse(profile))
}

func (h *Handler) handleRules(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, rules.Describe())
}

func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(list))
}

func (h *Handler) handleUsernameAvailability(w http.ResponseWriter, r *http.Request) {
	h.writeAvailability(w, r, h.service.UsernameAvailability)
}

func (h *Handler) handleEmailAvailability(w http.ResponseWriter, r *http.Request) {
	h.writeAvailability(w, r, h.service.EmailAvailability)
}

func (h *Handler) writeAvailability(w http.ResponseWriter, r *http.Request, check func(context.Context, string) (*models.Availability, error)) {
	value, err := pathValue(r, "value")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := check(r.Context(), value)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSeed(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Seed(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if result.Seeded {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, toSeedResponse(result))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.Reset(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ResetResponse{Deleted: deleted})
}

// pathValue returns a decoded URL parameter. chi matches on RawPath when the
// client escaped more than needed (a%40b.com), leaving the parameter encoded.
func pathValue(r *http.Request, key string) (string, error) {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value, nil
	}
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid path encoding")
	}
	return decoded, nil
}

// decodeJSON decodes exactly one JSON object from the body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		case errors.As(err, &maxErr):
			return dErrors.New(dErrors.CodeBadRequest, "request body is too large")
		default:
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body")
		}
	}
	if dec.More() {
		return dErrors.New(dErrors.CodeBadRequest, "request body must contain a single JSON object")
	}
	return nil
}

package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/internal/screener"
	"github.com/marketlens/screener/pkg/logger"
)

var validate = validator.New()

// ScreenerHandler handles the screener API endpoints.
type ScreenerHandler struct {
	svc    contracts.ScreenerService
	logger *logger.Logger
}

// NewScreenerHandler creates a new screener handler.
func NewScreenerHandler(svc contracts.ScreenerService, log *logger.Logger) *ScreenerHandler {
	return &ScreenerHandler{
		svc:    svc,
		logger: log,
	}
}

// ownerID pulls the caller identity set by the auth layer. Requests that
// bypass it get a 400, not a panic.
func ownerID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// BoundsRequest is a partial range for one attribute. Lo and Hi are
// pointers: absent means "resolve from corpus extremes".
type BoundsRequest struct {
	Attribute string   `json:"attribute" validate:"required"`
	Period    string   `json:"period" validate:"omitempty,oneof=1D 1W 1M 4M 6M 1Y YTD"`
	Lo        *float64 `json:"lo"`
	Hi        *float64 `json:"hi"`
}

// ResolveBounds resolves and stores a range criterion.
// POST /api/screeners/{name}/bounds
func (h *ScreenerHandler) ResolveBounds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(r)
	if owner == "" {
		respondError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}
	name := mux.Vars(r)["name"]

	var req BoundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := h.svc.ResolveAndStore(ctx, owner, name, req.Attribute, req.Period, req.Lo, req.Hi)
	if err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"screener":  name,
			"attribute": req.Attribute,
		}).Error("Failed to resolve bounds")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    stored,
	})
}

// CriterionRequest carries a categorical, position or flag criterion.
type CriterionRequest struct {
	Values   []string `json:"values,omitempty"`
	Position string   `json:"position,omitempty"`
	Flag     bool     `json:"flag,omitempty"`
}

// SetCriterion writes a non-range criterion.
// PUT /api/screeners/{name}/criteria/{attribute}
func (h *ScreenerHandler) SetCriterion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(r)
	if owner == "" {
		respondError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}
	vars := mux.Vars(r)

	var req CriterionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c := contracts.Criterion{Values: req.Values, Position: req.Position, Flag: req.Flag}
	if err := h.svc.SetCriterion(ctx, owner, vars["name"], vars["attribute"], c); err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"screener":  vars["name"],
			"attribute": vars["attribute"],
		}).Error("Failed to set criterion")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ListMatches runs one named screener.
// GET /api/screeners/{name}/matches
func (h *ScreenerHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(r)
	if owner == "" {
		respondError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}
	name := mux.Vars(r)["name"]

	matches, err := h.svc.ListMatches(ctx, owner, name)
	if err != nil {
		h.logger.WithError(err).WithField("screener", name).Error("Failed to list matches")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    matches,
		"count":   len(matches),
	})
}

// ListCombinedMatches runs every included screener for the caller.
// GET /api/screeners/matches
func (h *ScreenerHandler) ListCombinedMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(r)
	if owner == "" {
		respondError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	matches, err := h.svc.ListCombinedMatches(ctx, owner)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list combined matches")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    matches,
		"count":   len(matches),
	})
}

// ResetRequest names the category tag to clear.
type ResetRequest struct {
	Category string `json:"category" validate:"required"`
}

// ResetCategory clears one criterion category.
// POST /api/screeners/{name}/reset
func (h *ScreenerHandler) ResetCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(r)
	if owner == "" {
		respondError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}
	name := mux.Vars(r)["name"]

	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.ResetCategory(ctx, owner, name, req.Category); err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"screener": name,
			"category": req.Category,
		}).Error("Failed to reset category")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ResetAll clears every criterion from a screener.
// DELETE /api/screeners/{name}/criteria
func (h *ScreenerHandler) ResetAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(r)
	if owner == "" {
		respondError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}
	name := mux.Vars(r)["name"]

	if err := h.svc.ResetAll(ctx, owner, name); err != nil {
		h.logger.WithError(err).WithField("screener", name).Error("Failed to reset screener")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// IncludedRequest flips the combined-view flag.
type IncludedRequest struct {
	Included *bool `json:"included" validate:"required"`
}

// SetIncluded toggles whether the combined view considers a screener.
// PATCH /api/screeners/{name}/included
func (h *ScreenerHandler) SetIncluded(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerID(r)
	if owner == "" {
		respondError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}
	name := mux.Vars(r)["name"]

	var req IncludedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.SetIncluded(ctx, owner, name, *req.Included); err != nil {
		h.logger.WithError(err).WithField("screener", name).Error("Failed to set included flag")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// attributeInfo is the schema listing entry.
type attributeInfo struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Periods   []string `json:"periods,omitempty"`
	Positions []string `json:"positions,omitempty"`
}

// ListAttributes returns the criterion schema.
// GET /api/attributes
func (h *ScreenerHandler) ListAttributes(w http.ResponseWriter, r *http.Request) {
	attrs := screener.Attributes()
	out := make([]attributeInfo, 0, len(attrs))
	for _, at := range attrs {
		info := attributeInfo{Name: at.Name, Kind: at.Kind.String()}
		for p := range at.Periods {
			info.Periods = append(info.Periods, p)
		}
		for p := range at.Positions {
			info.Positions = append(info.Positions, p)
		}
		sort.Strings(info.Periods)
		sort.Strings(info.Positions)
		out = append(out, info)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    out,
	})
}

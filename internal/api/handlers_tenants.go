package api

import (
	"net/http"
	"strings"

	"gitlab.com/yelinaung/bodyshop/internal/logger"
	"gitlab.com/yelinaung/bodyshop/internal/models"
)

type createTenantRequest struct {
	Name string `json:"name"`
}

// POST /api/tenants
func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	tenant := &models.Tenant{Name: name}
	if err := s.tenants.Create(r.Context(), tenant); err != nil {
		s.log.Error().Err(err).Msg("Failed to create tenant")
		writeError(w, http.StatusInternalServerError, "failed to create tenant")
		return
	}

	writeJSON(w, http.StatusCreated, tenant)
}

// handleClearTenantCache drops every cached entry of the tenant, as done when
// a session ends.
// DELETE /api/tenants/{tenantID}/cache
func (s *Server) handleClearTenantCache(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantFrom(r.Context())
	removed := s.cache.ClearTenant(tenantID.String())

	s.log.Debug().
		Str("tenant_hash", logger.HashTenantID(tenantID)).
		Int("removed", removed).
		Msg("Cleared tenant cache")

	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// GET /api/cache/stats
func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

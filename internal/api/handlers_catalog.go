package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/bodyshop/internal/catalog"
	"gitlab.com/yelinaung/bodyshop/internal/logger"
	"gitlab.com/yelinaung/bodyshop/internal/models"
	"gitlab.com/yelinaung/bodyshop/internal/repository"
)

type catalogServiceRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// handleListCatalog returns the tenant's catalog, or the subset named by
// ?ids=a,b.
// GET /api/tenants/{tenantID}/catalog
func (s *Server) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantFrom(r.Context())

	var (
		services []models.CatalogService
		err      error
	)
	if raw, ok := r.URL.Query()["ids"]; ok {
		ids, parseErr := parseIDs(raw)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		services, err = s.catalog.ListByIDs(r.Context(), tenantID, ids)
	} else {
		services, err = s.catalog.List(r.Context(), tenantID)
	}
	if err != nil {
		s.log.Error().Err(err).Str("tenant_hash", logger.HashTenantID(tenantID)).Msg("Failed to list catalog")
		writeError(w, http.StatusInternalServerError, "failed to list catalog")
		return
	}

	writeJSON(w, http.StatusOK, services)
}

// GET /api/tenants/{tenantID}/catalog/{serviceID}
func (s *Server) handleGetCatalogService(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}

	svc, err := s.catalog.Get(r.Context(), tenantFrom(r.Context()), id)
	if err != nil {
		s.writeCatalogError(w, err, "failed to get catalog service")
		return
	}

	writeJSON(w, http.StatusOK, svc)
}

// POST /api/tenants/{tenantID}/catalog
func (s *Server) handleCreateCatalogService(w http.ResponseWriter, r *http.Request) {
	var req catalogServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svc := &models.CatalogService{
		TenantID: tenantFrom(r.Context()),
		Name:     req.Name,
		Price:    req.Price,
	}
	if err := s.catalog.Create(r.Context(), svc); err != nil {
		s.writeCatalogError(w, err, "failed to create catalog service")
		return
	}

	writeJSON(w, http.StatusCreated, svc)
}

// PUT /api/tenants/{tenantID}/catalog/{serviceID}
func (s *Server) handleUpdateCatalogService(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}

	var req catalogServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svc := &models.CatalogService{
		ID:       id,
		TenantID: tenantFrom(r.Context()),
		Name:     req.Name,
		Price:    req.Price,
	}
	if err := s.catalog.Update(r.Context(), svc); err != nil {
		s.writeCatalogError(w, err, "failed to update catalog service")
		return
	}

	writeJSON(w, http.StatusOK, svc)
}

// DELETE /api/tenants/{tenantID}/catalog/{serviceID}
func (s *Server) handleDeleteCatalogService(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}

	if err := s.catalog.Delete(r.Context(), tenantFrom(r.Context()), id); err != nil {
		s.writeCatalogError(w, err, "failed to delete catalog service")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeCatalogError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, catalog.ErrNameTooLong),
		errors.Is(err, catalog.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "catalog service not found")
	default:
		s.log.Error().Err(err).Msg(msg)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

// parseIDs accepts repeated and comma separated ids; blanks are skipped.
func parseIDs(values []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, errors.New("invalid id in ids: " + part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

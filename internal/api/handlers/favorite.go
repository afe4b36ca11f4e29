package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terrain-ouvert/datahub/internal/api/middleware"
	"github.com/terrain-ouvert/datahub/internal/domain/favorite"
	"github.com/terrain-ouvert/datahub/internal/pkg/logger"
	"github.com/terrain-ouvert/datahub/internal/pkg/utils"
	"github.com/terrain-ouvert/datahub/internal/query"
)

// FavoriteHandler serves the favorites of the authenticated user
type FavoriteHandler struct {
	service     favorite.Service
	listOptions query.Options
	logger      *logger.Logger
}

// NewFavoriteHandler creates a new favorites handler. listOptions should
// carry the favorites page size.
func NewFavoriteHandler(service favorite.Service, listOptions query.Options, log *logger.Logger) *FavoriteHandler {
	return &FavoriteHandler{
		service:     service,
		listOptions: listOptions,
		logger:      log,
	}
}

// List returns a page of the user's favorite publications
// @Summary List favorites
// @Tags Favorites
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 15, max: 100)"
// @Success 200 {object} utils.SuccessResponse "Page of publications"
// @Security BearerAuth
// @Router /resources/fav [get]
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)
	plan := query.Compile(r.URL.Query(), h.listOptions)

	page, err := h.service.List(r.Context(), userID, plan)
	if err != nil {
		respondError(w, r, h.logger, err, "Failed to list favorites")
		return
	}
	respondPage(w, r, h.logger, page)
}

// Toggle adds or removes a publication from the user's favorites
// @Summary Toggle favorite
// @Tags Favorites
// @Produce json
// @Param id path string true "Publication ID"
// @Success 200 {object} utils.SuccessResponse{data=utils.Payload{data=favorite.ToggleResult}} "Updated favorites"
// @Failure 404 {object} utils.ErrorResponse "Publication not found"
// @Security BearerAuth
// @Router /resources/fav/{id} [get]
func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	res, err := h.service.Toggle(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err, "Failed to toggle favorite")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, res)
}

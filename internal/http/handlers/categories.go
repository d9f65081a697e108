package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"modaflow/internal/domain"
	"modaflow/internal/i18n"
)

type categoryCreateRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

type categoryCreatedResponse struct {
	Category *domain.Category `json:"category"`
	Message  string           `json:"message"`
}

func (a *App) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.Categories.ListCategories(r.Context())
	if err != nil {
		a.catalogError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": categories})
}

func (a *App) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	if isRemote(strings.TrimSpace(req.ImageURL)) {
		a.error(w, http.StatusBadRequest, "remote_image_not_allowed", a.text(r, i18n.KeyRemoteNotAllowed))
		return
	}
	category, err := a.Categories.AddCategory(r.Context(), domain.Category{Name: req.Name, ImageURL: req.ImageURL})
	if err != nil {
		a.catalogError(w, r, err)
		return
	}
	a.logger().Info().Str("category_id", category.ID).Str("name", category.Name).Msg("category added")
	a.json(w, http.StatusCreated, categoryCreatedResponse{Category: category, Message: a.text(r, i18n.KeyCategoryAdded)})
}

// DeleteCategory removes the category only; products filed under it stay.
func (a *App) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := a.Categories.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.catalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

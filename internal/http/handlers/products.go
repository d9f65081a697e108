package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"modaflow/internal/catalog"
	"modaflow/internal/domain"
	"modaflow/internal/i18n"
)

// tagList accepts either a JSON array or a comma separated string.
type tagList []string

func (t *tagList) UnmarshalJSON(b []byte) error {
	var csv string
	if err := json.Unmarshal(b, &csv); err == nil {
		*t = catalog.ParseTags(csv)
		return nil
	}
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*t = items
	return nil
}

type productCreateRequest struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Tags        tagList `json:"tags"`
	ImageURL    string  `json:"image_url"`
	Description string  `json:"description"`
}

type productCreatedResponse struct {
	Product *domain.Product `json:"product"`
	Message string          `json:"message"`
}

func (a *App) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := a.Products.ListProducts(r.Context(), domain.ProductFilter{
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
	})
	if err != nil {
		a.logger().Error().Err(err).Msg("list products")
		a.error(w, http.StatusInternalServerError, "internal", http.StatusText(http.StatusInternalServerError))
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": products})
}

func (a *App) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := a.Products.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.catalogError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, product)
}

func (a *App) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	if isRemote(strings.TrimSpace(req.ImageURL)) {
		a.error(w, http.StatusBadRequest, "remote_image_not_allowed", a.text(r, i18n.KeyRemoteNotAllowed))
		return
	}
	if !a.categoryExists(r, req.Category) {
		a.error(w, http.StatusBadRequest, "invalid_product", a.text(r, i18n.KeyInvalidProduct))
		return
	}
	product, err := a.Products.AddProduct(r.Context(), domain.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.Category,
		Tags:        req.Tags,
		ImageURL:    req.ImageURL,
		Description: req.Description,
	})
	if err != nil {
		a.catalogError(w, r, err)
		return
	}
	a.logger().Info().Str("product_id", product.ID).Str("sku", product.SKU).Msg("product added")
	a.json(w, http.StatusCreated, productCreatedResponse{Product: product, Message: a.text(r, i18n.KeyProductAdded)})
}

func (a *App) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := a.Products.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.catalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// categoryExists reports whether name matches a known category. An empty name
// is left for AddProduct to reject.
func (a *App) categoryExists(r *http.Request, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || a.Categories == nil {
		return true
	}
	categories, err := a.Categories.ListCategories(r.Context())
	if err != nil {
		return false
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (a *App) catalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		key := i18n.KeyProductNotFound
		if strings.Contains(r.URL.Path, "/categories") {
			key = i18n.KeyCategoryNotFound
		}
		a.error(w, http.StatusNotFound, "not_found", a.text(r, key))
	case errors.Is(err, domain.ErrInvalidProduct):
		a.error(w, http.StatusBadRequest, "invalid_product", a.text(r, i18n.KeyInvalidProduct))
	case errors.Is(err, domain.ErrInvalidCategory):
		a.error(w, http.StatusBadRequest, "invalid_category", a.text(r, i18n.KeyInvalidCategory))
	case errors.Is(err, domain.ErrDuplicate):
		a.error(w, http.StatusConflict, "duplicate_category", a.text(r, i18n.KeyDuplicateCategory))
	default:
		a.logger().Error().Err(err).Str("path", r.URL.Path).Msg("catalog operation failed")
		a.error(w, http.StatusInternalServerError, "internal", http.StatusText(http.StatusInternalServerError))
	}
}

package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"modaflow/internal/i18n"
	"modaflow/internal/middleware"
	"modaflow/internal/tryon"
)

type tryOnRequest struct {
	UserImage    string `json:"user_image"`
	ProductID    string `json:"product_id"`
	ProductImage string `json:"product_image"`
	ProductName  string `json:"product_name"`
	Instructions string `json:"instructions"`
}

type tryOnResponse struct {
	Image       string    `json:"image"`
	MediaType   string    `json:"media_type"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
	ShareText   string    `json:"share_text,omitempty"`
	ShareURL    string    `json:"share_url,omitempty"`
}

// TryOn renders the shopper wearing the selected garment. product_id takes
// precedence over product_image when both are present. Images sent by the
// caller must be inline; only catalog products may point at remote addresses.
func (a *App) TryOn(w http.ResponseWriter, r *http.Request) {
	var req tryOnRequest
	if !a.decode(w, r, &req) {
		return
	}

	userImage := strings.TrimSpace(req.UserImage)
	productImage := strings.TrimSpace(req.ProductImage)
	productName := strings.TrimSpace(req.ProductName)
	productID := strings.TrimSpace(req.ProductID)
	if isRemote(userImage) || (productID == "" && isRemote(productImage)) {
		a.error(w, http.StatusBadRequest, "remote_image_not_allowed", a.text(r, i18n.KeyRemoteNotAllowed))
		return
	}

	productRef := tryon.Inline(productImage)
	if productID != "" {
		product, err := a.Products.GetProduct(r.Context(), productID)
		if err != nil {
			a.catalogError(w, r, err)
			return
		}
		productRef = tryon.ParseReference(product.ImageURL)
		productName = product.Name
	}

	result, err := a.Requester.RequestTryOn(r.Context(), tryon.Request{
		UserImage:    tryon.Inline(userImage),
		ProductImage: productRef,
		Instructions: req.Instructions,
	})
	if err != nil {
		a.tryOnError(w, r, err)
		return
	}

	resp := tryOnResponse{
		Image:       result.Image.DataURI(),
		MediaType:   string(result.Image.MediaType),
		Model:       result.Model,
		GeneratedAt: result.GeneratedAt,
	}
	if productName != "" {
		resp.ShareText = a.text(r, i18n.KeyShareText, productName)
		resp.ShareURL = whatsAppLink(resp.ShareText)
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) tryOnError(w http.ResponseWriter, r *http.Request, err error) {
	kind := tryon.KindOf(err)
	status, key := http.StatusInternalServerError, i18n.KeyGeneric
	switch kind {
	case tryon.KindConfiguration:
		status, key = http.StatusServiceUnavailable, i18n.KeyMissingCredential
	case tryon.KindInvalidRequest:
		status, key = http.StatusBadRequest, i18n.KeyMissingInput
	case tryon.KindFetch, tryon.KindDecode:
		status, key = http.StatusUnprocessableEntity, i18n.KeyRemoteImage
	case tryon.KindBadRequest:
		status, key = http.StatusBadRequest, i18n.KeyBadRequest
	case tryon.KindNoImage:
		status, key = http.StatusUnprocessableEntity, i18n.KeyNoImage
	case tryon.KindCapability:
		status = http.StatusBadGateway
	}

	code := string(kind)
	if code == "" {
		code = "internal"
	}
	var event *zerolog.Event
	if status >= http.StatusInternalServerError {
		event = a.logger().Error()
	} else {
		event = a.logger().Warn()
	}
	event.Err(err).
		Str("kind", code).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("try-on failed")

	// Client went away.
	if r.Context().Err() != nil {
		return
	}
	a.error(w, status, code, a.text(r, key))
}

func isRemote(raw string) bool {
	return tryon.ParseReference(raw).Kind == tryon.ReferenceRemote
}

// whatsAppLink builds a wa.me share link. Spaces are percent-encoded rather
// than "+" so the message reads correctly in every client.
func whatsAppLink(text string) string {
	return "https://wa.me/?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

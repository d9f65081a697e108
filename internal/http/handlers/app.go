package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"modaflow/internal/domain"
	"modaflow/internal/i18n"
	"modaflow/internal/infra"
	"modaflow/internal/middleware"
	"modaflow/internal/tryon"
)

// TryOnService is satisfied by *tryon.Requester.
type TryOnService interface {
	RequestTryOn(ctx context.Context, req tryon.Request) (tryon.Result, error)
}

// DefaultMaxBodyBytes bounds JSON request bodies. Try-on bodies carry two
// base64 images, so this sits well above the per-image limit.
const DefaultMaxBodyBytes = 32 << 20

type App struct {
	Products     domain.ProductRepository
	Categories   domain.CategoryRepository
	Requester    TryOnService
	Logger       *infra.Logger
	MaxBodyBytes int64
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorBody{Error: errorDetail{Code: errCode, Message: message}})
}

// text renders a message key in the request's negotiated locale.
func (a *App) text(r *http.Request, key string, args ...any) string {
	return i18n.Text(middleware.LocaleFromContext(r.Context()), key, args...)
}

func (a *App) logger() *infra.Logger {
	if a.Logger == nil {
		return infra.NopLogger()
	}
	return a.Logger
}

// decode reads a JSON body into v, enforcing MaxBodyBytes. It writes the error
// response itself and reports whether decoding succeeded.
func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	limit := a.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", a.text(r, i18n.KeyInvalidPayload))
			return false
		}
		a.error(w, http.StatusBadRequest, "bad_request", a.text(r, i18n.KeyInvalidPayload))
		return false
	}
	return true
}

// Forbidden answers requests whose X-Role does not allow the action.
func (a *App) Forbidden(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusForbidden, "role_required", a.text(r, i18n.KeyRoleRequired))
}

// TooManyRequests answers clients that exhausted their try-on quota.
func (a *App) TooManyRequests(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusTooManyRequests, "rate_limited", a.text(r, i18n.KeyRateLimited))
}

// NotFound answers unmatched routes with the JSON envelope.
func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusNotFound, "not_found", http.StatusText(http.StatusNotFound))
}

// MethodNotAllowed answers known routes called with the wrong method.
func (a *App) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusMethodNotAllowed, "method_not_allowed", http.StatusText(http.StatusMethodNotAllowed))
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	domcart "example.com/rocketshoes/app/internal/domain/cart"
	domnotification "example.com/rocketshoes/app/internal/domain/notification"
	domproduct "example.com/rocketshoes/app/internal/domain/product"
	domsession "example.com/rocketshoes/app/internal/domain/session"
	sessionuc "example.com/rocketshoes/app/internal/usecase/session"
)

type API struct {
	sessionSvc     *sessionuc.Service
	validator      *validator.Validate
	log            *logrus.Entry
	allowedOrigins []string
}

type Dependencies struct {
	SessionService *sessionuc.Service
	Logger         *logrus.Entry
	// AllowedOrigins lists the storefront origins allowed to call the API
	// from a browser. Empty means "*".
	AllowedOrigins []string
}

func NewAPI(deps Dependencies) *API {
	validate := validator.New()
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &API{
		sessionSvc:     deps.SessionService,
		validator:      validate,
		log:            deps.Logger,
		allowedOrigins: origins,
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(a.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	}))
	r.Use(chimw.AllowContentType("application/json", "text/plain"))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", a.handleStartSession)

		r.Group(func(sr chi.Router) {
			sr.Use(a.sessionMiddleware)
			sr.Delete("/sessions/current", a.handleEndSession)
			sr.Get("/cart", a.handleGetCart)
			sr.Post("/cart/items", a.handleAddCartItem)
			sr.Patch("/cart/items/{id}", a.handleUpdateCartItem)
			sr.Delete("/cart/items/{id}", a.handleRemoveCartItem)
			sr.Get("/notifications", a.handleDrainNotifications)
		})
	})

	return r
}

// Handler is the router wrapped in server-side tracing, so spans started by
// the cart store join the caller's trace.
func (a *API) Handler(opts ...otelhttp.Option) http.Handler {
	return otelhttp.NewHandler(a.Router(), "rocketshoes.http", opts...)
}

func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return a.validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error         string                         `json:"error"`
	Notifications []domnotification.Notification `json:"notifications,omitempty"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseIDParam(r *http.Request, key string) (int64, error) {
	idStr := chi.URLParam(r, key)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("id must be positive")
	}
	return id, nil
}

func mapCart(c domcart.Cart) map[string]any {
	items := make([]map[string]any, 0, len(c.Items))
	for _, item := range c.Items {
		subtotal := item.Subtotal()
		view := map[string]any{
			"id":                 item.ID,
			"title":              item.Title,
			"price":              item.Price,
			"price_formatted":    domproduct.FormatPrice(item.PriceDecimal()),
			"image":              item.Image,
			"amount":             item.Amount,
			"subtotal":           subtotal.StringFixed(2),
			"subtotal_formatted": domproduct.FormatPrice(subtotal),
		}
		for k, v := range item.Extra {
			if _, taken := view[k]; !taken {
				view[k] = v
			}
		}
		items = append(items, view)
	}
	total := c.Total()
	return map[string]any{
		"items":           items,
		"count":           c.Count(),
		"total":           total.StringFixed(2),
		"total_formatted": domproduct.FormatPrice(total),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domsession.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domsession.ErrInvalidSession):
		return http.StatusBadRequest
	case errors.Is(err, domcart.ErrItemNotFound),
		errors.Is(err, domproduct.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domcart.ErrInvalidAmount),
		errors.Is(err, domproduct.ErrOutOfStock):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func handleDomainError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err)
}

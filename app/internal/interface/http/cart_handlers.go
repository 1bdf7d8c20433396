package http

import (
	"net/http"

	domnotification "example.com/rocketshoes/app/internal/domain/notification"

	cartuc "example.com/rocketshoes/app/internal/usecase/cart"
	sessionuc "example.com/rocketshoes/app/internal/usecase/session"
)

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// Amount is not range-checked here: the cart store rejects values below
// one and tells the shopper through a toast.
type updateCartItemRequest struct {
	Amount *int64 `json:"amount" validate:"required"`
}

func (a *API) shopper(w http.ResponseWriter, r *http.Request) (*sessionuc.Shopper, bool) {
	sh, err := a.sessionSvc.Shopper(r.Context(), getSessionID(r.Context()))
	if err != nil {
		handleDomainError(w, err)
		return nil, false
	}
	return sh, true
}

// respondMutation reports the cart after an operation together with the
// toasts that operation produced. Toasts from other requests stay in the
// inbox for GET /notifications.
func respondMutation(w http.ResponseWriter, sh *sessionuc.Shopper, toasts *domnotification.Collector, err error) {
	notifications := toasts.Notifications()
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{
			Error:         err.Error(),
			Notifications: notifications,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cart":          mapCart(sh.Cart.Cart()),
		"notifications": notifications,
	})
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	sh, ok := a.shopper(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mapCart(sh.Cart.Cart()))
}

func (a *API) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	sh, ok := a.shopper(w, r)
	if !ok {
		return
	}

	ctx, toasts := domnotification.WithCollector(r.Context())
	err := sh.Cart.AddProduct(ctx, req.ProductID)
	respondMutation(w, sh, toasts, err)
}

func (a *API) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var req updateCartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	sh, ok := a.shopper(w, r)
	if !ok {
		return
	}

	ctx, toasts := domnotification.WithCollector(r.Context())
	err = sh.Cart.UpdateProductAmount(ctx, cartuc.UpdateAmountInput{
		ProductID: id,
		Amount:    *req.Amount,
	})
	respondMutation(w, sh, toasts, err)
}

func (a *API) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	sh, ok := a.shopper(w, r)
	if !ok {
		return
	}

	ctx, toasts := domnotification.WithCollector(r.Context())
	err = sh.Cart.RemoveProduct(ctx, id)
	respondMutation(w, sh, toasts, err)
}

func (a *API) handleDrainNotifications(w http.ResponseWriter, r *http.Request) {
	sh, ok := a.shopper(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": sh.Inbox.Drain()})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/server/http/dto"
	"github.com/polkiloo/payledger/internal/usecase"
)

// CheckoutHandler starts provider checkout for authenticated buyers.
type CheckoutHandler struct {
	facade       CheckoutFacade
	exposeDetail bool
}

// NewCheckoutHandler constructs CheckoutHandler. With exposeDetail the
// provider error text is returned on 502 responses.
func NewCheckoutHandler(facade CheckoutFacade, exposeDetail bool) *CheckoutHandler {
	return &CheckoutHandler{facade: facade, exposeDetail: exposeDetail}
}

// Create handles POST /api/payments/checkout-session.
func (h *CheckoutHandler) Create(c *gin.Context) {
	buyer, ok := CurrentPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.CheckoutRequest
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := usecase.Validate(req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request")
		return
	}

	checkout, err := h.facade.StartCheckout(c.Request.Context(), buyer, req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidProduct):
			respondError(c, http.StatusBadRequest, "Invalid product")
		case errors.Is(err, domainErrors.ErrProviderUnavailable):
			if h.exposeDetail {
				respondError(c, http.StatusBadGateway, err.Error())
				return
			}
			respondError(c, http.StatusBadGateway, "Payment setup failed")
		default:
			respondError(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, dto.CheckoutResponse{
		CheckoutURL:     checkout.CheckoutURL,
		StripeSessionID: checkout.SessionID,
		OrderID:         checkout.OrderID,
	})
}

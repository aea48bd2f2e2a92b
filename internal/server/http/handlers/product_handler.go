package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/payledger/internal/server/http/dto"
)

type ProductHandler struct {
	facade ProductFacade
}

func NewProductHandler(facade ProductFacade) *ProductHandler {
	return &ProductHandler{facade: facade}
}

// List handles GET /api/products.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.facade.Products(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		response = append(response, dto.ProductResponse{
			ID:          p.ID,
			Name:        p.Name,
			AmountCents: p.AmountCents,
			Currency:    p.Currency,
		})
	}
	c.JSON(http.StatusOK, response)
}

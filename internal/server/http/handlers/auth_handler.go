package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/server/http/dto"
	"github.com/polkiloo/payledger/internal/server/http/middleware"
)

// AuthHandler processes registration and login.
type AuthHandler struct {
	facade       AuthFacade
	secureCookie bool
}

// NewAuthHandler creates AuthHandler instance.
func NewAuthHandler(facade AuthFacade, secureCookie bool) *AuthHandler {
	return &AuthHandler{facade: facade, secureCookie: secureCookie}
}

// Register handles POST /api/user/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request")
		return
	}

	token, err := h.facade.Register(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidCredentials):
			respondError(c, http.StatusBadRequest, "Invalid credentials")
		case errors.Is(err, domainErrors.ErrAlreadyExists):
			respondError(c, http.StatusConflict, "Login already taken")
		default:
			respondError(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	middleware.SetAuthCookie(c, token, h.secureCookie)
	c.JSON(http.StatusOK, dto.NewAuthResponse(token))
}

// Login handles POST /api/user/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request")
		return
	}

	token, err := h.facade.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "Invalid credentials")
		default:
			respondError(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	middleware.SetAuthCookie(c, token, h.secureCookie)
	c.JSON(http.StatusOK, dto.NewAuthResponse(token))
}

package handlers

import (
	"net/http"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	"github.com/Harsha992004/online-bus-booking-app/internal/http/middleware"
	"github.com/Harsha992004/online-bus-booking-app/internal/services"

	"github.com/gin-gonic/gin"
)

// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var in services.RegisterInput
	if !BindJSONOrError(c, &in) {
		return
	}
	u, err := h.accounts(c).Register(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var p loginPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	res, err := h.accounts(c).Login(c.Request.Context(), p.Email, p.Password)
	if domain.IsForbidden(err) {
		respondError(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
		return
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type forgotPayload struct {
	Email string `json:"email"`
}

// POST /api/auth/forgot-password
// The code goes out by mail; the response only carries the token id.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var p forgotPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	token, err := h.accounts(c).ForgotPassword(c.Request.Context(), p.Email)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token})
}

type resetPayload struct {
	Token       string `json:"token"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// POST /api/auth/reset-password
func (h *Handler) ResetPassword(c *gin.Context) {
	var p resetPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	if err := h.accounts(c).ResetPassword(c.Request.Context(), p.Token, p.Code, p.NewPassword); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/profile
func (h *Handler) Profile(c *gin.Context) {
	u, err := h.accounts(c).Profile(c.Request.Context(), middleware.Caller(c).UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type profilePayload struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// PUT /api/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var p profilePayload
	if !BindJSONOrError(c, &p) {
		return
	}
	u, err := h.accounts(c).UpdateProfile(c.Request.Context(), middleware.Caller(c).UserID, p.Name, p.Phone)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type passwordPayload struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// POST /api/profile/password
func (h *Handler) ChangePassword(c *gin.Context) {
	var p passwordPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	err := h.accounts(c).ChangePassword(c.Request.Context(), middleware.Caller(c).UserID, p.CurrentPassword, p.NewPassword)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

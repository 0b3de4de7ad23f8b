package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain"
	"github.com/therebootai/democlinicsoftwarebackend/internal/service"
)

type AuthHandler struct {
	authSvc *service.AuthService
	otpSvc  *service.OTPService
}

func NewAuthHandler(authSvc *service.AuthService, otpSvc *service.OTPService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, otpSvc: otpSvc}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var cmd service.RegisterCommand
	if !bindJSON(c, &cmd) {
		return
	}

	u, err := h.authSvc.Register(c.Request.Context(), &cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "user registered successfully", u)
}

type loginRequest struct {
	// Identifier is an email address or a phone number.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, pair, err := h.authSvc.Login(c.Request.Context(), req.Identifier, req.Password, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "login successful", gin.H{
		"user":   user,
		"tokens": pair,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authSvc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "token refreshed", pair)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	claims, _ := c.Get(ctxClaims)
	cl, ok := claims.(*domain.Claims)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "missing claims")
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), cl.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "password changed successfully", nil)
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.authSvc.ListUsers(c.Request.Context(), c.Query("designation"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "users fetched successfully", users)
}

func (h *AuthHandler) GetUser(c *gin.Context) {
	u, err := h.authSvc.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "user fetched successfully", u)
}

func (h *AuthHandler) DeleteUser(c *gin.Context) {
	if err := h.authSvc.DeleteUser(c.Request.Context(), c.Param("userId")); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "user deleted successfully", nil)
}

type otpRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"otp,omitempty"`
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req otpRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.otpSvc.Issue(c.Request.Context(), req.Phone); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "otp sent successfully", nil)
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req otpRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.otpSvc.Verify(c.Request.Context(), req.Phone, req.Code); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "otp verified successfully", nil)
}

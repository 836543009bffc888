package handler

import (
	"time"

	"notemate/dto"
	"notemate/middleware"
	"notemate/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.Auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, "User registered successfully", res)
}

func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), req, c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Login successful", res)
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.Auth.Me(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.Auth.UpdateProfile(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Profile updated successfully", user)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Auth.ChangePassword(c.Request.Context(), actor(c), req); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Password changed successfully", nil)
}

// ForgotPassword answers the same way whether or not the address is known.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "If an account exists for that email, a reset link has been sent", nil)
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.Auth.ResetPassword(c.Request.Context(), c.Param("resetToken"), req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Password reset successful", res)
}

func (h *Handler) Logout(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		utils.Unauthorized(c, "Not authorized, no token")
		return
	}
	expiresAt := time.Now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := h.Auth.Logout(c.Request.Context(), claims.ID, expiresAt); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Logged out successfully", nil)
}

func (h *Handler) SetupTwoFactor(c *gin.Context) {
	setup, err := h.Auth.SetupTwoFactor(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Scan the QR code and confirm with a code to enable two-factor authentication", setup)
}

func (h *Handler) EnableTwoFactor(c *gin.Context) {
	var req dto.TwoFactorCodeRequest
	if !bind(c, &req) {
		return
	}
	enabled, err := h.Auth.EnableTwoFactor(c.Request.Context(), actor(c), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Two-factor authentication enabled. Save these recovery codes securely, they will not be shown again.", enabled)
}

func (h *Handler) DisableTwoFactor(c *gin.Context) {
	var req dto.TwoFactorCodeRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Auth.DisableTwoFactor(c.Request.Context(), actor(c), req.Code); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessMessage(c, "Two-factor authentication disabled", nil)
}

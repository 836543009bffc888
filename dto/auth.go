package dto

import (
	"strings"

	"notemate/model"
)

type RegisterRequest struct {
	Name     string     `json:"name" binding:"required,min=2,max=50"`
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required,min=6,max=72"`
	Role     model.Role `json:"role" binding:"omitempty,oneof=student teacher"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
}

type LoginRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required"`
	TwoFactorCode string `json:"twoFactorCode"`
	RecoveryCode  string `json:"recoveryCode"`
}

func (r *LoginRequest) Normalize() { r.Email = NormalizeEmail(r.Email) }

type UpdateProfileRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=2,max=50"`
	University *string `json:"university" binding:"omitempty,max=100"`
	Course     *string `json:"course" binding:"omitempty,max=100"`
	Year       *int    `json:"year" binding:"omitempty,min=1,max=10"`
	Bio        *string `json:"bio" binding:"omitempty,max=500"`
	Avatar     *string `json:"avatar" binding:"omitempty,max=500"`
}

func (r *UpdateProfileRequest) Normalize() {
	trim(r.Name)
	trim(r.University)
	trim(r.Course)
	trim(r.Bio)
	trim(r.Avatar)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (r *ForgotPasswordRequest) Normalize() { r.Email = NormalizeEmail(r.Email) }

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type TwoFactorCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type TwoFactorEnabled struct {
	RecoveryCodes []string `json:"recoveryCodes"`
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"forum-server/internal/http/middleware"
	"forum-server/internal/services"
	"forum-server/internal/utils"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Email     string `json:"email" binding:"required"`
	InviteKey string `json:"inviteKey" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TwoFaConfirmRequest struct {
	TempToken string `json:"tempToken" binding:"required"`
	Code      string `json:"code" binding:"required,len=6"`
}

type TwoFaChangeConfirmRequest struct {
	Code string `json:"code" binding:"required,len=6"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required"`
}

type PasswordResetConfirmRequest struct {
	Email       string `json:"email" binding:"required"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.auth.Register(services.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		InviteKey: req.InviteKey,
		ClientIP:  c.ClientIP(),
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	result, err := h.auth.Login(req.Username, req.Password, c.ClientIP())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if result.RequiresTwoFa {
		c.JSON(http.StatusOK, gin.H{"requiresTwoFa": true, "tempToken": result.TempToken})
		return
	}
	c.JSON(http.StatusOK, result.Session)
}

func (h *AuthHandler) ConfirmTwoFaLogin(c *gin.Context) {
	var req TwoFaConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.auth.ConfirmTwoFaLogin(req.TempToken, req.Code)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.auth.Logout(middleware.TokenFrom(c))
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) RequestTwoFaEnable(c *gin.Context) {
	h.requestTwoFaChange(c, true)
}

func (h *AuthHandler) RequestTwoFaDisable(c *gin.Context) {
	h.requestTwoFaChange(c, false)
}

func (h *AuthHandler) requestTwoFaChange(c *gin.Context, enable bool) {
	actor := middleware.ActorFrom(c)
	if err := h.auth.RequestTwoFaChange(actor.ID, enable, c.ClientIP()); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
}

func (h *AuthHandler) ConfirmTwoFaEnable(c *gin.Context) {
	h.confirmTwoFaChange(c, true)
}

func (h *AuthHandler) ConfirmTwoFaDisable(c *gin.Context) {
	h.confirmTwoFaChange(c, false)
}

func (h *AuthHandler) confirmTwoFaChange(c *gin.Context, enable bool) {
	var req TwoFaChangeConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	actor := middleware.ActorFrom(c)
	if err := h.auth.ConfirmTwoFaChange(actor.ID, enable, req.Code); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"twoFaEnabled": enable})
}

// RequestPasswordReset always answers with the same message; whether the
// email exists must not be observable.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	err := h.auth.RequestPasswordReset(req.Email, c.ClientIP())
	if err != nil && !errors.Is(err, services.ErrUnknownEmail) {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "if that email is registered, a code has been sent"})
}

func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	if err := h.auth.ConfirmPasswordReset(req.Email, req.Code, req.NewPassword, c.ClientIP()); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	actor := middleware.ActorFrom(c)
	if err := h.auth.ChangePassword(actor.ID, req.CurrentPassword, req.NewPassword, c.ClientIP()); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

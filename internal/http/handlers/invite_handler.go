package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"forum-server/internal/http/middleware"
	"forum-server/internal/services"
	"forum-server/internal/utils"
)

type InviteHandler struct {
	invites *services.InviteService
}

func NewInviteHandler(invites *services.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

type GenerateKeysRequest struct {
	Count int `json:"count"`
}

type RedeemKeyRequest struct {
	Key string `json:"key" binding:"required"`
}

func (h *InviteHandler) Generate(c *gin.Context) {
	var req GenerateKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	keys, err := h.invites.Generate(middleware.ActorFrom(c), req.Count)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"keys": keys})
}

func (h *InviteHandler) Mine(c *gin.Context) {
	resp, err := h.invites.ListMine(middleware.ActorFrom(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InviteHandler) All(c *gin.Context) {
	keys, err := h.invites.ListAll()
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

func (h *InviteHandler) Redeem(c *gin.Context) {
	var req RedeemKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	if err := h.invites.Redeem(middleware.ActorFrom(c).ID, req.Key); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "access restored"})
}

func (h *InviteHandler) Revoke(c *gin.Context) {
	if err := h.invites.Revoke(c.Param("keyId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "key revoked"})
}

func (h *InviteHandler) Delete(c *gin.Context) {
	if err := h.invites.Delete(c.Param("keyId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "key deleted"})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"forum-server/internal/http/middleware"
	"forum-server/internal/services"
	"forum-server/internal/utils"
)

type StoreHandler struct {
	store *services.StoreService
}

func NewStoreHandler(store *services.StoreService) *StoreHandler {
	return &StoreHandler{store: store}
}

type CreateIntentRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

type SetTOSRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type PaymentConfigRequest struct {
	APIKey         string `json:"apiKey" binding:"required"`
	PublishableKey string `json:"publishableKey" binding:"required"`
}

func (h *StoreHandler) Products(c *gin.Context) {
	resp, err := h.store.Products()
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) CreateProduct(c *gin.Context) {
	var req services.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.store.CreateProduct(req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *StoreHandler) UpdateProduct(c *gin.Context) {
	var req services.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.store.UpdateProduct(c.Param("productId"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) DeleteProduct(c *gin.Context) {
	if err := h.store.DeleteProduct(c.Param("productId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

func (h *StoreHandler) CreateIntent(c *gin.Context) {
	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	intent, err := h.store.CreateIntent(c.Request.Context(), middleware.ActorFrom(c), req.ProductID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clientSecret": intent.ClientSecret})
}

func (h *StoreHandler) Checkout(c *gin.Context) {
	var req services.CheckoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.store.Checkout(middleware.ActorFrom(c), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *StoreHandler) Orders(c *gin.Context) {
	resp, err := h.store.Orders(middleware.ActorFrom(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) TOS(c *gin.Context) {
	resp, err := h.store.TOS()
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) SetTOS(c *gin.Context) {
	var req SetTOSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.store.SetTOS(req.Title, req.Content)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) PaymentConfig(c *gin.Context) {
	resp, err := h.store.PaymentConfig()
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) SetPaymentConfig(c *gin.Context) {
	var req PaymentConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	if err := h.store.SetPaymentConfig(req.APIKey, req.PublishableKey); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment provider configured"})
}

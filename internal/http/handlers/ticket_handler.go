package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"forum-server/internal/http/middleware"
	"forum-server/internal/services"
	"forum-server/internal/utils"
)

type TicketHandler struct {
	tickets *services.TicketService
}

func NewTicketHandler(tickets *services.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

type CreateTicketRequest struct {
	Subject     string `json:"subject" binding:"required"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category"`
}

type TicketRespondRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *TicketHandler) List(c *gin.Context) {
	resp, err := h.tickets.List(middleware.ActorFrom(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.tickets.Create(middleware.ActorFrom(c), req.Subject, req.Description, req.Category)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *TicketHandler) Respond(c *gin.Context) {
	var req TicketRespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.tickets.Respond(middleware.ActorFrom(c), c.Param("ticketId"), req.Message)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TicketHandler) Close(c *gin.Context) {
	resp, err := h.tickets.Close(c.Param("ticketId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

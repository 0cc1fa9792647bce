package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"forum-server/internal/http/middleware"
	"forum-server/internal/services"
	"forum-server/internal/utils"
)

type ForumHandler struct {
	forums *services.ForumService
}

func NewForumHandler(forums *services.ForumService) *ForumHandler {
	return &ForumHandler{forums: forums}
}

type CreateThreadRequest struct {
	ForumID string `json:"forumId" binding:"required"`
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type CreatePostRequest struct {
	Content string `json:"content" binding:"required"`
}

type ForumStatusRequest struct {
	IsOpen *bool `json:"isOpen" binding:"required"`
}

func (h *ForumHandler) Categories(c *gin.Context) {
	resp, err := h.forums.Categories()
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ForumHandler) Status(c *gin.Context) {
	resp, err := h.forums.Status()
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ForumHandler) SetStatus(c *gin.Context) {
	var req ForumStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	if err := h.forums.SetStatus(*req.IsOpen); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isOpen": *req.IsOpen})
}

func (h *ForumHandler) Threads(c *gin.Context) {
	resp, err := h.forums.Threads(c.Param("forumId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ForumHandler) Thread(c *gin.Context) {
	thread, posts, err := h.forums.Thread(c.Param("threadId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread, "posts": posts})
}

func (h *ForumHandler) CreateThread(c *gin.Context) {
	var req CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.forums.CreateThread(middleware.ActorFrom(c), req.ForumID, req.Title, req.Content)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ForumHandler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.forums.CreatePost(middleware.ActorFrom(c), c.Param("threadId"), req.Content)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ForumHandler) DeleteThread(c *gin.Context) {
	if err := h.forums.DeleteThread(middleware.ActorFrom(c), c.Param("threadId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "thread deleted"})
}

func (h *ForumHandler) DeletePost(c *gin.Context) {
	if err := h.forums.DeletePost(middleware.ActorFrom(c), c.Param("postId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

func (h *ForumHandler) CreateCategory(c *gin.Context) {
	var req services.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.forums.CreateCategory(req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ForumHandler) CreateForum(c *gin.Context) {
	var req services.ForumInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.forums.CreateForum(middleware.ActorFrom(c), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ForumHandler) UpdateForum(c *gin.Context) {
	var req services.ForumInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.forums.UpdateForum(c.Param("forumId"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ForumHandler) DeleteForum(c *gin.Context) {
	if err := h.forums.DeleteForum(c.Param("forumId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "forum deleted"})
}

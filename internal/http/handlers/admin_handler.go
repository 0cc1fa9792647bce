package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"forum-server/internal/services"
	"forum-server/internal/utils"
)

type AdminHandler struct {
	admin *services.AdminService
}

func NewAdminHandler(admin *services.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

type AdminCreateUserRequest struct {
	Username  string  `json:"username" binding:"required"`
	Password  string  `json:"password" binding:"required"`
	Email     string  `json:"email" binding:"required"`
	StaffRole *string `json:"staffRole"`
}

type BanRequest struct {
	Reason   string `json:"reason"`
	Duration string `json:"duration" binding:"required"`
}

type ChangeUIDRequest struct {
	UID int `json:"uid" binding:"required"`
}

type SetStaffRoleRequest struct {
	StaffRole *string `json:"staffRole"`
}

type SetRolesRequest struct {
	Action  string   `json:"action" binding:"required"`
	RoleIDs []string `json:"roleIds" binding:"required"`
}

type AssignRankRequest struct {
	RankID *string `json:"rankId"`
}

func (h *AdminHandler) Users(c *gin.Context) {
	resp, err := h.admin.ListUsers(c.Query("search"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req AdminCreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.admin.CreateUser(services.CreateUserInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		StaffRole: req.StaffRole,
		ClientIP:  c.ClientIP(),
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AdminHandler) Ban(c *gin.Context) {
	var req BanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	if err := h.admin.Ban(c.Param("userId"), req.Reason, req.Duration); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user banned"})
}

func (h *AdminHandler) Unban(c *gin.Context) {
	if err := h.admin.Unban(c.Param("userId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user unbanned"})
}

func (h *AdminHandler) RevokeAccess(c *gin.Context) {
	if err := h.admin.RevokeAccess(c.Param("userId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "forum access revoked"})
}

func (h *AdminHandler) ChangeUID(c *gin.Context) {
	var req ChangeUIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	if err := h.admin.ChangeUID(c.Param("userId"), req.UID); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "uid updated"})
}

func (h *AdminHandler) SetStaffRole(c *gin.Context) {
	var req SetStaffRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	if err := h.admin.SetStaffRole(c.Param("userId"), req.StaffRole); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "staff role updated"})
}

func (h *AdminHandler) SetRoles(c *gin.Context) {
	var req SetRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	if err := h.admin.SetRoles(c.Param("userId"), req.Action, req.RoleIDs); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "roles updated"})
}

func (h *AdminHandler) AccountLogs(c *gin.Context) {
	resp, err := h.admin.AccountLogs()
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) IPRanking(c *gin.Context) {
	resp, err := h.admin.IPRanking()
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) Roles(c *gin.Context) {
	resp, err := h.admin.Roles()
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) CreateRole(c *gin.Context) {
	var req services.RoleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.admin.CreateRole(req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AdminHandler) UpdateRole(c *gin.Context) {
	var req services.RoleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.admin.UpdateRole(c.Param("roleId"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) DeleteRole(c *gin.Context) {
	if err := h.admin.DeleteRole(c.Param("roleId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "role deleted"})
}

func (h *AdminHandler) Ranks(c *gin.Context) {
	resp, err := h.admin.Ranks()
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) CreateRank(c *gin.Context) {
	var req services.RankInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.admin.CreateRank(req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AdminHandler) UpdateRank(c *gin.Context) {
	var req services.RankInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	resp, err := h.admin.UpdateRank(c.Param("rankId"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) DeleteRank(c *gin.Context) {
	if err := h.admin.DeleteRank(c.Param("rankId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rank deleted"})
}

func (h *AdminHandler) AssignRank(c *gin.Context) {
	var req AssignRankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	if err := h.admin.AssignRank(c.Param("userId"), req.RankID); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rank assigned"})
}

package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"forum-server/internal/config"
	"forum-server/internal/http/handlers"
	"forum-server/internal/http/middleware"
	"forum-server/internal/services"
)

type Dependencies struct {
	Config        *config.Config
	AuthService   *services.AuthService
	UserService   *services.UserService
	InviteService *services.InviteService
	ForumService  *services.ForumService
	TicketService *services.TicketService
	StoreService  *services.StoreService
	AdminService  *services.AdminService
	Logger        *slog.Logger
	RateLimiter   *middleware.RateLimiter
}

func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(deps.Config.AllowedOrigins))
	router.Use(deps.RateLimiter.Middleware())

	authHandler := handlers.NewAuthHandler(deps.AuthService)
	userHandler := handlers.NewUserHandler(deps.UserService)
	inviteHandler := handlers.NewInviteHandler(deps.InviteService)
	forumHandler := handlers.NewForumHandler(deps.ForumService)
	ticketHandler := handlers.NewTicketHandler(deps.TicketService)
	storeHandler := handlers.NewStoreHandler(deps.StoreService)
	adminHandler := handlers.NewAdminHandler(deps.AdminService)

	authRequired := middleware.Auth([]byte(deps.Config.JWTSecret), deps.AuthService.IsTokenRevoked)
	forumAccess := middleware.ForumAccess(deps.AuthService.EnsureForumAccess)

	router.GET("/healthz", handlers.Health)

	api := router.Group("/api")

	// Public surface.
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/login/2fa", authHandler.ConfirmTwoFaLogin)
	api.POST("/auth/password-reset/request", authHandler.RequestPasswordReset)
	api.POST("/auth/password-reset/confirm", authHandler.ConfirmPasswordReset)
	// Older SPA builds still call the reset flow under /auth/reset.
	api.POST("/auth/reset/request", authHandler.RequestPasswordReset)
	api.POST("/auth/reset/confirm", authHandler.ConfirmPasswordReset)
	api.GET("/tos", storeHandler.TOS)
	api.GET("/store/products", storeHandler.Products)
	api.GET("/forum/status", forumHandler.Status)

	// Session-holder surface.
	session := api.Group("")
	session.Use(authRequired)
	{
		session.POST("/auth/logout", authHandler.Logout)
		session.POST("/auth/change-password", authHandler.ChangePassword)
		session.POST("/auth/2fa/enable/request", authHandler.RequestTwoFaEnable)
		session.POST("/auth/2fa/enable/confirm", authHandler.ConfirmTwoFaEnable)
		session.POST("/auth/2fa/disable/request", authHandler.RequestTwoFaDisable)
		session.POST("/auth/2fa/disable/confirm", authHandler.ConfirmTwoFaDisable)

		session.GET("/users/me", userHandler.Me)
		session.GET("/users/me/security", userHandler.Security)
		session.PUT("/users/me/profile", userHandler.UpdateProfile)

		session.POST("/invites/redeem", inviteHandler.Redeem)

		session.GET("/tickets", ticketHandler.List)
		session.POST("/tickets", ticketHandler.Create)

		session.POST("/store/create-payment-intent", storeHandler.CreateIntent)
		session.POST("/store/checkout", storeHandler.Checkout)
		session.GET("/store/orders", storeHandler.Orders)
	}

	// Forum surface: session plus the ban / revoked-access gate.
	forum := api.Group("")
	forum.Use(authRequired, forumAccess)
	{
		forum.GET("/forums", forumHandler.Categories)
		forum.GET("/forums/:forumId/threads", forumHandler.Threads)
		forum.POST("/threads", forumHandler.CreateThread)
		forum.GET("/threads/:threadId", forumHandler.Thread)
		forum.DELETE("/threads/:threadId", forumHandler.DeleteThread)
		forum.POST("/threads/:threadId/posts", forumHandler.CreatePost)
		forum.DELETE("/posts/:postId", forumHandler.DeletePost)

		forum.GET("/users/:username", userHandler.Profile)

		forum.POST("/invites/generate", inviteHandler.Generate)
		forum.GET("/invites/mine", inviteHandler.Mine)
	}

	// Staff surface.
	staff := api.Group("/admin")
	staff.Use(authRequired, middleware.Staff())
	{
		staff.GET("/users", adminHandler.Users)
		staff.POST("/users", adminHandler.CreateUser)
		staff.POST("/users/:userId/ban", adminHandler.Ban)
		staff.POST("/users/:userId/unban", adminHandler.Unban)
		staff.POST("/users/:userId/revoke-access", adminHandler.RevokeAccess)
		staff.POST("/users/:userId/roles", adminHandler.SetRoles)
		staff.POST("/users/:userId/rank", adminHandler.AssignRank)

		staff.GET("/keys", inviteHandler.All)
		staff.DELETE("/keys/:keyId", inviteHandler.Delete)

		staff.GET("/account-logs", adminHandler.AccountLogs)
		staff.GET("/ip-ranking", adminHandler.IPRanking)

		staff.GET("/roles", adminHandler.Roles)
		staff.POST("/roles", adminHandler.CreateRole)
		staff.PUT("/roles/:roleId", adminHandler.UpdateRole)
		staff.DELETE("/roles/:roleId", adminHandler.DeleteRole)

		staff.GET("/ranks", adminHandler.Ranks)
		staff.POST("/ranks", adminHandler.CreateRank)
		staff.PUT("/ranks/:rankId", adminHandler.UpdateRank)
		staff.DELETE("/ranks/:rankId", adminHandler.DeleteRank)

		staff.POST("/forum/status", forumHandler.SetStatus)
		staff.POST("/forum/categories", forumHandler.CreateCategory)
		staff.POST("/forums", forumHandler.CreateForum)
		staff.PUT("/forums/:forumId", forumHandler.UpdateForum)
		staff.DELETE("/forums/:forumId", forumHandler.DeleteForum)

		staff.POST("/tickets/:ticketId/respond", ticketHandler.Respond)
		staff.POST("/tickets/:ticketId/close", ticketHandler.Close)

		staff.POST("/store/products", storeHandler.CreateProduct)
		staff.PUT("/store/products/:productId", storeHandler.UpdateProduct)
		staff.DELETE("/store/products/:productId", storeHandler.DeleteProduct)
	}

	// Admin-only surface.
	admin := api.Group("/admin")
	admin.Use(authRequired, middleware.Admin())
	{
		admin.POST("/users/:userId/uid", adminHandler.ChangeUID)
		admin.POST("/users/:userId/staff-role", adminHandler.SetStaffRole)
		admin.POST("/keys/:keyId/revoke", inviteHandler.Revoke)
		admin.POST("/tos", storeHandler.SetTOS)
		admin.GET("/payment-config", storeHandler.PaymentConfig)
		admin.POST("/payment-config", storeHandler.SetPaymentConfig)
	}

	return router
}

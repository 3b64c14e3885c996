package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"research-cms-server/internal/config"
	"research-cms-server/internal/http/handlers"
	"research-cms-server/internal/http/middleware"
	"research-cms-server/internal/services"
	"research-cms-server/internal/session"
)

type Dependencies struct {
	Config            *config.Config
	Codec             *session.Codec
	AuthService       *services.AuthService
	ResearcherService *services.ResearcherService
	Logger            *slog.Logger
	RateLimiter       *middleware.RateLimiter
}

func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(deps.Config.AllowedOrigins))
	router.Use(middleware.SessionGuard(deps.Codec, deps.Config.AdminPathPrefixes, deps.Config.LoginPath))

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Codec)
	meHandler := handlers.NewMeHandler(deps.AuthService, deps.Codec)
	userHandler := handlers.NewUserHandler(deps.AuthService)
	researcherHandler := handlers.NewResearcherHandler(deps.ResearcherService)

	router.GET("/healthz", handlers.Health)

	api := router.Group("/api")
	{
		// Only the credential-bearing endpoints share the limiter
		// budget; identity polling and logout are unmetered.
		limited := deps.RateLimiter.Middleware()
		authGroup := api.Group("/auth")
		authGroup.POST("/login", limited, authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", meHandler.GetMe)
		authGroup.POST("/forgot-password", limited, authHandler.ForgotPassword)
		authGroup.POST("/reset-password", limited, authHandler.ResetPassword)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin(deps.Codec))
	{
		admin.POST("/users", userHandler.Create)
		admin.POST("/researchers", researcherHandler.Create)
		admin.GET("/researchers", researcherHandler.List)
		admin.GET("/researchers/:id", researcherHandler.GetByID)
		admin.PUT("/researchers/:id", researcherHandler.Update)
		admin.DELETE("/researchers/:id", researcherHandler.Delete)
	}

	// Dashboard pages are rendered by the frontend; the server's only
	// duty under /admin is the guard above plus this placeholder so
	// guarded paths resolve when the API serves the dashboard shell.
	for _, prefix := range deps.Config.AdminPathPrefixes {
		router.GET(prefix+"/*page", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	}

	return router
}

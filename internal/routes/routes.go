package routes

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/rise171/system-control-defects/internal/docs"
	"github.com/rise171/system-control-defects/internal/handlers"
	"github.com/rise171/system-control-defects/internal/middleware"
)

// Options carries what the router needs beyond the handlers.
type Options struct {
	CORSOrigins []string
	Sessions    middleware.SessionResolver
	Logger      *slog.Logger
}

func SetupRoutes(h *handlers.Handler, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(opts.Logger))
	ginRouter.Use(cors.New(corsConfig(opts.CORSOrigins)))

	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "System Control Defects API is running",
		})
	})
	ginRouter.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))))

	// Public routes
	authRoutes := ginRouter.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
	}

	ginRouter.GET("/ws", middleware.WebSocketAuthMiddleware(opts.Sessions), h.WebSocket)

	// Protected routes
	protected := ginRouter.Group("")
	protected.Use(middleware.JWTAuthMiddleware(opts.Sessions))
	{
		protected.GET("/auth/me", h.Me)

		users := protected.Group("/users")
		users.GET("", h.GetAllUsers)
		users.GET("/:id", h.GetUser)
		users.POST("", h.CreateUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)

		projects := protected.Group("/projects")
		projects.GET("", h.GetProjects)
		projects.GET("/:id", h.GetProject)
		projects.POST("", h.CreateProject)
		projects.PUT("/:id", h.UpdateProject)
		projects.DELETE("/:id", h.DeleteProject)

		defects := protected.Group("/defects")
		defects.GET("", h.GetDefects)
		defects.GET("/project/:project_id", h.GetDefectsByProject)
		defects.GET("/user/:user_id", h.GetDefectsByAssignee)
		defects.GET("/:id", h.GetDefect)
		defects.POST("", h.CreateDefect)
		defects.PUT("/:id", h.UpdateDefect)
		defects.DELETE("/:id", h.DeleteDefect)

		comments := protected.Group("/comments")
		comments.GET("", h.GetComments)
		comments.GET("/defect/:defect_id", h.GetCommentsByDefect)
		comments.GET("/user/:user_id", h.GetCommentsByAuthor)
		comments.GET("/:id", h.GetComment)
		comments.POST("", h.CreateComment)
		comments.PUT("/:id", h.UpdateComment)
		comments.DELETE("/:id", h.DeleteComment)

		attachments := protected.Group("/attachments")
		attachments.GET("", h.GetAttachments)
		attachments.GET("/defect/:defect_id", h.GetAttachmentsByDefect)
		attachments.GET("/:id", h.GetAttachment)
		attachments.POST("", h.CreateAttachment)
		attachments.PUT("/:id", h.UpdateAttachment)
		attachments.DELETE("/:id", h.DeleteAttachment)
	}

	return ginRouter
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

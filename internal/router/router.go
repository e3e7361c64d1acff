package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/taskboard-dev/taskboard/internal/handlers"
	"github.com/taskboard-dev/taskboard/internal/middleware"
	"github.com/taskboard-dev/taskboard/internal/types"
)

type Options struct {
	AllowedOrigins []string
	Logger         zerolog.Logger
	// DB backs the health check; nil skips the database ping.
	DB handlers.Pinger
}

func NewRouter(h *handlers.Handler, authn middleware.Authenticator, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(opts.Logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", types.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", types.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	requireUser := middleware.AuthMiddleware(authn)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.Health(opts.DB))

		api.POST("/register", h.Register)
		api.GET("/verify/:token", h.VerifyEmail)
		api.POST("/token", h.ObtainToken)
		api.POST("/token/refresh", h.RefreshToken)
		api.POST("/logout", h.Logout)

		me := api.Group("/me", requireUser)
		{
			me.GET("", h.Me)
			me.DELETE("", h.DeleteMe)
		}

		projects := api.Group("/projects", requireUser)
		{
			projects.POST("", h.CreateProject)
			projects.GET("", h.ListProjects)
			projects.GET("/:project_id", h.GetProject)
			projects.PUT("/:project_id", h.UpdateProject)
			projects.PATCH("/:project_id", h.UpdateProject)
			projects.DELETE("/:project_id", h.DeleteProject)

			projects.GET("/:project_id/roles", h.ListRoles)
			projects.POST("/:project_id/assign_role", h.AssignRole)
			projects.POST("/:project_id/remove_role", h.RemoveRole)
			projects.GET("/:project_id/ws", h.WebSocket)

			projects.POST("/:project_id/tasks", h.CreateTask)
			projects.GET("/:project_id/tasks", h.ListTasks)
			projects.GET("/:project_id/tasks/:task_id", h.GetTask)
			projects.PUT("/:project_id/tasks/:task_id", h.UpdateTask)
			projects.PATCH("/:project_id/tasks/:task_id", h.UpdateTask)
			projects.DELETE("/:project_id/tasks/:task_id", h.DeleteTask)
			projects.POST("/:project_id/tasks/:task_id/assign", h.AssignTask)
			projects.POST("/:project_id/tasks/:task_id/unassign", h.UnassignTask)
		}
	}

	return r
}

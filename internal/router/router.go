package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/internal/handlers"
	"github.com/taskflow-dev/taskflow/internal/middleware"
	"github.com/taskflow-dev/taskflow/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
			auth.GET("/github", handlers.GitHubLogin)
			auth.GET("/github/callback", handlers.GitHubCallback)
		}

		epics := api.Group("/epics", middleware.AuthMiddleware())
		{
			epics.GET("", handlers.ListEpics)
			epics.POST("", handlers.CreateEpic)
		}

		stories := api.Group("/stories", middleware.AuthMiddleware())
		{
			stories.GET("", handlers.ListStories)
			stories.POST("", handlers.CreateStory)
		}

		tasks := api.Group("/tasks", middleware.AuthMiddleware())
		{
			tasks.GET("", handlers.ListTasks)
			tasks.POST("", handlers.CreateTask)
			tasks.PUT("/:id", handlers.UpdateTask)
			tasks.DELETE("/:id", handlers.DeleteTask)
		}

		jira := api.Group("/jira", middleware.AuthMiddleware())
		{
			jira.GET("/sync", handlers.JiraStatus)
			jira.POST("/sync", handlers.JiraSync)
			jira.POST("/status", handlers.JiraTransition)
		}
	}

	return r
}

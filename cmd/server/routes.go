package main

import (
	"github.com/carlos-juma/branch.it-IMY220/internal/handlers"
	"github.com/carlos-juma/branch.it-IMY220/internal/middleware"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	handlers.RegisterValidators()

	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(), middleware.Metrics())

	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", handlers.Metrics())

	api := r.Group("/api")
	api.Use(middleware.AuditLog())
	{
		// Auth routes (public, throttled)
		auth := api.Group("/auth", svc.authLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
		}

		// SSE (public route with internal token validation)
		api.GET("/events/activity", svc.sseHandler.StreamActivity)

		// Anonymous readers may browse public projects and the global feed
		public := api.Group("", middleware.OptionalAuth())
		{
			public.GET("/projects", svc.projectHandler.List)
			public.GET("/projects/:id", svc.projectHandler.GetByID)
			public.GET("/projects/:id/collaborators", svc.projectHandler.ListCollaborators)
			public.GET("/projects/:id/files", svc.versionHandler.ListFiles)
			public.GET("/projects/:id/files/:fileId", svc.versionHandler.GetFile)
			public.GET("/projects/:id/commits", svc.versionHandler.ListCommits)
			public.GET("/projects/:id/commits/:commitId", svc.versionHandler.GetCommit)
			public.GET("/projects/:id/activity", svc.versionHandler.ProjectActivity)
			public.GET("/activity/global", svc.activityHandler.GlobalFeed)
		}

		protected := api.Group("", middleware.AuthRequired())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)

			// Users
			protected.GET("/users/search", svc.userHandler.Search)
			protected.GET("/users/:id", svc.userHandler.GetByID)
			protected.PUT("/users/:id", svc.userHandler.Update)
			protected.DELETE("/users/:id", svc.userHandler.Delete)

			// Projects
			protected.POST("/projects", svc.projectHandler.Create)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)
			protected.POST("/projects/:id/collaborators/:userId", svc.projectHandler.AddCollaborator)
			protected.DELETE("/projects/:id/collaborators/:userId", svc.projectHandler.RemoveCollaborator)

			// Files and commits
			protected.POST("/projects/:id/files", svc.versionHandler.UploadFile)
			protected.PUT("/projects/:id/files/:fileId", svc.versionHandler.UpdateFile)
			protected.DELETE("/projects/:id/files/:fileId", svc.versionHandler.DeleteFile)
			protected.POST("/projects/:id/commits", svc.versionHandler.CreateCommit)

			// Friendships
			protected.POST("/friendships/request", svc.friendshipHandler.SendRequest)
			protected.GET("/friendships/requests", svc.friendshipHandler.ListReceived)
			protected.GET("/friendships/requests/sent", svc.friendshipHandler.ListSent)
			protected.PUT("/friendships/accept/:requestId", svc.friendshipHandler.Accept)
			protected.DELETE("/friendships/decline/:requestId", svc.friendshipHandler.Decline)
			protected.GET("/friendships", svc.friendshipHandler.ListFriends)
			protected.GET("/friendships/status/:userId", svc.friendshipHandler.Status)
			protected.DELETE("/friendships/:friendId", svc.friendshipHandler.Unfriend)

			// Activity
			protected.GET("/activity/feed", svc.activityHandler.PersonalFeed)
			protected.GET("/activity/user/:userId", svc.activityHandler.UserFeed)
			protected.POST("/activity", svc.activityHandler.CreateMessage)

			// Search
			protected.GET("/search/users", svc.searchHandler.Users)
			protected.GET("/search/projects", svc.searchHandler.Projects)
			protected.GET("/search/commits", svc.searchHandler.Commits)
			protected.GET("/search/all", svc.searchHandler.All)
		}

		admin := api.Group("/admin", middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/system-logs", svc.systemLogHandler.List)
			admin.GET("/system-logs/modules", svc.systemLogHandler.GetModules)
			admin.POST("/system-logs/cleanup", svc.systemLogHandler.Cleanup)
			admin.POST("/reconcile", svc.reconcileHandler.Run)
		}
	}
}

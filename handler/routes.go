package handler

import (
	"net/http"
	"strconv"

	"notemate/middleware"
	"notemate/model"
	"notemate/services"
	"notemate/utils"

	"github.com/gin-gonic/gin"
)

// Routes mounts the REST API under api.
func (h *Handler) Routes(api *gin.RouterGroup, auth *middleware.Auth) {
	protect := auth.Protect()
	optional := auth.Optional()
	admin := middleware.RequireRole(model.RoleAdmin)
	teacherOrAdmin := middleware.RequireRole(model.RoleTeacher, model.RoleAdmin)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/forgot-password", h.ForgotPassword)
		authGroup.PUT("/reset-password/:resetToken", h.ResetPassword)

		authGroup.GET("/me", protect, h.Me)
		authGroup.PUT("/profile", protect, h.UpdateProfile)
		authGroup.PUT("/change-password", protect, h.ChangePassword)
		authGroup.POST("/logout", protect, h.Logout)

		twoFactor := authGroup.Group("/2fa", protect)
		twoFactor.POST("/setup", h.SetupTwoFactor)
		twoFactor.POST("/enable", h.EnableTwoFactor)
		twoFactor.POST("/disable", h.DisableTwoFactor)
	}

	notes := api.Group("/notes")
	{
		notes.GET("", optional, h.ListNotes)
		notes.GET("/featured", middleware.CacheControl(strconv.Itoa(int(services.FeaturedTTL.Seconds()))), h.FeaturedNotes)
		notes.GET("/search", optional, h.SearchNotes)
		notes.GET("/user/my-notes", protect, h.MyNotes)
		notes.GET("/:id", optional, h.GetNote)
		notes.GET("/:id/download/:fileId", h.DownloadFile)

		notes.POST("", protect, h.CreateNote)
		notes.POST("/:id/upload", protect, h.UploadFiles)
		notes.PUT("/:id", protect, h.UpdateNote)
		notes.DELETE("/:id", protect, h.DeleteNote)

		notes.POST("/:id/rate", protect, h.RateNote)
		notes.POST("/:id/like", protect, react(h.Notes.Like, "Note liked"))
		notes.DELETE("/:id/like", protect, react(h.Notes.Unlike, "Like removed"))
		notes.POST("/:id/dislike", protect, react(h.Notes.Dislike, "Note disliked"))
		notes.DELETE("/:id/dislike", protect, react(h.Notes.Undislike, "Dislike removed"))
		notes.POST("/:id/comments", protect, h.AddComment)
		notes.PUT("/:id/comments/:commentId", protect, h.UpdateComment)
		notes.DELETE("/:id/comments/:commentId", protect, h.DeleteComment)
		notes.POST("/:id/comments/:commentId/replies", protect, h.AddReply)
		notes.POST("/:id/report", protect, h.ReportNote)

		notes.PUT("/:id/verify", protect, admin, h.VerifyNote)
		notes.PUT("/:id/feature", protect, admin, h.FeatureNote)
	}

	subjects := api.Group("/subjects")
	{
		subjects.GET("", h.ListSubjects)
		subjects.GET("/search", h.SearchSubjects)
		subjects.GET("/:id", h.GetSubject)
		subjects.GET("/:id/notes", h.SubjectNotes)

		subjects.POST("", protect, teacherOrAdmin, h.CreateSubject)
		subjects.PUT("/:id", protect, teacherOrAdmin, h.UpdateSubject)
		subjects.DELETE("/:id", protect, admin, h.DeleteSubject)
	}

	users := api.Group("/users")
	{
		users.GET("", protect, admin, h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.GET("/:id/notes", h.UserNotes)
		users.GET("/:id/stats", h.UserStats)
		users.GET("/:id/followers", h.Followers)
		users.GET("/:id/following", h.Following)

		users.PUT("/:id", protect, h.UpdateUser)
		users.DELETE("/:id", protect, admin, h.DeleteUser)
		users.POST("/:id/follow", protect, h.FollowUser)
		users.DELETE("/:id/follow", protect, h.UnfollowUser)
	}
}

// NoRoute answers unknown paths with the error envelope.
func NoRoute(c *gin.Context) {
	utils.Error(c, http.StatusNotFound, "Not found - "+c.Request.URL.Path)
}

package routes

import (
	"civicreport-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine, d Dependencies, auth gin.HandlerFunc) {
	limiter := middlewares.IssueRateLimiter(d.Redis, d.IssueLimitQueue, d.IssueDailyLimit)

	issue := r.Group("/api/issues")
	{
		issue.GET("", d.Issues.GetAllIssues)
		issue.POST("", auth, limiter, d.Issues.CreateIssue)
		issue.GET("/types", d.Issues.GetIssueTypes)
		issue.GET("/statuses", d.Issues.GetIssueStatuses)
		issue.GET("/:id", d.Issues.GetIssue)
		issue.PUT("/:id", auth, middlewares.RequireAdmin(), d.Issues.UpdateIssue)
		issue.PATCH("/:id/status", auth, middlewares.RequireAdmin(), d.Issues.UpdateStatus)
		issue.DELETE("/:id", auth, d.Issues.DeleteIssue)
		issue.GET("/:id/upvote", auth, d.Issues.HasUpvoted)
		issue.POST("/:id/upvote", auth, d.Issues.Upvote)
		issue.DELETE("/:id/upvote", auth, d.Issues.RemoveUpvote)
	}
}

// CommentRoutes sets up the discussion routes
func CommentRoutes(r *gin.Engine, d Dependencies, auth gin.HandlerFunc) {
	comments := r.Group("/api/comments")
	{
		comments.GET("/issues/:id/comments", d.Comments.GetIssueComments)
		comments.POST("/issues/:id/comments", auth, d.Comments.AddComment)
		comments.GET("/comments/:id", d.Comments.GetComment)
		comments.PUT("/comments/:id", auth, d.Comments.UpdateComment)
		comments.DELETE("/comments/:id", auth, d.Comments.DeleteComment)
		comments.GET("/user/:id/comments", d.Comments.GetUserComments)
	}
}

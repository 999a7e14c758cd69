package routes

import (
	"civicreport-be/middlewares"

	"github.com/gin-gonic/gin"
)

// AdminRoutes sets up user management and triage routes
func AdminRoutes(r *gin.Engine, d Dependencies, auth gin.HandlerFunc) {
	admin := r.Group("/api/admin", auth, middlewares.RequireAdmin())
	{
		admin.GET("/users", d.Users.GetUsers)
		admin.GET("/users/:id", d.Users.GetUser)
		admin.PUT("/users/:id", d.Users.UpdateUser)
		admin.DELETE("/users/:id", d.Users.DeleteUser)

		admin.GET("/issues/pending", d.Admin.GetPendingIssues)
		admin.POST("/issues/bulk-update", d.Admin.BulkUpdateIssues)
		admin.POST("/issues/:id/assign", d.Admin.AssignIssue)

		admin.GET("/dashboard/stats", d.Admin.GetDashboardStats)
		admin.POST("/reports/generate", d.Admin.GenerateReport)
	}
}

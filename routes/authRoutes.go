package routes

import (
	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.Engine, d Dependencies, auth gin.HandlerFunc) {
	group := r.Group("/api/auth")
	{
		group.POST("/register", d.Auth.Register)
		group.POST("/login", d.Auth.Login)
		group.POST("/logout", d.Auth.Logout)
		group.GET("/me", auth, d.Auth.GetMe)
		group.PUT("/me", auth, d.Auth.UpdateMe)
	}

	r.POST("/api/admin/login", d.Auth.AdminLogin)
}

package routes

import (
	"time"

	"civicreport-be/controllers"
	"civicreport-be/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Dependencies is everything the HTTP layer needs.
type Dependencies struct {
	Auth      *controllers.AuthController
	Issues    *controllers.IssueController
	Comments  *controllers.CommentController
	Users     *controllers.UserController
	Admin     *controllers.AdminController
	Analytics *controllers.AnalyticsController
	DB        controllers.Pinger

	JWTSecret        string
	Resolver         middlewares.IdentityResolver
	Redis            *redis.Client
	IssueLimitQueue  string
	IssueDailyLimit  int
	FrontendURL      string
	MaxContentLength int64
}

// Setup registers middleware and every route on r.
func Setup(r *gin.Engine, d Dependencies) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{d.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middlewares.BodyLimit(d.MaxContentLength))

	r.GET("/health", controllers.Health(d.DB))

	auth := middlewares.AuthMiddleware(d.JWTSecret, d.Resolver)
	AuthRoutes(r, d, auth)
	IssueRoutes(r, d, auth)
	CommentRoutes(r, d, auth)
	AdminRoutes(r, d, auth)
	AnalyticsRoutes(r, d, auth)
}

func AnalyticsRoutes(r *gin.Engine, d Dependencies, auth gin.HandlerFunc) {
	analytics := r.Group("/api/analytics", auth, middlewares.RequireAdmin())
	{
		analytics.GET("/overview", d.Analytics.GetOverview)
		analytics.GET("/issues-by-type", d.Analytics.GetIssuesByType)
		analytics.GET("/issues-by-status", d.Analytics.GetIssuesByStatus)
		analytics.GET("/resolution-time", d.Analytics.GetResolutionTime)
		analytics.GET("/monthly-trends", d.Analytics.GetMonthlyTrends)
		analytics.GET("/user-activity", d.Analytics.GetUserActivity)
		analytics.GET("/heatmap-data", d.Analytics.GetHeatmapData)
	}
}

package controllers

import (
	"context"
	"net/http"

	"civicreport-be/services"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	analytics *services.AnalyticsAggregator
}

func NewAnalyticsController(analytics *services.AnalyticsAggregator) *AnalyticsController {
	return &AnalyticsController{analytics: analytics}
}

// serve runs one aggregation and wraps its result under key.
func serve[T any](c *gin.Context, key string, run func(ctx context.Context, p services.Principal) (T, error)) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := run(ctx, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: out})
}

func (ac *AnalyticsController) GetOverview(c *gin.Context) {
	serve(c, "overview", ac.analytics.Overview)
}

func (ac *AnalyticsController) GetIssuesByType(c *gin.Context) {
	serve(c, "chart_data", ac.analytics.IssuesByType)
}

func (ac *AnalyticsController) GetIssuesByStatus(c *gin.Context) {
	serve(c, "chart_data", ac.analytics.IssuesByStatus)
}

func (ac *AnalyticsController) GetResolutionTime(c *gin.Context) {
	serve(c, "resolution_metrics", ac.analytics.ResolutionTime)
}

func (ac *AnalyticsController) GetMonthlyTrends(c *gin.Context) {
	serve(c, "chart_data", ac.analytics.MonthlyTrends)
}

func (ac *AnalyticsController) GetUserActivity(c *gin.Context) {
	serve(c, "user_activity", ac.analytics.UserActivity)
}

func (ac *AnalyticsController) GetHeatmapData(c *gin.Context) {
	serve(c, "heatmap_data", ac.analytics.Heatmap)
}

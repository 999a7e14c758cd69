package controllers

import (
	"fmt"
	"net/http"

	"civicreport-be/services"

	"github.com/gin-gonic/gin"
)

// AdminController serves the triage side of the issue workflow.
type AdminController struct {
	issues    *services.IssueService
	lifecycle *services.IssueLifecycle
	bulk      *services.BulkMutator
	analytics *services.AnalyticsAggregator
}

func NewAdminController(issues *services.IssueService, lifecycle *services.IssueLifecycle, bulk *services.BulkMutator, analytics *services.AnalyticsAggregator) *AdminController {
	return &AdminController{issues: issues, lifecycle: lifecycle, bulk: bulk, analytics: analytics}
}

// GetPendingIssues lists submitted and verified issues, oldest first
func (ac *AdminController) GetPendingIssues(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issues, pagination, err := ac.issues.Pending(ctx, p, pageQuery(c, 10))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"issues":     issues,
		"pagination": pagination,
	})
}

func (ac *AdminController) BulkUpdateIssues(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var input struct {
		IssueIDs []int64        `json:"issue_ids"`
		Updates  map[string]any `json:"updates"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	updated, err := ac.bulk.Apply(ctx, p, input.IssueIDs, input.Updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("Successfully updated %d issues", updated),
		"updated_count": updated,
	})
}

func (ac *AdminController) AssignIssue(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input services.AssignRequest
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ac.lifecycle.Assign(ctx, p, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	detail, err := ac.issues.Detail(ctx, issue)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Issue assigned successfully",
		"issue":   detail,
	})
}

func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	stats, err := ac.analytics.DashboardStats(ctx, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (ac *AdminController) GenerateReport(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var input services.ReportRequest
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := ac.analytics.GenerateReport(ctx, p, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

package controllers

import (
	"net/http"
	"strings"

	"civicreport-be/models"
	"civicreport-be/services"

	"github.com/gin-gonic/gin"
)

type IssueController struct {
	issues    *services.IssueService
	lifecycle *services.IssueLifecycle
	ledger    *services.VotingLedger
}

func NewIssueController(issues *services.IssueService, lifecycle *services.IssueLifecycle, ledger *services.VotingLedger) *IssueController {
	return &IssueController{issues: issues, lifecycle: lifecycle, ledger: ledger}
}

// GetAllIssues lists issues newest first with optional filters
func (ic *IssueController) GetAllIssues(c *gin.Context) {
	var query struct {
		IssueType string `form:"issue_type"`
		Status    string `form:"status"`
		Priority  string `form:"priority"`
		UserID    int64  `form:"user_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	filter := models.IssueFilter{
		IssueType:  strings.TrimSpace(query.IssueType),
		Status:     strings.TrimSpace(query.Status),
		Priority:   strings.TrimSpace(query.Priority),
		ReporterID: query.UserID,
	}
	page := pageQuery(c, 10)
	issues, pagination, err := ic.issues.List(ctx, filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"issues":     issues,
		"pagination": pagination,
	})
}

// CreateIssue handles the creation of a new issue
func (ic *IssueController) CreateIssue(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var input services.NewIssue
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ic.issues.Create(ctx, p, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Issue created successfully",
		"issue":   issue,
	})
}

func (ic *IssueController) GetIssue(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ic.issues.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

// UpdateIssue applies an admin edit
func (ic *IssueController) UpdateIssue(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input services.IssueUpdate
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ic.lifecycle.Update(ctx, p, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	ic.respondIssue(c, "Issue updated successfully", issue)
}

// UpdateStatus moves an issue through its lifecycle
func (ic *IssueController) UpdateStatus(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		Status     string  `json:"status" binding:"required"`
		AssignedTo *string `json:"assigned_to"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ic.lifecycle.UpdateStatus(ctx, p, id, input.Status, input.AssignedTo)
	if err != nil {
		respondError(c, err)
		return
	}
	ic.respondIssue(c, "Issue status updated successfully", issue)
}

// DeleteIssue is allowed to the reporter and to admins
func (ic *IssueController) DeleteIssue(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ic.issues.Delete(ctx, p, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

func (ic *IssueController) Upvote(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := services.RequireUser(p); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	count, err := ic.ledger.AddVote(ctx, id, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      "Issue upvoted successfully",
		"upvote_count": count,
	})
}

func (ic *IssueController) RemoveUpvote(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := services.RequireUser(p); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ic.ledger.RemoveVote(ctx, id, p.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Upvote removed successfully"})
}

// HasUpvoted tells the caller whether they already voted on the issue
func (ic *IssueController) HasUpvoted(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	voted := false
	if p.IsUser() {
		var err error
		if voted, err = ic.ledger.HasVoted(ctx, id, p.ID); err != nil {
			respondError(c, err)
			return
		}
	}
	count, err := ic.ledger.Count(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"has_upvoted":  voted,
		"upvote_count": count,
	})
}

func (ic *IssueController) GetIssueTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"issue_types": models.IssueTypes})
}

func (ic *IssueController) GetIssueStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"statuses": models.Statuses})
}

// respondIssue reloads the derived fields of a mutated issue.
func (ic *IssueController) respondIssue(c *gin.Context, message string, issue *models.Issue) {
	ctx, cancel := requestContext(c)
	defer cancel()

	detail, err := ic.issues.Detail(ctx, issue)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"issue":   detail,
	})
}

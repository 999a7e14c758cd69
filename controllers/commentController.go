package controllers

import (
	"net/http"

	"civicreport-be/services"

	"github.com/gin-gonic/gin"
)

type CommentController struct {
	comments *services.CommentService
}

func NewCommentController(comments *services.CommentService) *CommentController {
	return &CommentController{comments: comments}
}

type commentInput struct {
	Content string `json:"content"`
}

// GetIssueComments lists the thread of an issue, oldest first
func (cc *CommentController) GetIssueComments(c *gin.Context) {
	issueID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	comments, pagination, err := cc.comments.ForIssue(ctx, issueID, pageQuery(c, 20))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"comments":   comments,
		"pagination": pagination,
	})
}

func (cc *CommentController) AddComment(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	issueID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input commentInput
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	comment, err := cc.comments.Add(ctx, p, issueID, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

func (cc *CommentController) GetComment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	comment, err := cc.comments.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

func (cc *CommentController) UpdateComment(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input commentInput
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	comment, err := cc.comments.Update(ctx, p, id, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Comment updated successfully",
		"comment": comment,
	})
}

func (cc *CommentController) DeleteComment(c *gin.Context) {
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

	if err := cc.comments.Delete(ctx, p, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// GetUserComments lists a user's comments, newest first
func (cc *CommentController) GetUserComments(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, comments, pagination, err := cc.comments.ByAuthor(ctx, userID, pageQuery(c, 20))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"comments":   comments,
		"user":       user,
		"pagination": pagination,
	})
}

package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"civicreport-be/middlewares"
	"civicreport-be/models"
	"civicreport-be/services"

	"github.com/gin-gonic/gin"
)

const (
	requestTimeout = 10 * time.Second
	maxPerPage     = 100
)

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// respondError writes err as {"error": message} with the matching status.
func respondError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}
	var de *services.DomainError
	if !errors.As(err, &de) {
		slog.Error("unhandled error", "error", err, "path", c.FullPath())
	}
	status, message := services.Describe(err)
	c.JSON(status, gin.H{"error": message})
}

// bindJSON decodes the body into v and answers 400 or 413 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func pageQuery(c *gin.Context, defaultPerPage int) models.Page {
	p := models.Page{Page: 1, PerPage: defaultPerPage}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = min(v, models.MaxPage)
	}
	if v, err := strconv.Atoi(c.Query("per_page")); err == nil && v > 0 {
		p.PerPage = min(v, maxPerPage)
	}
	return p
}

func currentPrincipal(c *gin.Context) (services.Principal, bool) {
	p, ok := middlewares.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	}
	return p, ok
}

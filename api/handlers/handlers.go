package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tech-trends/models"
	"tech-trends/period"
	"tech-trends/scheduler"
	"tech-trends/store"
)

const markdownContentType = "text/markdown; charset=utf-8"

// Runner starts pipeline stages on demand.
type Runner interface {
	Trigger(name string) error
	ListJobs() []scheduler.JobInfo
	Running() string
}

// AILogReader lists recent LLM usage records.
type AILogReader interface {
	Recent(ctx context.Context, limit int64) ([]models.AILog, error)
}

// HealthHandler reports liveness and the job currently running, if any.
func HealthHandler(runner Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if runner != nil {
			body["running"] = runner.Running()
		}
		c.JSON(http.StatusOK, body)
	}
}

// GetTrendHandler returns an area's trend for a week as JSON, or as the
// published markdown when format=markdown.
func GetTrendHandler(s store.DocumentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		week, area, ok := weekAndArea(c)
		if !ok {
			return
		}
		if c.Query("format") == "markdown" {
			readDocument(c, s, store.TrendMarkdownAddress(week, area), markdownContentType)
			return
		}
		readDocument(c, s, store.TrendAddress(week, area), "application/json; charset=utf-8")
	}
}

// GetPostsHandler returns the posts accumulated for an area during a week.
func GetPostsHandler(s store.DocumentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		week, area, ok := weekAndArea(c)
		if !ok {
			return
		}
		readDocument(c, s, store.PostsAddress(week, area), "application/json; charset=utf-8")
	}
}

// GetSummaryHandler returns the weekly summary markdown.
func GetSummaryHandler(s store.DocumentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		week, err := period.ParseWeek(c.Param("period"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		readDocument(c, s, store.SummaryAddress(week), markdownContentType)
	}
}

// GetRecommendationsHandler returns the monthly recommendations markdown.
func GetRecommendationsHandler(s store.DocumentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		month, err := period.ParseMonth(c.Param("month"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		readDocument(c, s, store.RecommendationsAddress(month), markdownContentType)
	}
}

// TriggerRunHandler starts a stage in the background. Only one run may be
// active at a time; a second trigger gets 409.
func TriggerRunHandler(runner Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		stage := c.Param("stage")
		err := runner.Trigger(stage)
		switch {
		case errors.Is(err, scheduler.ErrUnknownJob):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, scheduler.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "running": runner.Running()})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusAccepted, gin.H{"status": "started", "stage": stage})
		}
	}
}

// ListPeriodHandler lists the artifact paths stored for a week or month key.
func ListPeriodHandler(l store.Lister) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("period")
		if _, err := period.ParseWeek(key); err != nil {
			if _, err := period.ParseMonth(key); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "period must be YYYY-Www or YYYY-MM"})
				return
			}
		}
		paths, err := l.ListPeriod(c.Request.Context(), key)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if paths == nil {
			paths = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"period": key, "paths": paths})
	}
}

func ListRunsHandler(runner Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, runner.ListJobs())
	}
}

// ListAILogsHandler returns recent LLM usage records, newest first (limit <= 200).
func ListAILogsHandler(repo AILogReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		items, err := repo.Recent(c.Request.Context(), int64(limit))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if items == nil {
			items = []models.AILog{}
		}
		c.JSON(http.StatusOK, items)
	}
}

func weekAndArea(c *gin.Context) (period.Week, models.Area, bool) {
	week, err := period.ParseWeek(c.Param("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return period.Week{}, "", false
	}
	area, ok := models.ParseArea(c.Param("area"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown area: " + c.Param("area")})
		return period.Week{}, "", false
	}
	return week, area, true
}

func readDocument(c *gin.Context, s store.DocumentStore, addr store.Address, contentType string) {
	data, found, err := s.Read(c.Request.Context(), addr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "path": addr.Key()})
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

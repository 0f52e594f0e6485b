package controllers

import (
	"avatar-video-api/application/ports/inbound"
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/domain"
	"avatar-video-api/infrastructure/gin_interface/dto"
	"avatar-video-api/middleware"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type VideoJobsController interface {
	SubmitVideo(c *gin.Context)
	GetProgress(c *gin.Context)
	StreamProgress(c *gin.Context)
	Health(c *gin.Context)
	RegisterRoutes(g *gin.Engine, submitMiddleware ...gin.HandlerFunc)
}

type videoJobsController struct {
	logger         outbound.LoggerPort
	pipeline       inbound.VideoPipelinePort
	progressReader inbound.ProgressReaderPort
	watchInterval  time.Duration
}

func NewVideoJobsController(
	logger outbound.LoggerPort,
	pipeline inbound.VideoPipelinePort,
	progressReader inbound.ProgressReaderPort,
	watchInterval time.Duration,
) VideoJobsController {
	return &videoJobsController{
		logger:         logger,
		pipeline:       pipeline,
		progressReader: progressReader,
		watchInterval:  watchInterval,
	}
}

func (v *videoJobsController) SubmitVideo(c *gin.Context) {
	var request dto.GenerateVideoRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if userID := c.GetString(middleware.ContextUserIDKey); userID != "" {
		request.UserID = userID
	}

	jobID, err := v.pipeline.Submit(c.Request.Context(), request.ToDomain())
	if err != nil {
		v.logger.Error(err, "Failed to submit video job")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "job could not be scheduled"})
		return
	}

	c.JSON(http.StatusAccepted, dto.GenerateVideoResponse{JobID: jobID})
}

func (v *videoJobsController) GetProgress(c *gin.Context) {
	record, err := v.progressReader.Read(c.Request.Context(), c.Param("id"))
	if err != nil {
		v.abortWithReadError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// StreamProgress pushes a progress event on every change and ends after the terminal one.
func (v *videoJobsController) StreamProgress(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := c.Param("id")

	if _, err := v.progressReader.Read(ctx, jobID); err != nil {
		c.Header("Content-Type", "application/json; charset=utf-8")
		v.abortWithReadError(c, err)
		return
	}

	records, errs := v.progressReader.Watch(ctx, jobID, v.watchInterval)
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case record, ok := <-records:
			if !ok {
				if err, ok := <-errs; ok && err != nil {
					c.SSEvent("error", dto.ErrorResponse{Error: err.Error()})
				}
				return false
			}
			c.SSEvent("progress", record)
			return true
		}
	})
}

func (v *videoJobsController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (v *videoJobsController) abortWithReadError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, dto.ErrorResponse{Error: "job not found"})
		return
	}
	v.logger.Error(err, "Failed to read job progress")
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "progress unavailable"})
}

func (v *videoJobsController) RegisterRoutes(g *gin.Engine, submitMiddleware ...gin.HandlerFunc) {
	g.GET("/health", v.Health)

	videos := g.Group("/videos")
	videos.POST("", append(submitMiddleware, v.SubmitVideo)...)
	videos.GET("/:id/progress", v.GetProgress)
	videos.GET("/:id/progress/stream", middleware.SSEMiddleware(), v.StreamProgress)
}

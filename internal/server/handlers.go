package server

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aronrissato/CarboPratos/internal/imaging"
	"github.com/aronrissato/CarboPratos/internal/models"
)

// AnalyzeRequest carries one image for synchronous analysis. ImageData is
// base64, optionally with a data-URL prefix.
type AnalyzeRequest struct {
	ImageData string `json:"image_data" binding:"required"`
	Filename  string `json:"filename"`
}

type BatchRequest struct {
	Directory string `json:"directory" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	imageData, name, err := s.readAnalyzeImage(c)
	if err != nil {
		s.logger.Error("Failed to read image upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if name == "" {
		name = "upload.jpg"
	}

	img, err := imaging.FromBytes(name, imageData)
	if err != nil {
		if errors.Is(err, imaging.ErrUndecodable) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load image"})
		return
	}

	result := s.calculator.CalculateFromImage(c.Request.Context(), img)

	if s.store != nil {
		if err := s.store.SaveResult(c.Request.Context(), result); err != nil {
			s.logger.Warn("Failed to persist result", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.processor.GetStats())
}

func (s *Server) handleStartBatch(c *gin.Context) {
	var request BatchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if info, err := os.Stat(request.Directory); err != nil || !info.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Directory not found"})
		return
	}

	job := s.jobs.create(request.Directory)
	go s.runBatchJob(job)

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID})
}

func (s *Server) handleBatchStatus(c *gin.Context) {
	job, ok := s.jobs.snapshot(c.Param("job_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "History storage not enabled"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	results, err := s.store.ListRecent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to load history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// runBatchJob executes a directory run in the background, pushing progress
// to the job's websocket subscribers.
func (s *Server) runBatchJob(job *BatchJob) {
	ctx := context.Background()

	results, summary, err := s.processor.ProcessDirectoryWithProgress(ctx, job.Directory,
		func(done, total int, result *models.PlateResult) {
			s.jobs.updateProgress(job.ID, done, total)
			s.jobs.publish(job.ID, jobEvent{
				Type:   "result",
				Done:   done,
				Total:  total,
				Result: result,
			})
		})
	if err != nil {
		s.logger.Error("Batch job failed",
			zap.String("job_id", job.ID),
			zap.Error(err))
		s.jobs.fail(job.ID, err)
		s.jobs.publish(job.ID, jobEvent{Type: "error", Error: err.Error()})
		return
	}

	s.jobs.complete(job.ID, results, summary)
	s.jobs.publish(job.ID, jobEvent{Type: "summary", Summary: summary})

	s.logger.Info("Batch job completed",
		zap.String("job_id", job.ID),
		zap.Int("processed", summary.Processed),
		zap.Float64("total_kcal", summary.TotalCalories))
}

// readAnalyzeImage accepts either a multipart "image" file or a JSON body
// with a base64 payload.
func (s *Server) readAnalyzeImage(c *gin.Context) ([]byte, string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("image")
		if err != nil {
			return nil, "", errors.New("missing multipart image field")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return nil, "", errors.New("unreadable multipart image")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", errors.New("unreadable multipart image")
		}
		return data, fileHeader.Filename, nil
	}

	var request AnalyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		return nil, "", errors.New("invalid request format")
	}
	data, err := extractImageData(request.ImageData)
	if err != nil {
		return nil, "", errors.New("invalid image data")
	}
	return data, request.Filename, nil
}

// extractImageData decodes base64 image payloads, accepting an optional
// data-URL prefix.
func extractImageData(data string) ([]byte, error) {
	if idx := strings.Index(data, ","); idx != -1 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}
	return base64.StdEncoding.DecodeString(data)
}

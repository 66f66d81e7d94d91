package handlers

import (
	"backend/models"
	"backend/repository"
	"backend/services"
	"backend/storage"
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AnalysisJobManager runs document analyses as cancellable background jobs.
// Job rows live in analysis_jobs (GORM); the analysis itself goes through
// services.AnalysisService against the configured AI provider.
type AnalysisJobManager struct {
	gdb *gorm.DB
	db  *sql.DB

	jobCancelMap map[uint]context.CancelFunc
	jobMutex     sync.RWMutex
	jobWG        sync.WaitGroup

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
	shutdownOnce   sync.Once
	isShuttingDown bool
}

// NewAnalysisJobManager creates the job manager backed by the shared GORM
// connection.
func NewAnalysisJobManager(db *sql.DB) *AnalysisJobManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &AnalysisJobManager{
		gdb:            storage.GetGormDB(),
		db:             db,
		jobCancelMap:   make(map[uint]context.CancelFunc),
		shutdownCtx:    ctx,
		shutdownCancel: cancel,
	}
}

func (ajm *AnalysisJobManager) registerJob(jobID uint, cancelFunc context.CancelFunc) bool {
	ajm.jobMutex.Lock()
	defer ajm.jobMutex.Unlock()

	if ajm.isShuttingDown {
		log.Printf("Rejecting analysis job %d - system is shutting down", jobID)
		cancelFunc()
		return false
	}
	ajm.jobCancelMap[jobID] = cancelFunc
	return true
}

func (ajm *AnalysisJobManager) unregisterJob(jobID uint) {
	ajm.jobMutex.Lock()
	defer ajm.jobMutex.Unlock()
	delete(ajm.jobCancelMap, jobID)
}

// IsJobRunning reports whether the job still has a live goroutine.
func (ajm *AnalysisJobManager) IsJobRunning(jobID uint) bool {
	ajm.jobMutex.RLock()
	defer ajm.jobMutex.RUnlock()
	_, ok := ajm.jobCancelMap[jobID]
	return ok
}

// RunningJobsCount returns the number of in-flight analyses.
func (ajm *AnalysisJobManager) RunningJobsCount() int {
	ajm.jobMutex.RLock()
	defer ajm.jobMutex.RUnlock()
	return len(ajm.jobCancelMap)
}

func (ajm *AnalysisJobManager) updateJobStatus(jobID uint, status string, progress int, errorMsg *string, result *string) error {
	updates := map[string]interface{}{
		"status":     status,
		"progress":   progress,
		"updated_at": time.Now(),
	}
	switch status {
	case "running":
		now := time.Now()
		updates["started_at"] = &now
	case "completed", "failed", "cancelled":
		now := time.Now()
		updates["completed_at"] = &now
	}
	if errorMsg != nil {
		updates["error"] = errorMsg
	}
	if result != nil {
		updates["result"] = result
	}
	return ajm.gdb.Model(&models.AnalysisJobGorm{}).Where("id = ?", jobID).Updates(updates).Error
}

// Enqueue creates a queued job row for the document and starts the worker
// goroutine. The returned job is in status "pending".
func (ajm *AnalysisJobManager) Enqueue(doc *models.Document) (*models.AnalysisJobGorm, error) {
	ajm.jobMutex.RLock()
	shuttingDown := ajm.isShuttingDown
	ajm.jobMutex.RUnlock()
	if shuttingDown {
		return nil, fmt.Errorf("job manager is shutting down")
	}

	job := &models.AnalysisJobGorm{
		DocumentID: doc.ID,
		UserID:     doc.UserID,
		Status:     "pending",
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if provider, err := storage.GetActiveAIProvider(ajm.db); err == nil {
		job.ProviderID = provider.ID
	}
	if err := ajm.gdb.Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create analysis job: %w", err)
	}

	ctx, cancel := context.WithCancel(ajm.shutdownCtx)
	if !ajm.registerJob(job.ID, cancel) {
		return nil, fmt.Errorf("job manager is shutting down")
	}

	ajm.jobWG.Add(1)
	go ajm.run(ctx, job.ID, doc)

	return job, nil
}

func (ajm *AnalysisJobManager) run(ctx context.Context, jobID uint, doc *models.Document) {
	defer ajm.jobWG.Done()
	defer ajm.unregisterJob(jobID)

	if err := ajm.updateJobStatus(jobID, "running", 10, nil, nil); err != nil {
		log.Printf("Failed to mark analysis job %d running: %v", jobID, err)
	}

	analysis, err := services.NewAnalysisService(ajm.db).AnalyzeDocument(ctx, doc)
	if err != nil {
		if ctx.Err() != nil {
			log.Printf("Analysis job %d cancelled for document %d", jobID, doc.ID)
			msg := "cancelled"
			_ = ajm.updateJobStatus(jobID, "cancelled", 0, &msg, nil)
			return
		}
		log.Printf("Analysis job %d failed for document %d: %v", jobID, doc.ID, err)
		msg := err.Error()
		_ = ajm.updateJobStatus(jobID, "failed", 0, &msg, nil)
		return
	}

	result := analysis.Summary
	if err := ajm.updateJobStatus(jobID, "completed", 100, nil, &result); err != nil {
		log.Printf("Failed to mark analysis job %d completed: %v", jobID, err)
	}
	log.Printf("Analysis job %d completed for document %d (analysis %d)", jobID, doc.ID, analysis.ID)

	// Notify the owner that the analysis is ready. Best effort.
	if user, uerr := fetchUserByID(ajm.db, doc.UserID); uerr == nil {
		if merr := services.NewEmailService(ajm.db).SendAnalysisReadyEmail(*user, doc.FileName); merr != nil {
			log.Printf("Failed to send analysis-ready email for document %d: %v", doc.ID, merr)
		}
	}
}

// StopJob cancels a running job. Returns false when no goroutine is live
// for the ID.
func (ajm *AnalysisJobManager) StopJob(jobID uint) bool {
	ajm.jobMutex.Lock()
	cancel, ok := ajm.jobCancelMap[jobID]
	ajm.jobMutex.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// GracefulShutdown cancels all running jobs and waits up to timeout for
// their goroutines to drain.
func (ajm *AnalysisJobManager) GracefulShutdown(timeout time.Duration) error {
	var err error
	ajm.shutdownOnce.Do(func() {
		ajm.jobMutex.Lock()
		ajm.isShuttingDown = true
		running := len(ajm.jobCancelMap)
		ajm.jobMutex.Unlock()

		log.Printf("Job manager shutdown: cancelling %d running analysis jobs", running)
		ajm.shutdownCancel()

		done := make(chan struct{})
		go func() {
			ajm.jobWG.Wait()
			close(done)
		}()

		select {
		case <-done:
			log.Println("All analysis jobs drained")
		case <-time.After(timeout):
			err = fmt.Errorf("timed out waiting for %d analysis jobs", ajm.RunningJobsCount())
		}
	})
	return err
}

// EnqueueAnalysisHandler queues an AI analysis for an owned document.
// @Summary Queue document analysis
// @Tags Analysis
// @Produce json
// @Param id path int true "Document ID"
// @Success 202 {object} models.AnalysisJobGorm
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/documents/{id}/analyze [post]
func (ajm *AnalysisJobManager) EnqueueAnalysisHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		docID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
			return
		}

		doc, err := repository.FetchDocument(db, docID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		if doc.UserID != session.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Document belongs to another user"})
			return
		}
		if doc.Status == "analyzing" {
			c.JSON(http.StatusConflict, gin.H{"error": "Document is already being analyzed"})
			return
		}

		// Plan AI quota check.
		if sub, serr := storage.GetActiveSubscription(db, session.UserID); serr == nil {
			var aiLimit int
			if db.QueryRow(`SELECT ai_limit FROM plans WHERE id = $1`, sub.PlanID).Scan(&aiLimit) == nil && aiLimit > 0 {
				var used int
				_ = db.QueryRow(`
					SELECT COUNT(*) FROM analysis_jobs
					WHERE user_id = $1 AND created_at >= date_trunc('month', NOW())
				`, session.UserID).Scan(&used)
				if used >= aiLimit {
					c.JSON(http.StatusTooManyRequests, gin.H{"error": "Monthly AI analysis limit reached"})
					return
				}
			}
		}

		job, err := ajm.Enqueue(doc)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to queue analysis", "details": err.Error()})
			return
		}

		_, _ = db.Exec(`UPDATE documents SET status = 'analyzing', updated_at = NOW() WHERE id = $1`, doc.ID)

		logActivity(db, session, userName, "Analysis", "Queue",
			fmt.Sprintf("Queued analysis job %d for document %s", job.ID, doc.FileName), "", "")
		c.JSON(http.StatusAccepted, job)
	}
}

// GetAnalysisJobHandler returns one job's status.
// @Summary Get analysis job
// @Tags Analysis
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} models.AnalysisJobGorm
// @Failure 404 {object} models.ErrorResponse
// @Router /api/jobs/{id} [get]
func (ajm *AnalysisJobManager) GetAnalysisJobHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		jobID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
			return
		}

		var job models.AnalysisJobGorm
		if err := ajm.gdb.Where("id = ? AND user_id = ?", uint(jobID), session.UserID).First(&job).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}

		c.JSON(http.StatusOK, job)
	}
}

// ListAnalysisJobsHandler lists the caller's jobs, newest first.
// @Summary List analysis jobs
// @Tags Analysis
// @Produce json
// @Success 200 {array} models.AnalysisJobGorm
// @Failure 401 {object} models.ErrorResponse
// @Router /api/jobs [get]
func (ajm *AnalysisJobManager) ListAnalysisJobsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var jobs []models.AnalysisJobGorm
		if err := ajm.gdb.Where("user_id = ?", session.UserID).
			Order("created_at DESC").Limit(100).Find(&jobs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch jobs", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, jobs)
	}
}

// CancelAnalysisJobHandler cancels a queued or running job.
// @Summary Cancel analysis job
// @Tags Analysis
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/jobs/{id} [delete]
func (ajm *AnalysisJobManager) CancelAnalysisJobHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		jobID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
			return
		}

		var job models.AnalysisJobGorm
		if err := ajm.gdb.Where("id = ? AND user_id = ?", uint(jobID), session.UserID).First(&job).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		if job.Status == "completed" || job.Status == "failed" || job.Status == "cancelled" {
			c.JSON(http.StatusConflict, gin.H{"error": "Job already finished", "details": "status is " + job.Status})
			return
		}

		if !ajm.StopJob(job.ID) {
			// No live goroutine; the row is stale, finalize it directly.
			msg := "cancelled"
			_ = ajm.updateJobStatus(job.ID, "cancelled", 0, &msg, nil)
		}

		logActivity(db, session, userName, "Analysis", "Cancel",
			fmt.Sprintf("Cancelled analysis job %d", job.ID), "", "")
		c.JSON(http.StatusOK, gin.H{"message": "Job cancellation requested"})
	}
}

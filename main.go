// @title           Doc.AI API
// @version         1.0
// @description     Doc.AI Backend API - document management, AI analysis and quote comparison.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.email  support@docai.app

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	_ "backend/docs"
	"backend/handlers"
	"backend/models"
	"backend/services"
	"backend/storage"
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var cronRunning int32

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"https://docai.app",
		"https://app.docai.app",
		"http://localhost:5173",
		"http://localhost:3000",
		"http://localhost:8080",
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding", "X-XSRF-TOKEN",
		"Accept", "Origin", "X-Requested-With", "Authorization", "User-Agent",
		"Cache-Control", "Referer",
		"Access-Control-Request-Method", "Access-Control-Request-Headers",
		"Accept-Language", "DNT", "Connection",
	}
	corsConfig.AllowMethods = []string{
		"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length", "Authorization", "Content-Type", "Content-Disposition",
	}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

// runSuspensionJob expires subscriptions whose paid period ended and
// suspends users left without an active subscription.
func runSuspensionJob(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for suspension job: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			log.Printf("Recovered from panic in runSuspensionJob: %v", r)
		}
	}()

	expireQuery := `
		UPDATE subscriptions
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'active'
		  AND end_date < CURRENT_DATE
	`
	res, err := tx.Exec(expireQuery)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	expired, _ := res.RowsAffected()
	log.Printf("Expired %d subscriptions past their end date.", expired)

	suspendQuery := `
		UPDATE users u
		SET suspended = TRUE, updated_at = NOW()
		WHERE u.suspended = FALSE
		  AND u.is_admin = FALSE
		  AND EXISTS (
			SELECT 1 FROM subscriptions s
			WHERE s.user_id = u.id AND s.status = 'expired'
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM subscriptions s
			WHERE s.user_id = u.id AND s.status = 'active'
		  )
	`
	res, err = tx.Exec(suspendQuery)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to suspend users: %w", err)
	}
	suspended, _ := res.RowsAffected()
	log.Printf("Suspended %d users due to subscription expiry.", suspended)

	return tx.Commit()
}

// runExpiryWarnings emails users whose subscription ends within three days.
func runExpiryWarnings(db *sql.DB) error {
	rows, err := db.Query(`
		SELECT u.id, u.email, COALESCE(u.full_name, ''), p.name, s.end_date
		FROM subscriptions s
		JOIN users u ON u.id = s.user_id
		JOIN plans p ON p.id = s.plan_id
		WHERE s.status = 'active'
		  AND s.end_date BETWEEN CURRENT_DATE AND CURRENT_DATE + INTERVAL '3 days'
	`)
	if err != nil {
		return fmt.Errorf("failed to fetch expiring subscriptions: %w", err)
	}
	defer rows.Close()

	emailSvc := services.NewEmailService(db)
	var failures int
	for rows.Next() {
		var user models.User
		var planName string
		var endDate time.Time
		if err := rows.Scan(&user.ID, &user.Email, &user.FullName, &planName, &endDate); err != nil {
			log.Printf("Failed to scan expiring subscription: %v", err)
			continue
		}
		if err := emailSvc.SendSubscriptionExpiryEmail(user, planName, endDate.Format("2006-01-02")); err != nil {
			log.Printf("Failed to send expiry warning to %s: %v", user.Email, err)
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d expiry warnings failed to send", failures)
	}
	return nil
}

func safeGo(
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	fn func(context.Context) error,
	cronLogger *log.Logger,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				if cronLogger != nil {
					cronLogger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				}
			}
		}()

		if err := fn(ctx); err != nil {
			log.Printf("%s failed: %v", name, err)
			if cronLogger != nil {
				cronLogger.Printf("%s failed: %v", name, err)
			}
		} else {
			log.Printf("%s completed successfully", name)
			if cronLogger != nil {
				cronLogger.Printf("%s completed successfully", name)
			}
		}
	}()
}

func main() {
	db := storage.InitDB()
	_ = storage.InitGormDB()

	jobManager := handlers.NewAnalysisJobManager(db)

	// Setup cron job to run maintenance daily at 03:30
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
	)

	cronLogFile, err := os.OpenFile("cron_errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Failed to open cron error log file: %v", err)
	}
	cronLogger := log.New(cronLogFile, "CRON_ERROR: ", log.LstdFlags)

	_, err = c.AddFunc("30 3 * * *", func() {
		// ------------------ CRON LOCK ------------------
		if !atomic.CompareAndSwapInt32(&cronRunning, 0, 1) {
			log.Println("Previous cron still running. Skipping this run.")
			if cronLogger != nil {
				cronLogger.Println("Previous cron still running. Skipping this run.")
			}
			return
		}
		defer atomic.StoreInt32(&cronRunning, 0)

		log.Println("Starting daily maintenance cron job (03:30)")
		if cronLogger != nil {
			cronLogger.Println("Starting daily maintenance cron job (03:30)")
		}

		// ------------------ TIMEOUT CONTEXT ------------------
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		var wg sync.WaitGroup

		safeGo(ctx, &wg, "CleanupExpiredSessions", func(ctx context.Context) error {
			return storage.CleanupExpiredSessions(db)
		}, cronLogger)

		safeGo(ctx, &wg, "SubscriptionSuspensionJob", func(ctx context.Context) error {
			return runSuspensionJob(db)
		}, cronLogger)

		safeGo(ctx, &wg, "SubscriptionExpiryWarnings", func(ctx context.Context) error {
			return runExpiryWarnings(db)
		}, cronLogger)

		// ------------------ WAIT WITH CANCELLATION ------------------

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			log.Println("All cron jobs finished")
			if cronLogger != nil {
				cronLogger.Println("All cron jobs finished")
			}
		case <-ctx.Done():
			log.Println("Cron timeout reached, jobs cancelled")
			if cronLogger != nil {
				cronLogger.Println("Cron timeout reached, jobs cancelled")
			}
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily maintenance cron job: %v", err)
	}

	c.Start()

	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20

	r.Use(cors.New(CORSConfig()))

	// ==================== 1. AUTH & LOGIN ====================
	r.POST("/api/login", handlers.LoginHandler(db))
	r.POST("/api/register", handlers.RegisterHandler(db))
	r.POST("/api/logout", handlers.LogoutHandler(db))
	r.POST("/api/refresh_token", handlers.RefreshTokenHandler(db))
	r.GET("/api/validate_session", handlers.ValidateSessionHandler(db))
	r.GET("/api/auth/google", handlers.GoogleLoginHandler())
	r.GET("/api/auth/google/callback", handlers.GoogleCallbackHandler(db))

	// ==================== 2. USERS ====================
	r.GET("/api/users", handlers.GetUsersHandler(db))
	r.GET("/api/users/me", handlers.GetUserProfileHandler(db))
	r.PUT("/api/users/me", handlers.UpdateUserProfileHandler(db))
	r.PUT("/api/users/:id/suspend", handlers.SuspendUserHandler(db))
	r.DELETE("/api/users/:id", handlers.DeleteUserHandler(db))

	// ==================== 3. PLANS & SUBSCRIPTIONS ====================
	r.GET("/api/plans", handlers.GetPlansHandler(db))
	r.GET("/api/plans/:id", handlers.GetPlanHandler(db))
	r.POST("/api/plans", handlers.CreatePlanHandler(db))
	r.PUT("/api/plans/:id", handlers.UpdatePlanHandler(db))
	r.DELETE("/api/plans/:id", handlers.DeletePlanHandler(db))
	r.POST("/api/subscriptions", handlers.SubscribeHandler(db))
	r.GET("/api/subscriptions", handlers.GetSubscriptionsHandler(db))
	r.GET("/api/subscriptions/current", handlers.GetCurrentSubscriptionHandler(db))
	r.DELETE("/api/subscriptions/current", handlers.CancelSubscriptionHandler(db))

	// ==================== 4. DOCUMENTS ====================
	r.POST("/api/documents", handlers.UploadDocumentHandler(db))
	r.GET("/api/documents", handlers.GetDocumentsHandler(db))
	r.GET("/api/documents/:id", handlers.GetDocumentHandler(db))
	r.DELETE("/api/documents/:id", handlers.DeleteDocumentHandler(db))
	r.GET("/api/documents/:id/download", handlers.DownloadDocumentHandler(db))
	r.POST("/api/documents/:id/share", handlers.ShareDocumentHandler(db))
	r.GET("/api/documents/:id/share_qr", handlers.GenerateDocumentQRHandler(db))
	r.GET("/share/:token", handlers.GetSharedDocumentHandler(db))

	// ==================== 5. AI ANALYSIS JOBS ====================
	r.POST("/api/documents/:id/analyze", jobManager.EnqueueAnalysisHandler(db))
	r.GET("/api/jobs", jobManager.ListAnalysisJobsHandler(db))
	r.GET("/api/jobs/:id", jobManager.GetAnalysisJobHandler(db))
	r.DELETE("/api/jobs/:id", jobManager.CancelAnalysisJobHandler(db))

	// ==================== 6. BUDGET GROUPS & QUOTES ====================
	r.POST("/api/budget_groups", handlers.CreateBudgetGroupHandler(db))
	r.GET("/api/budget_groups", handlers.GetBudgetGroupsHandler(db))
	r.GET("/api/budget_groups/:group_id", handlers.GetBudgetGroupHandler(db))
	r.DELETE("/api/budget_groups/:group_id", handlers.DeleteBudgetGroupHandler(db))
	r.POST("/api/budget_groups/:group_id/quotes", handlers.AddQuoteHandler(db))
	r.PUT("/api/budget_groups/:group_id/quotes/:id", handlers.UpdateQuoteHandler(db))
	r.DELETE("/api/budget_groups/:group_id/quotes/:id", handlers.DeleteQuoteHandler(db))
	r.GET("/api/budget_groups/:group_id/comparison", handlers.CompareQuotesHandler(db))

	// ==================== 7. EXPORTS ====================
	r.GET("/api/budget_groups/:group_id/comparison/pdf", handlers.ExportComparisonPDFHandler(db))
	r.GET("/api/budget_groups/:group_id/quotes/excel", handlers.ExportQuotesExcelHandler(db))
	r.GET("/api/budget_groups/:group_id/quotes/csv", handlers.ExportQuotesCSVHandler(db))

	// ==================== 8. CHATBOT & DASHBOARD ====================
	r.POST("/api/chatbot/message", handlers.ChatbotHandler(db))
	r.GET("/api/dashboard_summary", handlers.GetDashboardSummaryHandler(db))

	// ==================== 9. ACTIVITY LOGS ====================
	r.GET("/api/logs", handlers.GetActivityLogsHandler(db))

	// ==================== 10. AI PROVIDERS ====================
	r.GET("/api/ai_providers", handlers.GetAIProvidersHandler(db))
	r.POST("/api/ai_providers", handlers.CreateAIProviderHandler(db))
	r.PUT("/api/ai_providers/:id", handlers.UpdateAIProviderHandler(db))
	r.POST("/api/ai_providers/:id/activate", handlers.ActivateAIProviderHandler(db))
	r.DELETE("/api/ai_providers/:id", handlers.DeleteAIProviderHandler(db))

	// ==================== 11. SWAGGER ====================
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	portInt, err := strconv.Atoi(port)
	if err != nil {
		log.Fatalf("Invalid PORT environment variable: %s. Must be a number.", port)
	}
	if portInt < 0 || portInt > 65535 {
		log.Fatalf("Invalid PORT: %d. Must be between 0 and 65535.", portInt)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown job manager first
	if err := jobManager.GracefulShutdown(20 * time.Second); err != nil {
		log.Printf("Warning: Job manager shutdown error: %v", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}

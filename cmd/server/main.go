package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tofa/academy-backend/internal/config"
	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/handlers"
	"github.com/tofa/academy-backend/internal/middleware"
	"github.com/tofa/academy-backend/internal/models"
	"github.com/tofa/academy-backend/internal/services"
	"github.com/tofa/academy-backend/pkg/jwt"
	"github.com/tofa/academy-backend/pkg/mailer"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting TOFA Academy CRM Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Repositories
	userRepo := database.NewUserRepository(db)
	tokenRepo := database.NewRefreshTokenRepository(db)
	leadRepo := database.NewLeadRepository(db)
	studentRepo := database.NewStudentRepository(db)
	batchRepo := database.NewBatchRepository(db)
	centerRepo := database.NewCenterRepository(db)
	approvalRepo := database.NewApprovalRepository(db)
	attendanceRepo := database.NewAttendanceRepository(db)
	notificationRepo := database.NewNotificationRepository(db)
	auditRepo := database.NewAuditRepository(db)
	importRepo := database.NewImportRepository(db)
	formRepo := database.NewPublicFormRepository(db)

	// Mail gateway
	var mail mailer.Mailer
	if cfg.Mail.Mode == "production" {
		logger.Info("Mail gateway in production mode")
		mail = mailer.NewHTTPMailer(mailer.Config{
			APIURL:    cfg.Mail.APIURL,
			APIKey:    cfg.Mail.APIKey,
			FromName:  cfg.Mail.FromName,
			FromEmail: cfg.Mail.FromEmail,
			ReplyTo:   cfg.Mail.ReplyTo,
		})
	} else {
		logger.Info("Mail gateway in development mode (emails are logged, not sent)")
		mail = mailer.NewLogMailer()
	}

	// Services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	auditService := services.NewAuditService(auditRepo, cfg.Security.EnableAuditLog)
	authService := services.NewAuthService(userRepo, tokenRepo, jwtService, auditService, cfg.JWT.RefreshTokenExpiry)
	notificationService := services.NewNotificationService(notificationRepo, userRepo)
	leadService := services.NewLeadService(leadRepo, studentRepo, batchRepo, notificationService)
	studentService := services.NewStudentService(studentRepo, leadRepo, mail, notificationService)
	approvalService := services.NewApprovalService(approvalRepo, leadRepo, studentRepo, batchRepo, notificationService)
	attendanceService := services.NewAttendanceService(attendanceRepo, leadRepo, studentRepo, batchRepo)
	analyticsService := services.NewAnalyticsService(leadRepo, studentRepo)
	importService := services.NewImportService(importRepo, leadRepo, cfg.Import.MaxRows)
	formService := services.NewPublicFormService(formRepo, leadRepo)

	previewTTL := time.Duration(cfg.Import.PreviewExpiryHrs) * time.Hour
	cronService := services.NewCronService(
		leadRepo, tokenRepo, notificationRepo, importService, notificationService, previewTTL,
	)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	leadHandler := handlers.NewLeadHandler(leadService, importService, formService, auditService)
	studentHandler := handlers.NewStudentHandler(studentService, attendanceService, auditService)
	batchHandler := handlers.NewBatchHandler(batchRepo, centerRepo, attendanceService)
	approvalHandler := handlers.NewApprovalHandler(approvalService, auditService)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	publicFormHandler := handlers.NewPublicFormHandler(formService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))

	// Parent-facing forms, addressed by token rather than session.
	public := router.Group("/public")
	{
		public.GET("/lead-preferences/:token", publicFormHandler.GetPreferences)
		public.PUT("/lead-preferences/:token", publicFormHandler.SubmitPreferences)
		public.GET("/lead-feedback/:token", publicFormHandler.GetFeedback)
		public.PUT("/lead-feedback/:token", publicFormHandler.SubmitFeedback)
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/token", authHandler.Login)
		v1.POST("/token/refresh", authHandler.Refresh)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(jwtService))

		protected.POST("/logout", authHandler.Logout)
		protected.GET("/me", authHandler.Me)

		funnelStaff := middleware.RequireRole(models.RoleTeamLead, models.RoleTeamMember)
		teamLeadOnly := middleware.RequireRole(models.RoleTeamLead)
		sessionStaff := middleware.RequireRole(models.RoleTeamLead, models.RoleTeamMember, models.RoleCoach)

		leads := protected.Group("/leads")
		{
			leads.GET("", leadHandler.List)
			leads.GET("/:id", leadHandler.Get)
			leads.POST("", funnelStaff, leadHandler.Create)
			leads.PUT("/:id", funnelStaff, leadHandler.Update)
			leads.PUT("/:id/status", funnelStaff, leadHandler.UpdateStatus)
			leads.POST("/:id/form-token", funnelStaff, leadHandler.IssueFormToken)
			leads.POST("/preview-upload", funnelStaff, leadHandler.PreviewUpload)
			leads.POST("/upload", funnelStaff, leadHandler.CommitUpload)
		}

		students := protected.Group("/students")
		{
			students.GET("", studentHandler.List)
			students.GET("/:id", studentHandler.Get)
			students.GET("/:id/milestones", studentHandler.Milestones)
			students.PUT("/:id", funnelStaff, studentHandler.Update)
			students.POST("/:id/verify-payment", teamLeadOnly, studentHandler.VerifyPayment)
			students.POST("/:id/send-welcome-email", teamLeadOnly, studentHandler.SendWelcomeEmail)
		}

		batches := protected.Group("/batches")
		{
			batches.GET("", batchHandler.ListBatches)
			batches.GET("/:id", batchHandler.GetBatch)
			batches.GET("/:id/participants", batchHandler.Participants)
			batches.POST("", teamLeadOnly, batchHandler.CreateBatch)
			batches.PUT("/:id", teamLeadOnly, batchHandler.UpdateBatch)
			batches.POST("/:id/assign-coach", teamLeadOnly, batchHandler.AssignCoach)
		}

		centers := protected.Group("/centers")
		{
			centers.GET("", batchHandler.ListCenters)
			centers.POST("", teamLeadOnly, batchHandler.CreateCenter)
		}

		approvals := protected.Group("/approvals")
		{
			approvals.GET("", approvalHandler.List)
			approvals.GET("/:id", approvalHandler.Get)
			// Coaches file correction requests too; only resolution is
			// restricted to team leads.
			approvals.POST("", sessionStaff, approvalHandler.Create)
			approvals.POST("/:id/resolve", teamLeadOnly, approvalHandler.Resolve)
		}

		attendance := protected.Group("/attendance")
		{
			attendance.POST("/check-in", sessionStaff, attendanceHandler.CheckIn)
			attendance.GET("/history/:participantId", attendanceHandler.History)
			attendance.GET("/batch/:batchId", attendanceHandler.Sheet)
		}

		analytics := protected.Group("/analytics")
		{
			analytics.GET("/command-center", analyticsHandler.CommandCenter)
			analytics.GET("/conversion-rates", analyticsHandler.ConversionRates)
			analytics.GET("/time-to-contact", analyticsHandler.TimeToContact)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
		}

		admin := protected.Group("/admin")
		admin.Use(teamLeadOnly)
		{
			admin.POST("/cron/overdue-sweep", func(c *gin.Context) {
				cronService.RunOverdueSweepNow()
				c.JSON(http.StatusOK, gin.H{"message": "Overdue sweep triggered"})
			})
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}
		if userCtx, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = userCtx.UserID
			fields["role"] = userCtx.Role
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}

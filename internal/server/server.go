package server

import (
	"context"
	"net/http"
	"time"

	"classbook/internal/auth"
	"classbook/internal/availability"
	"classbook/internal/booking"
	"classbook/internal/config"
	"classbook/internal/email"
	"classbook/internal/schedule"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	config *config.Config
	email  *email.Service
	http   *http.Server
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	availabilityRepo := availability.NewRepository(db)
	availabilityService := availability.NewService(availabilityRepo, cfg.DefaultTimezone)
	availabilityHandler := availability.NewHandler(availabilityService)

	scheduleRepo := schedule.NewRepository(db)
	scheduleService := schedule.NewService(scheduleRepo, cfg.DefaultTimezone)
	scheduleHandler := schedule.NewHandler(scheduleService)

	bookingRepo := booking.NewRepository(db)
	var mailer booking.Mailer
	if emailService != nil {
		mailer = emailService
	}
	bookingService := booking.NewService(bookingRepo, mailer)
	bookingHandler := booking.NewHandler(bookingService)

	// Guest-facing routes are rate limited per client IP; staff routes
	// sit behind JWT instead.
	public := router.Group("/")
	public.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		public.GET("/schedule", scheduleHandler.WeeklySchedule)
		public.GET("/class-types", scheduleHandler.ListClassTypes)
		public.GET("/branches", scheduleHandler.ListBranches)
		public.GET("/sessions/:sessionID", scheduleHandler.GetSession)
		public.POST("/sessions/:sessionID/bookings", bookingHandler.CreateBooking)
		public.GET("/bookings/:code", bookingHandler.GetBooking)
		public.POST("/bookings/:code/cancel", bookingHandler.CancelBooking)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	staffMiddleware := auth.RequireRole("staff", "admin")
	admin := router.Group("/admin")
	admin.Use(authMiddleware, staffMiddleware)
	{
		admin.POST("/availability-groups", availabilityHandler.CreateGroup)
		admin.GET("/availability-groups", availabilityHandler.ListGroups)
		admin.GET("/availability-groups/:groupID", availabilityHandler.GetGroup)
		admin.PUT("/availability-groups/:groupID", availabilityHandler.UpdateGroup)
		admin.DELETE("/availability-groups/:groupID", availabilityHandler.DeleteGroup)
		admin.POST("/exclusions", availabilityHandler.CreateExclusion)
		admin.GET("/exclusions", availabilityHandler.ListExclusions)
		admin.PUT("/exclusions/:exclusionID", availabilityHandler.UpdateExclusion)
		admin.DELETE("/exclusions/:exclusionID", availabilityHandler.DeleteExclusion)
		admin.GET("/effective-windows", availabilityHandler.EffectiveWindows)

		admin.POST("/class-types", scheduleHandler.CreateClassType)
		admin.POST("/templates", scheduleHandler.CreateTemplate)
		admin.GET("/templates", scheduleHandler.ListTemplates)
		admin.GET("/templates/:templateID", scheduleHandler.GetTemplate)
		admin.PUT("/templates/:templateID", scheduleHandler.UpdateTemplate)
		admin.DELETE("/templates/:templateID", scheduleHandler.DeleteTemplate)
		admin.POST("/sessions/generate", scheduleHandler.GenerateSessions)
		admin.POST("/sessions", scheduleHandler.CreateSession)
		admin.GET("/sessions", scheduleHandler.ListSessions)
		admin.PUT("/sessions/:sessionID", scheduleHandler.UpdateSession)
		admin.POST("/sessions/:sessionID/cancel", scheduleHandler.CancelSession)

		admin.GET("/bookings", bookingHandler.ListBookings)
		admin.PUT("/bookings/:bookingID/status", bookingHandler.UpdateStatus)
		admin.GET("/bookings/stats", bookingHandler.GetStats)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	if emailService != nil {
		router.GET("/test-email", TestEmail(emailService))
	}
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

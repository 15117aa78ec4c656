package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"treinopp/internal/auth"
	"treinopp/internal/billing"
	"treinopp/internal/booking"
	"treinopp/internal/config"
	"treinopp/internal/logger"
	"treinopp/internal/schedule"
)

// Handlers groups the domain handlers mounted by the server.
type Handlers struct {
	Schedule *schedule.Handler
	Booking  *booking.Handler
	Billing  *billing.Handler
}

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

func New(cfg *config.Config, h Handlers, probes ...Probe) *Server {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	router.GET("/health", Health)
	router.GET("/ready", Ready(probes...))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	api := router.Group("/")
	api.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	protected := api.Group("/")
	protected.Use(auth.AuthMiddleware(cfg.JWT.Secret))
	{
		trainers := protected.Group("/trainers/:trainerId")
		trainers.POST("/validate-schedule", h.Schedule.ValidateSchedule)
		trainers.GET("/bookable-slots", h.Schedule.BookableSlots)
		trainers.GET("/slots", h.Schedule.ListSlots)

		managers := trainers.Group("/slots")
		managers.Use(auth.RequireRole("TRAINER", "OWNER"))
		managers.POST("", h.Schedule.CreateSlot)
		managers.PUT("/:slotId", h.Schedule.RescheduleSlot)
		managers.DELETE("/:slotId", h.Schedule.DeleteSlot)

		protected.POST("/slots/:slotId/book", h.Booking.BookSlot)
		protected.POST("/bookings/:bookingId/cancel", h.Booking.CancelBooking)
		protected.POST("/bookings/:bookingId/attend", auth.RequireRole("TRAINER", "OWNER"), h.Booking.MarkAttended)
		protected.GET("/bookings", h.Booking.ListMyBookings)
	}

	if h.Billing != nil {
		api.POST("/internal/sweeps/fees", h.Billing.RunFeeSweep)
	}

	return &Server{
		router: router,
		config: cfg,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	logger.Infof("Server starting on port %s", s.config.Port)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	if err := s.http.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

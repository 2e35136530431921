package main // entry point for the session admission server

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/aquacenter/session-admission/internal/admission"
	"github.com/aquacenter/session-admission/internal/config"
	"github.com/aquacenter/session-admission/internal/database"
	"github.com/aquacenter/session-admission/internal/handler"
	"github.com/aquacenter/session-admission/internal/lease"
	"github.com/aquacenter/session-admission/internal/middleware"
	"github.com/aquacenter/session-admission/internal/queue"
	"github.com/aquacenter/session-admission/internal/repository"
	"github.com/aquacenter/session-admission/internal/router"
	queue_publisher "github.com/aquacenter/session-admission/internal/service"
)

func main() {
	// Load .env when present; real deployments set the environment
	// directly and the file is absent.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the occurrence leases and the rate limiter. Without
	// it the leases fall back to the in-process provider, which is only
	// correct when a single server instance runs.
	rdb := config.NewRedisClient()
	var leases lease.Provider
	if rdb != nil {
		leases = lease.NewRedisProvider(rdb)
	} else {
		log.Println("redis unavailable; using in-process leases (single instance only)")
		leases = lease.NewLocalProvider()
	}

	sessionRepo := repository.NewSessionRepo(db)
	memberRepo := repository.NewMemberRepo(db)
	admissionRepo := repository.NewAdmissionRepo(db)
	waitlistRepo := repository.NewWaitlistRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	controller := admission.NewController(sessionRepo, memberRepo, admissionRepo, leases, queue_publisher.AMQPNotifier{})
	waitlist := admission.NewWaitlist(waitlistRepo, leases)

	// Consume capacity events in the background; the loop reconnects
	// on broker failures and never takes the server down.
	go func() {
		if err := queue.StartCapacityConsumer(); err != nil {
			log.Printf("capacity consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	authHandler := handler.NewAuthHandler(cfg, memberRepo, tokenRepo)
	checkinHandler := handler.NewCheckinHandler(controller)
	waitlistHandler := handler.NewWaitlistHandler(waitlist, sessionRepo)
	scheduleHandler := handler.NewScheduleHandler(sessionRepo, admissionRepo)
	adminSessions := handler.NewAdminSessionHandler(sessionRepo, admissionRepo)
	adminAdmit := handler.NewAdminAdmitHandler(controller, waitlist, sessionRepo)

	rateLimiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterMember(e, checkinHandler, waitlistHandler, scheduleHandler, cfg.JWTSecret, rateLimiter)
	router.RegisterAdmin(e, adminSessions, adminAdmit, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

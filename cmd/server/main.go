package main // Entry point package

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/parking-slot-booking/internal/clock"
	"github.com/iliyamo/parking-slot-booking/internal/config"
	"github.com/iliyamo/parking-slot-booking/internal/handler"
	"github.com/iliyamo/parking-slot-booking/internal/middleware"
	"github.com/iliyamo/parking-slot-booking/internal/model"
	"github.com/iliyamo/parking-slot-booking/internal/queue"
	"github.com/iliyamo/parking-slot-booking/internal/repository"
	"github.com/iliyamo/parking-slot-booking/internal/router"
	"github.com/iliyamo/parking-slot-booking/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	st, err := store.Open(store.Options{
		Path:            cfg.StorePath,
		Passphrase:      cfg.StorePassphrase,
		CreateIfMissing: true,
	})
	if err != nil {
		if errors.Is(err, store.ErrDecryptionFailed) {
			log.Fatal("store: wrong passphrase")
		}
		log.Fatalf("store: %v", err)
	}
	defer func() { _ = st.Close() }()
	log.Printf("store opened at %s (encrypted=%v)", cfg.StorePath, st.Encrypted())

	clk := clock.Real{}
	users := repository.NewUserRepo(st, clk)
	lots := repository.NewLotRepo(st, clk)
	bookings := repository.NewBookingRepo(st, clk)
	vehicles := repository.NewVehicleRepo(st, clk)
	sessions := repository.NewSessionRepo(st, clk, time.Duration(cfg.SessionTTLHours)*time.Hour)
	audit := repository.NewAuditRepo(st, clk)

	seedAdmin(cfg, users)

	authH := handler.NewAuthHandler(cfg, users, sessions, bookings, vehicles, audit)
	bookingH := handler.NewBookingHandler(bookings, audit)
	lotH := handler.NewLotHandler(lots, audit)
	vehicleH := handler.NewVehicleHandler(vehicles, audit)
	adminH := handler.NewAdminHandler(users, sessions, bookings, vehicles, audit)
	healthH := &handler.HealthHandler{Store: st}

	e := echo.New()
	e.HideBanner = true

	// Distributed rate limiting degrades to a pass-through when Redis is
	// not reachable at startup.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterHealth(e, healthH)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, lotH)
	router.RegisterBookings(e, bookingH, vehicleH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, lotH, cfg.JWTSecret)

	// Consume booking events in the background; the consumer runs its own
	// reconnect loop for broker restarts.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	// Expired sessions are purged periodically; validation rejects them
	// regardless, this only reclaims space.
	go func() {
		for range time.Tick(time.Hour) {
			if n, err := sessions.PurgeExpired(); err != nil {
				log.Printf("session purge: %v", err)
			} else if n > 0 {
				log.Printf("session purge: removed %d expired sessions", n)
			}
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// seedAdmin creates the initial superadmin account from ADMIN_USERNAME,
// ADMIN_EMAIL and ADMIN_PASSWORD when it does not exist yet, so a fresh
// deployment has a way to reach the admin endpoints.
func seedAdmin(cfg config.Config, users *repository.UserRepo) {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return
	}
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = username + "@localhost"
	}
	if _, err := users.GetByUsername(username); err == nil {
		return
	}
	if _, err := users.Create(username, email, "Administrator", password, model.RoleSuperAdmin, cfg.BcryptCost); err != nil {
		log.Printf("seed admin: %v", err)
		return
	}
	log.Printf("seed admin: created superadmin %q", username)
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hotel-booking/config"
	"hotel-booking/controllers"
	"hotel-booking/routes"
	"hotel-booking/services"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	settings := config.LoadSettings()

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("❌ Database connect failed: %v", err)
	}
	db := config.DB
	if db == nil {
		log.Fatal("❌ config.DB is nil after ConnectDatabase()")
	}
	log.Println("✅ Database connection established and migrations applied.")

	rdb := config.ConnectRedis()

	// Initialize services
	timeout := settings.OperationTimeout
	auditService := services.NewAuditService(db, rdb, 1024, timeout)
	roomService := services.NewRoomService(db, auditService, timeout)
	guestService := services.NewGuestService(db, timeout)
	housekeepingService := services.NewHousekeepingService(db, auditService, timeout)
	availabilityService := services.NewAvailabilityService(db, timeout)
	bookingService := services.NewBookingService(db, roomService, guestService, housekeepingService, auditService, timeout)
	settingsService := services.NewSettingsService(db, timeout)

	// Build router
	router := routes.SetupRouter(routes.Controllers{
		Booking:      controllers.NewBookingController(bookingService, availabilityService),
		Room:         controllers.NewRoomController(roomService),
		Guest:        controllers.NewGuestController(guestService),
		Housekeeping: controllers.NewHousekeepingController(housekeepingService),
		Settings:     controllers.NewSettingsController(settingsService),
	}, routes.Options{
		CORSOrigins:      settings.CORSOrigins,
		BookingRateLimit: settings.BookingRateLimit,
	})

	addr := ":" + settings.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe(): %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⚠️  Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	// flush pending audit entries before closing connections
	auditService.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("✅ Server stopped gracefully")
}

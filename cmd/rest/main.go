package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"virtual-hr-be/internal/bootstrap"
	"virtual-hr-be/internal/config"
	"virtual-hr-be/internal/server"
	"virtual-hr-be/internal/tracer"
	"virtual-hr-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	// 1. Load Configuration
	cfg := config.Load()
	if missing := cfg.Validate(); len(missing) > 0 {
		log.Printf("[WARN] Missing configuration: %v", missing)
	}

	// 2. Initialize Database (only the postgres-backed drivers need it)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment != "production")
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}
	if container.NotificationService != nil {
		if err := container.NotificationService.Start(ctx); err != nil {
			log.Printf("Notification Service Error: %v", err)
		}
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}

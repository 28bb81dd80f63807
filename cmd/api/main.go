package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/pbastos/bankroll/docs"
	"github.com/pbastos/bankroll/internal/auth"
	"github.com/pbastos/bankroll/internal/cleanup"
	"github.com/pbastos/bankroll/internal/config"
	"github.com/pbastos/bankroll/internal/database"
	"github.com/pbastos/bankroll/internal/ledger"
	"github.com/pbastos/bankroll/internal/membership"
	"github.com/pbastos/bankroll/internal/notification"
	"github.com/pbastos/bankroll/internal/room"
	"github.com/pbastos/bankroll/internal/user"
	"github.com/pbastos/bankroll/pkg/logging"
	mw "github.com/pbastos/bankroll/pkg/middleware"
)

// @title        Bankroll API
// @version      1.0
// @description  Play-money banking for board game nights.
// @BasePath     /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	logging.Setup()

	cfg := config.Load()

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("Connected to database")

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	requireAuth := mw.RequireAuth(jwtManager)

	// Repositories
	userRepo := user.NewRepository(db)
	roomRepo := room.NewRepository(db)
	membershipRepo := membership.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	notificationRepo := notification.NewRepository(db)

	// Services
	notificationService := notification.NewService(notificationRepo)
	userService := user.NewService(userRepo, jwtManager)
	roomService := room.NewService(roomRepo)
	membershipService := membership.NewService(membershipRepo, roomRepo, userRepo, notificationService)
	ledgerService := ledger.NewService(db, ledgerRepo, roomRepo, userRepo, membershipRepo, notificationService)

	// Handlers
	userHandler := user.NewHandler(userService)
	roomHandler := room.NewHandler(roomService)
	membershipHandler := membership.NewHandler(membershipService)
	ledgerHandler := ledger.NewHandler(ledgerService)
	notificationHandler := notification.NewHandler(notificationService)

	// Retention sweeper
	sweeper := cleanup.NewSweeper(db, roomRepo, ledgerRepo, membershipRepo, cfg.RetentionDays)
	scheduler, err := sweeper.Start(cfg.CleanupSchedule)
	if err != nil {
		slog.Error("Failed to start cleanup scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Signup is the only public API endpoint; the rest needs a token.
		r.Mount("/users", userHandler.Routes(requireAuth))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Mount("/rooms", roomHandler.Routes())
			r.Get("/rooms/{roomID}/members", membershipHandler.ListByRoom)
			r.Mount("/memberships", membershipHandler.Routes())
			r.Mount("/transactions", ledgerHandler.Routes())
			r.Mount("/notifications", notificationHandler.Routes())
		})
	})

	slog.Info("Server starting", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/mkazlouski/budget-bank/internal/config"
	"github.com/mkazlouski/budget-bank/internal/handler"
	"github.com/mkazlouski/budget-bank/internal/integrations/nbrb"
	"github.com/mkazlouski/budget-bank/internal/middleware"
	"github.com/mkazlouski/budget-bank/internal/repository"
	"github.com/mkazlouski/budget-bank/internal/scheduler"
	"github.com/mkazlouski/budget-bank/internal/service"
	"github.com/mkazlouski/budget-bank/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	rates := nbrb.NewClient(cfg, logger)
	notifier := email.NewSender(cfg, logger)
	svc := service.NewService(repo, rates, notifier, logger, cfg)
	h := handler.NewHandler(svc, logger)

	// Periodic passes
	sched := scheduler.New(logger)
	err = sched.Register(
		scheduler.Job{Name: "deposit-settlement", Spec: cfg.DepositSettleSpec, Run: svc.SettleStaleDeposits},
		scheduler.Job{Name: "daily-budget", Spec: cfg.DailyBudgetSpec, Run: svc.RecountDailyBudgets},
		scheduler.Job{Name: "monthly-budget", Spec: cfg.MonthlyBudgetSpec, Run: svc.CountMonthlyBudgets},
		scheduler.Job{Name: "credit-amortization", Spec: cfg.AmortizeSpec, Run: svc.ProcessMonthlyPayments},
	)
	if err != nil {
		logger.Fatalf("Failed to register jobs: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/cards", h.CreateCard).Methods("POST")
	authRouter.HandleFunc("/cards", h.ListCards).Methods("GET")
	authRouter.HandleFunc("/cards/{id}/payments", h.Statement).Methods("GET")
	authRouter.HandleFunc("/cards/{id}/payments", h.Debit).Methods("POST")
	authRouter.HandleFunc("/cards/{id}/deposits", h.RequestDeposit).Methods("POST")
	authRouter.HandleFunc("/cards/{id}/deposits/decision", h.DecideDeposit).Methods("POST")
	authRouter.HandleFunc("/cards/{id}/budget", h.CreatePolicy).Methods("POST")
	authRouter.HandleFunc("/cards/{id}/budget", h.GetPolicy).Methods("GET")
	authRouter.HandleFunc("/cards/{id}/budget", h.UpdatePolicy).Methods("PUT")
	authRouter.HandleFunc("/cards/{id}/budget", h.DeletePolicy).Methods("DELETE")
	authRouter.HandleFunc("/transfers", h.Transfer).Methods("POST")
	authRouter.HandleFunc("/credits/applications", h.ApplyForCredit).Methods("POST")
	authRouter.HandleFunc("/credits/applications/{id}/decision", h.DecideCredit).Methods("POST")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")
	if err := server.Close(); err != nil {
		logger.Errorf("Server close failed: %v", err)
	}
}

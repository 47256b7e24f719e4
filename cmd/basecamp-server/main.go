/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for the Basecamp server
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    cmd/basecamp-server/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/hoopsho/basecamp/internal/agentloop"
	"github.com/hoopsho/basecamp/internal/api"
	"github.com/hoopsho/basecamp/internal/config"
	"github.com/hoopsho/basecamp/internal/db"
	"github.com/hoopsho/basecamp/internal/decisions"
	"github.com/hoopsho/basecamp/internal/engine"
	"github.com/hoopsho/basecamp/internal/events"
	"github.com/hoopsho/basecamp/internal/jobs"
	"github.com/hoopsho/basecamp/internal/memory"
	"github.com/hoopsho/basecamp/internal/metrics"
	"github.com/hoopsho/basecamp/internal/notifications"
	"github.com/hoopsho/basecamp/internal/records"
	"github.com/hoopsho/basecamp/internal/triggers"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	var (
		showVersion    = flag.Bool("version", false, "Show version information")
		configPath     = flag.String("c", "", "Path to configuration file")
		configPathLong = flag.String("config", "", "Path to configuration file")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Basecamp Server - durable SOP workflow automation\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    Start server with default configuration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml     Start server with custom config file\n", os.Args[0])
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("basecamp version %s\n", version)
		fmt.Printf("Build date: %s\n", buildDate)
		fmt.Printf("Git commit: %s\n", gitCommit)
		os.Exit(0)
	}

	/* Load configuration: flag takes precedence over environment */
	cfg := config.DefaultConfig()
	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = *configPathLong
	}
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath != "" {
		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}
	config.LoadFromEnv(cfg)

	metrics.InitLogging(cfg.Logging.Level, cfg.Logging.Format)

	/* Connect to database */
	database, err := db.NewDB(cfg.Database.ConnString(), db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Connection: host=%s port=%d user=%s dbname=%s\n",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Database)
		os.Exit(1)
	}
	defer database.Close()

	/* Run migrations */
	migrationRunner, err := db.NewMigrationRunner(database.DB, "./migrations")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load migrations: %v\n", err)
		os.Exit(1)
	}
	if err := migrationRunner.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Migration failed: %v\n", err)
		os.Exit(1)
	}

	queries := db.NewQueries(database.DB)
	broker := events.NewBroker()
	store := events.NewStreamingQueries(queries, broker)

	/* Decision ladder */
	ladder, err := decisions.NewLadder(cfg.Decisions.Tiers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to build decision ladder: %v\n", err)
		os.Exit(1)
	}
	providers := make(map[int]decisions.Provider, len(cfg.Decisions.Tiers))
	for i, tier := range cfg.Decisions.Tiers {
		providers[i] = decisions.NewHTTPProvider(tier, cfg.Decisions.RequestTimeout)
	}
	router := decisions.NewRouter(ladder, providers, store, cfg.Decisions.ConfidenceThreshold)

	/* Notification channels */
	chat := notifications.NewChatService(cfg.Chat.WebhookURL, os.Getenv(cfg.Chat.TokenEnv), 30*time.Second)
	email := notifications.NewEmailMessenger(cfg.Email.SMTPHost, cfg.Email.SMTPPort,
		cfg.Email.Username, cfg.Email.Password, cfg.Email.From)

	/* External record store */
	var recordStore records.Service
	if baseURL := os.Getenv("BASECAMP_RECORDS_URL"); baseURL != "" {
		recordStore = records.NewHTTPService(baseURL, os.Getenv("BASECAMP_RECORDS_API_KEY"), 30*time.Second)
	} else {
		recordStore = records.NewStaticService(nil)
	}

	/* Core components */
	queue := jobs.NewQueue(queries)
	eng := engine.NewEngine(store, store, router, chat, email, recordStore, engine.Config{
		BackoffUnit:         cfg.Engine.BackoffUnit,
		DefaultStepTimeout:  cfg.Engine.DefaultStepTimeout,
		HumanResponseWindow: cfg.Engine.HumanResponseWindow,
	})
	triggerRunner := triggers.NewRunner(store, recordStore)
	memoryStore := memory.NewStore(queries)

	hostname, _ := os.Hostname()
	loop := agentloop.NewScheduler(store, triggerRunner, memoryStore, chat, agentloop.Config{
		LeaseDuration: cfg.Scheduler.LeaseDuration,
		Holder:        hostname,
	})

	/* Background workers */
	processor := jobs.NewProcessor(eng, loop, triggerRunner, queries)
	worker := jobs.NewWorker(queue, processor, cfg.Jobs.WorkerCount)
	worker.Start()
	defer worker.Stop()

	jobScheduler := jobs.NewScheduler(queue, queries, cfg.Scheduler.CycleInterval, cfg.Jobs.StaleAfter)
	jobScheduler.Start()
	defer jobScheduler.Stop()

	/* API */
	handlers := api.NewHandlers(store, eng, ladder, 0)

	muxRouter := mux.NewRouter()
	muxRouter.Use(api.RequestIDMiddleware)
	muxRouter.Use(api.CORSMiddleware)
	muxRouter.Use(api.LoggingMiddleware)
	muxRouter.Use(api.RecoveryMiddleware)

	apiRouter := muxRouter.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/definitions", handlers.CreateDefinition).Methods("POST")
	apiRouter.HandleFunc("/definitions", handlers.ListDefinitions).Methods("GET")
	apiRouter.HandleFunc("/definitions/{id}", handlers.GetDefinition).Methods("GET")
	apiRouter.HandleFunc("/definitions/{id}/status", handlers.UpdateDefinitionStatus).Methods("PUT")
	apiRouter.HandleFunc("/instances", handlers.CreateInstance).Methods("POST")
	apiRouter.HandleFunc("/instances", handlers.ListInstances).Methods("GET")
	apiRouter.HandleFunc("/instances/{id}", handlers.GetInstance).Methods("GET")
	apiRouter.HandleFunc("/instances/{id}/resume", handlers.ResumeInstance).Methods("POST")
	apiRouter.HandleFunc("/instances/{id}/approval", handlers.ApproveInstance).Methods("POST")
	apiRouter.HandleFunc("/instances/{id}/audit", handlers.GetAuditTrail).Methods("GET")
	apiRouter.HandleFunc("/instances/{id}/cost", handlers.GetInstanceCost).Methods("GET")
	apiRouter.HandleFunc("/roles/{name}", handlers.RegisterRole).Methods("PUT")
	apiRouter.HandleFunc("/roles/{name}", handlers.GetRole).Methods("GET")
	apiRouter.HandleFunc("/triggers", handlers.CreateTrigger).Methods("POST")
	apiRouter.HandleFunc("/triggers", handlers.ListTriggers).Methods("GET")
	apiRouter.HandleFunc("/ops/dead-letters", handlers.ListDeadLetters).Methods("GET")
	apiRouter.HandleFunc("/ops/heartbeats", handlers.ListRoleHeartbeats).Methods("GET")
	apiRouter.HandleFunc("/ws/audit", api.HandleAuditStream(broker)).Methods("GET")

	muxRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
	muxRouter.Handle("/metrics", metrics.Handler()).Methods("GET")

	/* Start server */
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      muxRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		fmt.Printf("Server starting on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "FATAL: Server failed to start on %s: %v\n", addr, err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		fmt.Printf("Server forced to shutdown: %v\n", err)
	}

	fmt.Println("Server exited")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"techprep.io/interview-bot/internal/api"
	"techprep.io/interview-bot/internal/config"
	"techprep.io/interview-bot/internal/core"
	"techprep.io/interview-bot/internal/store"
	"techprep.io/interview-bot/internal/whatsapp"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if cfg.Debug {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flag for loading the built-in question set
	seedFlag := flag.Bool("seed", false, "Seed the question bank and exit")
	flag.Parse()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	if *seedFlag {
		numSeeded, err := dbStore.SeedQuestions()
		if err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Printf("Seeding complete. Added %d questions. Exiting.", numSeeded)
		os.Exit(0)
	}

	// Gemini grader; scoring stays disabled without an API key.
	var grader core.ResponseGrader
	if cfg.GeminiAPIKey != "" {
		llmService, err := core.NewLLMService(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("Failed to initialize LLM service: %v", err)
		}
		defer llmService.Close()
		grader = llmService
	} else {
		log.Println("GEMINI_API_KEY not set, response scoring disabled")
	}

	// Initialize services
	userService := core.NewUserService(dbStore)
	questionService := core.NewQuestionService(dbStore, cfg.Timezone)
	scoringService := core.NewScoringService(dbStore, grader)
	messageService := core.NewMessageService(dbStore, userService, scoringService)

	// Initialize API handler and router
	apiHandler := api.NewAPIHandler(dbStore, userService, messageService,
		cfg.WebhookVerifyToken, cfg.AdminAPIKey, cfg.JWTSecret)
	router := api.NewRouter(apiHandler)

	// Background dispatcher. It shares only the database with the request
	// path, so either side can run and fail independently.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	if cfg.WhatsAppAccessToken != "" && cfg.WhatsAppPhoneNumberID != "" {
		waClient := whatsapp.NewClient(cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID)
		dispatcher := core.NewDispatcher(dbStore, questionService, waClient, cfg.DailyQuestionHour, cfg.Timezone)
		go dispatcher.Run(dispatchCtx)
	} else {
		log.Println("WhatsApp credentials not set, daily dispatch disabled")
	}

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop the dispatcher first: an aborted run leaves no user marked as
	// served, so the next run catches them up.
	stopDispatch()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Let in-flight scoring finish before the store closes.
	scoringService.Wait()

	log.Println("Server exiting gracefully")
}

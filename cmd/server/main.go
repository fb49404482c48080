package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"medical-intake-agent/internal/agent"
	"medical-intake-agent/internal/intake"
	"medical-intake-agent/internal/platform/telegram"
	"medical-intake-agent/internal/prescription"
	"medical-intake-agent/internal/report"
	"medical-intake-agent/internal/verify"
)

func main() {
	_ = godotenv.Load()

	// 1. Infrastructure
	dbConnStr := os.Getenv("DATABASE_URL")

	var db *sql.DB
	if dbConnStr != "" {
		var err error
		for i := 0; i < 10; i++ {
			db, err = sql.Open("postgres", dbConnStr)
			if err == nil {
				err = db.Ping()
			}
			if err == nil {
				break
			}
			log.Printf("Waiting for DB... (%d/10)", i+1)
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			log.Printf("Could not connect to DB: %v. Completed sessions will not be archived.", err)
			db = nil
		} else {
			log.Println("Connected to database.")
			runMigrations(dbConnStr)
		}
	} else {
		log.Println("DATABASE_URL not set, completed sessions will not be archived.")
	}

	// 2. Capability clients
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		log.Fatal("OPENAI_API_KEY is not set")
	}
	aiClient := agent.NewOpenAIClient(openaiKey)

	sttClient := agent.NewWhisperClient()
	ttsClient := agent.NewElevenLabsClient(os.Getenv("ELEVENLABS_API_KEY"))
	tgClient := telegram.NewClient(os.Getenv("TELEGRAM_BOT_TOKEN"))

	doctorChatID, _ := strconv.ParseInt(os.Getenv("DOCTOR_CHAT_ID"), 10, 64)
	if doctorChatID == 0 {
		log.Println("Warning: DOCTOR_CHAT_ID is not set or invalid. Intake reports will not be delivered.")
	}

	// 3. Services
	var repo intake.Repository
	if db != nil {
		repo = intake.NewRepository(db)
	}

	var reporter intake.Reporter
	if doctorChatID != 0 {
		reporter = report.NewService(tgClient, aiClient, doctorChatID)
	}

	machine := intake.NewMachine(aiClient, intake.NewComposer(aiClient))
	normalizer := intake.NewNormalizer(sttClient)
	intakeSvc := intake.NewService(machine, normalizer, ttsClient, repo, reporter)
	intakeHandler := intake.NewHandler(intakeSvc)

	prescriptionSvc := prescription.NewService(aiClient, aiClient)
	prescriptionHandler := prescription.NewHandler(prescriptionSvc)

	verifyHandler := verify.NewHandler(verify.NewClient(verify.DefaultSimilarityThreshold))

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Authorization"},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		intake.RegisterRoutes(r, intakeHandler)
		prescription.RegisterRoutes(r, prescriptionHandler)
		verify.RegisterRoutes(r, verifyHandler)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal(err)
	}
}

func runMigrations(dbConnStr string) {
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "file://migrations"
	}

	m, err := migrate.New(migrationsPath, dbConnStr)
	if err != nil {
		log.Printf("Migration init failed: %v", err)
		return
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Printf("Migration up failed: %v", err)
		return
	}
	log.Println("Migrations applied successfully.")
}

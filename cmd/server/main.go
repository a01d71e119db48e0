package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"pdf-converter/cmd"
	"pdf-converter/internal/api"
	"pdf-converter/internal/conversion"
	"pdf-converter/internal/docling"
	"pdf-converter/internal/storage"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type ServerConfig struct {
	Port            string `env:"PORT" envDefault:"5000"`
	DataDir         string `env:"DATA_DIR" envDefault:""`
	DoclingServeURL string `env:"DOCLING_SERVE_URL" envDefault:"http://0.0.0.0:5001"`
	TesseractPath   string `env:"TESSERACT_PATH" envDefault:"tesseract"`
	OCRLanguages    string `env:"OCR_LANGUAGES" envDefault:""`
}

func main() {
	log.Println("Starting PDF converter server...")

	cmd.LoadEnvFile()

	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	// Temp-dir backed storage by default. Uploads live for the process only;
	// this is not a multi-tenant document store.
	area, err := storage.NewArea(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to create storage area: %v", err)
	}
	slog.Info("storage area ready", "root", area.Root())

	opts := []conversion.Option{conversion.WithTesseractPath(cfg.TesseractPath)}
	if cfg.OCRLanguages != "" {
		opts = append(opts, conversion.WithOCRLanguages(strings.Split(cfg.OCRLanguages, ",")))
	}

	converter, err := conversion.NewConverter(area, docling.NewClient(cfg.DoclingServeURL), opts...)
	if err != nil {
		log.Fatalf("Failed to create converter: %v", err)
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// No request timeout: local conversions and docling-serve calls can run
	// for minutes on large scanned documents.

	api.NewService(area, converter).AddRoutes(r)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("Server listening on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.Port, err)
	}

	log.Println("Server stopped.")
}

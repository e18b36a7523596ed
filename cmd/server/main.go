package main

import (
	"log"
	"net/http"
	"time"

	"knowledge-extractor/internal/api"
	"knowledge-extractor/internal/config"
	"knowledge-extractor/internal/services"
)

func main() {
	cfg := config.Load()

	pdfService := services.NewPDFService()
	library := services.NewLibraryService(cfg.DocumentsDir, pdfService, cfg.MaxPromptChars)
	aiService := services.NewAIService(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIEndpoint)

	if cfg.OpenAIKey == "" {
		log.Printf("OPENAI_API_KEY is not set; generation routes will return errors until it is configured")
	}

	server := api.NewServer(library, aiService)
	handler := api.CORS(cfg.AllowedOrigins, api.RequestLog(server.Handler()))

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Generation routes wait on the LLM, which gets up to two minutes.
		WriteTimeout: 3 * time.Minute,
	}

	log.Printf("serving documents from %s", cfg.DocumentsDir)
	log.Printf("listening on :%s", cfg.Port)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

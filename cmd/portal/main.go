package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"plutus-education/certificate-runner/internal/certificate"
	"plutus-education/certificate-runner/internal/config"
	"plutus-education/certificate-runner/internal/notify"
	"plutus-education/certificate-runner/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	// ---------------- WORKFLOW ----------------
	fonts := certificate.ResolveFonts(cfg.Assets.FontsDir, logger)
	renderer := certificate.NewRenderer(fonts, certificate.DefaultLayoutOptions(), logger)
	service := certificate.NewService(renderer, logger)

	mailer := notify.NewSMTPMailer(cfg.Email.SMTP, logger)
	dispatcher := notify.NewDispatcher(mailer, cfg.Email.Message(), logger)

	// ---------------- HTTP ----------------
	r := gin.Default()
	handler := web.NewHandler(cfg, service, dispatcher, logger)
	web.RegisterRoutes(r, handler)

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	log.Println("Portal running on", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}

func newLogger(level string) *zap.Logger {
	if level == "debug" {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

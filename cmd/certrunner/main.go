package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"plutus-education/certificate-runner/internal/certificate"
	"plutus-education/certificate-runner/internal/config"
	"plutus-education/certificate-runner/internal/notify"
	"plutus-education/certificate-runner/internal/roster"
)

func main() {
	password := flag.String("password", "", "encrypt generated certificates with this password")
	send := flag.Bool("send", false, "email each certificate to its recipient after generation")
	archiveFlag := flag.Bool("archive", false, "bundle generated certificates into a ZIP next to the output directory")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 2 || flag.NArg() > 3 {
		usage()
		os.Exit(2)
	}
	rosterPath := flag.Arg(0)
	templatePath := flag.Arg(1)

	_ = godotenv.Load()
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	outputDir := cfg.Output.Dir
	if flag.NArg() == 3 {
		outputDir = flag.Arg(2)
	}

	for _, path := range []string{rosterPath, templatePath} {
		if _, err := os.Stat(path); err != nil {
			fmt.Fprintf(os.Stderr, "error: input file not found: %s\n", path)
			os.Exit(1)
		}
	}

	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	records, err := roster.ReadFile(rosterPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fonts := certificate.ResolveFonts(cfg.Assets.FontsDir, logger)
	renderer := certificate.NewRenderer(fonts, certificate.DefaultLayoutOptions(), logger)
	service := certificate.NewService(renderer, logger)

	opts := certificate.BatchOptions{
		OutputDir: outputDir,
		Password:  *password,
	}
	if *archiveFlag {
		opts.ArchivePath = filepath.Clean(outputDir) + ".zip"
	}

	batch, err := service.GenerateBatch(records, templatePath, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	printSummary(batch, fonts)

	if *send {
		mailer := notify.NewSMTPMailer(cfg.Email.SMTP, logger)
		dispatcher := notify.NewDispatcher(mailer, cfg.Email.Message(), logger)
		report := dispatcher.SendCertificates(context.Background(), batch)
		fmt.Printf("Emails: %d sent, %d failed, %d skipped\n", report.Sent, report.Failed, report.Skipped)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: certrunner [flags] <csv_file> <template_pdf> [output_dir]")
	flag.PrintDefaults()
}

func printSummary(batch *certificate.BatchResult, fonts certificate.FontTable) {
	banner := "============================================================"
	fmt.Println(banner)
	fmt.Println("CERTIFICATE GENERATION SUMMARY")
	fmt.Println(banner)
	fmt.Printf("Total processed: %d\n", batch.Total)
	fmt.Printf("Successful: %d\n", batch.Succeeded)
	fmt.Printf("Failed: %d\n", batch.Failed)
	fmt.Printf("Output directory: %s\n", batch.OutputDir)
	if batch.ArchivePath != "" {
		fmt.Printf("Archive: %s\n", batch.ArchivePath)
	}
	if fallbacks := fonts.FallbackRoles(); len(fallbacks) > 0 {
		fmt.Printf("Fallback fonts in use for: %v\n", fallbacks)
	}
	if batch.Failed > 0 {
		fmt.Println("\nErrors:")
		for _, row := range batch.Results {
			if !row.Succeeded() {
				fmt.Printf("  Row %d (%s): %s\n", row.Row, row.Name, row.Error)
			}
		}
	}
	fmt.Println(banner)
}

func newLogger(level string) *zap.Logger {
	if level == "debug" {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

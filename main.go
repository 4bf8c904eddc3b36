package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "config.yaml", "path to config file")
	sendDaily := pflag.Bool("send-daily", false, "send the daily report once and exit")
	sendMonthly := pflag.Bool("send-monthly", false, "send the monthly report once and exit")
	pflag.Parse()

	cfg := LoadConfig(*configPath)

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	os.MkdirAll(cfg.ReportOutputDir, 0755)

	mailer, err := NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	if err != nil {
		log.Fatalf("Failed to init mailer: %v", err)
	}

	notifier := NewSlackNotifier(cfg.SlackBotToken, cfg.ReportChannelID)
	reporter := NewReporter(db, mailer, cfg, notifier)

	// One-shot operator invocations: run the report and exit.
	if *sendDaily || *sendMonthly {
		runOnce(reporter, *sendDaily, *sendMonthly)
		return
	}

	StartReportScheduler(cfg, reporter)

	srv := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      NewRouter(cfg, db, reporter),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Servidor rodando em %s", cfg.ListenAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

func runOnce(reporter *Reporter, daily, monthly bool) {
	ctx := context.Background()
	if daily {
		result, err := reporter.SendDailyReport(ctx)
		if err != nil {
			log.Fatalf("Daily report failed: %v", err)
		}
		log.Printf("Daily report done: rows=%d sent=%v", result.Rows, result.Sent)
	}
	if monthly {
		result, err := reporter.SendMonthlyReport(ctx)
		if err != nil {
			log.Fatalf("Monthly report failed: %v", err)
		}
		log.Printf("Monthly report done: rows=%d sent=%v", result.Rows, result.Sent)
	}
}

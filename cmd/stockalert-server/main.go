// stockalert-server runs the HTTP surface: the scheduled-run trigger, the
// dashboard snapshot, and the threshold optimizer.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockalert/internal/alert"
	"stockalert/internal/config"
	"stockalert/internal/httpapi"
	"stockalert/internal/indicator"
	"stockalert/internal/optimize"
	"stockalert/internal/provider"
	"stockalert/internal/store"
	"stockalert/internal/util"
)

func main() {
	cfgPath := "config/stockalert.yaml"
	if p := os.Getenv("STOCKALERT_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	barProvider := provider.NewAlpacaProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	calendar, err := provider.NewAlpacaCalendar(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
	if err != nil {
		log.Fatalf("failed to create market calendar: %v", err)
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	sqlite, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open run store: %v", err)
	}
	defer sqlite.Close()

	ind := indicator.Config{
		ReturnWindow: cfg.Monitor.ReturnWindow,
		RSIWindow:    cfg.Monitor.RSIWindow,
		SMAWindow:    cfg.Monitor.SMAWindow,
	}

	mailer := alert.NewSMTPMailer(alert.SMTPConfig{
		Server:   cfg.Email.SMTPServer,
		Port:     cfg.Email.SMTPPort,
		From:     cfg.Email.From,
		Password: cfg.Email.Password,
		To:       cfg.Email.To,
	})
	alerter := alert.NewAlerter(cfg.Monitor.Ticker, cfg.Monitor.HistoryYears, ind,
		barProvider, calendar, pstore, mailer)

	api := httpapi.NewServer(
		cfg.Monitor.Ticker,
		cfg.Monitor.HistoryYears,
		ind,
		httpapi.OptimizeDefaults{
			Buy:             optimize.Range(cfg.Optimize.Buy),
			Sell:            optimize.Range(cfg.Optimize.Sell),
			StartingCapital: cfg.Optimize.StartingCapital,
			Workers:         cfg.Optimize.MaxWorkers,
		},
		alerter,
		barProvider,
		pstore,
		sqlite,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // optimize runs can take a while
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("stockalert-server listening", "addr", addr, "ticker", cfg.Monitor.Ticker)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}
}

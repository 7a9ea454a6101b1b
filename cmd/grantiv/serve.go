package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"grantiv/internal/auth"
	"grantiv/internal/server"
	"grantiv/internal/storage/sqlite"
)

var (
	flagServeAddr   string
	flagServeDB     string
	flagServeStatic string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&flagServeDB, "db", "", "path to sqlite database file (overrides database.path)")
	serveCmd.Flags().StringVar(&flagServeStatic, "static", "", "directory with built frontend (overrides server.static_dir)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if flagServeAddr != "" {
		cfg.Server.Addr = flagServeAddr
	}
	if flagServeDB != "" {
		cfg.Database.Path = flagServeDB
	}
	if flagServeStatic != "" {
		cfg.Server.StaticDir = flagServeStatic
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.Database.Path, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		return err
	}
	defer store.Close()

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration)
	if err != nil {
		return err
	}

	srv := server.New(store, issuer, logger, server.Options{
		StaticDir:      cfg.Server.StaticDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr), slog.String("db", cfg.Database.Path))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-rootCtx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return nil
}

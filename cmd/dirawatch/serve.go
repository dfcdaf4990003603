package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"dirawatch/internal/api"
	"dirawatch/internal/database"
	"dirawatch/internal/filter"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the listings API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := openDatabase()
		if err != nil {
			return err
		}
		store := database.NewDatabase(db)
		defer store.Close()

		gin.SetMode(gin.ReleaseMode)
		handler := api.NewHandler(store, filter.New(cfg), logger)

		addr := cfg.HTTP.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           api.NewRouter(handler),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.WithField("addr", addr).Info("Starting server")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides HTTP_ADDR")
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/me/jobrun/internal/server"
	"github.com/me/jobrun/internal/store"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolved jobs and their stats over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := a.loadConf()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := store.Open(ctx, a.cfg.StatsFile, a.runID, a.logger)
			if err != nil {
				return fmt.Errorf("open stats %s: %w", a.cfg.StatsFile, err)
			}
			defer st.Close()

			srv := server.New(conf, st, a.logger)
			httpServer := &http.Server{
				Addr:    a.cfg.Addr,
				Handler: srv.Handler(),
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("server starting", "addr", a.cfg.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("listen %s: %w", a.cfg.Addr, err)
				}
				return nil
			case <-ctx.Done():
			}
			a.logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			a.logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&a.cfg.Addr, "addr", a.cfg.Addr, "Listen address")
	return cmd
}

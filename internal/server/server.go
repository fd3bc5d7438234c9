// Package server runs the HTTP API, the websocket hub and the backup
// schedule until the context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mercadobetel/pdv/internal/kernel"
	"github.com/mercadobetel/pdv/pkg/logger"
	"github.com/mercadobetel/pdv/pkg/schedule"
)

const shutdownTimeout = 10 * time.Second

// Options controls one server run.
type Options struct {
	Addr       string
	BackupCron string
	// Ready, when set, receives the bound address once listening.
	Ready chan<- string
}

// Start serves app until ctx is done, then drains in-flight requests.
func Start(ctx context.Context, app *kernel.App, opts Options) error {
	handler, err := app.Handler()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go app.Hub.Run(ctx)

	if opts.BackupCron != "" {
		sched := schedule.New(time.Local)
		err := sched.Cron("backup", opts.BackupCron, func() {
			if _, err := app.Backups.WriteBackup(app.BackupStore); err != nil {
				logger.Error("server: scheduled backup failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
		sched.Start(ctx)
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", opts.Addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()
	if opts.Ready != nil {
		opts.Ready <- ln.Addr().String()
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("server: shutting down")
	app.Events.Close()
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	app.Bus.Wait()
	return nil
}

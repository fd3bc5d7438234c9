// Package logger provides the structured, levelled logger of the PDV,
// built on log/slog.
//
// WithCtx returns the request-scoped logger injected by the Logger
// middleware, so every line from a handler carries its request_id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("sale committed", "sale_id", sale.ID, "total", sale.TotalAmount)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/mercadobetel/pdv/config"
)

var L *slog.Logger

func init() {
	L = New(config.AppEnv(), os.Stdout)
	slog.SetDefault(L)
}

// New builds a logger for env: JSON for production, text otherwise.
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case "production", "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "test":
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// SetOutput swaps the base logger. Used by the CLI to keep stdout clean for
// exported JSON.
func SetOutput(env string, w io.Writer) {
	L = New(env, w)
	slog.SetDefault(L)
}

type ctxKey struct{}

// WithCtx returns the logger stored in ctx, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a request-tagged logger into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }

// LevelFor maps an HTTP status to the level its access log is written at.
func LevelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

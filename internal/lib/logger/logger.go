package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// dualHandler writes every record to the core handler and additionally tees
// error-level records into a separate error log.
type dualHandler struct {
	coreHandler  slog.Handler
	errorHandler slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.coreHandler.Enabled(ctx, lvl) || h.errorHandler.Enabled(ctx, lvl)
}

func (h *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error

	if h.coreHandler.Enabled(ctx, r.Level) {
		err = h.coreHandler.Handle(ctx, r)
		if err != nil {
			return err
		}
	}

	if r.Level >= slog.LevelError && h.errorHandler.Enabled(ctx, r.Level) {
		// a broken error log must not break request logging
		_ = h.errorHandler.Handle(ctx, r.Clone())
	}

	return err
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithAttrs(attrs),
		errorHandler: h.errorHandler.WithAttrs(attrs),
	}
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithGroup(name),
		errorHandler: h.errorHandler.WithGroup(name),
	}
}

// New builds the service logger for env. Records go to out; when errorLog is
// not nil, error records are copied there too.
func New(env string, out io.Writer, errorLog io.Writer) *slog.Logger {
	level := slog.LevelDebug
	if env == EnvProd {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var coreHandler slog.Handler
	switch env {
	case EnvDev, EnvProd:
		coreHandler = slog.NewJSONHandler(out, opts)
	default:
		coreHandler = slog.NewTextHandler(out, opts)
	}

	if errorLog == nil {
		return slog.New(coreHandler)
	}

	return slog.New(&dualHandler{
		coreHandler:  coreHandler,
		errorHandler: slog.NewTextHandler(errorLog, &slog.HandlerOptions{Level: slog.LevelError}),
	})
}

// Setup logs to stdout and tees errors into errorLogPath. The returned closer
// releases the error log file.
func Setup(env, errorLogPath string) (*slog.Logger, func() error) {
	if errorLogPath == "" {
		return New(env, os.Stdout, nil), func() error { return nil }
	}

	errorFile, err := os.OpenFile(errorLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log := New(env, os.Stdout, nil)
		log.Warn("cannot open error log file, continuing without it",
			slog.String("path", errorLogPath), slog.String("error", err.Error()))
		return log, func() error { return nil }
	}

	return New(env, os.Stdout, errorFile), errorFile.Close
}

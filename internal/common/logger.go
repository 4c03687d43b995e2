package common

import (
	"context"
	"log/slog"
	"os"

	"github.com/fiscaltools/painel-nfse/internal/mask"
)

// Fields represents structured logging fields.
type Fields map[string]any

// SetupLogger configures the global logger with appropriate settings. Every
// string attribute is passed through the masker before it reaches the sink,
// so CPF/CNPJ values never land in a log line in the clear.
func SetupLogger(level slog.Level, format string, masker mask.Masker) error {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return maskAttr(masker, a)
		},
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "console":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// maskAttr redacts taxpayer identifiers from string-typed attribute values.
// The message itself is composed by callers and must not embed record
// content; attributes are where field values travel.
func maskAttr(masker mask.Masker, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(masker.Mask(a.Value.String()))
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case string:
			a.Value = slog.StringValue(masker.Mask(v))
		case []string:
			masked := make([]string, len(v))
			for i, s := range v {
				masked[i] = masker.Mask(s)
			}
			a.Value = slog.AnyValue(masked)
		}
	}
	return a
}

// LogError logs an error with additional context.
func LogError(err error, msg string, fields Fields) {
	attrs := make([]slog.Attr, 0, len(fields)+1)
	attrs = append(attrs, slog.String("error", err.Error()))

	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}

	slog.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}

// LogInfo logs an info message with fields.
func LogInfo(msg string, fields Fields) {
	attrs := make([]slog.Attr, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}

	slog.LogAttrs(context.Background(), slog.LevelInfo, msg, attrs...)
}

// LogDebug logs a debug message with fields.
func LogDebug(msg string, fields Fields) {
	attrs := make([]slog.Attr, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}

	slog.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}

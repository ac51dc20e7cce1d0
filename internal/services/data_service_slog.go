package services

import (
	"context"
	"log/slog"
)

// logDataError logs a failed dataset read with the action that failed
func (ds *DatasetService) logDataError(ctx context.Context, action, message string, attrs ...slog.Attr) {
	allAttrs := []slog.Attr{slog.String("action", action)}
	allAttrs = append(allAttrs, attrs...)

	ds.logger.LogAttrs(ctx, slog.LevelWarn, message, allAttrs...)
}

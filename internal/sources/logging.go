package sources

import (
	"context"
	"log/slog"
	"time"

	"github.com/DreamCats/opencommands/internal/command"
)

// Ensure LoggingSource implements Source.
var _ Source = (*LoggingSource)(nil)

// LoggingSource wraps a Source with debug logging of every fetch.
type LoggingSource struct {
	next   Source
	logger *slog.Logger
}

// WithLogging wraps next so each fetch logs its locator, outcome, and duration.
func WithLogging(next Source, logger *slog.Logger) *LoggingSource {
	return &LoggingSource{next: next, logger: logger}
}

// Kind delegates to the wrapped source.
func (s *LoggingSource) Kind() command.SourceKind {
	return s.next.Kind()
}

// Fetch delegates to the wrapped source and logs the result.
func (s *LoggingSource) Fetch(ctx context.Context, locator string) (*Result, error) {
	begin := time.Now()
	res, err := s.next.Fetch(ctx, locator)

	attrs := []any{
		"kind", s.next.Kind(),
		"locator", locator,
		"duration", time.Since(begin),
	}
	if err != nil {
		s.logger.Warn("fetch failed", append(attrs, "error", err)...)
		return res, err
	}
	s.logger.Debug("fetch", append(attrs,
		"commands", len(res.Commands),
		"skipped", len(res.Skipped),
	)...)
	for _, sk := range res.Skipped {
		s.logger.Debug("skipped document", "path", sk.Path, "error", sk.Err)
	}
	return res, nil
}

package indigo

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NoopEventSink discards all events.
type NoopEventSink struct{}

// NewNoopEventSink creates an event sink that does nothing.
func NewNoopEventSink() EventSink { return &NoopEventSink{} }

func (s *NoopEventSink) WorkCreated(ctx context.Context, work *Work) error         { return nil }
func (s *NoopEventSink) WorkUpdated(ctx context.Context, work *Work) error         { return nil }
func (s *NoopEventSink) WorkDeleted(ctx context.Context, workID uuid.UUID) error   { return nil }
func (s *NoopEventSink) DocumentCreated(ctx context.Context, doc *Document) error  { return nil }
func (s *NoopEventSink) DocumentUpdated(ctx context.Context, doc *Document) error  { return nil }
func (s *NoopEventSink) DocumentDeleted(ctx context.Context, id uuid.UUID) error   { return nil }
func (s *NoopEventSink) TaskChanged(ctx context.Context, task *Task) error         { return nil }

// LogEventSink writes events to a structured logger.
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink creates an event sink backed by the given logger, or the
// default logger when nil.
func NewLogEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventSink{logger: logger}
}

func (s *LogEventSink) WorkCreated(ctx context.Context, work *Work) error {
	s.logger.InfoContext(ctx, "work created", "work_id", work.ID, "frbr_uri", work.FrbrURI)
	return nil
}

func (s *LogEventSink) WorkUpdated(ctx context.Context, work *Work) error {
	s.logger.InfoContext(ctx, "work updated", "work_id", work.ID, "frbr_uri", work.FrbrURI)
	return nil
}

func (s *LogEventSink) WorkDeleted(ctx context.Context, workID uuid.UUID) error {
	s.logger.InfoContext(ctx, "work deleted", "work_id", workID)
	return nil
}

func (s *LogEventSink) DocumentCreated(ctx context.Context, doc *Document) error {
	s.logger.InfoContext(ctx, "document created", "document_id", doc.ID,
		"expression_uri", doc.ExpressionURI(), "draft", doc.Draft)
	return nil
}

func (s *LogEventSink) DocumentUpdated(ctx context.Context, doc *Document) error {
	s.logger.InfoContext(ctx, "document updated", "document_id", doc.ID,
		"expression_uri", doc.ExpressionURI(), "draft", doc.Draft)
	return nil
}

func (s *LogEventSink) DocumentDeleted(ctx context.Context, id uuid.UUID) error {
	s.logger.InfoContext(ctx, "document deleted", "document_id", id)
	return nil
}

func (s *LogEventSink) TaskChanged(ctx context.Context, task *Task) error {
	s.logger.InfoContext(ctx, "task changed", "task_id", task.ID, "state", task.State)
	return nil
}

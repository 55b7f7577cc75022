// Package notify доставляет результаты записей внешним получателям.
package notify

import (
	"context"
	"errors"

	"emiteNota/internal/batch"

	"go.uber.org/zap"
)

// LogSink пишет каждый результат в лог
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Publish(_ context.Context, o batch.Outcome) error {
	fields := []zap.Field{
		zap.String("run_id", o.RunID),
		zap.Int("position", o.Position),
		zap.Int("original_index", o.OriginalIndex),
		zap.String("document", o.Key.DocumentName),
		zap.String("page", o.Key.PageNumber),
		zap.String("status", string(o.Status)),
		zap.Duration("duration", o.Duration),
	}
	if o.Degraded {
		fields = append(fields, zap.Bool("degraded", true))
	}

	if o.Succeeded() {
		s.log.Info("Результат записи", fields...)
		return nil
	}

	fields = append(fields,
		zap.String("kind", string(o.Kind)),
		zap.String("reason", o.Reason),
		zap.String("screenshot", o.Screenshot),
	)
	s.log.Warn("Результат записи", fields...)
	return nil
}

// Multi рассылает результат всем получателям; ошибка одного не мешает остальным
type Multi []batch.Sink

func (m Multi) Publish(ctx context.Context, o batch.Outcome) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func: функция как получатель
type Func func(ctx context.Context, o batch.Outcome) error

func (f Func) Publish(ctx context.Context, o batch.Outcome) error {
	return f(ctx, o)
}

// Package batch обрабатывает очередь записей по одной, продолжая после ошибок.
package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"emiteNota/internal/record"
	"emiteNota/internal/sanitizer"
	"emiteNota/internal/selection"
	"emiteNota/internal/wizard"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Authenticator interface {
	Login(ctx context.Context) error
}

// Wizard: мастер NFS-e для одной записи
type Wizard interface {
	Process(ctx context.Context, rec record.SourceRecord, position int) (wizard.Result, error)
	PrepareNext(ctx context.Context) error
}

type Screenshotter interface {
	Screenshot(ctx context.Context, name string) (string, error)
}

// Sink получает Outcome каждой записи сразу после её обработки
type Sink interface {
	Publish(ctx context.Context, o Outcome) error
}

type Config struct {
	LoginRetries int
	RetryDelay   time.Duration
}

type Runner struct {
	auth  Authenticator
	wiz   Wizard
	shots Screenshotter
	sink  Sink
	cfg   Config
	log   *zap.Logger
	san   *sanitizer.DataSanitizer

	newID func() string
}

// New: shots и sink необязательны
func New(auth Authenticator, wiz Wizard, shots Screenshotter, sink Sink, cfg Config, log *zap.Logger) *Runner {
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		auth:  auth,
		wiz:   wiz,
		shots: shots,
		sink:  sink,
		cfg:   cfg,
		log:   log,
		san:   sanitizer.New(),
		newID: uuid.NewString,
	}
}

// Run обрабатывает очередь последовательно. Флаг cancel проверяется только между
// записями: начатая запись доводится до конца или до ошибки.
func (r *Runner) Run(ctx context.Context, queue selection.JobQueue, cancel *atomic.Bool) (report Report) {
	report = Report{
		RunID:   r.newID(),
		Started: time.Now(),
		Total:   len(queue),
	}
	log := r.log.With(zap.String("run_id", report.RunID))
	defer func() {
		report.Finished = time.Now()
		log.Info("Партия завершена", zap.String("summary", report.Summary()))
	}()

	log.Info("Запуск партии", zap.Int("jobs", len(queue)))
	if len(queue) == 0 {
		return report
	}

	err := retryAction(ctx, r.cfg.LoginRetries+1, r.cfg.RetryDelay, func() error {
		err := r.auth.Login(ctx)
		if err != nil {
			log.Warn("Вход не выполнен", zap.Error(err))
		}
		return err
	})
	if err != nil {
		log.Error("Партия прервана: нет сессии", zap.Error(err))
		report.fail(err)
		return report
	}

	for i, job := range queue {
		position := i + 1
		if stopped(ctx, cancel) {
			log.Warn("Остановка по запросу оператора", zap.Int("next_position", position))
			report.Cancelled = true
			break
		}

		outcome := r.runJob(ctx, log, report.RunID, job, position)

		if outcome.Succeeded() && position < len(queue) && !stopped(ctx, cancel) {
			if err := r.wiz.PrepareNext(ctx); err != nil {
				log.Warn("Не удалось подготовить следующий документ", zap.Int("position", position), zap.Error(err))
				outcome.Warnings = append(outcome.Warnings, "подготовка следующего документа: "+r.san.Sanitize(err.Error()))
			}
		}

		report.add(outcome)
		r.publish(ctx, log, outcome)
	}

	return report
}

func (r *Runner) runJob(ctx context.Context, log *zap.Logger, runID string, job selection.Job, position int) Outcome {
	log = log.With(zap.Int("position", position), zap.Int("original_index", job.OriginalIndex))
	started := time.Now()

	outcome := Outcome{
		RunID:         runID,
		Position:      position,
		OriginalIndex: job.OriginalIndex,
		RowID:         job.RowID,
		Key:           job.Record.Key(),
		Degraded:      job.Degraded,
	}

	res, err := r.process(ctx, job.Record, position)
	outcome.Duration = time.Since(started)
	outcome.Warnings = res.Warnings

	if err == nil {
		outcome.Status = StatusSucceeded
		if res.Issuance == wizard.IssuanceAmbiguous {
			outcome.Status = StatusAmbiguous
		}
		log.Info("Запись обработана", zap.String("status", string(outcome.Status)), zap.Duration("duration", outcome.Duration))
		return outcome
	}

	outcome.Status = StatusFailed
	outcome.Kind = Classify(err)
	outcome.Reason = r.san.Sanitize(err.Error())

	fields := []zap.Field{zap.String("kind", string(outcome.Kind)), zap.String("step", res.Step.String()), zap.Error(err)}
	if pe, ok := err.(*PanicError); ok {
		fields = append(fields, zap.ByteString("stack", pe.Stack))
	}
	log.Error("Ошибка обработки записи", fields...)

	if r.shots != nil {
		name := fmt.Sprintf("%s_falha_%d_%d", runID, position, job.OriginalIndex)
		path, err := r.shots.Screenshot(ctx, name)
		if err != nil {
			log.Warn("Снимок экрана не сохранён", zap.Error(err))
		} else {
			outcome.Screenshot = path
		}
	}
	return outcome
}

// process перехватывает панику, чтобы одна запись не остановила партию
func (r *Runner) process(ctx context.Context, rec record.SourceRecord, position int) (res wizard.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p, Stack: debug.Stack()}
		}
	}()
	return r.wiz.Process(ctx, rec, position)
}

func (r *Runner) publish(ctx context.Context, log *zap.Logger, o Outcome) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Publish(ctx, o); err != nil {
		log.Warn("Ошибка публикации результата", zap.Int("position", o.Position), zap.Error(err))
	}
}

func stopped(ctx context.Context, cancel *atomic.Bool) bool {
	return ctx.Err() != nil || (cancel != nil && cancel.Load())
}

// Package workspace хранит рабочее место оператора: загруженные записи, отметки
// строк обзора и единственную фоновую партию с флагом остановки.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"emiteNota/internal/batch"
	"emiteNota/internal/record"
	"emiteNota/internal/selection"

	"go.uber.org/zap"
)

var (
	ErrBusy            = errors.New("партия уже выполняется")
	ErrNothingSelected = errors.New("не отмечено ни одной записи")
	ErrNoRecords       = errors.New("записи не загружены")
)

// Engine: собранный для одной партии раннер и освобождение его ресурсов
type Engine struct {
	Runner *batch.Runner
	Close  func() error
}

// Factory собирает Engine; marks: получатель, которым рабочее место отмечает строки
type Factory func(ctx context.Context, marks batch.Sink) (Engine, error)

// Row: строка обзора вместе с записью и последним результатом
type Row struct {
	selection.Row
	Index  int                 `json:"index"`
	Record record.SourceRecord `json:"record"`
	Last   *batch.Outcome      `json:"last,omitempty"`
}

type Workspace struct {
	factory Factory
	log     *zap.Logger

	mu      sync.RWMutex
	source  string
	records []record.SourceRecord
	state   *selection.State
	marks   map[string]batch.Outcome
	report  *batch.Report
	done    chan struct{}

	cancel atomic.Bool
}

func New(factory Factory, log *zap.Logger) *Workspace {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workspace{
		factory: factory,
		log:     log,
		state:   selection.NewState(),
		marks:   make(map[string]batch.Outcome),
	}
}

// Load читает CSV/XLSX и заменяет записи и отметки
func (w *Workspace) Load(path string) (int, error) {
	recs, err := record.LoadFile(path)
	if err != nil {
		return 0, err
	}
	if err := w.SetRecords(filepath.Base(path), recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// SetRecords заменяет записи; строки I001.. создаются в порядке записей, все не отмечены
func (w *Workspace) SetRecords(source string, recs []record.SourceRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.runningLocked() {
		return ErrBusy
	}
	w.source = source
	w.records = recs
	w.state = selection.FromRecords(recs)
	w.marks = make(map[string]batch.Outcome)
	w.log.Info("Записи загружены", zap.String("source", source), zap.Int("records", len(recs)))
	return nil
}

func (w *Workspace) Source() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.source
}

// Selection: отметки строк; сам State потокобезопасен
func (w *Workspace) Selection() *selection.State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Rows возвращает строки обзора. Строки идут в порядке State; запись берётся по номеру строки.
func (w *Workspace) Rows() []Row {
	w.mu.RLock()
	defer w.mu.RUnlock()

	rows := w.state.Rows()
	out := make([]Row, 0, len(rows))
	for i, r := range rows {
		row := Row{Row: r, Index: i}
		if i < len(w.records) {
			row.Record = w.records[i]
		}
		if o, ok := w.marks[r.ID]; ok {
			row.Last = &o
		}
		out = append(out, row)
	}
	return out
}

// Start сверяет отметки с записями и запускает партию в фоне.
// ctx живёт столько же, сколько партия; отмена ctx прерывает её между записями.
// Запуск браузера идёт без блокировки: на это время рабочее место считается занятым.
func (w *Workspace) Start(ctx context.Context) (selection.Plan, error) {
	w.mu.Lock()
	if w.runningLocked() {
		w.mu.Unlock()
		return selection.Plan{}, ErrBusy
	}
	if len(w.records) == 0 {
		w.mu.Unlock()
		return selection.Plan{}, ErrNoRecords
	}
	if w.state.Count() == 0 {
		w.mu.Unlock()
		return selection.Plan{}, ErrNothingSelected
	}

	plan := selection.Reconcile(w.records, w.state, w.log)
	if len(plan.Jobs) == 0 {
		w.mu.Unlock()
		return plan, ErrNothingSelected
	}

	w.cancel.Store(false)
	done := make(chan struct{})
	w.done = done
	w.mu.Unlock()

	eng, err := w.factory(ctx, batch.Sink(markSink{w}))
	if err != nil {
		close(done)
		return plan, fmt.Errorf("не удалось подготовить браузер: %w", err)
	}

	w.log.Info("Партия запущена",
		zap.Int("jobs", len(plan.Jobs)),
		zap.Int("degraded", plan.Jobs.Degraded()),
		zap.Int("dropped", len(plan.Dropped)),
	)

	go w.run(ctx, eng, plan.Jobs, done)
	return plan, nil
}

func (w *Workspace) run(ctx context.Context, eng Engine, queue selection.JobQueue, done chan struct{}) {
	defer close(done)
	defer func() {
		if eng.Close == nil {
			return
		}
		if err := eng.Close(); err != nil {
			w.log.Warn("Ошибка освобождения браузера", zap.Error(err))
		}
	}()

	report := eng.Runner.Run(ctx, queue, &w.cancel)

	w.mu.Lock()
	w.report = &report
	w.mu.Unlock()
}

// Stop просит партию остановиться после текущей записи. false: партия не идёт.
func (w *Workspace) Stop() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.runningLocked() {
		return false
	}
	w.cancel.Store(true)
	w.log.Info("Запрошена остановка партии")
	return true
}

// Wait блокируется до завершения текущей партии или отмены ctx
func (w *Workspace) Wait(ctx context.Context) error {
	w.mu.RLock()
	done := w.done
	w.mu.RUnlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Workspace) Running() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.runningLocked()
}

func (w *Workspace) runningLocked() bool {
	if w.done == nil {
		return false
	}
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Report: отчёт последней завершённой партии
func (w *Workspace) Report() (batch.Report, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.report == nil {
		return batch.Report{}, false
	}
	return *w.report, true
}

// markSink отмечает строку последним результатом
type markSink struct{ w *Workspace }

func (s markSink) Publish(_ context.Context, o batch.Outcome) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if o.RowID != "" {
		s.w.marks[o.RowID] = o
	}
	return nil
}

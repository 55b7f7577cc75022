// Package wizard проводит одну запись через мастер NFS-e:
// Tomador → Serviços → Valores → emissão.
package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"emiteNota/internal/browser"
	"emiteNota/internal/locator"
	"emiteNota/internal/record"
	"emiteNota/internal/resolver"
	"emiteNota/internal/sanitizer"
	"emiteNota/internal/session"

	"go.uber.org/zap"
)

type Step = session.Step

const (
	StepNone     = session.StepNone
	StepPayer    = session.StepPayer
	StepServices = session.StepServices
	StepValues   = session.StepValues
	StepIssued   = session.StepIssued
)

// Entry: способ попасть на шаг Tomador
type Entry int

const (
	EntryFresh Entry = iota
	EntryContinuation
)

func (e Entry) String() string {
	if e == EntryFresh {
		return "fresh"
	}
	return "continuation"
}

// EntryFor: первая запись партии открывает документ через меню, остальные продолжают
func EntryFor(position int) Entry {
	if position <= 1 {
		return EntryFresh
	}
	return EntryContinuation
}

// Issuance: как распознан результат эмиссии
type Issuance int

const (
	IssuanceNone Issuance = iota
	IssuanceConfirmed
	IssuanceAmbiguous
)

func (i Issuance) String() string {
	switch i {
	case IssuanceConfirmed:
		return "confirmed"
	case IssuanceAmbiguous:
		return "ambiguous"
	default:
		return "none"
	}
}

var (
	DefaultSuccessPhrases = []string{
		"nota fiscal emitida",
		"emissão concluída",
		"nota fiscal gerada",
		"emitida com sucesso",
		"sucesso",
	}
	DefaultFailurePhrases = []string{
		"erro",
		"falha",
		"não foi possível",
		"tente novamente",
	}
	DefaultSecondaryMarkers = []string{"G", "MÉDIO", "MEDIO"}
)

type Config struct {
	StepTimeout  time.Duration
	StepDelay    time.Duration // пауза после кликов по меню и кнопкам перехода
	IssuanceWait time.Duration // ожидание реакции страницы после "Emitir"

	// AmbiguousAsSuccess: нет ни фразы успеха, ни фразы ошибки → запись успешна
	AmbiguousAsSuccess bool
	// ServiceDescription заменяет описание записи, если задано
	ServiceDescription string

	SecondaryMarkers []string
	SuccessPhrases   []string
	FailurePhrases   []string

	Now func() time.Time
}

// Result: итог одной записи
type Result struct {
	Entry       Entry
	Reused      bool // continuation: форма Tomador уже была открыта
	Step        Step
	Issuance    Issuance
	ExpectModal bool // период competência отличается от текущего
	Modals      int  // подтверждённые модальные окна
	Warnings    []string
}

func (r *Result) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Machine: конечный автомат мастера. Не потокобезопасен: одна партия, одна сессия.
type Machine struct {
	sess *session.Session
	res  *resolver.Resolver
	drv  browser.Driver
	loc  *locator.Locator
	cfg  Config
	log  *zap.Logger
	san  *sanitizer.DataSanitizer
}

func New(sess *session.Session, res *resolver.Resolver, cfg Config, log *zap.Logger) *Machine {
	if cfg.StepTimeout == 0 {
		cfg.StepTimeout = 15 * time.Second
	}
	if cfg.IssuanceWait == 0 {
		cfg.IssuanceWait = 3 * time.Second
	}
	if len(cfg.SecondaryMarkers) == 0 {
		cfg.SecondaryMarkers = DefaultSecondaryMarkers
	}
	if len(cfg.SuccessPhrases) == 0 {
		cfg.SuccessPhrases = DefaultSuccessPhrases
	}
	if len(cfg.FailurePhrases) == 0 {
		cfg.FailurePhrases = DefaultFailurePhrases
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Machine{
		sess: sess,
		res:  res,
		drv:  sess.Driver(),
		loc:  sess.Locator(),
		cfg:  cfg,
		log:  log,
		san:  sanitizer.New(),
	}
}

// Process проводит запись через все четыре шага. position: позиция в партии (с 1),
// от неё зависит вход на шаг Tomador.
func (m *Machine) Process(ctx context.Context, rec record.SourceRecord, position int) (Result, error) {
	res := Result{Entry: EntryFor(position)}
	log := m.log.With(
		zap.Int("position", position),
		zap.String("document", rec.DocumentName),
		zap.Int("page", rec.PageNumber),
	)

	log.Info("Начало обработки записи",
		zap.String("entry", res.Entry.String()),
		zap.String("taxpayer", m.san.MaskDocument(rec.TaxpayerID)),
	)

	var err error
	if res.Entry == EntryFresh {
		err = m.EnterFresh(ctx)
	} else {
		res.Reused, err = m.EnterContinuation(ctx)
	}
	if err != nil {
		return res, err
	}

	steps := []struct {
		step Step
		run  func(context.Context, record.SourceRecord, *Result) error
	}{
		{StepPayer, m.fillPayer},
		{StepServices, m.fillServices},
		{StepValues, m.fillValues},
		{StepIssued, m.issue},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := m.transition(s.step); err != nil {
			return res, err
		}
		res.Step = s.step

		log.Debug("Шаг мастера", zap.String("step", s.step.String()))
		if err := s.run(ctx, rec, &res); err != nil {
			log.Warn("Шаг не выполнен", zap.String("step", s.step.String()), zap.Error(err))
			return res, err
		}
	}

	log.Info("Запись обработана",
		zap.String("issuance", res.Issuance.String()),
		zap.Int("modals", res.Modals),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}

// transition: на Tomador можно попасть из любого состояния (новый документ),
// дальше только строго по порядку
func (m *Machine) transition(to Step) error {
	from := m.sess.Step()
	if to != StepPayer && to != from+1 {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}
	m.sess.SetStep(to)
	return nil
}

// secondaryOffset: коды классов со "вторичной" меткой выбирают второй вариант, остальные первый
func (m *Machine) secondaryOffset(classCode string) int {
	code := strings.ToUpper(strings.TrimSpace(classCode))
	for _, marker := range m.cfg.SecondaryMarkers {
		if marker != "" && strings.HasPrefix(code, strings.ToUpper(marker)) {
			return 2
		}
	}
	return 1
}

func (m *Machine) clearOverlays(ctx context.Context) {
	if cleaner, ok := m.drv.(browser.OverlayCleaner); ok {
		if err := cleaner.ClearOverlays(ctx); err != nil {
			m.log.Debug("Ошибка очистки оверлеев", zap.Error(err))
		}
	}
}

package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"emiteNota/internal/locator"
	"emiteNota/internal/record"
	"emiteNota/internal/selection"
	"emiteNota/internal/session"
	"emiteNota/internal/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeAuth struct {
	errs  []error
	calls int
}

func (a *fakeAuth) Login(context.Context) error {
	a.calls++
	if len(a.errs) == 0 {
		return nil
	}
	err := a.errs[0]
	a.errs = a.errs[1:]
	return err
}

type fakeWizard struct {
	mu        sync.Mutex
	positions []int
	prepared  int
	onProcess func(position int) (wizard.Result, error)
	prepErr   error
}

func (w *fakeWizard) Process(_ context.Context, _ record.SourceRecord, position int) (wizard.Result, error) {
	w.mu.Lock()
	w.positions = append(w.positions, position)
	w.mu.Unlock()
	if w.onProcess != nil {
		return w.onProcess(position)
	}
	return wizard.Result{Step: wizard.StepIssued, Issuance: wizard.IssuanceConfirmed}, nil
}

func (w *fakeWizard) PrepareNext(context.Context) error {
	w.prepared++
	return w.prepErr
}

type fakeShots struct{ names []string }

func (s *fakeShots) Screenshot(_ context.Context, name string) (string, error) {
	s.names = append(s.names, name)
	return "logs/" + name + ".png", nil
}

type memSink struct{ got []Outcome }

func (s *memSink) Publish(_ context.Context, o Outcome) error {
	s.got = append(s.got, o)
	return nil
}

func queueOf(n int) selection.JobQueue {
	q := make(selection.JobQueue, n)
	for i := range q {
		q[i] = selection.Job{
			OriginalIndex: i * 10,
			RowID:         selection.RowID(i + 1),
			Record:        record.SourceRecord{DocumentName: "boletos.pdf", PageNumber: i + 1, PayerName: fmt.Sprintf("CLIENTE %d", i+1)},
		}
	}
	return q
}

func newRunner(t *testing.T, auth Authenticator, wiz Wizard, shots Screenshotter, sink Sink) *Runner {
	r := New(auth, wiz, shots, sink, Config{LoginRetries: 2, RetryDelay: time.Millisecond}, zaptest.NewLogger(t))
	r.newID = func() string { return "run1" }
	return r
}

func TestRunContinuesAfterFailure(t *testing.T) {
	for name, failure := range map[string]func(){
		"ошибка": nil,
		"паника": func() { panic("элемент исчез") },
	} {
		t.Run(name, func(t *testing.T) {
			wiz := &fakeWizard{onProcess: func(pos int) (wizard.Result, error) {
				if pos == 3 {
					if failure != nil {
						failure()
					}
					return wizard.Result{Step: wizard.StepServices}, fmt.Errorf("%w: activity_type", wizard.ErrRequiredField)
				}
				return wizard.Result{Issuance: wizard.IssuanceConfirmed}, nil
			}}
			shots := &fakeShots{}
			sink := &memSink{}
			r := newRunner(t, &fakeAuth{}, wiz, shots, sink)

			report := r.Run(context.Background(), queueOf(5), nil)

			assert.Equal(t, []int{1, 2, 3, 4, 5}, wiz.positions, "записи 4 и 5 обработаны")
			assert.Equal(t, 5, report.Attempted)
			assert.Equal(t, 4, report.Succeeded)
			assert.Equal(t, 1, report.Failed)
			assert.False(t, report.Cancelled)
			assert.NoError(t, report.Err)

			failed := report.Failures()
			require.Len(t, failed, 1)
			assert.Equal(t, 3, failed[0].Position)
			assert.Equal(t, 20, failed[0].OriginalIndex)
			assert.Equal(t, "I003", failed[0].RowID)
			assert.Equal(t, []string{"run1_falha_3_20"}, shots.names)
			assert.Equal(t, "logs/run1_falha_3_20.png", failed[0].Screenshot)
			if failure != nil {
				assert.Equal(t, KindPanic, failed[0].Kind)
			} else {
				assert.Equal(t, KindRequiredField, failed[0].Kind)
			}

			assert.Len(t, sink.got, 5)
			// PrepareNext после успешных записей, кроме последней
			assert.Equal(t, 3, wiz.prepared)
		})
	}
}

func TestRunCancellation(t *testing.T) {
	var cancel atomic.Bool
	wiz := &fakeWizard{}
	wiz.onProcess = func(pos int) (wizard.Result, error) {
		if pos == 2 {
			cancel.Store(true)
		}
		return wizard.Result{Issuance: wizard.IssuanceConfirmed}, nil
	}
	r := newRunner(t, &fakeAuth{}, wiz, nil, nil)

	report := r.Run(context.Background(), queueOf(5), &cancel)

	assert.True(t, report.Cancelled)
	assert.Equal(t, []int{1, 2}, wiz.positions)
	assert.Equal(t, 2, report.Succeeded)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, StatusSucceeded, report.Outcomes[1].Status)
	assert.Equal(t, 1, wiz.prepared, "после отмены следующий документ не готовится")
	assert.False(t, report.Finished.IsZero())
}

func TestRunPositionsAreOneBased(t *testing.T) {
	wiz := &fakeWizard{}
	r := newRunner(t, &fakeAuth{}, wiz, nil, nil)

	report := r.Run(context.Background(), queueOf(3), nil)
	assert.Equal(t, []int{1, 2, 3}, wiz.positions)
	for i, o := range report.Outcomes {
		assert.Equal(t, i+1, o.Position)
		assert.Equal(t, i*10, o.OriginalIndex)
	}
}

func TestRunAmbiguousCountedSeparately(t *testing.T) {
	wiz := &fakeWizard{onProcess: func(pos int) (wizard.Result, error) {
		if pos == 2 {
			return wizard.Result{Issuance: wizard.IssuanceAmbiguous, Warnings: []string{"результат эмиссии не распознан"}}, nil
		}
		return wizard.Result{Issuance: wizard.IssuanceConfirmed}, nil
	}}
	r := newRunner(t, &fakeAuth{}, wiz, nil, nil)

	report := r.Run(context.Background(), queueOf(3), nil)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Ambiguous)
	assert.Zero(t, report.Failed)
	assert.Equal(t, StatusAmbiguous, report.Outcomes[1].Status)
	assert.NotEmpty(t, report.Outcomes[1].Warnings)
}

func TestRunPrepareNextFailureIsWarning(t *testing.T) {
	wiz := &fakeWizard{prepErr: errors.New("menu Criar ausente")}
	r := newRunner(t, &fakeAuth{}, wiz, nil, nil)

	report := r.Run(context.Background(), queueOf(2), nil)
	assert.Equal(t, 2, report.Succeeded)
	assert.NotEmpty(t, report.Outcomes[0].Warnings)
	assert.Empty(t, report.Outcomes[1].Warnings)
}

func TestRunLogin(t *testing.T) {
	t.Run("повтор после таймаута", func(t *testing.T) {
		auth := &fakeAuth{errs: []error{&session.AuthError{Kind: session.AuthTimeout}}}
		wiz := &fakeWizard{}
		report := newRunner(t, auth, wiz, nil, nil).Run(context.Background(), queueOf(1), nil)

		assert.Equal(t, 2, auth.calls)
		assert.NoError(t, report.Err)
		assert.Equal(t, 1, report.Succeeded)
	})

	t.Run("неверный адрес не повторяется", func(t *testing.T) {
		auth := &fakeAuth{errs: []error{&session.AuthError{Kind: session.AuthInvalidURL}}}
		wiz := &fakeWizard{}
		report := newRunner(t, auth, wiz, nil, nil).Run(context.Background(), queueOf(3), nil)

		assert.Equal(t, 1, auth.calls)
		assert.Error(t, report.Err)
		assert.NotEmpty(t, report.Error)
		assert.Empty(t, wiz.positions, "без сессии записи не обрабатываются")
		assert.Equal(t, 3, report.Total)
		assert.Zero(t, report.Attempted)
	})

	t.Run("попытки исчерпаны", func(t *testing.T) {
		timeout := &session.AuthError{Kind: session.AuthTimeout}
		auth := &fakeAuth{errs: []error{timeout, timeout, timeout}}
		report := newRunner(t, auth, &fakeWizard{}, nil, nil).Run(context.Background(), queueOf(1), nil)

		assert.Equal(t, 3, auth.calls)
		assert.Equal(t, KindAuth, Classify(report.Err))
	})

	t.Run("пустая очередь без входа", func(t *testing.T) {
		auth := &fakeAuth{}
		report := newRunner(t, auth, &fakeWizard{}, nil, nil).Run(context.Background(), nil, nil)
		assert.Zero(t, auth.calls)
		assert.Zero(t, report.Total)
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{&session.AuthError{Kind: session.AuthRejected}, KindAuth},
		{&wizard.StepAdvanceError{Err: locator.ErrElementUnresolved}, KindStepAdvance},
		{fmt.Errorf("%w: taxpayer_id", wizard.ErrRequiredField), KindRequiredField},
		{wizard.ErrIssuanceFailed, KindIssuanceFailed},
		{wizard.ErrIssuanceAmbiguous, KindIssuanceAmbiguous},
		{wizard.ErrInvalidTransition, KindInvalidTransition},
		{locator.ErrElementUnresolved, KindUnresolved},
		{context.Canceled, KindCancelled},
		{&PanicError{Value: "x"}, KindPanic},
		{errors.New("other"), KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), fmt.Sprint(tt.err))
	}
}

func TestReportSummary(t *testing.T) {
	r := Report{Total: 5}
	r.add(Outcome{Status: StatusSucceeded})
	r.add(Outcome{Status: StatusFailed})
	r.Cancelled = true
	assert.Equal(t, "обработано 2 из 5: успешно 1, без подтверждения 0, ошибок 1 (остановлено оператором)", r.Summary())
}

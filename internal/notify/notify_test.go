package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"emiteNota/internal/batch"
	"emiteNota/internal/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type fakePublisher struct {
	subjects []string
	data     [][]byte
	err      error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.data = append(p.data, data)
	return nil
}

func outcome(status batch.Status) batch.Outcome {
	return batch.Outcome{
		RunID:         "run1",
		Position:      2,
		OriginalIndex: 7,
		Key:           record.Key{DocumentName: "boletos.pdf", PageNumber: "8", PayerName: "CLIENTE"},
		Status:        status,
	}
}

func TestNATSSinkPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	s := newNATSSink(pub, "", zaptest.NewLogger(t))

	require.NoError(t, s.Publish(context.Background(), outcome(batch.StatusSucceeded)))
	require.Len(t, pub.data, 1)
	assert.Equal(t, DefaultSubject, pub.subjects[0])

	var got batch.Outcome
	require.NoError(t, json.Unmarshal(pub.data[0], &got))
	assert.Equal(t, 7, got.OriginalIndex)
	assert.Equal(t, batch.StatusSucceeded, got.Status)
	assert.Equal(t, "boletos.pdf", got.Key.DocumentName)
}

func TestNATSSinkBreaker(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	s := newNATSSink(pub, "nfse.test", nil)

	for i := 0; i < 5; i++ {
		assert.Error(t, s.Publish(context.Background(), outcome(batch.StatusFailed)))
	}
	assert.Equal(t, StateOpen, s.breaker.State())
	assert.ErrorIs(t, s.Publish(context.Background(), outcome(batch.StatusFailed)), ErrCircuitOpen)
}

func TestCircuitBreakerHalfOpen(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, time.Minute)
	cb.now = func() time.Time { return now }
	fail := func() error { return errors.New("x") }

	_ = cb.Call(fail)
	_ = cb.Call(fail)
	require.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Minute)
	assert.Error(t, cb.Call(fail))
	assert.Equal(t, StateOpen, cb.State(), "ошибка в полуоткрытом состоянии снова открывает")

	now = now.Add(2 * time.Minute)
	assert.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestMultiAndLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var got []batch.Outcome
	failing := Func(func(context.Context, batch.Outcome) error { return errors.New("down") })
	collect := Func(func(_ context.Context, o batch.Outcome) error {
		got = append(got, o)
		return nil
	})

	m := Multi{NewLogSink(zap.New(core)), failing, nil, collect}
	err := m.Publish(context.Background(), outcome(batch.StatusFailed))

	assert.Error(t, err)
	assert.Len(t, got, 1, "ошибка одного получателя не мешает остальным")
	entries := logs.FilterMessage("Результат записи").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

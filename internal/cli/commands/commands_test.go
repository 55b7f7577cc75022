package commands

import (
	"bytes"
	"context"
	"testing"
	"time"

	"emiteNota/internal/batch"
	"emiteNota/internal/record"
	"emiteNota/internal/wizard"
	"emiteNota/internal/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseRows(t *testing.T) {
	tests := []struct {
		list    string
		want    []string
		wantErr bool
	}{
		{"I003", []string{"I003"}, false},
		{"i001, 3", []string{"I001", "I003"}, false},
		{"2-4", []string{"I002", "I003", "I004"}, false},
		{"1;5", []string{"I001", "I005"}, false},
		{"", nil, true},
		{"0", nil, true},
		{"4-2", nil, true},
		{"abc", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.list, func(t *testing.T) {
			got, err := ParseRows(tt.list)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type okAuth struct{}

func (okAuth) Login(context.Context) error { return nil }

type failWizard struct{}

func (failWizard) Process(_ context.Context, rec record.SourceRecord, _ int) (wizard.Result, error) {
	if rec.PageNumber == 2 {
		return wizard.Result{}, wizard.ErrIssuanceFailed
	}
	return wizard.Result{Issuance: wizard.IssuanceConfirmed}, nil
}

func (failWizard) PrepareNext(context.Context) error { return nil }

func newWorkspace(t *testing.T) *workspace.Workspace {
	log := zaptest.NewLogger(t)
	ws := workspace.New(func(_ context.Context, marks batch.Sink) (workspace.Engine, error) {
		return workspace.Engine{Runner: batch.New(okAuth{}, failWizard{}, nil, marks, batch.Config{}, log)}, nil
	}, log)
	require.NoError(t, ws.SetRecords("boletos.csv", []record.SourceRecord{
		{DocumentName: "a.pdf", PageNumber: 1, PayerName: "ANA", Amount: "150,00"},
		{DocumentName: "a.pdf", PageNumber: 2, PayerName: "BRUNO"},
	}))
	return ws
}

func TestRecordsHandler(t *testing.T) {
	ws := newWorkspace(t)
	var out bytes.Buffer
	h := NewRecordsHandler(ws, &out, zaptest.NewLogger(t))

	h.Toggle("2")
	assert.Contains(t, out.String(), "Отмечено: 1 из 2")

	out.Reset()
	h.Invert()
	assert.Contains(t, out.String(), "Отмечено: 1 из 2")
	assert.True(t, ws.Selection().Rows()[0].Checked)

	out.Reset()
	h.Toggle("I009")
	assert.Contains(t, out.String(), "строка не найдена")

	out.Reset()
	h.List()
	assert.Contains(t, out.String(), "boletos.csv")
	assert.Contains(t, out.String(), "R$ 150,00")
	assert.Contains(t, out.String(), "BRUNO")
}

func TestBatchHandlerReport(t *testing.T) {
	ws := newWorkspace(t)
	ws.Selection().SelectAll()
	var out bytes.Buffer
	h := NewBatchHandler(ws, &out, zaptest.NewLogger(t))

	h.Report()
	assert.Contains(t, out.String(), "Отчёта пока нет")

	out.Reset()
	h.Run(context.Background())
	assert.Contains(t, out.String(), "Партия запущена: 2 записей")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ws.Wait(ctx))

	out.Reset()
	h.Report()
	assert.Contains(t, out.String(), "успешно 1")
	assert.Contains(t, out.String(), "[issuance_failed]")

	out.Reset()
	h.Stop()
	assert.Contains(t, out.String(), "Партия не выполняется")
}

package selection

import (
	"fmt"
	"testing"

	"emiteNota/internal/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func loaded(n int) []record.SourceRecord {
	recs := make([]record.SourceRecord, n)
	for i := range recs {
		recs[i] = record.SourceRecord{
			DocumentName: "boletos.pdf",
			PageNumber:   i + 1,
			PayerName:    fmt.Sprintf("CLIENTE %d", i+1),
		}
	}
	return recs
}

func TestStateOperations(t *testing.T) {
	s := FromRecords(loaded(4))
	require.Equal(t, 4, s.Len())
	assert.Equal(t, "I001", s.Rows()[0].ID)
	assert.Equal(t, "I004", s.Rows()[3].ID)
	assert.Zero(t, s.Count())

	on, err := s.Toggle("I002")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 1, s.Count())

	s.Invert()
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, []string{"I001", "I003", "I004"}, ids(s.Checked()))

	s.SelectAll()
	assert.Equal(t, 4, s.Count())
	s.ClearAll()
	assert.Zero(t, s.Count())

	require.NoError(t, s.Set("I003", true))
	assert.Equal(t, []string{"I003"}, ids(s.Checked()))

	_, err = s.Toggle("I999")
	assert.ErrorIs(t, err, ErrUnknownRow)
	assert.ErrorIs(t, s.AddRow("I001", record.Key{}), ErrDuplicateRow)
}

func TestReconcileByContent(t *testing.T) {
	recs := loaded(5)

	// Строки обзора в другом порядке, чем записи
	s := NewState()
	for _, i := range []int{4, 0, 2, 1, 3} {
		require.NoError(t, s.AddRow(fmt.Sprintf("row-%d", i), recs[i].Key()))
	}
	for _, id := range []string{"row-4", "row-2", "row-1"} {
		require.NoError(t, s.Set(id, true))
	}

	q := Reconcile(recs, s, zaptest.NewLogger(t)).Jobs
	require.Len(t, q, 3)
	assert.Equal(t, []int{4, 2, 1}, indices(q), "порядок строк обзора, индексы исходной загрузки")
	for _, j := range q {
		assert.False(t, j.Degraded)
		assert.Equal(t, recs[j.OriginalIndex], j.Record)
	}
	assert.Zero(t, q.Degraded())
}

func TestReconcileDuplicateKeyTakesLowestIndex(t *testing.T) {
	recs := loaded(3)
	recs[2] = recs[0]

	s := NewState()
	require.NoError(t, s.AddRow("a", recs[2].Key()))
	s.SelectAll()

	q := Reconcile(recs, s, nil).Jobs
	require.Len(t, q, 1)
	assert.Equal(t, 0, q[0].OriginalIndex)
}

func TestReconcilePositionalFallback(t *testing.T) {
	recs := loaded(3)
	core, logs := observer.New(zapcore.WarnLevel)

	s := FromRecords(recs)
	require.NoError(t, s.AddRow("I900", record.Key{DocumentName: "outro.pdf", PageNumber: "9", PayerName: "FANTASMA"}))
	// Строка с устаревшим ключом на позиции 1
	rows := NewState()
	require.NoError(t, rows.AddRow("I001", recs[0].Key()))
	require.NoError(t, rows.AddRow("I002", record.Key{DocumentName: "boletos.pdf", PageNumber: "2", PayerName: "NOME ANTIGO"}))
	rows.SelectAll()

	plan := Reconcile(recs, rows, zap.New(core))
	assert.Empty(t, plan.Dropped)
	q := plan.Jobs
	require.Len(t, q, 2, "выбор не теряется")
	assert.Equal(t, []int{0, 1}, indices(q))
	assert.False(t, q[0].Degraded)
	assert.True(t, q[1].Degraded)
	assert.Equal(t, 1, q.Degraded())
	assert.Equal(t, 1, logs.FilterMessage("Строка сведена по позиции").Len())

	t.Run("позиция вне загрузки", func(t *testing.T) {
		s.ClearAll()
		require.NoError(t, s.Set("I900", true))
		plan := Reconcile(recs, s, zaptest.NewLogger(t))
		assert.Empty(t, plan.Jobs)
		assert.Equal(t, []string{"I900"}, plan.Dropped)
	})
}

func ids(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func indices(q JobQueue) []int {
	out := make([]int, len(q))
	for i, j := range q {
		out[i] = j.OriginalIndex
	}
	return out
}

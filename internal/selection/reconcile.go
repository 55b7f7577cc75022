package selection

import (
	"emiteNota/internal/record"

	"go.uber.org/zap"
)

// Job: запись к обработке и её индекс в исходной загрузке
type Job struct {
	OriginalIndex int
	RowID         string
	Record        record.SourceRecord
	// Degraded: ключ строки не совпал ни с одной записью, индекс взят по позиции строки
	Degraded bool
}

// JobQueue сохраняет порядок строк обзора
type JobQueue []Job

func (q JobQueue) Len() int { return len(q) }

// Degraded: число заданий, сведённых по позиции
func (q JobQueue) Degraded() int {
	n := 0
	for _, j := range q {
		if j.Degraded {
			n++
		}
	}
	return n
}

// Plan: результат сверки. Dropped: отмеченные строки, для которых не нашлось записи
type Plan struct {
	Jobs    JobQueue
	Dropped []string
}

// Reconcile сводит отмеченные строки к исходным записям по ключу
// (document_name, page_number, payer_name). При нескольких совпадениях берётся
// запись с наименьшим индексом. Без совпадения используется порядковый номер строки;
// строка, номер которой выходит за пределы загрузки, попадает в Plan.Dropped.
func Reconcile(records []record.SourceRecord, state *State, log *zap.Logger) Plan {
	if log == nil {
		log = zap.NewNop()
	}

	first := make(map[record.Key]int, len(records))
	for i, rec := range records {
		if _, ok := first[rec.Key()]; !ok {
			first[rec.Key()] = i
		}
	}

	var (
		queue   JobQueue
		dropped []string
	)
	for pos, row := range state.Rows() {
		if !row.Checked {
			continue
		}

		if idx, ok := first[row.Key]; ok {
			queue = append(queue, Job{OriginalIndex: idx, RowID: row.ID, Record: records[idx]})
			log.Debug("Строка сведена по ключу", zap.String("row", row.ID), zap.Int("original_index", idx))
			continue
		}

		if pos >= len(records) {
			log.Error("Строка не сведена: нет записи ни по ключу, ни по позиции",
				zap.String("row", row.ID),
				zap.Int("row_position", pos),
				zap.Int("records", len(records)),
			)
			dropped = append(dropped, row.ID)
			continue
		}

		log.Warn("Строка сведена по позиции",
			zap.String("row", row.ID),
			zap.Int("original_index", pos),
			zap.String("payer", row.Key.PayerName),
		)
		queue = append(queue, Job{OriginalIndex: pos, RowID: row.ID, Record: records[pos], Degraded: true})
	}

	log.Info("Выбор сведён",
		zap.Int("jobs", len(queue)),
		zap.Int("degraded", queue.Degraded()),
		zap.Int("dropped", len(dropped)),
	)
	return Plan{Jobs: queue, Dropped: dropped}
}

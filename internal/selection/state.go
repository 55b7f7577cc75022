// Package selection хранит выбор оператора (строки обзора) и сводит его
// обратно к исходному порядку загруженных записей.
package selection

import (
	"errors"
	"fmt"
	"sync"

	"emiteNota/internal/record"
)

var (
	ErrUnknownRow   = errors.New("строка не найдена")
	ErrDuplicateRow = errors.New("строка уже существует")
)

// Row: строка обзора: непрозрачный id, флажок и ключ записи, показанный оператору
type Row struct {
	ID      string     `json:"id"`
	Checked bool       `json:"checked"`
	Key     record.Key `json:"key"`
}

// State: SelectionState. Меняется только оператором, ядро читает снимок при старте партии.
type State struct {
	mu    sync.RWMutex
	rows  []Row
	index map[string]int
}

func NewState() *State {
	return &State{index: make(map[string]int)}
}

// RowID: id строки по номеру с 1: I001, I002, …
func RowID(n int) string {
	return fmt.Sprintf("I%03d", n)
}

// FromRecords создаёт по строке на запись, все сняты
func FromRecords(records []record.SourceRecord) *State {
	s := NewState()
	for i, rec := range records {
		_ = s.AddRow(RowID(i+1), rec.Key())
	}
	return s
}

func (s *State) AddRow(id string, key record.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRow, id)
	}
	s.index[id] = len(s.rows)
	s.rows = append(s.rows, Row{ID: id, Key: key})
	return nil
}

// Toggle переключает флажок и возвращает новое значение
func (s *State) Toggle(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownRow, id)
	}
	s.rows[i].Checked = !s.rows[i].Checked
	return s.rows[i].Checked, nil
}

func (s *State) Set(id string, checked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRow, id)
	}
	s.rows[i].Checked = checked
	return nil
}

func (s *State) SelectAll() { s.each(func(r *Row) { r.Checked = true }) }

func (s *State) ClearAll() { s.each(func(r *Row) { r.Checked = false }) }

func (s *State) Invert() { s.each(func(r *Row) { r.Checked = !r.Checked }) }

func (s *State) each(fn func(*Row)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		fn(&s.rows[i])
	}
}

// Count: число отмеченных строк
func (s *State) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.rows {
		if r.Checked {
			n++
		}
	}
	return n
}

func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Rows: снимок всех строк в порядке добавления
func (s *State) Rows() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Row(nil), s.rows...)
}

// Checked: снимок отмеченных строк в порядке добавления
func (s *State) Checked() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Row
	for _, r := range s.rows {
		if r.Checked {
			out = append(out, r)
		}
	}
	return out
}

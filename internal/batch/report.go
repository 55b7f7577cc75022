package batch

import (
	"fmt"
	"time"

	"emiteNota/internal/record"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusAmbiguous Status = "ambiguous" // эмиссия без явного подтверждения, засчитана по политике
	StatusFailed    Status = "failed"
)

// Outcome: результат одной записи; уходит в Sink сразу после обработки
type Outcome struct {
	RunID         string        `json:"run_id"`
	Position      int           `json:"position"`
	OriginalIndex int           `json:"original_index"`
	RowID         string        `json:"row_id,omitempty"`
	Key           record.Key    `json:"key"`
	Status        Status        `json:"status"`
	Kind          Kind          `json:"kind,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Screenshot    string        `json:"screenshot,omitempty"`
	Warnings      []string      `json:"warnings,omitempty"`
	Degraded      bool          `json:"degraded,omitempty"`
	Duration      time.Duration `json:"duration"`
}

func (o Outcome) Succeeded() bool {
	return o.Status == StatusSucceeded || o.Status == StatusAmbiguous
}

// Report: BatchReport: итоги формируются всегда, даже при отмене и ошибке входа
type Report struct {
	RunID     string    `json:"run_id"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Total     int       `json:"total"`
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
	Ambiguous int       `json:"ambiguous"`
	Failed    int       `json:"failed"`
	Cancelled bool      `json:"cancelled"`
	Outcomes  []Outcome `json:"outcomes"`

	// Err: ошибка, остановившая всю партию (вход)
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.Attempted++
	switch o.Status {
	case StatusSucceeded:
		r.Succeeded++
	case StatusAmbiguous:
		r.Ambiguous++
	default:
		r.Failed++
	}
}

func (r *Report) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}

// Failures: неуспешные записи в порядке обработки
func (r Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

func (r Report) Summary() string {
	s := fmt.Sprintf("обработано %d из %d: успешно %d, без подтверждения %d, ошибок %d",
		r.Attempted, r.Total, r.Succeeded, r.Ambiguous, r.Failed)
	if r.Cancelled {
		s += " (остановлено оператором)"
	}
	if r.Error != "" {
		s += ": " + r.Error
	}
	return s
}

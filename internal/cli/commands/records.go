package commands

import (
	"fmt"
	"io"

	"emiteNota/internal/cli/ui"
	"emiteNota/internal/workspace"

	"go.uber.org/zap"
)

// RecordsHandler обрабатывает загрузку записей и отметки строк
type RecordsHandler struct {
	ws  *workspace.Workspace
	out io.Writer
	log *zap.Logger
}

func NewRecordsHandler(ws *workspace.Workspace, out io.Writer, log *zap.Logger) *RecordsHandler {
	return &RecordsHandler{ws: ws, out: out, log: log}
}

// Load загружает CSV или XLSX
func (h *RecordsHandler) Load(path string) {
	n, err := h.ws.Load(path)
	if err != nil {
		h.log.Error("Ошибка загрузки записей", zap.String("path", path), zap.Error(err))
		fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" Ошибка:"+ui.ColorReset+" %v\n", err)
		return
	}
	fmt.Fprintf(h.out, ui.ColorGreen+ui.IconCheckmark+" Загружено записей: %d"+ui.ColorReset+"\n", n)
}

// List выводит строки обзора
func (h *RecordsHandler) List() {
	rows := h.ws.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(h.out, ui.ColorYellow+"Записи не загружены"+ui.ColorReset)
		return
	}

	fmt.Fprintln(h.out, "\n"+ui.ColorBold+ui.IconList+" "+h.ws.Source()+ui.ColorReset)
	fmt.Fprintln(h.out)
	for _, r := range rows {
		fmt.Fprintf(h.out, "  %s "+ui.ColorBold+"%s"+ui.ColorReset+" %s стр. %s  %s  %s\n",
			ui.Checkbox(r.Checked), r.ID, r.Key.DocumentName, r.Key.PageNumber, r.Key.PayerName, ui.Money(r.Record.Amount))
		if r.Last != nil {
			icon, color, text := ui.FormatStatus(r.Last.Status)
			line := fmt.Sprintf("  "+ui.ColorGray+"└─"+ui.ColorReset+" %s%s %s"+ui.ColorReset, color, icon, text)
			if r.Last.Reason != "" {
				line += ": " + r.Last.Reason
			}
			fmt.Fprintln(h.out, line)
		}
	}
	fmt.Fprintf(h.out, "\n  Отмечено: %d из %d\n\n", h.ws.Selection().Count(), len(rows))
}

// Toggle переключает отметки перечисленных строк
func (h *RecordsHandler) Toggle(list string) {
	ids, err := ParseRows(list)
	if err != nil {
		fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" %v"+ui.ColorReset+"\n", err)
		return
	}
	state := h.ws.Selection()
	for _, id := range ids {
		if _, err := state.Toggle(id); err != nil {
			fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" %v"+ui.ColorReset+"\n", err)
		}
	}
	h.printCount()
}

func (h *RecordsHandler) All() {
	h.ws.Selection().SelectAll()
	h.printCount()
}

func (h *RecordsHandler) None() {
	h.ws.Selection().ClearAll()
	h.printCount()
}

func (h *RecordsHandler) Invert() {
	h.ws.Selection().Invert()
	h.printCount()
}

func (h *RecordsHandler) printCount() {
	state := h.ws.Selection()
	fmt.Fprintf(h.out, "Отмечено: %d из %d\n", state.Count(), state.Len())
}

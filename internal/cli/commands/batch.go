package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"emiteNota/internal/batch"
	"emiteNota/internal/cli/ui"
	"emiteNota/internal/workspace"

	"go.uber.org/zap"
)

// BatchHandler запускает, останавливает партию и показывает отчёт
type BatchHandler struct {
	ws  *workspace.Workspace
	out io.Writer
	log *zap.Logger
}

func NewBatchHandler(ws *workspace.Workspace, out io.Writer, log *zap.Logger) *BatchHandler {
	return &BatchHandler{ws: ws, out: out, log: log}
}

// Run запускает партию в фоне; консоль остаётся доступной для stop
func (h *BatchHandler) Run(ctx context.Context) {
	plan, err := h.ws.Start(context.WithoutCancel(ctx))
	defer h.printDropped(plan.Dropped)
	if err != nil {
		fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" Ошибка:"+ui.ColorReset+" %v\n", err)
		return
	}
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconPlay+" Партия запущена: %d записей"+ui.ColorReset+"\n", plan.Jobs.Len())
	if d := plan.Jobs.Degraded(); d > 0 {
		fmt.Fprintf(h.out, ui.ColorYellow+"  %d строк сопоставлено по позиции"+ui.ColorReset+"\n", d)
	}
}

// printDropped: отмеченные строки без записи не попадают в партию
func (h *BatchHandler) printDropped(ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(h.out, ui.ColorRed+"  %d строк пропущено, записи не найдены: %s"+ui.ColorReset+"\n",
		len(ids), strings.Join(ids, ", "))
}

func (h *BatchHandler) Stop() {
	if !h.ws.Stop() {
		fmt.Fprintln(h.out, ui.ColorGray+"Партия не выполняется"+ui.ColorReset)
		return
	}
	fmt.Fprintln(h.out, ui.ColorYellow+ui.IconStop+" Остановка после текущей записи"+ui.ColorReset)
}

// Report печатает отчёт последней партии
func (h *BatchHandler) Report() {
	if h.ws.Running() {
		fmt.Fprintln(h.out, ui.ColorCyan+ui.IconClock+" Партия ещё выполняется"+ui.ColorReset)
	}
	report, ok := h.ws.Report()
	if !ok {
		fmt.Fprintln(h.out, ui.ColorGray+"Отчёта пока нет"+ui.ColorReset)
		return
	}
	PrintReport(h.out, report)
}

// PrintReport выводит итог и строку на каждую запись
func PrintReport(out io.Writer, report batch.Report) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, ui.ColorBold+ui.IconChart+" Партия %s"+ui.ColorReset+"\n", report.RunID)
	fmt.Fprintln(out, "  "+report.Summary())
	fmt.Fprintln(out)

	for _, o := range report.Outcomes {
		icon, color, text := ui.FormatStatus(o.Status)
		fmt.Fprintf(out, "  "+ui.ColorBold+"#%d"+ui.ColorReset+" %s%s %s"+ui.ColorReset+"  %s стр. %s  %s  %s\n",
			o.Position, color, icon, text, o.Key.DocumentName, o.Key.PageNumber, o.Key.PayerName, ui.Duration(o.Duration))
		if o.Reason != "" {
			fmt.Fprintf(out, "     "+ui.ColorGray+"└─"+ui.ColorReset+" [%s] %s\n", o.Kind, o.Reason)
		}
		if o.Screenshot != "" {
			fmt.Fprintf(out, "     "+ui.ColorGray+"└─"+ui.ColorReset+" %s %s\n", ui.IconCamera, o.Screenshot)
		}
		for _, w := range o.Warnings {
			fmt.Fprintf(out, "     "+ui.ColorGray+"└─ %s"+ui.ColorReset+"\n", w)
		}
	}
	fmt.Fprintln(out)
}

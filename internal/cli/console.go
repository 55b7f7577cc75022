package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"emiteNota/internal/cli/commands"
	"emiteNota/internal/cli/ui"
	"emiteNota/internal/workspace"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
)

// errExit: команда exit
var errExit = errors.New("exit")

type Console struct {
	ws  *workspace.Workspace
	log *zap.Logger
	out io.Writer
	rl  *readline.Instance
	in  *bufio.Reader

	recordsHandler *commands.RecordsHandler
	batchHandler   *commands.BatchHandler
}

func NewConsole(ws *workspace.Workspace, log *zap.Logger) *Console {
	c := newConsole(ws, log, os.Stdout)

	// Инициализация readline
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     ".emitenota-history",
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Warn("Не удалось инициализировать readline, будет использован fallback режим", zap.Error(err))
		c.in = bufio.NewReader(os.Stdin)
	} else {
		c.rl = rl
		c.out = rl.Stdout()
		c.recordsHandler = commands.NewRecordsHandler(ws, c.out, log)
		c.batchHandler = commands.NewBatchHandler(ws, c.out, log)
	}
	return c
}

func newConsole(ws *workspace.Workspace, log *zap.Logger, out io.Writer) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	return &Console{
		ws:             ws,
		log:            log,
		out:            out,
		recordsHandler: commands.NewRecordsHandler(ws, out, log),
		batchHandler:   commands.NewBatchHandler(ws, out, log),
	}
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("load"),
		readline.PcItem("list"),
		readline.PcItem("toggle"),
		readline.PcItem("all"),
		readline.PcItem("none"),
		readline.PcItem("invert"),
		readline.PcItem("run"),
		readline.PcItem("stop"),
		readline.PcItem("report"),
		readline.PcItem("clear"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func (c *Console) readLine() (string, error) {
	if c.rl != nil {
		return c.rl.Readline()
	}
	// Fallback для работы без readline
	fmt.Fprint(c.out, ui.ColorCyan+"> "+ui.ColorReset)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) closeReadline() {
	if c.rl != nil {
		c.rl.Close()
	}
}

// Run читает команды до exit, EOF или отмены ctx. Идущая партия останавливается
// после текущей записи, и консоль дожидается её завершения.
func (c *Console) Run(ctx context.Context) {
	ui.PrintWelcome(c.out)
	defer c.closeReadline()
	defer c.shutdown()

	for {
		// Проверка отмены контекста
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out, "\n"+ui.ColorCyan+ui.IconWave+" Получен сигнал завершения..."+ui.ColorReset)
			return
		default:
		}

		line, err := c.readLine()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return
			}
			continue
		} else if err != nil {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := c.handleCommand(ctx, line); errors.Is(err, errExit) {
			fmt.Fprintln(c.out, ui.ColorCyan+ui.IconWave+" До свидания!"+ui.ColorReset)
			return
		}
	}
}

func (c *Console) shutdown() {
	if !c.ws.Stop() {
		return
	}
	fmt.Fprintln(c.out, ui.ColorYellow+ui.IconClock+" Ожидание завершения текущей записи..."+ui.ColorReset)
	_ = c.ws.Wait(context.Background())
	if report, ok := c.ws.Report(); ok {
		commands.PrintReport(c.out, report)
	}
}

func (c *Console) handleCommand(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "exit", "quit":
		return errExit

	case "clear":
		ui.ClearScreen()

	case "load":
		if arg == "" {
			fmt.Fprintln(c.out, ui.ColorRed+ui.IconCross+" Укажите файл: load <файл>"+ui.ColorReset)
			return nil
		}
		c.recordsHandler.Load(arg)

	case "list":
		c.recordsHandler.List()

	case "toggle":
		c.recordsHandler.Toggle(arg)

	case "all":
		c.recordsHandler.All()

	case "none":
		c.recordsHandler.None()

	case "invert":
		c.recordsHandler.Invert()

	case "run":
		c.batchHandler.Run(ctx)

	case "stop":
		c.batchHandler.Stop()

	case "report":
		c.batchHandler.Report()

	default:
		ui.PrintHelp(c.out)
	}
	return nil
}

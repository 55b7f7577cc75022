// Package cli: поверхности оператора: интерактивная консоль, разовый запуск и HTTP API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"emiteNota/internal/cli/commands"
	"emiteNota/internal/config"
	"emiteNota/internal/server"
	"emiteNota/internal/workspace"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRootCommand: без подкоманды открывается консоль
func NewRootCommand(cfg *config.Cfg, log *zap.Logger) *cobra.Command {
	newWorkspace := func() *workspace.Workspace {
		return workspace.New(workspace.NewFactory(cfg, log), log)
	}

	root := &cobra.Command{
		Use:           "emitenota",
		Short:         "Эмиссия NFS-e в WebISS по таблице boleto",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			NewConsole(newWorkspace(), log).Run(cmd.Context())
			return nil
		},
	}

	root.AddCommand(
		newConsoleCmd(newWorkspace, log),
		newRunCmd(newWorkspace),
		newServeCmd(cfg, newWorkspace, log),
	)
	return root
}

func newConsoleCmd(newWorkspace func() *workspace.Workspace, log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Интерактивная консоль",
		RunE: func(cmd *cobra.Command, _ []string) error {
			NewConsole(newWorkspace(), log).Run(cmd.Context())
			return nil
		},
	}
}

func newRunCmd(newWorkspace func() *workspace.Workspace) *cobra.Command {
	var (
		file string
		rows string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Эмитировать записи из файла без консоли",
		Example: "  emitenota run --file data/boletos.xlsx\n" +
			"  emitenota run --file data/boletos.csv --rows 1-3,7",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), newWorkspace(), file, rows, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "таблица записей (.csv или .xlsx)")
	cmd.Flags().StringVar(&rows, "rows", "", "строки обзора (I001, 3, 2-5); по умолчанию все")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// runOnce: сигнал завершения останавливает партию между записями, отчёт печатается всегда
func runOnce(ctx context.Context, ws *workspace.Workspace, file, rows string, out io.Writer) error {
	if _, err := ws.Load(file); err != nil {
		return err
	}

	state := ws.Selection()
	if rows == "" {
		state.SelectAll()
	} else {
		ids, err := commands.ParseRows(rows)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := state.Set(id, true); err != nil {
				return err
			}
		}
	}

	if _, err := ws.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ws.Wait(context.Background())
	}()
	select {
	case <-done:
	case <-ctx.Done():
		ws.Stop()
		<-done
	}

	report, _ := ws.Report()
	commands.PrintReport(out, report)
	if report.Err != nil {
		return report.Err
	}
	if report.Failed > 0 {
		return fmt.Errorf("записей с ошибкой: %d", report.Failed)
	}
	return nil
}

func newServeCmd(cfg *config.Cfg, newWorkspace func() *workspace.Workspace, log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "HTTP API управления партией",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws := newWorkspace()
			err := server.New(cfg, log, ws).Run(cmd.Context())

			wait, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if werr := ws.Wait(wait); werr != nil {
				log.Warn("Партия не завершилась до остановки сервера", zap.Error(werr))
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

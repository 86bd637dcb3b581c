package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/vxgen/ProductCheck/internal/app"
	"github.com/vxgen/ProductCheck/internal/models"
	"github.com/vxgen/ProductCheck/internal/usecase"
	"go.uber.org/fx"
)

type jobDeps struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Watchlist  usecase.WatchlistUsecase
	Scans      usecase.ScanOrchestrator
}

// runJob starts the application, runs job once and exits with its result.
// An interrupt cancels ctx; a scan then stops before its next item.
func runJob(job func(ctx context.Context, d jobDeps) error) {
	app.Invoke(func(d jobDeps) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		d.Lifecycle.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					defer close(done)
					code := 0
					if err := job(ctx, d); err != nil {
						fmt.Fprintln(os.Stderr, err.Error())
						code = 1
					}
					_ = d.Shutdowner.Shutdown(fx.ExitCode(code))
				}()
				return nil
			},
			OnStop: func(stopCtx context.Context) error {
				cancel()
				select {
				case <-done:
					return nil
				case <-stopCtx.Done():
					return stopCtx.Err()
				}
			},
		})
	}).Run()
}

func printItems(items []models.WatchItem) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "SKU", "Price", "Last Updated", "URL"})
	for i, it := range items {
		t.AppendRow(table.Row{i, it.SKU, it.Price(), it.LastUpdatedText(), it.URL})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

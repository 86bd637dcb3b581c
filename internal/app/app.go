package app

import (
	"context"

	"github.com/vxgen/ProductCheck/internal/chrono"
	"github.com/vxgen/ProductCheck/internal/config"
	"github.com/vxgen/ProductCheck/internal/kafka"
	"github.com/vxgen/ProductCheck/internal/repo/browser"
	"github.com/vxgen/ProductCheck/internal/repo/llm"
	"github.com/vxgen/ProductCheck/internal/repo/search"
	"github.com/vxgen/ProductCheck/internal/server"
	"github.com/vxgen/ProductCheck/internal/usecase"
	"github.com/vxgen/ProductCheck/internal/watchlist"
	"github.com/vxgen/ProductCheck/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"
)

// Invoke builds the application graph and runs funcs against it.
func Invoke(funcs ...any) *fx.App {
	conf := config.MustLoad()
	if err := logger.Init(logger.Config{Level: conf.Log.Level, Format: conf.Log.Format}); err != nil {
		panic(err)
	}
	log := logger.MustNamed("app")
	log.Debugw("config loaded", log.Reflect("region", conf.Region), log.Reflect("scan", conf.Scan))

	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Unwrap().Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			llm.NewVisionModel,
			search.NewClient,
			browser.NewRenderer,
			kafka.NewPublisher,

			watchlist.NewStore,
			chrono.NewSystem,

			usecase.NewPacer,
			usecase.NewProgressTracker,
			usecase.NewQueryPlanner,
			usecase.NewCaptureService,
			usecase.NewExtractionService,
			usecase.NewScanOrchestrator,
			usecase.NewWatchlistUsecase,

			server.NewWatchlistController,
			server.NewScanController,
			server.NewController,
			server.NewEcho,
		),
		fx.Supply(conf),
		fx.Invoke(SyncLogsOnStop),
		fx.Invoke(funcs...),
	)
}

// SyncLogsOnStop flushes buffered log entries when the app stops.
func SyncLogsOnStop(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Sync()
			return nil
		},
	})
}

package server

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/vxgen/ProductCheck/internal/config"
	pkgmdw "github.com/vxgen/ProductCheck/internal/server/middleware"
	"github.com/vxgen/ProductCheck/pkg/logger"
	"github.com/vxgen/ProductCheck/pkg/logger/log"
	"go.uber.org/fx"
)

// NewEcho builds the router with every API route mounted.
func NewEcho(conf *config.Config, h Controller) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = pkgmdw.ErrorHandler(logger.MustNamed("http"))

	logConfig := pkgmdw.LogRequestConfig{
		Logger: logger.MustNamed("http"),
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/health" || p == "/metrics"
		},
	}

	var cors *regexp.Regexp
	if conf.Server.CORSPattern != "" {
		cors = regexp.MustCompile(conf.Server.CORSPattern)
	}

	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.CORS(cors))
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return err
		},
	}))
	if conf.Server.Pprof {
		pkgmdw.Pprof(e)
	}

	e.GET("/health", h.Health)

	api := e.Group("/api/v1")
	api.POST("/discover", pkgmdw.WrapHandler(h.Discover))
	api.POST("/discover/more", pkgmdw.WrapHandler(h.DiscoverMore))

	api.GET("/watchlist", pkgmdw.WrapHandler(h.ListItems))
	api.POST("/watchlist", pkgmdw.WrapHandler(h.AddItem))
	api.DELETE("/watchlist", pkgmdw.WrapHandler(h.RemoveItems))
	api.GET("/watchlist/export", pkgmdw.WrapHandler(h.Export))
	api.GET("/watchlist/:position/thumbnail", pkgmdw.WrapHandler(h.Thumbnail))

	api.POST("/scans", pkgmdw.WrapHandler(h.StartScan))
	api.GET("/scans/current", pkgmdw.WrapHandler(h.CurrentScan))
	api.DELETE("/scans/current", pkgmdw.WrapHandler(h.CancelScan))

	return e
}

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	e *echo.Echo,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow(ctx, "starting HTTP server", "addr", conf.Server.Addr)
				if err := e.Start(conf.Server.Addr); !errors.Is(err, http.ErrServerClosed) {
					log.Errorw(ctx, "HTTP server stopped", "error", err)
					_ = sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

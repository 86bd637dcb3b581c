package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

const defaultMaxLoggedBody = 4 << 10

type LogRequestConfig struct {
	Logger  Logger
	Skipper Skipper
	// bodies longer than this are logged as their size only
	MaxBodyBytes int
}

// cappedWriter tees at most limit bytes of the response into buf.
type cappedWriter struct {
	http.ResponseWriter
	buf   bytes.Buffer
	limit int
	size  int
}

func (w *cappedWriter) Write(b []byte) (int, error) {
	w.size += len(b)
	if room := w.limit - w.buf.Len(); room > 0 {
		w.buf.Write(b[:min(room, len(b))])
	}
	return w.ResponseWriter.Write(b)
}

func (w *cappedWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LogRequest writes one line per request. JSON bodies are attached when
// small enough; thumbnails and CSV exports only report their size.
func LogRequest(config LogRequestConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		panic("Logger is required to use LogRequest")
	}
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxLoggedBody
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			start := time.Now()
			req := c.Request()
			res := c.Response()

			var reqBody []byte
			if isJSON(req.Header.Get(echo.HeaderContentType)) && req.Body != nil {
				reqBody, _ = io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewReader(reqBody))
			}
			dump := &cappedWriter{ResponseWriter: res.Writer, limit: config.MaxBodyBytes}
			res.Writer = dump

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			args := []interface{}{
				"status", res.Status,
				"method", req.Method,
				"uri", req.RequestURI,
				"latency_ms", time.Since(start).Milliseconds(),
				"real_ip", c.RealIP(),
				"request_id", GetRequestID(c),
			}
			args = appendBody(args, "request", reqBody, len(reqBody), config.MaxBodyBytes, true)
			args = appendBody(args, "response", dump.buf.Bytes(), dump.size, config.MaxBodyBytes,
				isJSON(res.Header().Get(echo.HeaderContentType)))

			switch {
			case res.Status >= 500:
				if err != nil {
					args = append(args, "error", err.Error())
				}
				config.Logger.Errorw("http request", args...)
			case res.Status >= 400:
				config.Logger.Warnw("http request", args...)
			default:
				config.Logger.Infow("http request", args...)
			}
			return err
		}
	}
}

func appendBody(args []interface{}, prefix string, body []byte, size, limit int, asJSON bool) []interface{} {
	switch {
	case size == 0:
		return args
	case asJSON && size <= limit && json.Valid(body):
		return append(args, prefix+"_body", json.RawMessage(body))
	default:
		return append(args, prefix+"_bytes", size)
	}
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, echo.MIMEApplicationJSON)
}

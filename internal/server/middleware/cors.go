package middleware

import (
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
)

// CORS allows origins matching pattern. A nil pattern disables it.
func CORS(pattern *regexp.Regexp) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if pattern == nil {
				return next(c)
			}
			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if origin == "" || !pattern.MatchString(origin) {
				return next(c)
			}
			h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			h.Set(echo.HeaderAccessControlExposeHeaders, XRequestID+", "+echo.HeaderContentDisposition)
			if c.Request().Method == http.MethodOptions {
				h.Set(echo.HeaderAccessControlAllowHeaders, "Content-Type, "+XRequestID)
				h.Set(echo.HeaderAccessControlAllowMethods, "OPTIONS, GET, POST, DELETE")
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
